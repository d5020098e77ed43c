package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error"`
}

// Pagination holds pagination metadata for list endpoints.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListOptions configures run listing with pagination and filtering.
type ListOptions struct {
	Limit      int
	Offset     int
	Discipline Discipline // optional filter
}

// DefaultListOptions returns sensible defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 20, Offset: 0}
}

// Clamp enforces limits (max 100, min 1).
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// NewPagination builds pagination metadata for a page of size n out of total.
func NewPagination(opts ListOptions, n, total int) *Pagination {
	return &Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+n < total,
	}
}
