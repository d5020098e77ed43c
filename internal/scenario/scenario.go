// Package scenario loads scripted event sequences and replays them against a kernel.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/me/kernsim/pkg/model"
)

// MaxEvents bounds the number of kernel events a scenario may expand to.
const MaxEvents = 100000

// Step is one scripted event. Repeat expands it into that many identical
// events; Expect, when set, is the PID that must be running after the last one.
type Step struct {
	model.Event `yaml:",inline"`
	Repeat      int        `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	Expect      *model.PID `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// Times returns how many events the step expands to.
func (s Step) Times() int {
	if s.Repeat < 1 {
		return 1
	}
	return s.Repeat
}

// Scenario is a named event script for one discipline.
type Scenario struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Discipline  model.Discipline `json:"discipline" yaml:"discipline"`
	Events      []Step           `json:"events" yaml:"events"`
}

// EventCount returns the number of kernel events after repeat expansion.
func (s *Scenario) EventCount() int {
	n := 0
	for _, st := range s.Events {
		n += st.Times()
	}
	return n
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario from YAML (JSON is accepted too) and validates it.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate normalizes the discipline and checks every step.
func (s *Scenario) Validate() error {
	d, err := model.ParseDiscipline(string(s.Discipline))
	if err != nil {
		return err
	}
	s.Discipline = d

	total := 0
	for i := range s.Events {
		st := &s.Events[i]
		if st.Repeat < 0 {
			return fmt.Errorf("event %d: repeat must not be negative", i)
		}
		if st.Repeat > MaxEvents {
			return fmt.Errorf("event %d: repeat %d exceeds the limit of %d events", i, st.Repeat, MaxEvents)
		}
		total += st.Times()
		if total > MaxEvents {
			return fmt.Errorf("event %d: scenario expands to more than %d events", i, MaxEvents)
		}
		if st.Class != "" {
			c, err := model.ParseClass(string(st.Class))
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			st.Class = c
		}
		if err := st.Event.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}
