package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/me/kernsim/internal/scenario"
	"github.com/me/kernsim/pkg/model"
)

func pidLabel(pid model.PID) string {
	if pid == model.IdlePID {
		return "idle"
	}
	return strconv.Itoa(int(pid))
}

// writeTrace renders one row per applied event.
func writeTrace(w io.Writer, trace []model.TraceEntry) {
	rows := make([][]string, 0, len(trace))
	for _, e := range trace {
		rows = append(rows, []string{
			strconv.Itoa(e.Seq),
			strconv.Itoa(e.Time),
			e.Event.String(),
			pidLabel(e.Running),
			e.Error,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Seq", "Time", "Event", "Running", "Error"})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func writeMismatches(w io.Writer, mismatches []scenario.Mismatch) {
	for _, m := range mismatches {
		fmt.Fprintf(w, "MISMATCH %s\n", m)
	}
}

func writeRunHeader(w io.Writer, run *model.Run) {
	fmt.Fprintf(w, "Run:        %s\n", run.ID)
	fmt.Fprintf(w, "  Scenario:   %s\n", run.Name)
	if run.Description != "" {
		fmt.Fprintf(w, "  About:      %s\n", run.Description)
	}
	fmt.Fprintf(w, "  Discipline: %s\n", run.Discipline)
	fmt.Fprintf(w, "  Events:     %d\n", run.EventCount)
	fmt.Fprintf(w, "  Final PID:  %s\n", pidLabel(run.FinalPID))
	fmt.Fprintf(w, "  Clock:      %d\n", run.Clock)
	if !run.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created:    %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
