package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/me/kernsim/internal/scenario"
	"github.com/me/kernsim/pkg/model"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage the server's run journal",
	}
	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsDeleteCmd(),
		newRunsSubmitCmd(),
	)
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var (
		discipline string
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if discipline != "" {
				q.Set("discipline", discipline)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			path := "/api/v1/runs/"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			var runs []model.Run
			if err := resp.decode(&runs); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"ID", "Scenario", "Discipline", "Events", "Final", "Age"})
			for _, r := range runs {
				table.Append([]string{
					r.ID,
					r.Name,
					r.Discipline.String(),
					strconv.Itoa(r.EventCount),
					pidLabel(r.FinalPID),
					humanize.Time(r.CreatedAt),
				})
			}
			if p := resp.Pagination; p != nil {
				table.SetFooter([]string{"", "", "", "", "total", strconv.Itoa(p.Total)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&discipline, "discipline", "", "Only show runs of this discipline")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of runs to skip")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a journaled run and its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs/" + url.PathEscape(args[0]))
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			var run model.Run
			if err := resp.decode(&run); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeRunHeader(out, &run)
			fmt.Fprintln(out)
			writeTrace(out, run.Trace)
			return nil
		},
	}
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a journaled run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Delete("/api/v1/runs/" + url.PathEscape(args[0])); err != nil {
				return fmt.Errorf("delete run: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s deleted.\n", args[0])
			return nil
		},
	}
}

// submitResponse mirrors the body of POST /runs.
type submitResponse struct {
	Run        *model.Run          `json:"run"`
	Mismatches []scenario.Mismatch `json:"mismatches"`
	Error      string              `json:"error"`
	Journaled  bool                `json:"journaled"`
}

func newRunsSubmitCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit <scenario.yaml>",
		Short: "Replay a scenario on the server and journal the run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			path := "/api/v1/runs/"
			if dryRun {
				path += "?dry_run=true"
			}
			resp, err := client.Post(path, sc)
			if err != nil {
				return fmt.Errorf("submit run: %w", err)
			}
			var sr submitResponse
			if err := resp.decode(&sr); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if sr.Journaled {
				fmt.Fprintf(out, "Run journaled: %s\n", sr.Run.ID)
			} else {
				fmt.Fprintln(out, "Dry run: not journaled.")
			}
			fmt.Fprintf(out, "  Scenario:   %s\n", sr.Run.Name)
			fmt.Fprintf(out, "  Discipline: %s\n", sr.Run.Discipline)
			fmt.Fprintf(out, "  Events:     %d\n", sr.Run.EventCount)
			fmt.Fprintf(out, "  Final PID:  %s\n", pidLabel(sr.Run.FinalPID))
			writeMismatches(out, sr.Mismatches)

			if sr.Error != "" {
				return fmt.Errorf("replay stopped: %s", sr.Error)
			}
			if len(sr.Mismatches) > 0 {
				return fmt.Errorf("%s: %d expectation(s) failed", sr.Run.Name, len(sr.Mismatches))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Replay without journaling")
	return cmd
}
