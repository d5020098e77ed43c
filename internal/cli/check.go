package cli

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/me/kernsim/internal/scenario"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario.yaml>...",
		Short: "Replay scenarios and verify their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			failed := 0

			for _, path := range args {
				sc, err := scenario.Load(path)
				if err != nil {
					failed++
					rows = append(rows, []string{path, "-", "-", "-", "ERROR: " + err.Error()})
					continue
				}

				res, replayErr := scenario.Replay(sc, logger.With("scenario", sc.Name))
				if res == nil {
					failed++
					rows = append(rows, []string{sc.Name, sc.Discipline.String(), "-", "-", "ERROR: " + replayErr.Error()})
					continue
				}

				result := "ok"
				switch {
				case replayErr != nil:
					failed++
					result = "ERROR: " + replayErr.Error()
				case !res.OK():
					failed++
					result = fmt.Sprintf("FAIL (%d mismatches)", len(res.Mismatches))
				}
				rows = append(rows, []string{
					sc.Name,
					res.Discipline.String(),
					strconv.Itoa(len(res.Trace)),
					pidLabel(res.Final.Running),
					result,
				})
				logger.Debug("scenario checked", "name", sc.Name, "ok", res.OK())
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Scenario", "Discipline", "Events", "Final", "Result"})
			table.SetAutoWrapText(false)
			table.AppendBulk(rows)
			table.Render()

			if failed > 0 {
				return fmt.Errorf("%d of %d scenario(s) failed", failed, len(args))
			}
			return nil
		},
	}
}
