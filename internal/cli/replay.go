package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/me/kernsim/internal/scenario"
	"github.com/me/kernsim/internal/store"
	"github.com/me/kernsim/pkg/model"
)

func newReplayCmd() *cobra.Command {
	var (
		dbPath  string
		asJSON  bool
		noTrace bool
	)

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario locally and print its trace",
		Long: "Replay runs the scenario on an in-process kernel. With --db the result is\n" +
			"also written to a local SQLite run journal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			logger.Debug("scenario loaded", "name", sc.Name, "discipline", sc.Discipline, "events", sc.EventCount())

			res, replayErr := scenario.Replay(sc, logger.With("scenario", sc.Name))
			if res == nil {
				return replayErr
			}

			run := res.Run()
			run.ID = "run_" + uuid.New().String()
			run.CreatedAt = time.Now().UTC()

			if dbPath != "" {
				if err := journal(cmd.Context(), dbPath, run); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			} else {
				if !noTrace {
					writeTrace(out, res.Trace)
				}
				writeMismatches(out, res.Mismatches)
				fmt.Fprintf(out, "%s [%s]: %d events, final pid %s, clock %d\n",
					sc.Name, res.Discipline, len(res.Trace), pidLabel(res.Final.Running), res.Final.Clock)
				if dbPath != "" {
					fmt.Fprintf(out, "Journaled: %s\n", run.ID)
				}
			}

			if replayErr != nil {
				return replayErr
			}
			if !res.OK() {
				return fmt.Errorf("%s: %d expectation(s) failed", sc.Name, len(res.Mismatches))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Write the run to this SQLite journal")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&noTrace, "quiet", false, "Print only the summary line")
	return cmd
}

// journal stores run in the SQLite database at path, creating it if needed.
func journal(ctx context.Context, path string, run *model.Run) error {
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("journal run: %w", err)
	}
	logger.Info("run journaled", "id", run.ID, "db", path)
	return nil
}
