package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/kernsim/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking KERNSIM_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("KERNSIM_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the kernsim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kernsim",
		Short: "kernsim: simulated CPU scheduling kernel",
		Long: "kernsim replays scripted process workloads through a simulated single-CPU kernel\n" +
			"(FCFS, Priority, RR or Multilevel scheduling with semaphores and mutexes)\n" +
			"and manages the run journal kept by a kernsim server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "kernsim server URL (or KERNSIM_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newReplayCmd(),
		newCheckCmd(),
		newRunsCmd(),
	)

	return root
}
