// Package cli implements the taskflow command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskflow/internal/config"
	"taskflow/internal/logging"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
	logOut  io.Writer
}

// NewRootCmd builds the command tree. Log records go to logOut.
func NewRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{v: config.New(), logOut: logOut}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - task tracking for creative agencies",
		Long: `TaskFlow tracks client deliverables for a small agency team: it assigns
tasks by workload, derives internal buffer deadlines, records punch-in and
per-task timers, and scores members on delivery performance.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default taskflow.yaml in . or $HOME/.taskflow)")
	flags.String("addr", "", "HTTP listen address")
	flags.String("db", "", "path to the sqlite database file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("http.addr", flags.Lookup("addr"))
	_ = a.v.BindPFlag("db.path", flags.Lookup("db"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newPerformanceCmd(a),
		newAttendanceCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskflow %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(a.logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(os.Stderr).Execute()
}
