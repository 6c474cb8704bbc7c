// Package cli defines the logview command line: the TUI entry point and the
// headless runs and export subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/five82/logview/internal/app"
	"github.com/five82/logview/internal/logger"
	"github.com/five82/logview/internal/settings"
)

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logview: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the logview command tree. Every persistent flag can
// also be set through a LOGVIEW_* environment variable, for example
// LOGVIEW_SETTINGS or LOGVIEW_LOG_FILE.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("logview")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "logview [file]",
		Short: "Browse JSON-lines log files run by run",
		Long: `logview loads a JSON-lines log file, groups its records into runs by
process, and lets you filter, inspect and export them.

Examples:
  logview app.json
  logview runs app.json
  logview export app.json -o app.xlsx --latest`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Options{
				SettingsPath: v.GetString("settings"),
				LogPath:      v.GetString("log-file"),
				Debug:        v.GetBool("debug"),
				PollEvery:    v.GetInt("poll"),
			}
			if len(args) == 1 {
				opts.OpenPath = args[0]
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.String("settings", "", "settings file (default "+settings.DefaultPath()+")")
	flags.String("log-file", "", "diagnostic log file (default "+logger.DefaultPath()+")")
	flags.Bool("debug", false, "write debug records to the diagnostic log")
	root.Flags().Int("poll", 0, "seconds between checks of the open file (default 2)")
	_ = v.BindPFlags(flags)
	_ = v.BindPFlag("poll", root.Flags().Lookup("poll"))

	root.AddCommand(newRunsCommand(v), newExportCommand(v))
	return root
}

// openLogger opens the diagnostic logger configured by v.
func openLogger(v *viper.Viper) (*zap.Logger, func(), error) {
	log, closeLog, err := logger.New(logger.Options{Path: v.GetString("log-file"), Debug: v.GetBool("debug")})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return log, closeLog, nil
}

// openEnv opens the logger and settings a headless subcommand needs.
func openEnv(v *viper.Viper) (*zap.Logger, *settings.Store, func(), error) {
	log, closeLog, err := openLogger(v)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := settings.Load(v.GetString("settings"), log)
	if err != nil {
		closeLog()
		return nil, nil, nil, fmt.Errorf("load settings: %w", err)
	}
	return log, store, closeLog, nil
}
