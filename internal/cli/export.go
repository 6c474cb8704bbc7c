package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/five82/logview/internal/logfile"
	"github.com/five82/logview/internal/session"
)

var errNothingToExport = errors.New("nothing to export due to filter and levelname exclusion")

type exportFlags struct {
	output        string
	runs          []string
	latest        bool
	excludeCols   []string
	excludeLevels []string
}

func newExportCommand(v *viper.Viper) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the records of a log file to an xlsx workbook",
		Long: `Export writes the records of a log file to an xlsx workbook, newest first.

Column and level exclusions come from the settings file unless overridden
with --exclude-col or --exclude-level. Without --run or --latest every run
is exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, v, args[0], f)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "workbook to write (required)")
	flags.StringSliceVar(&f.runs, "run", nil, "run keys to export (repeatable)")
	flags.BoolVar(&f.latest, "latest", false, "export the most recent run")
	flags.StringSliceVar(&f.excludeCols, "exclude-col", nil, "columns to leave out (overrides settings)")
	flags.StringSliceVar(&f.excludeLevels, "exclude-level", nil, "levels to leave out (overrides settings)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runExport(cmd *cobra.Command, v *viper.Viper, path string, f exportFlags) error {
	log, store, closeEnv, err := openEnv(v)
	if err != nil {
		return err
	}
	defer closeEnv()

	opts := store.ExportOptions()
	if cmd.Flags().Changed("exclude-col") {
		opts.ColumnExcludes = f.excludeCols
	}
	if cmd.Flags().Changed("exclude-level") {
		for _, level := range f.excludeLevels {
			if !logfile.IsLevel(level) {
				return fmt.Errorf("unknown level %q, want one of %v", level, logfile.Levels)
			}
		}
		opts.LevelExcludes = f.excludeLevels
	}

	sess := session.New(log)
	if err := sess.LoadLog(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	keys, err := selectRuns(sess.Runs(), f.runs, f.latest)
	if err != nil {
		return err
	}
	if keys != nil {
		if err := sess.FilterByRuns(keys); err != nil {
			return err
		}
	}

	written, err := sess.ExportLog(f.output, opts)
	if err != nil {
		return err
	}
	if !written {
		return errNothingToExport
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported file: '%s'\n", f.output)
	return err
}

// selectRuns resolves --run and --latest to run keys. It returns nil when
// neither was given, meaning every run stays selected.
func selectRuns(runs []logfile.Run, requested []string, latest bool) ([]string, error) {
	if len(requested) == 0 && !latest {
		return nil, nil
	}
	known := make([]string, len(runs))
	for i, r := range runs {
		known[i] = r.Key
	}

	keys := []string{}
	for _, key := range requested {
		if !slices.Contains(known, key) {
			return nil, fmt.Errorf("unknown run %q", key)
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	if latest && len(runs) > 0 && !slices.Contains(keys, runs[0].Key) {
		keys = append(keys, runs[0].Key)
	}
	return keys, nil
}
