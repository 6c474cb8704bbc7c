package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/five82/logview/internal/logfile"
)

func newRunsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "runs <file>",
		Short: "Print the runs found in a log file, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := openLogger(v)
			if err != nil {
				return err
			}
			defer closeLog()

			rs, err := logfile.Load(args[0])
			if err != nil {
				log.Error("load log failed", zap.String("path", args[0]), zap.Error(err))
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			runs := rs.Runs()
			log.Info("listed runs", zap.String("path", args[0]), zap.Int("runs", len(runs)))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return err
		},
	}
}

func renderRuns(runs []logfile.Run) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "LATEST", "RECORDS", "").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, r := range runs {
		mark := ""
		if r.MostRecent {
			mark = "latest"
		}
		t.Row(r.Key, r.Latest, strconv.Itoa(r.Records), mark)
	}
	return t.String()
}
