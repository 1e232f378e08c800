package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"devicetracker/models"
	"devicetracker/utils"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyUTC   bool
)

// historyCmd prints stored reports straight from the history store.
var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h"},
	Short:   "List stored reports, newest first",
	Long:    `Connects to the configured history store and prints every stored report, newest first.`,
	RunE:    runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum rows to print (0 = all)")
	historyCmd.Flags().BoolVar(&historyUTC, "utc", false, "print report times in UTC instead of local time")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.LogLevel = "warn"
	if err := setupLogger(cfg, false); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout(cfg))
	defer cancel()

	history := openHistory(ctx, cfg)
	defer history.Close()

	rows, err := history.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports found.")
		return nil
	}
	if historyLimit > 0 && len(rows) > historyLimit {
		rows = rows[:historyLimit]
	}
	loc := time.Local
	if historyUTC {
		loc = time.UTC
	}
	return printHistory(cmd.OutOrStdout(), rows, loc)
}

func printHistory(out io.Writer, rows []models.HistoryRow, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tDEVICE\tLABEL\tPUBLIC IP\tLAT\tLON\tREPORTED AT")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ID,
			row.DeviceID,
			deref(row.Label),
			deref(row.PublicIP),
			formatCoord(row.ClientLat),
			formatCoord(row.ClientLon),
			formatReportedAt(row.ReportedAt, loc),
		)
	}
	return w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatCoord(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', 6, 64)
}

// formatReportedAt renders a stored timestamp in loc. Values that do not
// parse are printed as stored.
func formatReportedAt(value string, loc *time.Location) string {
	ts, err := utils.ParseTimestamp(value)
	if err != nil {
		if value == "" {
			return "-"
		}
		return value
	}
	return ts.In(loc).Format("2006-01-02 15:04:05.000 MST")
}
