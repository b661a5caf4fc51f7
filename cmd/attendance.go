package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/kozaktomas/attendance-cam/internal/gallery"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect the attendance log",
}

var attendanceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the attendance of one day",
	Example: `  attendance-cam attendance show
  attendance-cam attendance show --date 2024-03-10 --json`,
	RunE: runAttendanceShow,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceShowCmd)

	attendanceShowCmd.Flags().String("date", "", "Day to show (YYYY-MM-DD, defaults to today)")
	attendanceShowCmd.Flags().Bool("json", false, "Output as JSON")
}

type attendanceShowResult struct {
	Date    string                      `json:"date"`
	Records []database.AttendanceRecord `json:"records"`
}

func runAttendanceShow(cmd *cobra.Command, args []string) error {
	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().Format(database.DateLayout)
	}
	if !database.ValidDate(date) {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	jsonOutput := mustGetBool(cmd, "json")
	var out io.Writer = os.Stdout
	if jsonOutput {
		out = io.Discard
	}

	b, err := openBackends(ctx, cfg, out, true, false)
	if err != nil {
		return err
	}
	defer b.Close()

	records, err := b.attendance.Records(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to read attendance: %w", err)
	}

	if jsonOutput {
		if records == nil {
			records = []database.AttendanceRecord{}
		}
		return outputJSON(attendanceShowResult{Date: date, Records: records})
	}

	if len(records) == 0 {
		fmt.Printf("No attendance recorded on %s.\n", date)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTIME\tACCURACY")
	fmt.Fprintln(w, "----\t----\t--------")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\n", gallery.DisplayName(r.Identity), r.Time, r.Confidence)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d on %s\n", len(records), date)
	return nil
}
