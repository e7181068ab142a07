package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"privacyviz/redactor/pkg/cli"
	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/wallclock"
)

var queryFlags struct {
	email    string
	dataType string
	date     string
	from     string
	to       string
	output   string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read one member's visible records",
	Long: `Read the records of one member and data type for a local day, with the
member's current policy applied. Records the job has not deleted yet are
hidden the same way the job would delete them.

Examples:
  # Whole day
  redactor query --email alice@example.com --type wifi --date 2023-05-01

  # Evening only, as CSV
  redactor query --email alice@example.com --type battery --date 2023-05-01 \
    --from 18:00 --to 24:00 --output csv`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryFlags.email, "email", "", "member email (required)")
	queryCmd.Flags().StringVarP(&queryFlags.dataType, "type", "t", "", "data type, e.g. wifi or battery (required)")
	queryCmd.Flags().StringVar(&queryFlags.date, "date", "", "local day as YYYY-MM-DD (default: today)")
	queryCmd.Flags().StringVar(&queryFlags.from, "from", "00:00", "start of range within the day, HH:MM")
	queryCmd.Flags().StringVar(&queryFlags.to, "to", "24:00", "end of range within the day, HH:MM")
	queryCmd.Flags().StringVarP(&queryFlags.output, "output", "o", "text", "output format (text, json, csv)")

	queryCmd.MarkFlagRequired("email")
	queryCmd.MarkFlagRequired("type")
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(queryFlags.output)
	if err != nil {
		return err
	}
	if !redaction.IsDataType(queryFlags.dataType) {
		return cli.NewConfigError("type", fmt.Sprintf("unknown data type %q", queryFlags.dataType))
	}
	from, err := parseDayOffset(queryFlags.from)
	if err != nil {
		return cli.NewConfigError("from", err.Error())
	}
	to, err := parseDayOffset(queryFlags.to)
	if err != nil {
		return cli.NewConfigError("to", err.Error())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	offset := cfg.Redaction.TimezoneOffsetHours
	date := wallclock.DayAnchor(redaction.NowMillis(), offset)
	if queryFlags.date != "" {
		date, err = parseLocalDate(queryFlags.date, offset)
		if err != nil {
			return cli.NewConfigError("date", err.Error())
		}
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("query", err)
	}
	defer a.close()

	records, err := a.reader().Query(ctx, queryFlags.email, queryFlags.dataType, date, from, to)
	if err != nil {
		return cli.NewCommandError("query", err)
	}

	return cli.NewFormatter(format).FormatTo(os.Stdout, records)
}

// parseLocalDate returns local midnight of a YYYY-MM-DD day at the given
// offset, in epoch milliseconds.
func parseLocalDate(s string, offsetHours int) (int64, error) {
	loc := time.FixedZone("", offsetHours*3600)
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t.UnixMilli(), nil
}

// parseDayOffset converts "HH:MM" to milliseconds since midnight. "24:00"
// is accepted as the end of the day.
func parseDayOffset(s string) (int64, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return int64(h)*wallclock.HourMillis + int64(m)*60*1000, nil
}
