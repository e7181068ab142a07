package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/retention"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// Formatter writes command results.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", NewConfigError("output", fmt.Sprintf("unknown format %q (want text, json or csv)", s))
	}
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter renders reports and event records as aligned tables.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *retention.Report:
		return writeReport(w, v)
	case []*redaction.EventRecord:
		return writeRecords(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

func writeReport(w io.Writer, r *retention.Report) error {
	verb := "deleted"
	if r.DryRun {
		verb = "would delete"
	}
	fmt.Fprintf(w, "run %s: %d users, %d pairs, %s %d records in %s\n",
		r.RunID, r.Users, r.Pairs, verb, r.TotalDeleted, r.Duration().Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := false
	for _, d := range r.Deletions {
		if d.Deleted == 0 {
			continue
		}
		if !header {
			fmt.Fprintln(tw, "\nEMAIL\tDATA TYPE\tMODE\tFROM\tTO\tRECORDS")
			header = true
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			d.Email, d.DataType, d.Mode, isoTime(d.Interval.StartTS), isoTime(d.Interval.EndTS), d.Deleted)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintln(tw, "\nEMAIL\tDATA TYPE\tERROR")
		for _, fl := range r.Failures {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", fl.Email, fl.DataType, fl.Error)
		}
	}
	return tw.Flush()
}

func writeRecords(w io.Writer, records []*redaction.EventRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tDATUM TYPE\tEMAIL\tID")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", isoTime(r.Timestamp), r.DatumType, r.Subject.Email, r.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d records\n", len(records))
	return err
}

func isoTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats event records and report deletions as CSV.
type CSVFormatter struct{}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	csvWriter := csv.NewWriter(w)

	switch v := data.(type) {
	case []*redaction.EventRecord:
		csvWriter.Write([]string{"id", "email", "datum_type", "timestamp"})
		for _, r := range v {
			csvWriter.Write([]string{r.ID, r.Subject.Email, r.DatumType, strconv.FormatInt(r.Timestamp, 10)})
		}
	case *retention.Report:
		csvWriter.Write([]string{"email", "data_type", "mode", "start_ts", "end_ts", "deleted"})
		for _, d := range v.Deletions {
			csvWriter.Write([]string{
				d.Email,
				d.DataType,
				string(d.Mode),
				strconv.FormatInt(d.Interval.StartTS, 10),
				strconv.FormatInt(d.Interval.EndTS, 10),
				strconv.FormatInt(d.Deleted, 10),
			})
		}
	default:
		return fmt.Errorf("CSV output not supported for %T", data)
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
