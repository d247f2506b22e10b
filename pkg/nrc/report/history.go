package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nappgui/nrc/pkg/nrc/state"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"gopkg.in/yaml.v3"
)

// WriteHistory renders compile records as "plain", "json" or "yaml".
func WriteHistory(w io.Writer, recs []state.Record, format string) error {
	if recs == nil {
		recs = []state.Record{}
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(recs)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(recs); err != nil {
			return err
		}
		return encoder.Close()
	case "", "plain":
		return writeHistoryTable(w, recs, time.Now())
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeHistoryTable(w io.Writer, recs []state.Record, now time.Time) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No compile history.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMODE\tRESULT\tRESOURCES\tSIZE\tTIME\tOUTPUT")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			humanize.RelTime(r.Time, now, "ago", "from now"),
			r.Mode,
			types.ExitCode(r.ExitCode),
			r.Entries,
			types.FormatSize(r.Bytes),
			formatElapsed(r.Elapsed),
			r.Dest)
	}
	return tw.Flush()
}

// formatElapsed rounds a duration for display.
func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}
