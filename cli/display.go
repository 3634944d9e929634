package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/gear6io/oraport/pipeline/orchestrator"
	"github.com/pterm/pterm"
)

// renderTable writes rows under header as a boxed table
func renderTable(w io.Writer, header []string, rows [][]string) error {
	data := append(pterm.TableData{header}, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// renderReport prints the per-table outcomes followed by a summary line
func renderReport(w io.Writer, report *orchestrator.Report) error {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		status := pterm.Green(string(o.Status))
		detail := o.Target
		if !o.OK() {
			status = pterm.Red(string(o.Status))
			detail = fmt.Sprintf("[%s] %s", o.Code, o.Error)
		}
		rows = append(rows, []string{
			o.Table,
			status,
			fmt.Sprintf("%d", o.Rows),
			o.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}

	if err := renderTable(w, []string{"Table", "Status", "Rows", "Duration", "Detail"}, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Run %s: %d ok, %d failed, %d rows in %s with %d workers\n",
		report.RunID,
		len(report.Succeeded()),
		len(report.Failed()),
		report.TotalRows(),
		report.Duration.Round(time.Millisecond),
		report.Workers)
	return err
}
