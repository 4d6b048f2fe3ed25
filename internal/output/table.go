package output

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"agile-analytics/internal/report"
)

func writeTable(w io.Writer, rep report.Report) error {
	title := color.New(color.Bold).Sprint(rep.Summary.Title)
	if _, err := fmt.Fprintf(w, "%s (%s, %s to %s)\n", title, rep.Summary.Period,
		formatDate(rep.Summary.StartDate), formatDate(rep.Summary.EndDate)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header(rep.Header())
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	rows := rep.Strings()
	if len(rows) > 0 {
		rows = rows[1:]
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s completed across %d buckets\n", humanize.Comma(int64(rep.Total())), len(rows))
	return err
}
