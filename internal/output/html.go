package output

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"agile-analytics/internal/report"
)

func buildThroughputChart(rep report.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: rep.Summary.Title, Width: "100%", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    rep.Summary.Title,
			Subtitle: fmt.Sprintf("%s to %s", formatDate(rep.Summary.StartDate), formatDate(rep.Summary.EndDate)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: rep.Summary.Period.BucketLabel()}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Completed"}),
	)

	buckets := rep.Buckets()
	labels := make([]string, len(buckets))
	data := make([]opts.BarData, len(buckets))
	for i, b := range buckets {
		labels[i] = formatDate(b.Start)
		data[i] = opts.BarData{Value: b.Completed}
	}

	bar.SetXAxis(labels).AddSeries("Completed", data)
	return bar
}

func writeHTML(w io.Writer, rep report.Report) error {
	return buildThroughputChart(rep).Render(w)
}
