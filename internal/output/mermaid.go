package output

import (
	"fmt"
	"math"
	"strings"

	"agile-analytics/internal/report"
)

// MermaidChart renders the report as a fenced Mermaid xychart-beta bar chart,
// suitable for Markdown and chat clients. It returns "" for an empty report.
func MermaidChart(rep report.Report) string {
	buckets := rep.Buckets()
	if len(buckets) == 0 {
		return ""
	}

	labels := make([]string, 0, len(buckets))
	values := make([]string, 0, len(buckets))
	maxVal := 0
	for _, b := range buckets {
		labels = append(labels, fmt.Sprintf("%q", formatDate(b.Start)))
		values = append(values, fmt.Sprintf("%d", b.Completed))
		maxVal = max(maxVal, b.Completed)
	}

	title := rep.Summary.Title
	if title == "" {
		title = "Throughput"
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	fmt.Fprintf(&sb, "    title %q\n", title)
	fmt.Fprintf(&sb, "    x-axis [%s]\n", strings.Join(labels, ", "))
	fmt.Fprintf(&sb, "    y-axis \"Completed\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2)))
	fmt.Fprintf(&sb, "    bar [%s]\n", strings.Join(values, ", "))
	sb.WriteString("```")
	return sb.String()
}
