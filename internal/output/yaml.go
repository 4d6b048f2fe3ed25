package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"agile-analytics/internal/report"
)

type yamlReport struct {
	Title     string       `yaml:"title"`
	Period    string       `yaml:"period"`
	StartDate string       `yaml:"start_date"`
	EndDate   string       `yaml:"end_date"`
	Buckets   []yamlBucket `yaml:"buckets"`
	Total     int          `yaml:"total"`
}

type yamlBucket struct {
	Start     string `yaml:"start"`
	Completed int    `yaml:"completed"`
}

func writeYAML(w io.Writer, rep report.Report) error {
	out := yamlReport{
		Title:     rep.Summary.Title,
		Period:    rep.Summary.Period.String(),
		StartDate: formatDate(rep.Summary.StartDate),
		EndDate:   formatDate(rep.Summary.EndDate),
		Total:     rep.Total(),
	}
	for _, b := range rep.Buckets() {
		out.Buckets = append(out.Buckets, yamlBucket{Start: formatDate(b.Start), Completed: b.Completed})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
