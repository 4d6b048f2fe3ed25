package output

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"agile-analytics/internal/report"
)

func writeCSV(w io.Writer, rep report.Report) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.WriteAll(rep.Strings()); err != nil {
		return err
	}
	return csvWriter.Error()
}

type jsonReport struct {
	Summary report.Summary  `json:"summary"`
	Buckets []report.Bucket `json:"buckets"`
	Total   int             `json:"total"`
}

func writeJSON(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Summary: rep.Summary,
		Buckets: rep.Buckets(),
		Total:   rep.Total(),
	})
}
