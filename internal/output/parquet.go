package output

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"agile-analytics/internal/report"
)

// ThroughputRow is one bucket of a report as stored in Parquet.
type ThroughputRow struct {
	Title     string    `parquet:"title,snappy"`
	Period    string    `parquet:"period,snappy"`
	WeekStart time.Time `parquet:"week_start,snappy"`
	Completed int32     `parquet:"completed,snappy"`
}

func parquetRows(rep report.Report) []ThroughputRow {
	buckets := rep.Buckets()
	rows := make([]ThroughputRow, len(buckets))
	for i, b := range buckets {
		rows[i] = ThroughputRow{
			Title:     rep.Summary.Title,
			Period:    rep.Summary.Period.String(),
			WeekStart: b.Start,
			Completed: int32(b.Completed),
		}
	}
	return rows
}

func writeParquet(w io.Writer, rep report.Report) error {
	writer := parquet.NewGenericWriter[ThroughputRow](w)
	if _, err := writer.Write(parquetRows(rep)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return writer.Close()
}
