package export

import (
	"fmt"
	"os"
	"time"

	"bingo-tracker/internal/report"

	"github.com/parquet-go/parquet-go"
)

// DeltaRow is one value field of one delta record, flattened for columnar
// analysis.
type DeltaRow struct {
	Report      string    `parquet:"report,snappy"`
	Participant string    `parquet:"participant,snappy"`
	Team        string    `parquet:"team,snappy"`
	Metric      string    `parquet:"metric,snappy"`
	Index       int32     `parquet:"index,snappy"`
	CapturedAt  time.Time `parquet:"captured_at,snappy"`
	Field       string    `parquet:"field,snappy"`
	Raw         float64   `parquet:"raw,snappy"`
	Delta       float64   `parquet:"delta,snappy"`
	Cumulative  float64   `parquet:"cumulative,snappy"`
	Rank        *int64    `parquet:"rank,optional,snappy"`
	FetchRunID  *string   `parquet:"fetch_run_id,optional,snappy"`
}

// DeltaRows flattens the report's records in their global order, with
// value fields in configuration order.
func DeltaRows(r *report.Report) []DeltaRow {
	rows := make([]DeltaRow, 0, len(r.Records)*len(r.Config.ValueFields))
	for _, rec := range r.Records {
		s := rec.Snapshot
		var runID *string
		if s.FetchRunID != "" {
			id := s.FetchRunID
			runID = &id
		}
		for _, field := range r.Config.ValueFields {
			rows = append(rows, DeltaRow{
				Report:      r.Config.Name,
				Participant: s.RSN,
				Team:        s.Team,
				Metric:      s.Metric,
				Index:       int32(rec.Index),
				CapturedAt:  s.CapturedAt.UTC(),
				Field:       field,
				Raw:         rec.Raw[field],
				Delta:       rec.Delta[field],
				Cumulative:  rec.Cumulative[field],
				Rank:        s.Rank,
				FetchRunID:  runID,
			})
		}
	}
	return rows
}

// WriteDeltas writes the report's delta records to a Parquet file and
// returns the number of rows written.
func WriteDeltas(r *report.Report, outputPath string) (int, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[DeltaRow](file)

	n, err := writer.Write(DeltaRows(r))
	if err != nil {
		_ = writer.Close()
		return 0, fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return n, nil
}
