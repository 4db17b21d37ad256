// Package export renders reports outside the spreadsheet: a console table
// for previews and dry runs, and Parquet files of the delta records.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"bingo-tracker/internal/report"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
)

const efficiencyColumn = "efficiency"

// ConsolePublisher prints each report as a table instead of publishing it.
type ConsolePublisher struct {
	out       io.Writer
	constants report.Constants
	logger    zerolog.Logger
}

func NewConsolePublisher(out io.Writer, consts report.Constants, logger zerolog.Logger) *ConsolePublisher {
	return &ConsolePublisher{out: out, constants: consts, logger: logger}
}

func (p *ConsolePublisher) Publish(_ context.Context, r *report.Report) error {
	scores, err := r.EfficiencyScores(p.constants.For(r.Config.Name))
	if err != nil {
		p.logger.Warn().Err(err).Str("report", r.Config.Name).Msg("efficiency not resolved")
		scores = nil
	}
	return RenderTable(p.out, r, scores)
}

// RenderTable writes the report's wide table. When scores is non-nil an
// efficiency column holding the resolved formulas is appended.
func RenderTable(w io.Writer, r *report.Report, scores []float64) error {
	if _, err := fmt.Fprintf(w, "%s (%d participants)\n", r.Config.SheetTitle, len(r.Rows)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)

	headers := r.Columns()
	if scores != nil {
		headers = append(headers, efficiencyColumn)
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, row := range r.Rows {
		line := make([]string, 0, len(headers))
		for _, cell := range row.Cells {
			line = append(line, formatCell(cell))
		}
		if scores != nil {
			line = append(line, formatFloat(scores[i]))
		}
		data = append(data, line)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, warning := range r.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %v\n", warning); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(c)
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
