// Package report turns an append-only snapshot history into delta and
// cumulative progress tables, reshaped into one row per participant, plus
// the efficiency formulas published next to them.
//
// Everything here is a pure function of its input: building the same
// snapshot set twice, in any record order, yields identical reports.
package report

import (
	"fmt"

	"bingo-tracker/internal/domain"
)

type Report struct {
	Config     CategoryConfig
	Layout     Layout
	Rows       []Row
	Records    []DeltaRecord
	Efficiency *FormulaSet
	Warnings   []error
}

// Build runs transform, reshape and formula generation for one report.
func Build(cfg CategoryConfig, roster []Participant, snapshots []domain.Snapshot) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, err := Transform(cfg, snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to transform %s snapshots: %w", cfg.Name, err)
	}

	wide, err := Reshape(cfg, roster, t)
	if err != nil {
		return nil, err
	}

	eff, err := GenerateEfficiency(cfg, wide.Layout, t.Metrics, len(wide.Rows))
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s efficiency formulas: %w", cfg.Name, err)
	}

	r := &Report{
		Config:     cfg,
		Layout:     wide.Layout,
		Rows:       wide.Rows,
		Records:    t.Records,
		Efficiency: eff,
	}
	if len(t.Records) == 0 {
		r.Warnings = append(r.Warnings, &EmptyInputWarning{Report: cfg.Name})
	}
	return r, nil
}

func (r *Report) Columns() []string {
	return r.Layout.Columns()
}

func (r *Report) Wide() *Wide {
	return &Wide{Layout: r.Layout, Rows: r.Rows}
}

// Values returns the header followed by every row, ready for a RAW write.
// Nil cells stay nil so the destination leaves them empty.
func (r *Report) Values() [][]any {
	out := make([][]any, 0, len(r.Rows)+1)
	header := make([]any, r.Layout.Len())
	for i, c := range r.Layout.columns {
		header[i] = c
	}
	out = append(out, header)
	for _, row := range r.Rows {
		out = append(out, row.Cells)
	}
	return out
}

// EfficiencyScores resolves the efficiency formulas with the given
// constants. It returns nil when the report has no efficiency formulas.
func (r *Report) EfficiencyScores(constants map[string]float64) ([]float64, error) {
	if r.Efficiency == nil {
		return nil, nil
	}
	return r.Efficiency.Evaluate(r.Wide(), constants)
}
