package report

import (
	"fmt"
	"strings"
)

// Term is one eligible metric of an efficiency formula: the report column
// holding its cumulative value and the Efficiency sheet row holding its
// constant.
type Term struct {
	Metric       string
	Column       string
	ColumnLetter string
	ConstantCell string
}

// FormulaSet holds one efficiency formula per report row. The formulas
// reference cells instead of values so edits to the constants in the
// published sheet recalculate without a rerun.
type FormulaSet struct {
	SourceSheet  string
	TargetSheet  string
	TargetColumn string
	FirstRow     int
	Terms        []Term
	Formulas     []string
}

// Range is the A1 range the formulas are written to.
func (f *FormulaSet) Range() string {
	last := f.FirstRow + len(f.Formulas) - 1
	if len(f.Formulas) == 0 {
		last = f.FirstRow
	}
	return fmt.Sprintf("%s!%s%d:%s%d", QuoteSheet(f.TargetSheet), f.TargetColumn, f.FirstRow, f.TargetColumn, last)
}

// firstDataRow is the sheet row of the first report row; row 1 is the header.
const firstDataRow = 2

// GenerateEfficiency builds the per-row efficiency formulas against the
// given layout. metrics is the metric discovery order used by Reshape.
func GenerateEfficiency(cfg CategoryConfig, layout Layout, metrics []string, rows int) (*FormulaSet, error) {
	e := cfg.Efficiency
	if e == nil {
		return nil, nil
	}

	set := &FormulaSet{
		SourceSheet:  cfg.SheetTitle,
		TargetSheet:  e.TargetSheet,
		TargetColumn: e.TargetColumn,
		FirstRow:     e.FirstRow,
		Formulas:     make([]string, 0, rows),
	}

	source := Cumulative(e.SourceField)
	for _, metric := range metrics {
		if cfg.IsExcluded(metric) {
			continue
		}
		column := cfg.ColumnName(source, metric)
		letter, err := layout.Letter(column)
		if err != nil {
			return nil, err
		}
		set.Terms = append(set.Terms, Term{
			Metric:       metric,
			Column:       column,
			ColumnLetter: letter,
			ConstantCell: fmt.Sprintf("%s%d", e.ConstantsColumn, e.ConstantsFirstRow+len(set.Terms)),
		})
	}

	for i := 0; i < rows; i++ {
		set.Formulas = append(set.Formulas, set.Formula(i))
	}
	return set, nil
}

// Formula renders the efficiency formula of the i-th report row, reading
// each term from SourceSheet.
func (f *FormulaSet) Formula(i int) string {
	if len(f.Terms) == 0 {
		return "=SUM(0)"
	}
	sheet := QuoteSheet(f.SourceSheet)
	parts := make([]string, len(f.Terms))
	for j, t := range f.Terms {
		parts[j] = fmt.Sprintf("(%s!%s%d/%s)", sheet, t.ColumnLetter, firstDataRow+i, t.ConstantCell)
	}
	return "=SUM(" + strings.Join(parts, ",") + ")"
}

// Evaluate resolves the formulas numerically against the report rows and a
// metric -> constant table, treating nil cells as 0 the way the
// spreadsheet does.
func (f *FormulaSet) Evaluate(w *Wide, constants map[string]float64) ([]float64, error) {
	out := make([]float64, len(w.Rows))
	for _, t := range f.Terms {
		c, ok := constants[t.Metric]
		if !ok {
			return nil, fmt.Errorf("no efficiency constant for metric %q", t.Metric)
		}
		if c == 0 {
			return nil, fmt.Errorf("efficiency constant for metric %q is zero", t.Metric)
		}
		i, ok := w.Layout.Index(t.Column)
		if !ok {
			return nil, &LayoutMismatchError{Column: t.Column}
		}
		for r, row := range w.Rows {
			if v, ok := row.Cells[i].(float64); ok {
				out[r] += v / c
			}
		}
	}
	return out, nil
}
