package report

import (
	"testing"

	"bingo-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoMetricConfig() CategoryConfig {
	return CategoryConfig{
		Name:        "test",
		Category:    domain.CategoryBoss,
		SheetTitle:  "Test Report",
		ValueFields: []string{domain.FieldKills},
		Fields:      []Field{Cumulative(domain.FieldKills)},
		Efficiency: &EfficiencyConfig{
			SourceField:       domain.FieldKills,
			TargetSheet:       EfficiencySheet,
			TargetColumn:      "C",
			FirstRow:          2,
			ConstantsColumn:   "L",
			ConstantsFirstRow: 3,
		},
	}
}

func TestGenerateEfficiency_Formulas(t *testing.T) {
	cfg := twoMetricConfig()
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A", "cumulative_kills_B"})

	set, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"=SUM(('Test Report'!C2/L3),('Test Report'!D2/L4))",
		"=SUM(('Test Report'!C3/L3),('Test Report'!D3/L4))",
	}, set.Formulas)
	assert.Equal(t, "'Efficiency'!C2:C3", set.Range())
	require.Len(t, set.Terms, 2)
	assert.Equal(t, Term{Metric: "B", Column: "cumulative_kills_B", ColumnLetter: "D", ConstantCell: "L4"}, set.Terms[1])
}

func TestGenerateEfficiency_Evaluates(t *testing.T) {
	cfg := twoMetricConfig()
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A", "cumulative_kills_B"})
	w := &Wide{Layout: layout, Rows: []Row{
		{ParticipantID: "p", Team: "red", Cells: []any{"p", "red", 100.0, 40.0}},
		{ParticipantID: "q", Team: "red", Cells: []any{"q", "red", 30.0, nil}},
	}}

	set, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, len(w.Rows))
	require.NoError(t, err)

	scores, err := set.Evaluate(w, map[string]float64{"A": 10, "B": 20})
	require.NoError(t, err)
	assert.InDelta(t, 12.0, scores[0], 1e-9)
	assert.InDelta(t, 3.0, scores[1], 1e-9)
	assert.Contains(t, set.Formulas[1], "'Test Report'!D3/L4")
}

func TestGenerateEfficiency_SkipsExcluded(t *testing.T) {
	cfg := twoMetricConfig()
	cfg.ExcludedFromEfficiency = []string{"A"}
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A", "cumulative_kills_B"})

	set, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"=SUM(('Test Report'!D2/L3))"}, set.Formulas)
}

func TestGenerateEfficiency_NoEligibleMetrics(t *testing.T) {
	cfg := twoMetricConfig()
	cfg.ExcludedFromEfficiency = []string{"A", "B"}
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A", "cumulative_kills_B"})

	set, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"=SUM(0)", "=SUM(0)"}, set.Formulas)

	scores, err := set.Evaluate(&Wide{Layout: layout, Rows: make([]Row, 2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestGenerateEfficiency_LayoutMismatch(t *testing.T) {
	cfg := twoMetricConfig()
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A"})

	_, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, 1)

	var mismatch *LayoutMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "cumulative_kills_B", mismatch.Column)
}

func TestGenerateEfficiency_NoConfig(t *testing.T) {
	set, err := GenerateEfficiency(Activities(), NewLayout(nil), nil, 3)
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestEvaluate_MissingConstant(t *testing.T) {
	cfg := twoMetricConfig()
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A", "cumulative_kills_B"})
	set, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, 0)
	require.NoError(t, err)

	_, err = set.Evaluate(&Wide{Layout: layout}, map[string]float64{"A": 1})
	assert.ErrorContains(t, err, `"B"`)
}

func TestFormulaSet_FormulaReadsSourceSheet(t *testing.T) {
	cfg := twoMetricConfig()
	layout := NewLayout([]string{"rsn", "team", "cumulative_kills_A", "cumulative_kills_B"})
	set, err := GenerateEfficiency(cfg, layout, []string{"A", "B"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Test Report", set.SourceSheet)
	assert.Equal(t, set.Formulas[0], set.Formula(0))

	set.SourceSheet = "Week 2's Report"
	assert.Equal(t, "=SUM(('Week 2''s Report'!C4/L3),('Week 2''s Report'!D4/L4))", set.Formula(2))
}
