package report

import (
	"fmt"
	"strings"

	"bingo-tracker/internal/domain"
)

type FieldKind int

const (
	FieldRaw FieldKind = iota
	FieldDelta
	FieldCumulative
	FieldCapturedAt
)

// Field is one published value column of a metric group.
type Field struct {
	Name   string
	Source string
	Kind   FieldKind
}

func Raw(source string) Field {
	return Field{Name: source, Source: source, Kind: FieldRaw}
}

func Delta(source string) Field {
	return Field{Name: "delta_" + source, Source: source, Kind: FieldDelta}
}

func Cumulative(source string) Field {
	return Field{Name: "cumulative_" + source, Source: source, Kind: FieldCumulative}
}

var LastCapturedAt = Field{Name: "last_captured_at", Kind: FieldCapturedAt}

// Progress expands a value field into its raw, delta and cumulative columns.
func Progress(source string) []Field {
	return []Field{Raw(source), Delta(source), Cumulative(source)}
}

// EfficiencyConfig places the efficiency formulas and the externally
// maintained constants they divide by.
type EfficiencyConfig struct {
	SourceField       string
	TargetSheet       string
	TargetColumn      string
	FirstRow          int
	ConstantsColumn   string
	ConstantsFirstRow int
}

// CategoryConfig parametrizes the transformer, reshaper and formula
// generator for one report.
type CategoryConfig struct {
	Name                   string
	Category               domain.Category
	SheetTitle             string
	ValueFields            []string
	Fields                 []Field
	ExcludedFromEfficiency []string
	Efficiency             *EfficiencyConfig

	// MetricFilter restricts the report to these metrics (case-insensitive).
	MetricFilter []string

	// Unsuffixed names columns {field} instead of {field}_{metric}; only
	// valid for single-metric categories.
	Unsuffixed bool
}

func (c CategoryConfig) ColumnName(f Field, metric string) string {
	if c.Unsuffixed {
		return f.Name
	}
	return f.Name + "_" + metric
}

func (c CategoryConfig) Includes(metric string) bool {
	if len(c.MetricFilter) == 0 {
		return true
	}
	for _, m := range c.MetricFilter {
		if strings.EqualFold(m, metric) {
			return true
		}
	}
	return false
}

func (c CategoryConfig) IsExcluded(metric string) bool {
	for _, m := range c.ExcludedFromEfficiency {
		if m == metric {
			return true
		}
	}
	return false
}

func (c CategoryConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("category config: name is required")
	}
	if c.SheetTitle == "" {
		return fmt.Errorf("category config %s: sheet title is required", c.Name)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("category config %s: at least one field is required", c.Name)
	}
	known := make(map[string]bool, len(c.ValueFields))
	for _, v := range c.ValueFields {
		known[v] = true
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if seen[f.Name] {
			return fmt.Errorf("category config %s: duplicate field %q", c.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Kind != FieldCapturedAt && !known[f.Source] {
			return fmt.Errorf("category config %s: field %q reads unknown value %q", c.Name, f.Name, f.Source)
		}
	}
	if e := c.Efficiency; e != nil {
		if !known[e.SourceField] {
			return fmt.Errorf("category config %s: efficiency source %q is not a value field", c.Name, e.SourceField)
		}
		if e.TargetSheet == "" || e.TargetColumn == "" || e.ConstantsColumn == "" {
			return fmt.Errorf("category config %s: efficiency placement is incomplete", c.Name)
		}
		if e.FirstRow < 1 || e.ConstantsFirstRow < 1 {
			return fmt.Errorf("category config %s: efficiency rows are 1-based", c.Name)
		}
	}
	return nil
}

const EfficiencySheet = "Efficiency"

func Skilling() CategoryConfig {
	return CategoryConfig{
		Name:        "skilling",
		Category:    domain.CategorySkill,
		SheetTitle:  "Skilling Report",
		ValueFields: []string{domain.FieldExp, domain.FieldEHP},
		Fields: append(append(Progress(domain.FieldExp), Progress(domain.FieldEHP)...),
			LastCapturedAt),
		ExcludedFromEfficiency: []string{"Overall", "Hitpoints", "Magic"},
		Efficiency: &EfficiencyConfig{
			SourceField:       domain.FieldExp,
			TargetSheet:       EfficiencySheet,
			TargetColumn:      "D",
			FirstRow:          2,
			ConstantsColumn:   "O",
			ConstantsFirstRow: 3,
		},
	}
}

func Bossing() CategoryConfig {
	return CategoryConfig{
		Name:        "bossing",
		Category:    domain.CategoryBoss,
		SheetTitle:  "Bossing Report",
		ValueFields: []string{domain.FieldKills, domain.FieldEHB},
		Fields: append(append(Progress(domain.FieldKills), Progress(domain.FieldEHB)...),
			LastCapturedAt),
		ExcludedFromEfficiency: []string{"Tempoross", "Wintertodt", "Zalcano", "Guardians Of The Rift"},
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

func Clues() CategoryConfig {
	return CategoryConfig{
		Name:                   "clues",
		Category:               domain.CategoryClue,
		SheetTitle:             "Clues Report",
		ValueFields:            []string{domain.FieldClueCompletions},
		Fields:                 append(Progress(domain.FieldClueCompletions), LastCapturedAt),
		ExcludedFromEfficiency: []string{"Clue Scrolls All", "Clue Scrolls Beginner"},
		Efficiency: &EfficiencyConfig{
			SourceField:       domain.FieldClueCompletions,
			TargetSheet:       EfficiencySheet,
			TargetColumn:      "E",
			FirstRow:          2,
			ConstantsColumn:   "I",
			ConstantsFirstRow: 4,
		},
	}
}

func Activities() CategoryConfig {
	return CategoryConfig{
		Name:        "activities",
		Category:    domain.CategoryActivity,
		SheetTitle:  "Activities Report",
		ValueFields: []string{domain.FieldScore},
		Fields:      append(Progress(domain.FieldScore), LastCapturedAt),
	}
}

func BasicStats() CategoryConfig {
	return CategoryConfig{
		Name:        "stats",
		Category:    domain.CategoryStats,
		SheetTitle:  "Basic Stats Report",
		ValueFields: []string{domain.FieldEHB, domain.FieldEHP},
		Fields: append(append(Progress(domain.FieldEHB), Progress(domain.FieldEHP)...),
			LastCapturedAt),
		Unsuffixed: true,
	}
}

func BingoSkills() CategoryConfig {
	return CategoryConfig{
		Name:         "bingo-skills",
		Category:     domain.CategorySkill,
		SheetTitle:   "Bingo Skills EXP",
		ValueFields:  []string{domain.FieldExp},
		Fields:       []Field{Cumulative(domain.FieldExp), LastCapturedAt},
		MetricFilter: []string{"firemaking", "agility", "mining", "slayer"},
	}
}

// Reports lists every published report in publishing order.
func Reports() []CategoryConfig {
	return []CategoryConfig{Bossing(), Skilling(), Clues(), Activities(), BasicStats(), BingoSkills()}
}

func ReportByName(name string) (CategoryConfig, error) {
	for _, c := range Reports() {
		if c.Name == name {
			return c, nil
		}
	}
	return CategoryConfig{}, fmt.Errorf("unknown report %q", name)
}
