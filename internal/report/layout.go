package report

import (
	"slices"
	"strings"
)

// Layout is the finalized column order of a wide report. Column i is
// published in spreadsheet column ColumnLetter(i+1).
type Layout struct {
	columns []string
	index   map[string]int
}

func NewLayout(columns []string) Layout {
	l := Layout{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range l.columns {
		l.index[c] = i
	}
	return l
}

func (l Layout) Columns() []string {
	return slices.Clone(l.columns)
}

func (l Layout) Len() int {
	return len(l.columns)
}

// Index returns the 0-based position of column.
func (l Layout) Index(column string) (int, bool) {
	i, ok := l.index[column]
	return i, ok
}

// Letter returns the A1 column letter the column is published under.
func (l Layout) Letter(column string) (string, error) {
	i, ok := l.index[column]
	if !ok {
		return "", &LayoutMismatchError{Column: column}
	}
	return ColumnLetter(i + 1), nil
}

// ColumnLetter converts a 1-based column number to its A1 letters
// (1 -> A, 26 -> Z, 27 -> AA).
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// QuoteSheet quotes a sheet title for use in an A1 reference.
func QuoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
