package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"},
		{12, "L"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
		{18278, "ZZZ"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColumnLetter(tt.n), "column %d", tt.n)
	}
}

func TestLayout_Letter(t *testing.T) {
	l := NewLayout([]string{"rsn", "team", "kills_Zulrah"})

	letter, err := l.Letter("kills_Zulrah")
	require.NoError(t, err)
	assert.Equal(t, "C", letter)

	_, err = l.Letter("kills_Vorkath")
	var mismatch *LayoutMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestLayout_ColumnsIsACopy(t *testing.T) {
	l := NewLayout([]string{"rsn", "team"})
	cols := l.Columns()
	cols[0] = "changed"
	assert.Equal(t, []string{"rsn", "team"}, l.Columns())
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Skilling Report'", QuoteSheet("Skilling Report"))
	assert.Equal(t, "'Bob''s Sheet'", QuoteSheet("Bob's Sheet"))
}
