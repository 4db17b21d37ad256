package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectReports(t *testing.T) {
	all, err := selectReports(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	picked, err := selectReports([]string{"clues", "bossing"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "clues", picked[0].Name)
	assert.Equal(t, "bossing", picked[1].Name)

	_, err = selectReports([]string{"nope"})
	assert.ErrorContains(t, err, "known: bossing, skilling")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "status", "roster", "fetch", "publish", "run", "preview", "export"} {
		assert.Contains(t, names, want)
	}
}
