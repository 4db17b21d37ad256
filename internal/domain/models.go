package domain

import (
	"time"
)

type Category string

const (
	CategorySkill    Category = "skill"
	CategoryBoss     Category = "boss"
	CategoryClue     Category = "clue"
	CategoryActivity Category = "activity"
	CategoryStats    Category = "stats"
)

// Value field keys carried by snapshots.
const (
	FieldExp             = "exp"
	FieldEHP             = "ehp"
	FieldKills           = "kills"
	FieldEHB             = "ehb"
	FieldClueCompletions = "clue_completions"
	FieldScore           = "score"
)

type Player struct {
	ID        int64
	RSN       string
	Team      string
	Build     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is one immutable measurement of one metric for one player.
type Snapshot struct {
	Seq        int64 // insertion order, breaks CapturedAt ties
	PlayerID   int64
	RSN        string
	Team       string
	Metric     string
	Category   Category
	Values     map[string]*float64
	Rank       *int64
	CapturedAt time.Time
	FetchRunID string
}

type FetchRun struct {
	ID         string // nanoid
	StartedAt  time.Time
	FinishedAt *time.Time
	Players    int
	Failures   int
}

// Float returns a pointer to v, for building Snapshot.Values.
func Float(v float64) *float64 {
	return &v
}
