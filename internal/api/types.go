package api

import (
	"strings"
	"time"
	"unicode"
)

type CompetitionDetails struct {
	ID             int             `json:"id"`
	Title          string          `json:"title"`
	Metric         string          `json:"metric"`
	StartsAt       time.Time       `json:"startsAt"`
	EndsAt         time.Time       `json:"endsAt"`
	Participations []Participation `json:"participations"`
}

type Participation struct {
	PlayerID int64  `json:"playerId"`
	TeamName string `json:"teamName"`
	Player   Player `json:"player"`
}

type Player struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Type        string  `json:"type"`
	Build       string  `json:"build"`
	EHP         float64 `json:"ehp"`
	EHB         float64 `json:"ehb"`
}

type PlayerDetails struct {
	Player
	LatestSnapshot *Snapshot `json:"latestSnapshot"`
}

type Snapshot struct {
	ID        int64        `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Data      SnapshotData `json:"data"`
}

type SnapshotData struct {
	Skills     map[string]SkillValue    `json:"skills"`
	Bosses     map[string]BossValue     `json:"bosses"`
	Activities map[string]ActivityValue `json:"activities"`
}

type SkillValue struct {
	Metric     string  `json:"metric"`
	Experience int64   `json:"experience"`
	Rank       int64   `json:"rank"`
	Level      int     `json:"level"`
	EHP        float64 `json:"ehp"`
}

type BossValue struct {
	Metric string  `json:"metric"`
	Kills  int64   `json:"kills"`
	Rank   int64   `json:"rank"`
	EHB    float64 `json:"ehb"`
}

type ActivityValue struct {
	Metric string `json:"metric"`
	Score  int64  `json:"score"`
	Rank   int64  `json:"rank"`
}

// MetricName turns an API metric key into its display name,
// e.g. "abyssal_sire" becomes "Abyssal Sire".
func MetricName(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
