package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bingo-tracker/internal/config"
	"bingo-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *WOMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewWOMClient(&config.Config{
		WOMAPIKey:       "key",
		WOMUserAgent:    "tests",
		WOMBaseURL:      srv.URL,
		FetchMaxRetries: 2,
	}, metrics.NewManager(), zerolog.Nop())
	require.NoError(t, err)
	c.retryBase = time.Millisecond
	c.retryMax = 5 * time.Millisecond
	return c
}

func TestNewWOMClient_RequiresKey(t *testing.T) {
	_, err := NewWOMClient(&config.Config{}, metrics.NewManager(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGetCompetition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/competitions/37530", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "tests", r.Header.Get("User-Agent"))
		w.Header().Set("X-RateLimit-Remaining", "42")
		_, _ = w.Write([]byte(`{
			"id": 37530,
			"title": "Solus Bingo",
			"participations": [
				{"playerId": 1, "teamName": "Red", "player": {"id": 1, "username": "alice", "displayName": "Alice", "build": "main"}},
				{"playerId": 2, "teamName": "Blue", "player": {"id": 2, "username": "bob b", "displayName": "Bob B", "build": "hardcore"}}
			]
		}`))
	})

	comp, err := c.GetCompetition(context.Background(), 37530)
	require.NoError(t, err)
	require.Len(t, comp.Participations, 2)
	assert.Equal(t, "Red", comp.Participations[0].TeamName)
	assert.Equal(t, "Bob B", comp.Participations[1].Player.DisplayName)
	assert.Equal(t, "hardcore", comp.Participations[1].Player.Build)
	assert.Equal(t, 42, c.GetRateLimitInfo().Remaining)
}

func TestGetPlayerDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/players/bob b", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 2, "displayName": "Bob B", "ehp": 120.5, "ehb": 33.25,
			"latestSnapshot": {
				"createdAt": "2025-01-10T12:00:00.000Z",
				"data": {
					"skills": {"slayer": {"metric": "slayer", "experience": 1500, "rank": 10, "level": 20, "ehp": 0.4}},
					"bosses": {"abyssal_sire": {"metric": "abyssal_sire", "kills": 7, "rank": 99, "ehb": 0.2}},
					"activities": {"clue_scrolls_all": {"metric": "clue_scrolls_all", "score": 12, "rank": 5}}
				}
			}
		}`))
	})

	details, err := c.GetPlayerDetails(context.Background(), "bob b")
	require.NoError(t, err)
	assert.Equal(t, 120.5, details.EHP)
	require.NotNil(t, details.LatestSnapshot)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), details.LatestSnapshot.CreatedAt.UTC())
	assert.Equal(t, int64(1500), details.LatestSnapshot.Data.Skills["slayer"].Experience)
	assert.Equal(t, int64(7), details.LatestSnapshot.Data.Bosses["abyssal_sire"].Kills)
	assert.Equal(t, int64(12), details.LatestSnapshot.Data.Activities["clue_scrolls_all"].Score)
}

func TestUpdatePlayer_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id": 1, "displayName": "alice"}`))
	})

	details, err := c.UpdatePlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", details.DisplayName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUpdatePlayer_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.UpdatePlayer(context.Background(), "alice")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetPlayerDetails_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Player not found."}`))
	})

	_, err := c.GetPlayerDetails(context.Background(), "ghost")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMetricName(t *testing.T) {
	tests := map[string]string{
		"abyssal_sire":           "Abyssal Sire",
		"slayer":                 "Slayer",
		"clue_scrolls_all":       "Clue Scrolls All",
		"guardians_of_the_rift":  "Guardians Of The Rift",
		"tztok_jad":              "Tztok Jad",
		"the_corrupted_gauntlet": "The Corrupted Gauntlet",
	}
	for in, want := range tests {
		assert.Equal(t, want, MetricName(in), in)
	}
}

func TestRateLimitInfo_Wait(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		info RateLimitInfo
		want time.Duration
	}{
		{"requests left", RateLimitInfo{Remaining: 3, Reset: 60, UpdatedAt: now}, 0},
		{"exhausted", RateLimitInfo{Remaining: 0, Reset: 60, UpdatedAt: now.Add(-20 * time.Second)}, 40 * time.Second},
		{"window already reset", RateLimitInfo{Remaining: 0, Reset: 5, UpdatedAt: now.Add(-time.Minute)}, 0},
		{"no reset header", RateLimitInfo{Remaining: 0, UpdatedAt: now}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Wait(now))
		})
	}
}

func TestRateLimit_TrackedFromHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "20")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "30")
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetPlayerDetails(context.Background(), "alice")
	require.Error(t, err)

	info := c.GetRateLimitInfo()
	assert.Equal(t, 20, info.Limit)
	assert.Equal(t, 0, info.Remaining)
	wait := info.Wait(time.Now())
	assert.Greater(t, wait, 25*time.Second)
	assert.LessOrEqual(t, wait, 30*time.Second)
}
