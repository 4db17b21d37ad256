package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bingo-tracker/internal/domain"
	"bingo-tracker/internal/report"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

type valuesWrite struct {
	Range  string
	Option string
	Values [][]interface{}
}

// fakeSheets implements the subset of the Sheets v4 REST API the
// publisher uses.
type fakeSheets struct {
	mu      sync.Mutex
	titles  map[string]int64
	nextID  int64
	batches []gsheets.BatchUpdateSpreadsheetRequest
	clears  []string
	writes  []valuesWrite
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets/sheet-id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		ss := gsheets.Spreadsheet{SpreadsheetId: "sheet-id"}
		for title, id := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheets.Sheet{Properties: &gsheets.SheetProperties{Title: title, SheetId: id}})
		}
		_ = json.NewEncoder(w).Encode(ss)

	case rest == ":batchUpdate":
		var req gsheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.batches = append(f.batches, req)
		resp := gsheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "sheet-id"}
		for _, sub := range req.Requests {
			reply := &gsheets.Response{}
			if sub.AddSheet != nil {
				f.nextID++
				f.titles[sub.AddSheet.Properties.Title] = f.nextID
				reply.AddSheet = &gsheets.AddSheetResponse{Properties: &gsheets.SheetProperties{
					Title: sub.AddSheet.Properties.Title, SheetId: f.nextID,
				}}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasPrefix(rest, "/values/") && strings.HasSuffix(rest, ":clear"):
		rng := strings.TrimSuffix(strings.TrimPrefix(rest, "/values/"), ":clear")
		f.clears = append(f.clears, rng)
		_ = json.NewEncoder(w).Encode(gsheets.ClearValuesResponse{ClearedRange: rng})

	case strings.HasPrefix(rest, "/values/") && r.Method == http.MethodPut:
		var vr gsheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := strings.TrimPrefix(rest, "/values/")
		f.writes = append(f.writes, valuesWrite{Range: rng, Option: r.URL.Query().Get("valueInputOption"), Values: vr.Values})
		_ = json.NewEncoder(w).Encode(gsheets.UpdateValuesResponse{UpdatedRange: rng})

	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func newTestPublisher(t *testing.T, fake *fakeSheets, consts report.Constants) *Publisher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewPublisher(svc, nil, "sheet-id", consts, zerolog.Nop())
}

func bossingReport(t *testing.T) *report.Report {
	t.Helper()
	at := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	snap := func(seq int64, rsn, boss string, at time.Time, kills float64) domain.Snapshot {
		return domain.Snapshot{
			Seq: seq, RSN: rsn, Team: "red", Metric: boss, Category: domain.CategoryBoss,
			Values:     map[string]*float64{domain.FieldKills: domain.Float(kills), domain.FieldEHB: domain.Float(0)},
			CapturedAt: at,
		}
	}
	r, err := report.Build(report.Bossing(), []report.Participant{{ID: "bob", Team: "red"}}, []domain.Snapshot{
		snap(1, "alice", "Zulrah", at, 10),
		snap(2, "alice", "Vorkath", at, 1),
		snap(3, "alice", "Zulrah", at.Add(time.Hour), 14),
	})
	require.NoError(t, err)
	return r
}

func TestPublish_CreatesSheetsAndWrites(t *testing.T) {
	fake := &fakeSheets{titles: map[string]int64{}}
	p := newTestPublisher(t, fake, nil)
	r := bossingReport(t)

	require.NoError(t, p.Publish(context.Background(), r))

	// report sheet: add + widths; efficiency sheet: add only
	require.Len(t, fake.batches, 3)
	assert.Equal(t, "Bossing Report", fake.batches[0].Requests[0].AddSheet.Properties.Title)
	widths := fake.batches[1].Requests[0].UpdateDimensionProperties
	require.NotNil(t, widths)
	assert.Equal(t, int64(200), widths.Properties.PixelSize)
	assert.Equal(t, int64(r.Layout.Len()), widths.Range.EndIndex)
	assert.Equal(t, "Efficiency", fake.batches[2].Requests[0].AddSheet.Properties.Title)

	assert.Equal(t, []string{"'Bossing Report'"}, fake.clears)

	require.Len(t, fake.writes, 2)
	data := fake.writes[0]
	assert.Equal(t, "'Bossing Report'!A1", data.Range)
	assert.Equal(t, "RAW", data.Option)
	require.Len(t, data.Values, 3)
	assert.Equal(t, "rsn", data.Values[0][0])

	formulas := fake.writes[1]
	assert.Equal(t, "'Efficiency'!C2:C3", formulas.Range)
	assert.Equal(t, "USER_ENTERED", formulas.Option)
	assert.Equal(t, []interface{}{r.Efficiency.Formulas[0]}, formulas.Values[0])
}

func TestPublish_ExistingSheetsAreReused(t *testing.T) {
	fake := &fakeSheets{titles: map[string]int64{"Bossing Report": 7, "Efficiency": 8}, nextID: 8}
	p := newTestPublisher(t, fake, nil)

	require.NoError(t, p.Publish(context.Background(), bossingReport(t)))
	require.NoError(t, p.Publish(context.Background(), bossingReport(t)))

	assert.Empty(t, fake.batches)
	assert.Len(t, fake.clears, 2)
	assert.Len(t, fake.writes, 4)
	assert.Equal(t, fake.writes[0], fake.writes[2])
}

func TestPublish_SeedsConstants(t *testing.T) {
	fake := &fakeSheets{titles: map[string]int64{"Bossing Report": 1, "Efficiency": 2}, nextID: 2}
	p := newTestPublisher(t, fake, report.Constants{"bossing": {"Zulrah": 120}})
	r := bossingReport(t)

	require.NoError(t, p.Publish(context.Background(), r))

	require.Len(t, fake.writes, 3)
	seed := fake.writes[2]
	assert.Equal(t, "'Efficiency'!L3:L4", seed.Range)
	assert.Equal(t, "RAW", seed.Option)
	require.Len(t, r.Efficiency.Terms, 2)
	assert.Equal(t, "Vorkath", r.Efficiency.Terms[0].Metric)
	assert.Equal(t, []interface{}{nil}, seed.Values[0])
	assert.Equal(t, []interface{}{120.0}, seed.Values[1])
}

func TestPublish_NoEfficiency(t *testing.T) {
	fake := &fakeSheets{titles: map[string]int64{"Activities Report": 1}, nextID: 1}
	p := newTestPublisher(t, fake, nil)

	r, err := report.Build(report.Activities(), []report.Participant{{ID: "alice", Team: "red"}}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), r))

	require.Len(t, fake.writes, 1)
	assert.Equal(t, [][]interface{}{{"rsn", "team"}, {"alice", "red"}}, fake.writes[0].Values)
}
