package report

import (
	"cmp"
	"fmt"
	"slices"
)

const (
	ColumnParticipant = "rsn"
	ColumnTeam        = "team"

	CapturedAtFormat = "2006-01-02 15:04:05"
)

// Participant is a known roster entry; it gets a row even without snapshots.
type Participant struct {
	ID   string
	Team string
}

// Row is one participant of a wide report. Cells align with the layout;
// a nil cell means the metric was never measured for the participant.
type Row struct {
	ParticipantID string
	Team          string
	Cells         []any
}

type Wide struct {
	Layout Layout
	Rows   []Row
}

// Reshape pivots the current state of every series into one row per
// participant with one column group per metric. An unsuffixed config
// seeing more than one metric is an error: the metrics would share columns.
func Reshape(cfg CategoryConfig, roster []Participant, t *Transformed) (*Wide, error) {
	if cfg.Unsuffixed && len(t.Metrics) > 1 {
		return nil, fmt.Errorf("report %s has unsuffixed columns but %d metrics %q", cfg.Name, len(t.Metrics), t.Metrics)
	}

	columns := []string{ColumnParticipant, ColumnTeam}
	for _, metric := range t.Metrics {
		for _, f := range cfg.Fields {
			columns = append(columns, cfg.ColumnName(f, metric))
		}
	}
	layout := NewLayout(columns)

	rows := make(map[string]*Row)
	rowFor := func(id, team string) *Row {
		if r, ok := rows[id]; ok {
			return r
		}
		r := &Row{ParticipantID: id, Team: team, Cells: make([]any, layout.Len())}
		r.Cells[0] = id
		r.Cells[1] = team
		rows[id] = r
		return r
	}

	for _, p := range roster {
		rowFor(p.ID, p.Team)
	}

	for _, rec := range t.Current {
		s := rec.Snapshot
		r := rowFor(s.RSN, s.Team)
		for _, f := range cfg.Fields {
			i, _ := layout.Index(cfg.ColumnName(f, s.Metric))
			r.Cells[i] = cellValue(f, rec)
		}
	}

	out := &Wide{Layout: layout, Rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, *r)
	}
	slices.SortFunc(out.Rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Team, b.Team), cmp.Compare(a.ParticipantID, b.ParticipantID))
	})
	return out, nil
}

func cellValue(f Field, rec DeltaRecord) any {
	switch f.Kind {
	case FieldRaw:
		return rec.Raw[f.Source]
	case FieldDelta:
		return rec.Delta[f.Source]
	case FieldCumulative:
		return rec.Cumulative[f.Source]
	case FieldCapturedAt:
		return rec.Snapshot.CapturedAt.UTC().Format(CapturedAtFormat)
	}
	return nil
}
