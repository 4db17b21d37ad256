package report

import (
	"cmp"
	"math"
	"slices"

	"bingo-tracker/internal/domain"
)

// DeltaRecord is the derived progress of one snapshot within its
// (participant, metric) series.
type DeltaRecord struct {
	Snapshot   domain.Snapshot
	Index      int
	Raw        map[string]float64
	Delta      map[string]float64
	Cumulative map[string]float64
}

// Transformed holds every derived record plus the current state of each
// (participant, metric) series.
type Transformed struct {
	// Records are in global order: team, participant, metric, captured_at, seq.
	Records []DeltaRecord
	// Current holds the last record of each series, in the same order.
	Current []DeltaRecord
	// Metrics lists distinct metrics in order of first appearance in Records.
	Metrics []string
}

type seriesKey struct {
	participant string
	metric      string
}

type seriesState struct {
	index      int
	prev       map[string]float64
	cumulative map[string]float64
	current    int
}

// Transform computes deltas and running totals for every snapshot of one
// report. Input order does not matter.
func Transform(cfg CategoryConfig, snapshots []domain.Snapshot) (*Transformed, error) {
	sorted := make([]domain.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if cfg.Includes(s.Metric) {
			sorted = append(sorted, s)
		}
	}
	slices.SortStableFunc(sorted, compareSnapshots)

	out := &Transformed{Records: make([]DeltaRecord, 0, len(sorted))}
	states := make(map[seriesKey]*seriesState)
	seenMetric := make(map[string]bool)

	for _, s := range sorted {
		raw, err := readValues(cfg, s)
		if err != nil {
			return nil, err
		}

		key := seriesKey{participant: s.RSN, metric: s.Metric}
		st, ok := states[key]
		rec := DeltaRecord{
			Snapshot:   s,
			Raw:        raw,
			Delta:      make(map[string]float64, len(raw)),
			Cumulative: make(map[string]float64, len(raw)),
		}
		if !ok {
			st = &seriesState{cumulative: make(map[string]float64, len(raw))}
			states[key] = st
			for f := range raw {
				rec.Delta[f] = 0
				rec.Cumulative[f] = 0
			}
			st.current = len(out.Current)
			out.Current = append(out.Current, DeltaRecord{})
		} else {
			st.index++
			for f, v := range raw {
				d := v - st.prev[f]
				st.cumulative[f] += d
				rec.Delta[f] = d
				rec.Cumulative[f] = st.cumulative[f]
			}
		}
		rec.Index = st.index
		st.prev = raw
		out.Current[st.current] = rec
		out.Records = append(out.Records, rec)

		if !seenMetric[s.Metric] {
			seenMetric[s.Metric] = true
			out.Metrics = append(out.Metrics, s.Metric)
		}
	}

	return out, nil
}

func compareSnapshots(a, b domain.Snapshot) int {
	return cmp.Or(
		cmp.Compare(a.Team, b.Team),
		cmp.Compare(a.RSN, b.RSN),
		cmp.Compare(a.Metric, b.Metric),
		a.CapturedAt.Compare(b.CapturedAt),
		cmp.Compare(a.Seq, b.Seq),
	)
}

func readValues(cfg CategoryConfig, s domain.Snapshot) (map[string]float64, error) {
	raw := make(map[string]float64, len(cfg.ValueFields))
	for _, f := range cfg.ValueFields {
		v, ok := s.Values[f]
		if !ok || v == nil {
			return nil, integrityError(s, f, "missing value")
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil, integrityError(s, f, "non-numeric value")
		}
		raw[f] = *v
	}
	return raw, nil
}

func integrityError(s domain.Snapshot, field, reason string) *DataIntegrityError {
	return &DataIntegrityError{
		Participant: s.RSN,
		Metric:      s.Metric,
		CapturedAt:  s.CapturedAt,
		Field:       field,
		Reason:      reason,
	}
}
