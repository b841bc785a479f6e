package anomaly

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"querywatch/internal/domain"
)

// Detection defaults, applied when Params leaves a field zero.
const (
	DefaultMinActivity         = 20
	DefaultDeviationMultiplier = 3.0
)

// Params carries the detection tunables. Every knob is an explicit
// parameter; nothing in the core reads configuration or globals.
type Params struct {
	// Location is the reference timezone for local-hour derivation.
	// Nil means UTC.
	Location *time.Location
	// MinActivity is the minimum historical record count a user needs
	// before a baseline is built for them.
	MinActivity int
	// DeviationMultiplier scales StddevLength into the complexity
	// threshold.
	DeviationMultiplier float64
}

func (p Params) withDefaults() Params {
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.MinActivity <= 0 {
		p.MinActivity = DefaultMinActivity
	}
	if p.DeviationMultiplier <= 0 {
		p.DeviationMultiplier = DefaultDeviationMultiplier
	}
	return p
}

// BuildBaselines groups historical records by user and computes a
// statistical profile for every user whose record count meets the
// minimum-activity threshold. Groups below the threshold yield no
// baseline, which excludes those users from all detection.
//
// Hour percentiles use the continuous linear-interpolation estimator
// over fractional local hours; length statistics are mean and sample
// standard deviation (divisor n-1). A zero standard deviation is a
// defined degenerate case, not an error: it collapses the complexity
// threshold to zero so any deviation flags.
func BuildBaselines(records []domain.QueryRecord, p Params) map[string]domain.UserBaseline {
	p = p.withDefaults()

	groups := make(map[string][]domain.QueryRecord)
	for _, rec := range records {
		groups[rec.UserName] = append(groups[rec.UserName], rec)
	}

	baselines := make(map[string]domain.UserBaseline, len(groups))
	for user, recs := range groups {
		if len(recs) < p.MinActivity {
			continue
		}

		hours := make([]float64, len(recs))
		lengths := make([]float64, len(recs))
		tables := make(map[string]struct{})
		for i, rec := range recs {
			hours[i] = LocalHour(rec.StartTime, p.Location)
			lengths[i] = float64(QueryLength(rec.QueryText))
			if tbl := ExtractTable(rec.QueryText); tbl != nil && *tbl != "" {
				tables[*tbl] = struct{}{}
			}
		}
		sort.Float64s(hours)

		mean, stddev := stat.MeanStdDev(lengths, nil)

		baselines[user] = domain.UserBaseline{
			UserName:     user,
			HourP05:      Percentile(hours, 0.05),
			HourP95:      Percentile(hours, 0.95),
			AvgLength:    mean,
			StddevLength: stddev,
			CommonTables: tables,
			SampleCount:  len(recs),
		}
	}
	return baselines
}
