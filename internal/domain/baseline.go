package domain

// UserBaseline is a per-user behavioral profile computed from the
// historical window. A baseline exists only for users whose historical
// record count meets the minimum-activity threshold, is valid only for
// the run that produced it, and is never persisted or reused.
type UserBaseline struct {
	UserName     string
	HourP05      float64 // 5th percentile of local hour-of-day
	HourP95      float64 // 95th percentile of local hour-of-day
	AvgLength    float64
	StddevLength float64 // sample standard deviation (divisor n-1)
	CommonTables map[string]struct{}
	SampleCount  int
}

// HasTable reports whether table is one of the user's common tables.
func (b UserBaseline) HasTable(table string) bool {
	_, ok := b.CommonTables[table]
	return ok
}

// ActivityRecord is a recent-window query enriched with the derived
// features the detectors evaluate.
type ActivityRecord struct {
	Record        QueryRecord
	QueryHour     float64 // fractional local hour-of-day in [0, 24)
	QueryLength   int     // character (rune) count of the query text
	TableAccessed *string // nil when no FROM token could be extracted
}
