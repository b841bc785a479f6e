package domain

import "time"

// AnomalyType classifies a finding by the detector that produced it.
type AnomalyType string

const (
	AnomalyTimeOfDay   AnomalyType = "TIME_OF_DAY"
	AnomalyComplexity  AnomalyType = "COMPLEXITY"
	AnomalyTableAccess AnomalyType = "TABLE_ACCESS"
)

// AnomalyTypes lists all known anomaly types in detector order.
var AnomalyTypes = []AnomalyType{AnomalyTimeOfDay, AnomalyComplexity, AnomalyTableAccess}

// Valid reports whether t is one of the known anomaly types.
func (t AnomalyType) Valid() bool {
	switch t {
	case AnomalyTimeOfDay, AnomalyComplexity, AnomalyTableAccess:
		return true
	}
	return false
}

// AnomalyFinding is one flagged deviation. Findings are produced fresh
// each run and have no identity beyond the tuple they report; the
// findings store assigns IDs on persistence.
type AnomalyFinding struct {
	UserName    string
	QueryID     string
	StartTime   time.Time
	QueryText   string
	AnomalyType AnomalyType
	Details     string
}

// StoredFinding is a finding as recorded by the findings store, keyed
// to the detection run that produced it.
type StoredFinding struct {
	ID    string
	RunID string
	AnomalyFinding
	CreatedAt time.Time
}

// FindingFilter holds filter parameters for stored-finding listings.
type FindingFilter struct {
	RunID       *string
	UserName    *string
	AnomalyType *AnomalyType
	Page        PageRequest
}
