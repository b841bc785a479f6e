package domain

import "time"

// QueryRecord is one completed query-log record as supplied by a log
// source. StartTime is always a UTC instant; deriving local time is the
// detection core's concern, not the source's.
type QueryRecord struct {
	UserName        string
	QueryID         string
	StartTime       time.Time
	QueryText       string
	ExecutionStatus string
	QueryType       string
}

// QueryFilters narrows a log-source fetch to the records detection
// cares about: one query type, one terminal status, minus the system
// accounts that would otherwise dominate every baseline.
type QueryFilters struct {
	QueryType    string
	Status       string
	ExcludeUsers []string
}

// QueryLogFilter holds filter parameters for query-log listings.
type QueryLogFilter struct {
	UserName  *string
	Status    *string
	QueryType *string
	From      *time.Time
	To        *time.Time
	Page      PageRequest
}
