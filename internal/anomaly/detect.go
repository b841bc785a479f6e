package anomaly

import (
	"fmt"
	"math"
	"sort"

	"querywatch/internal/domain"
)

// Each detector is a pure predicate (ActivityRecord, UserBaseline) →
// optional finding. A single record may trigger zero, one, or several
// detectors independently; each trigger yields one finding.

// DetectTimeOfDay flags a query whose local hour falls strictly outside
// the user's [p05, p95] baseline band. Hours exactly at a bound pass.
func DetectTimeOfDay(a domain.ActivityRecord, b domain.UserBaseline) *domain.AnomalyFinding {
	if a.QueryHour < b.HourP05 || a.QueryHour > b.HourP95 {
		return newFinding(a, domain.AnomalyTimeOfDay, fmt.Sprintf(
			"query at local hour %s falls outside baseline hours [%s, %s]",
			fnum(a.QueryHour), fnum(b.HourP05), fnum(b.HourP95)))
	}
	return nil
}

// DetectComplexity flags a query whose length deviates from the user's
// mean by more than multiplier times the baseline standard deviation.
// With a zero stddev the threshold is zero, so any deviation flags.
func DetectComplexity(a domain.ActivityRecord, b domain.UserBaseline, multiplier float64) *domain.AnomalyFinding {
	deviation := math.Abs(float64(a.QueryLength) - b.AvgLength)
	if deviation > multiplier*b.StddevLength {
		return newFinding(a, domain.AnomalyComplexity, fmt.Sprintf(
			"query length %d deviates from baseline mean %s (stddev %s) by more than %sx",
			a.QueryLength, fnum(b.AvgLength), fnum(b.StddevLength), fnum(multiplier)))
	}
	return nil
}

// DetectTableAccess flags a query that touched a table absent from the
// user's common set. Queries with no extracted table never flag here.
func DetectTableAccess(a domain.ActivityRecord, b domain.UserBaseline) *domain.AnomalyFinding {
	if a.TableAccessed == nil || *a.TableAccessed == "" {
		return nil
	}
	if b.HasTable(*a.TableAccessed) {
		return nil
	}
	return newFinding(a, domain.AnomalyTableAccess, fmt.Sprintf(
		"access to table %q not seen in the user's historical tables", *a.TableAccessed))
}

// Detect evaluates every activity record against its user's baseline,
// fanning out across the three detectors. Users without a baseline are
// skipped silently; that is an expected exclusion, not a warning. The result
// is the multiset union of all findings (no deduplication), ordered by
// user name ascending, then start time descending. Remaining ties keep
// insertion order (record order times fixed detector order), so an
// identical input snapshot always yields an identical sequence.
func Detect(activity []domain.ActivityRecord, baselines map[string]domain.UserBaseline, p Params) []domain.AnomalyFinding {
	p = p.withDefaults()

	findings := make([]domain.AnomalyFinding, 0)
	for _, a := range activity {
		b, ok := baselines[a.Record.UserName]
		if !ok {
			continue
		}
		if f := DetectTimeOfDay(a, b); f != nil {
			findings = append(findings, *f)
		}
		if f := DetectComplexity(a, b, p.DeviationMultiplier); f != nil {
			findings = append(findings, *f)
		}
		if f := DetectTableAccess(a, b); f != nil {
			findings = append(findings, *f)
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].UserName != findings[j].UserName {
			return findings[i].UserName < findings[j].UserName
		}
		return findings[i].StartTime.After(findings[j].StartTime)
	})
	return findings
}

func newFinding(a domain.ActivityRecord, t domain.AnomalyType, details string) *domain.AnomalyFinding {
	return &domain.AnomalyFinding{
		UserName:    a.Record.UserName,
		QueryID:     a.Record.QueryID,
		StartTime:   a.Record.StartTime,
		QueryText:   a.Record.QueryText,
		AnomalyType: t,
		Details:     details,
	}
}
