package anomaly

import (
	"strings"
	"time"
	"unicode/utf8"

	"querywatch/internal/domain"
)

// fromToken is the literal the table heuristic keys on: uppercase,
// single trailing space. Case variants never match.
const fromToken = "FROM "

// LocalHour converts a UTC instant to a fractional hour-of-day in loc:
// hour plus minute and second fractions, in [0, 24).
func LocalHour(t time.Time, loc *time.Location) float64 {
	lt := t.In(loc)
	return float64(lt.Hour()) + float64(lt.Minute())/60 + float64(lt.Second())/3600
}

// QueryLength returns the character (rune) count of the query text.
func QueryLength(text string) int {
	return utf8.RuneCountInString(text)
}

// ExtractTable derives a single candidate table name from raw query
// text: the first whitespace-delimited token after the first occurrence
// of the literal "FROM ". Returns nil when the literal is absent or
// nothing follows it.
//
// This is a heuristic feature extractor, not a SQL parser: joins,
// subqueries, aliases, and case variants are out of contract, and at
// most one table is ever considered per query.
func ExtractTable(text string) *string {
	idx := strings.Index(text, fromToken)
	if idx < 0 {
		return nil
	}
	fields := strings.Fields(text[idx+len(fromToken):])
	if len(fields) == 0 {
		return nil
	}
	return &fields[0]
}

// ExtractActivity derives detection-ready features for each record,
// preserving input order. A nil location means UTC.
func ExtractActivity(records []domain.QueryRecord, loc *time.Location) []domain.ActivityRecord {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]domain.ActivityRecord, len(records))
	for i, rec := range records {
		out[i] = domain.ActivityRecord{
			Record:        rec,
			QueryHour:     LocalHour(rec.StartTime, loc),
			QueryLength:   QueryLength(rec.QueryText),
			TableAccessed: ExtractTable(rec.QueryText),
		}
	}
	return out
}
