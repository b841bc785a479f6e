package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querywatch/internal/domain"
)

func TestExtractTable(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  *string
	}{
		{name: "simple select", query: "SELECT * FROM orders WHERE id = 1", want: strPtr("orders")},
		{name: "qualified name", query: "SELECT a, b FROM sales.orders LIMIT 10", want: strPtr("sales.orders")},
		{name: "extra whitespace after FROM", query: "SELECT * FROM   orders", want: strPtr("orders")},
		{name: "only first FROM counts", query: "SELECT * FROM orders WHERE id IN (SELECT id FROM users)", want: strPtr("orders")},
		{name: "join keeps first table only", query: "SELECT * FROM orders JOIN users ON orders.uid = users.id", want: strPtr("orders")},
		{name: "comma list keeps the comma", query: "SELECT * FROM orders, users", want: strPtr("orders,")},
		{name: "lowercase from never matches", query: "select * from orders", want: nil},
		{name: "no from clause", query: "SHOW TABLES", want: nil},
		{name: "nothing after FROM", query: "SELECT * FROM ", want: nil},
		{name: "newline instead of space", query: "SELECT *\nFROM\norders", want: nil},
		{name: "empty text", query: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTable(tt.query)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestLocalHour(t *testing.T) {
	t.Run("utc whole hour", func(t *testing.T) {
		ts := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
		assert.InDelta(t, 14.0, LocalHour(ts, time.UTC), 1e-9)
	})

	t.Run("minutes and seconds are fractional", func(t *testing.T) {
		ts := time.Date(2024, 3, 15, 14, 30, 36, 0, time.UTC)
		assert.InDelta(t, 14.51, LocalHour(ts, time.UTC), 1e-9)
	})

	t.Run("offset zone shifts the hour", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*3600)
		ts := time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC)
		assert.InDelta(t, 22.5, LocalHour(ts, loc), 1e-9)
	})

	t.Run("wraps across midnight", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		ts := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
		assert.InDelta(t, 2.0, LocalHour(ts, loc), 1e-9)
	})
}

func TestQueryLength(t *testing.T) {
	assert.Equal(t, 0, QueryLength(""))
	assert.Equal(t, 8, QueryLength("SELECT 1"))
	// Length is runes, not bytes.
	assert.Equal(t, 14, QueryLength("SELECT 'héllo'"))
}

func TestExtractActivity(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	records := []domain.QueryRecord{
		{
			UserName:  "alice",
			QueryID:   "q-1",
			StartTime: time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC),
			QueryText: "SELECT * FROM orders",
		},
		{
			UserName:  "bob",
			QueryID:   "q-2",
			StartTime: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			QueryText: "SHOW TABLES",
		},
	}

	activity := ExtractActivity(records, loc)
	require.Len(t, activity, 2)

	assert.Equal(t, "q-1", activity[0].Record.QueryID)
	assert.InDelta(t, 22.5, activity[0].QueryHour, 1e-9)
	assert.Equal(t, 20, activity[0].QueryLength)
	require.NotNil(t, activity[0].TableAccessed)
	assert.Equal(t, "orders", *activity[0].TableAccessed)

	assert.Equal(t, "q-2", activity[1].Record.QueryID)
	assert.Nil(t, activity[1].TableAccessed)
}

func strPtr(s string) *string { return &s }
