package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querywatch/internal/domain"
)

// TestCLI_SeedDetectWorkflow walks the full local loop: seed a synthetic
// workload, run a detection pass, then inspect the persisted runs and
// findings through the listing commands.
func TestCLI_SeedDetectWorkflow(t *testing.T) {
	dbPath := testDBPath(t)
	t.Setenv("SOURCE_DRIVER", "sqlite")
	t.Setenv("TIMEZONE", "UTC")

	out, err := executeCLI(t, "seed", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded")
	assert.Contains(t, out, "6 users, 31 days")

	out, err = executeCLI(t, "detect", "--db", dbPath, "--output", "json")
	require.NoError(t, err)

	var result struct {
		Run      runPayload       `json:"run"`
		Findings []findingPayload `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, domain.RunStatusSucceeded, result.Run.Status)
	assert.Equal(t, domain.TriggerCLI, result.Run.Trigger)
	assert.EqualValues(t, 6, result.Run.BaselineUsers)
	assert.Positive(t, result.Run.HistoricalCount)
	assert.GreaterOrEqual(t, result.Run.RecentCount, int64(3))
	assert.EqualValues(t, len(result.Findings), result.Run.FindingCount)

	// The workload generator assigns query IDs purely by insertion order,
	// so regenerating it recovers the IDs of the injected anomalies: the
	// off-hours query and the oversized query are the two before last.
	workload := syntheticWorkload(time.Now().UTC(), 31, 6, 1)
	offHours := workload[len(workload)-3]
	oversized := workload[len(workload)-2]

	typesFor := func(queryID string) []string {
		var types []string
		for _, f := range result.Findings {
			if f.QueryID == queryID {
				assert.Equal(t, "analyst_01", f.UserName)
				types = append(types, f.AnomalyType)
			}
		}
		return types
	}
	assert.Contains(t, typesFor(offHours.QueryID), string(domain.AnomalyTimeOfDay))
	assert.Contains(t, typesFor(oversized.QueryID), string(domain.AnomalyComplexity))

	// Run listing shows the finished run.
	out, err = executeCLI(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, result.Run.ID)
	assert.Contains(t, out, domain.RunStatusSucceeded)

	out, err = executeCLI(t, "runs", "--db", dbPath, "--quiet")
	require.NoError(t, err)
	assert.Equal(t, result.Run.ID+"\n", out)

	// Findings listing, filtered by type and by run.
	out, err = executeCLI(t, "findings", "--db", dbPath, "--type", "TIME_OF_DAY")
	require.NoError(t, err)
	assert.Contains(t, out, "analyst_01")
	assert.Contains(t, out, "TIME_OF_DAY")

	out, err = executeCLI(t, "findings", "--db", dbPath, "--run", result.Run.ID, "--output", "json")
	require.NoError(t, err)

	var listed struct {
		Findings   []findingPayload `json:"findings"`
		TotalCount int64            `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, result.Run.FindingCount, listed.TotalCount)
	for _, f := range listed.Findings {
		assert.Equal(t, result.Run.ID, f.RunID)
		assert.NotEmpty(t, f.ID)
		assert.NotNil(t, f.CreatedAt)
	}
}

// TestCLI_DetectQuiet checks that --quiet reduces detect output to the
// run ID, so scripts can chain it into the findings command.
func TestCLI_DetectQuiet(t *testing.T) {
	dbPath := testDBPath(t)
	t.Setenv("SOURCE_DRIVER", "sqlite")

	_, err := executeCLI(t, "seed", "--db", dbPath)
	require.NoError(t, err)

	out, err := executeCLI(t, "detect", "--db", dbPath, "--quiet")
	require.NoError(t, err)

	runID := strings.TrimSpace(out)
	assert.NotEmpty(t, runID)
	assert.NotContains(t, runID, " ")
	assert.NotContains(t, runID, "\n")

	out, err = executeCLI(t, "findings", "--db", dbPath, "--run", runID, "--quiet")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

// TestCLI_DetectEmptyStore runs detect against a store with no history:
// the run still succeeds, with zero baselines and zero findings.
func TestCLI_DetectEmptyStore(t *testing.T) {
	dbPath := testDBPath(t)
	t.Setenv("SOURCE_DRIVER", "sqlite")

	out, err := executeCLI(t, "detect", "--db", dbPath, "--output", "json")
	require.NoError(t, err)

	var result struct {
		Run      runPayload       `json:"run"`
		Findings []findingPayload `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.RunStatusSucceeded, result.Run.Status)
	assert.Zero(t, result.Run.BaselineUsers)
	assert.Empty(t, result.Findings)
}
