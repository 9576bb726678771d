package engine

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_RecordsMetrics(t *testing.T) {
	counter := func(result string) float64 {
		return testutil.ToFloat64(collisionQueries.WithLabelValues(result))
	}
	clearBefore := counter("clear")
	surrogateBefore := counter("surrogate_reject")
	exactBefore := counter("exact_reject")
	placedBefore := testutil.ToFloat64(itemsPlaced)
	unplacedBefore := testutil.ToFloat64(itemsUnplaced)

	in := binInstance(t, 1, rectItem(t, "a", 4, 2, 4), rectItem(t, "big", 20, 20, 1))
	sol, err := newTestOptimizer(testConfig()).Solve(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 4, sol.PlacedCount())
	require.Equal(t, 1, sol.UnplacedCount())

	q := sol.Queries
	assert.Equal(t, float64(q.ExactChecks-q.ExactRejects), counter("clear")-clearBefore)
	assert.Equal(t, float64(q.SurrogateRejects), counter("surrogate_reject")-surrogateBefore)
	assert.Equal(t, float64(q.ExactRejects), counter("exact_reject")-exactBefore)
	// Every placed copy passed a clear exact check.
	assert.GreaterOrEqual(t, counter("clear")-clearBefore, 4.0)

	assert.Equal(t, 4.0, testutil.ToFloat64(itemsPlaced)-placedBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(itemsUnplaced)-unplacedBefore)
	// one series per algorithm label observed so far
	assert.GreaterOrEqual(t, testutil.CollectAndCount(solveDuration, "slabnest_solve_duration_seconds"), 1)
}
