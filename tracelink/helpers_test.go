package tracelink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// exampleSets is the three-requirement example: H1 shares "user" and "log"
// with L1, L2 only holds "error".
func exampleSets() (RequirementSet, RequirementSet) {
	high := RequirementSet{{ID: "H1", Tokens: []string{"user", "log"}}}
	low := RequirementSet{
		{ID: "L1", Tokens: []string{"user", "log", "error"}},
		{ID: "L2", Tokens: []string{"error"}},
	}
	return high, low
}

// matrixFrom builds a similarity matrix with fixed cell values.
func matrixFrom(t *testing.T, high, low []string, rows [][]float64) *SimilarityMatrix {
	t.Helper()
	require.Len(t, rows, len(high))
	m := newSimilarityMatrix(high, low)
	for i, row := range rows {
		require.Len(t, row, len(low))
		for j, v := range row {
			m.dense.Set(i, j, v)
		}
	}
	return m
}
