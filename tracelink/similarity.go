package tracelink

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SimilarityMatrix holds the cosine similarity of every high-level
// requirement (rows) against every low-level requirement (columns). High and
// Low are the enumerations that map indices back to identifiers.
type SimilarityMatrix struct {
	High []string
	Low  []string

	dense   *mat.Dense
	highIdx map[string]int
	lowIdx  map[string]int
}

func newSimilarityMatrix(high, low []string) *SimilarityMatrix {
	m := &SimilarityMatrix{
		High:    cloneStrings(high),
		Low:     cloneStrings(low),
		highIdx: make(map[string]int, len(high)),
		lowIdx:  make(map[string]int, len(low)),
	}
	for i, id := range high {
		m.highIdx[id] = i
	}
	for j, id := range low {
		m.lowIdx[id] = j
	}
	// mat.NewDense panics on a zero dimension.
	if len(high) > 0 && len(low) > 0 {
		m.dense = mat.NewDense(len(high), len(low), nil)
	}
	return m
}

// Dims returns the number of rows and columns.
func (m *SimilarityMatrix) Dims() (int, int) {
	return len(m.High), len(m.Low)
}

// At returns the similarity of high-level row i and low-level column j.
func (m *SimilarityMatrix) At(i, j int) float64 {
	return m.dense.At(i, j)
}

// Row returns a copy of row i.
func (m *SimilarityMatrix) Row(i int) []float64 {
	if m.dense == nil {
		return nil
	}
	return mat.Row(nil, i, m.dense)
}

// Lookup returns the similarity of a (high, low) identifier pair.
func (m *SimilarityMatrix) Lookup(highID, lowID string) (float64, bool) {
	i, ok := m.highIdx[highID]
	if !ok {
		return 0, false
	}
	j, ok := m.lowIdx[lowID]
	if !ok {
		return 0, false
	}
	return m.dense.At(i, j), true
}

// ComputeSimilarity fills the high×low cosine similarity matrix. Rows are
// computed concurrently by up to workers goroutines (GOMAXPROCS when
// workers <= 0); each goroutine owns its row, so the result does not depend
// on scheduling.
func ComputeSimilarity(ctx context.Context, high, low RequirementSet, vecs *Vectors, workers int) (*SimilarityMatrix, error) {
	if len(high) == 0 && len(low) > 0 {
		return nil, shapeErrorf(nil, "high-level set is empty while low-level set has %d requirements", len(low))
	}
	if len(low) == 0 && len(high) > 0 {
		return nil, shapeErrorf(nil, "low-level set is empty while high-level set has %d requirements", len(high))
	}
	highVecs, err := lookupVectors(high, vecs)
	if err != nil {
		return nil, err
	}
	lowVecs, err := lookupVectors(low, vecs)
	if err != nil {
		return nil, err
	}

	m := newSimilarityMatrix(high.IDs(), low.IDs())
	if m.dense == nil {
		return m, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	lowNorms := make([]float64, len(lowVecs))
	for j, v := range lowVecs {
		lowNorms[j] = floats.Norm(v, 2)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range highVecs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := m.dense.RawRowView(i)
			a := highVecs[i]
			na := floats.Norm(a, 2)
			for j, b := range lowVecs {
				row[j] = cosineWithNorms(a, b, na, lowNorms[j])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func lookupVectors(set RequirementSet, vecs *Vectors) ([][]float64, error) {
	out := make([][]float64, len(set))
	var missing []string
	for i, r := range set {
		v, ok := vecs.Get(r.ID)
		if !ok {
			missing = append(missing, r.ID)
			continue
		}
		out[i] = v
	}
	if len(missing) > 0 {
		return nil, shapeErrorf(missing, "requirements without a vector")
	}
	return out, nil
}

// cosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector has
// zero norm.
func cosineSimilarity(a, b []float64) float64 {
	return cosineWithNorms(a, b, floats.Norm(a, 2), floats.Norm(b, 2))
}

func cosineWithNorms(a, b []float64, na, nb float64) float64 {
	if len(a) == 0 || len(b) == 0 || na == 0 || nb == 0 {
		return 0
	}
	return clampUnit(floats.Dot(a, b) / (na * nb))
}

// clampUnit absorbs rounding that pushes a cosine just outside [-1, 1].
func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
