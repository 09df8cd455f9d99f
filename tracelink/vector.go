package tracelink

import (
	"math"
)

// Vectors holds the TF-IDF weight vector of every requirement in a pool.
type Vectors struct {
	vocab *Vocabulary
	byID  map[string][]float64
}

// Vocabulary returns the vocabulary that fixes the vector order.
func (v *Vectors) Vocabulary() *Vocabulary {
	return v.vocab
}

// Get returns the vector of a requirement.
func (v *Vectors) Get(id string) ([]float64, bool) {
	vec, ok := v.byID[id]
	return vec, ok
}

// Len is the number of vectorised requirements.
func (v *Vectors) Len() int {
	return len(v.byID)
}

// DocumentFrequencies counts, for every vocabulary term, the requirements of
// the pool that contain it at least once.
func DocumentFrequencies(vocab *Vocabulary, pool RequirementSet) map[string]int {
	df := make(map[string]int, vocab.Len())
	for _, t := range vocab.terms {
		df[t] = 0
	}
	for _, r := range pool {
		seen := make(map[string]bool, len(r.Tokens))
		for _, tok := range r.Tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			if _, ok := df[tok]; ok {
				df[tok]++
			}
		}
	}
	return df
}

// BuildVectors computes w(r,t) = tf(r,t) * log2(N / d(t)) for every
// requirement r of pool over the vocabulary order, N being the pool size.
// Terms absent from r weigh exactly 0. A vocabulary term that no requirement
// of the pool contains makes the idf undefined and fails with *DomainError.
func BuildVectors(vocab *Vocabulary, pool RequirementSet) (*Vectors, error) {
	if err := checkUniqueIDs(pool); err != nil {
		return nil, err
	}
	df := DocumentFrequencies(vocab, pool)
	n := float64(len(pool))
	idf := make([]float64, vocab.Len())
	for i, t := range vocab.terms {
		d := df[t]
		if d == 0 {
			return nil, &DomainError{Term: t, Reason: "document frequency is zero, vocabulary and requirement pool differ"}
		}
		idf[i] = math.Log2(n / float64(d))
	}

	byID := make(map[string][]float64, len(pool))
	for _, r := range pool {
		vec := make([]float64, vocab.Len())
		for _, tok := range r.Tokens {
			if i, ok := vocab.index[tok]; ok {
				vec[i]++
			}
		}
		for i, tf := range vec {
			if tf != 0 {
				vec[i] = tf * idf[i]
			}
		}
		byID[r.ID] = vec
	}
	return &Vectors{vocab: vocab, byID: byID}, nil
}

func checkUniqueIDs(pool RequirementSet) error {
	seen := make(map[string]struct{}, len(pool))
	var dups []string
	for _, r := range pool {
		if r.ID == "" {
			return shapeErrorf(nil, "requirement with blank identifier")
		}
		if _, ok := seen[r.ID]; ok {
			dups = append(dups, r.ID)
			continue
		}
		seen[r.ID] = struct{}{}
	}
	if len(dups) > 0 {
		return shapeErrorf(dups, "duplicate requirement identifiers")
	}
	return nil
}
