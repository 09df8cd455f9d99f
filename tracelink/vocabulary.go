package tracelink

import "sort"

// Vocabulary is the set of terms seen across all requirements, with a fixed
// lexicographic order that every vector of a run shares.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// BuildVocabulary merges token sequences into a deduplicated vocabulary.
// The result does not depend on the order of the sequences.
func BuildVocabulary(seqs ...[]string) *Vocabulary {
	seen := make(map[string]struct{})
	for _, seq := range seqs {
		for _, tok := range seq {
			seen[tok] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for tok := range seen {
		terms = append(terms, tok)
	}
	sort.Strings(terms)
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return &Vocabulary{terms: terms, index: index}
}

// Terms returns a copy of the terms in vector order.
func (v *Vocabulary) Terms() []string {
	return cloneStrings(v.terms)
}

// Len is the vector dimension.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Index returns the vector position of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Contains reports whether term is part of the vocabulary.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.index[term]
	return ok
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
