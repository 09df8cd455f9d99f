package tracelink

import "gonum.org/v1/gonum/floats"

const (
	// DefaultMinScore is the absolute similarity floor of match types 1 and 3.
	DefaultMinScore = 0.25
	// DefaultRelativeFactor is the fraction of the row maximum used by match types 2 and 3.
	DefaultRelativeFactor = 0.67
)

// LinkPolicy is a match type together with its thresholds.
type LinkPolicy struct {
	MatchType      MatchType
	MinScore       float64
	RelativeFactor float64
}

// DefaultLinkPolicy returns the policy for mt with the default thresholds.
func DefaultLinkPolicy(mt MatchType) LinkPolicy {
	return LinkPolicy{MatchType: mt, MinScore: DefaultMinScore, RelativeFactor: DefaultRelativeFactor}
}

// Validate rejects unknown match types and out-of-range thresholds.
func (p LinkPolicy) Validate() error {
	if !p.MatchType.Valid() {
		return &ConfigurationError{Field: "match_type", Value: int(p.MatchType), Reason: "must be one of 0, 1, 2, 3"}
	}
	if p.MinScore < 0 || p.MinScore > 1 {
		return &ConfigurationError{Field: "thresholds.min_score", Value: p.MinScore, Reason: "must be within [0, 1]"}
	}
	if p.RelativeFactor < 0 || p.RelativeFactor > 1 {
		return &ConfigurationError{Field: "thresholds.relative_factor", Value: p.RelativeFactor, Reason: "must be within [0, 1]"}
	}
	return nil
}

// Link turns the similarity matrix into a link set. Every high-level
// identifier gets an entry, empty when nothing passes the policy. A row
// whose best similarity is 0 carries no signal and never links.
func Link(m *SimilarityMatrix, policy LinkPolicy) (LinkSet, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	links := make(LinkSet, len(m.High))
	for i, highID := range m.High {
		links[highID] = linkRow(m.Row(i), m.Low, policy)
	}
	return links, nil
}

func linkRow(row []float64, low []string, policy LinkPolicy) []string {
	out := []string{}
	if len(row) == 0 {
		return out
	}
	rowMax := floats.Max(row)
	if rowMax <= 0 {
		return out
	}
	if policy.MatchType == MatchCombined && rowMax < policy.MinScore {
		return out
	}
	relative := policy.RelativeFactor * rowMax
	for j, sim := range row {
		if accept(sim, relative, policy) {
			out = append(out, low[j])
		}
	}
	return out
}

func accept(sim, relative float64, policy LinkPolicy) bool {
	switch policy.MatchType {
	case MatchNoFilter:
		return sim > 0
	case MatchAbsolute:
		return sim > 0 && sim >= policy.MinScore
	case MatchRelative, MatchCombined:
		return sim > 0 && sim >= relative
	default:
		return false
	}
}
