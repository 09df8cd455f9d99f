package tracelink

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchType selects the link acceptance policy.
type MatchType int

const (
	// MatchUnset means no policy was chosen; it never validates.
	MatchUnset MatchType = -1
	// MatchNoFilter links every pair with a positive similarity.
	MatchNoFilter MatchType = 0
	// MatchAbsolute links pairs whose similarity reaches the global floor.
	MatchAbsolute MatchType = 1
	// MatchRelative links pairs within a fraction of the best candidate of the row.
	MatchRelative MatchType = 2
	// MatchCombined applies the relative rule only to rows whose best candidate reaches the floor.
	MatchCombined MatchType = 3
)

// MatchTypes lists the recognised policies in selector order.
var MatchTypes = []MatchType{MatchNoFilter, MatchAbsolute, MatchRelative, MatchCombined}

// Valid reports whether m is one of the recognised policies.
func (m MatchType) Valid() bool {
	return m >= MatchNoFilter && m <= MatchCombined
}

func (m MatchType) String() string {
	switch m {
	case MatchNoFilter:
		return "no-filter"
	case MatchAbsolute:
		return "absolute"
	case MatchRelative:
		return "relative"
	case MatchCombined:
		return "combined"
	case MatchUnset:
		return "unset"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// Description is the human readable rule, used in CLI usage text and run banners.
func (m MatchType) Description() string {
	switch m {
	case MatchNoFilter:
		return "No filtering."
	case MatchAbsolute:
		return "Similarity of at least .25."
	case MatchRelative:
		return "Similarity of at least .67 of the most similar low level requirement."
	case MatchCombined:
		return "Similarity of at least .67 of the most similar low level requirement, if that one reaches .25."
	default:
		return ""
	}
}

// ParseMatchType accepts the selector number or its name.
func ParseMatchType(s string) (MatchType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m := MatchType(n)
		if !m.Valid() {
			return MatchUnset, &ConfigurationError{Field: "match_type", Value: n, Reason: "must be one of 0, 1, 2, 3"}
		}
		return m, nil
	}
	for _, m := range MatchTypes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return MatchUnset, &ConfigurationError{Field: "match_type", Value: s, Reason: "match type is not a valid number"}
}

// Requirement is one normalised requirement statement.
type Requirement struct {
	ID     string
	Tokens []string
}

// RequirementSet is an ordered collection of requirements. Its order is the
// enumeration used for matrix rows and columns.
type RequirementSet []Requirement

// IDs returns the identifiers in enumeration order.
func (s RequirementSet) IDs() []string {
	ids := make([]string, len(s))
	for i, r := range s {
		ids[i] = r.ID
	}
	return ids
}

// TokenSequences returns the token sequence of every requirement in order.
func (s RequirementSet) TokenSequences() [][]string {
	out := make([][]string, len(s))
	for i, r := range s {
		out[i] = r.Tokens
	}
	return out
}

// Concat returns a new set holding s followed by others.
func (s RequirementSet) Concat(others ...RequirementSet) RequirementSet {
	n := len(s)
	for _, o := range others {
		n += len(o)
	}
	out := make(RequirementSet, 0, n)
	out = append(out, s...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// LinkSet maps each high-level identifier to the low-level identifiers it links to.
type LinkSet map[string][]string

// Total counts the links across every high-level identifier.
func (ls LinkSet) Total() int {
	n := 0
	for _, v := range ls {
		n += len(v)
	}
	return n
}

// Counts are the totals of the four evaluation categories.
type Counts struct {
	IndicatedPredicted       int `json:"indicatedPredicted"`
	IndicatedNotPredicted    int `json:"indicatedNotPredicted"`
	NotIndicatedPredicted    int `json:"notIndicatedPredicted"`
	NotIndicatedNotPredicted int `json:"notIndicatedNotPredicted"`
}

// Total is the number of classified (high, low) pairs.
func (c Counts) Total() int {
	return c.IndicatedPredicted + c.IndicatedNotPredicted + c.NotIndicatedPredicted + c.NotIndicatedNotPredicted
}

func (c Counts) String() string {
	return fmt.Sprintf("ip=%d inp=%d nip=%d ninp=%d",
		c.IndicatedPredicted, c.IndicatedNotPredicted, c.NotIndicatedPredicted, c.NotIndicatedNotPredicted)
}

// ThresholdConfig holds the cut-offs used by the absolute and relative policies.
type ThresholdConfig struct {
	MinScore       float64 `yaml:"min_score" validate:"gte=0,lte=1"`
	RelativeFactor float64 `yaml:"relative_factor" validate:"gte=0,lte=1"`
}

// NormalizeConfig controls the text normaliser.
type NormalizeConfig struct {
	StopwordsPath  string `yaml:"stopwords_path"`
	Stem           bool   `yaml:"stem"`
	MinTokenLength int    `yaml:"min_token_length" validate:"gte=0"`
}

// InputConfig names the input files.
type InputConfig struct {
	High      string `yaml:"high"`
	Low       string `yaml:"low"`
	Reference string `yaml:"reference"`
}

// OutputConfig names the output files. Empty paths disable the output.
type OutputConfig struct {
	Links       string `yaml:"links"`
	MetricsFile string `yaml:"metrics_file"`
}

// Config aggregates the settings of a run, persisted as YAML.
type Config struct {
	MatchType  MatchType       `yaml:"match_type" validate:"gte=0,lte=3"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Workers    int             `yaml:"workers" validate:"gte=0"`
	Normalize  NormalizeConfig `yaml:"normalize"`
	Input      InputConfig     `yaml:"input"`
	Output     OutputConfig    `yaml:"output"`
}

// DefaultConfig returns a config with every default applied and no match type chosen.
// Thresholds, the reference path and the links output are seeded here only,
// so an explicit 0 or empty value read over it is kept.
func DefaultConfig() Config {
	cfg := Config{
		MatchType:  MatchUnset,
		Thresholds: ThresholdConfig{MinScore: DefaultMinScore, RelativeFactor: DefaultRelativeFactor},
		Normalize:  NormalizeConfig{Stem: true, MinTokenLength: 1},
		Input:      InputConfig{Reference: "input/links.csv"},
		Output:     OutputConfig{Links: "output/links.csv"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills the required input paths when they are empty.
func (c *Config) ApplyDefaults() {
	if c.Input.High == "" {
		c.Input.High = "input/high.csv"
	}
	if c.Input.Low == "" {
		c.Input.Low = "input/low.csv"
	}
}

// LinkPolicy derives the linking policy from the config.
func (c Config) LinkPolicy() LinkPolicy {
	return LinkPolicy{
		MatchType:      c.MatchType,
		MinScore:       c.Thresholds.MinScore,
		RelativeFactor: c.Thresholds.RelativeFactor,
	}
}
