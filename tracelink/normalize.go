package tracelink

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

//go:embed stopwords.txt
var defaultStopwordsData string

// Normalizer turns requirement text into the ordered token sequence the
// vector builder consumes.
type Normalizer interface {
	Tokens(text string) ([]string, error)
}

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Collapse internal control characters except newlines.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// TextNormalizer splits text into words, folds case, drops stop words and
// reduces the remaining words to their stem.
type TextNormalizer struct {
	pre       *pretokenizer.BertPreTokenizer
	fold      cases.Caser
	stopwords map[string]struct{}
	stem      bool
	minLen    int
}

// NewTextNormalizer builds a normalizer from cfg. An empty StopwordsPath uses
// the embedded English list.
func NewTextNormalizer(cfg NormalizeConfig) (*TextNormalizer, error) {
	data := defaultStopwordsData
	if cfg.StopwordsPath != "" {
		raw, err := os.ReadFile(cfg.StopwordsPath)
		if err != nil {
			return nil, fmt.Errorf("read stopwords: %w", err)
		}
		data = string(raw)
	}
	return &TextNormalizer{
		pre:       pretokenizer.NewBertPreTokenizer(),
		fold:      cases.Fold(),
		stopwords: ParseStopwords(data),
		stem:      cfg.Stem,
		minLen:    cfg.MinTokenLength,
	}, nil
}

// ParseStopwords reads one word per line; blank lines and # comments are skipped.
func ParseStopwords(data string) map[string]struct{} {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	out := make(map[string]struct{})
	for _, line := range strings.Split(data, "\n") {
		word := strings.TrimSpace(line)
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		out[cases.Fold().String(word)] = struct{}{}
	}
	return out
}

// Tokens normalizes text into tokens. Empty text yields an empty sequence.
func (n *TextNormalizer) Tokens(text string) ([]string, error) {
	text = NormalizeText(text)
	if text == "" {
		return []string{}, nil
	}
	words, err := n.split(text)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !hasLetterOrDigit(w) {
			continue
		}
		w = n.fold.String(w)
		if _, stop := n.stopwords[w]; stop {
			continue
		}
		if n.stem {
			w = english.Stem(w, false)
		}
		if utf8.RuneCountInString(w) < n.minLen {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (n *TextNormalizer) split(text string) ([]string, error) {
	pts := tokenizer.NewPreTokenizedString(text)
	pts, err := n.pre.PreTokenize(pts)
	if err != nil {
		return nil, fmt.Errorf("pre-tokenize: %w", err)
	}
	splits := pts.GetSplits(normalizer.OriginalTarget, tokenizer.Byte)
	words := make([]string, 0, len(splits))
	for _, s := range splits {
		words = append(words, s.Value)
	}
	return words, nil
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// NormalizeRequirements runs every text through n, keeping the input order.
func NormalizeRequirements(n Normalizer, records []RequirementRecord) (RequirementSet, error) {
	out := make(RequirementSet, 0, len(records))
	for _, rec := range records {
		toks, err := n.Tokens(rec.Text)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", rec.ID, err)
		}
		out = append(out, Requirement{ID: rec.ID, Tokens: toks})
	}
	return out, nil
}
