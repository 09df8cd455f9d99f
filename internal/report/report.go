// Package report renders run results for humans and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"yashubustudio/tracelink/tracelink"
)

// Scores are the retrieval metrics derived from the outcome counts. A ratio
// with a zero denominator is reported as 0.
type Scores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	F2        float64 `json:"f2"`
	Accuracy  float64 `json:"accuracy"`
}

// Score derives precision, recall, F-measures and accuracy from c.
func Score(c tracelink.Counts) Scores {
	s := Scores{
		Precision: ratio(c.IndicatedPredicted, c.IndicatedPredicted+c.NotIndicatedPredicted),
		Recall:    ratio(c.IndicatedPredicted, c.IndicatedPredicted+c.IndicatedNotPredicted),
		Accuracy:  ratio(c.IndicatedPredicted+c.NotIndicatedNotPredicted, c.Total()),
	}
	s.F1 = fMeasure(s.Precision, s.Recall, 1)
	s.F2 = fMeasure(s.Precision, s.Recall, 2)
	return s
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func fMeasure(p, r, beta float64) float64 {
	b2 := beta * beta
	den := b2*p + r
	if den == 0 {
		return 0
	}
	return (1 + b2) * p * r / den
}

// Banner is the line announcing the chosen match type.
func Banner(mt tracelink.MatchType) string {
	return fmt.Sprintf("Using match type %d: %s", int(mt), mt.Description())
}

// WriteCounts prints the four outcome counts, one per line.
func WriteCounts(w io.Writer, c tracelink.Counts) error {
	_, err := fmt.Fprintf(w,
		"Indicated + Predicted: %d\nIndicated + Not Predicted: %d\nNot Indicated + Predicted: %d\nNot Indicated + Not Predicted: %d\n",
		c.IndicatedPredicted, c.IndicatedNotPredicted, c.NotIndicatedPredicted, c.NotIndicatedNotPredicted)
	return err
}

// WriteScores prints the derived metrics.
func WriteScores(w io.Writer, s Scores) error {
	_, err := fmt.Fprintf(w, "Precision: %.3f\nRecall: %.3f\nF1: %.3f\nF2: %.3f\nAccuracy: %.3f\n",
		s.Precision, s.Recall, s.F1, s.F2, s.Accuracy)
	return err
}

// WriteDetails prints, per high-level requirement, its predicted links and
// how they compare with the reference.
func WriteDetails(w io.Writer, high []string, links tracelink.LinkSet, p *tracelink.Partition) error {
	for i, id := range high {
		if _, err := fmt.Fprintf(w, "%d. %s -> %s\n", i+1, id, joinOrDash(links[id])); err != nil {
			return err
		}
		if p == nil {
			continue
		}
		rows := []struct {
			label string
			ids   []string
		}{
			{"correct", p.IndicatedPredicted[id]},
			{"missed", p.IndicatedNotPredicted[id]},
			{"spurious", p.NotIndicatedPredicted[id]},
		}
		for _, r := range rows {
			if len(r.ids) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "    %s: %s\n", r.label, strings.Join(r.ids, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

// Summary is the machine readable result of a run.
type Summary struct {
	RunID     string            `json:"runId"`
	MatchType int               `json:"matchType"`
	Links     tracelink.LinkSet `json:"links"`
	Counts    *tracelink.Counts `json:"counts,omitempty"`
	Scores    *Scores           `json:"scores,omitempty"`
}

// NewSummary builds the summary of res.
func NewSummary(res *tracelink.Result) Summary {
	s := Summary{RunID: res.RunID, MatchType: int(res.Policy.MatchType), Links: res.Links}
	if res.Counts != nil {
		c := *res.Counts
		sc := Score(c)
		s.Counts = &c
		s.Scores = &sc
	}
	return s
}

// WriteJSON encodes s as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
