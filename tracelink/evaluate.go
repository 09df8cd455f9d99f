package tracelink

import (
	"sort"
	"strings"
)

// Partition splits every (high, low) pair into the four outcome categories
// of a 2x2 decision table. Each map is sparse: a high-level identifier with
// an empty category is absent from that map.
type Partition struct {
	IndicatedPredicted       LinkSet
	IndicatedNotPredicted    LinkSet
	NotIndicatedPredicted    LinkSet
	NotIndicatedNotPredicted LinkSet
}

// Counts sums the cardinality of each category.
func (p Partition) Counts() Counts {
	return Counts{
		IndicatedPredicted:       p.IndicatedPredicted.Total(),
		IndicatedNotPredicted:    p.IndicatedNotPredicted.Total(),
		NotIndicatedPredicted:    p.NotIndicatedPredicted.Total(),
		NotIndicatedNotPredicted: p.NotIndicatedNotPredicted.Total(),
	}
}

// CountPartition is the free-function form of Partition.Counts.
func CountPartition(p Partition) Counts {
	return p.Counts()
}

// Evaluate classifies the predicted links of every high-level identifier
// against the reference links. The not-indicated-not-predicted category is
// taken against the low universe, never an unbounded one. Blank identifiers
// are dropped. Identifiers that are not part of high or low fail with
// *InputShapeError.
func Evaluate(predicted, reference LinkSet, high, low []string) (Partition, error) {
	highSet := toSet(high)
	lowSet := toSet(low)
	if err := checkLinkIDs(reference, highSet, lowSet, "reference links"); err != nil {
		return Partition{}, err
	}
	if err := checkLinkIDs(predicted, highSet, lowSet, "predicted links"); err != nil {
		return Partition{}, err
	}

	p := Partition{
		IndicatedPredicted:       LinkSet{},
		IndicatedNotPredicted:    LinkSet{},
		NotIndicatedPredicted:    LinkSet{},
		NotIndicatedNotPredicted: LinkSet{},
	}
	for _, h := range high {
		if isBlank(h) {
			continue
		}
		ref := toSet(reference[h])
		pred := toSet(predicted[h])
		var ip, inp, nip, ninp []string
		for _, l := range low {
			if isBlank(l) {
				continue
			}
			_, inRef := ref[l]
			_, inPred := pred[l]
			switch {
			case inRef && inPred:
				ip = append(ip, l)
			case inRef:
				inp = append(inp, l)
			case inPred:
				nip = append(nip, l)
			default:
				ninp = append(ninp, l)
			}
		}
		putNonEmpty(p.IndicatedPredicted, h, ip)
		putNonEmpty(p.IndicatedNotPredicted, h, inp)
		putNonEmpty(p.NotIndicatedPredicted, h, nip)
		putNonEmpty(p.NotIndicatedNotPredicted, h, ninp)
	}
	return p, nil
}

func checkLinkIDs(links LinkSet, highSet, lowSet map[string]struct{}, what string) error {
	var unknown []string
	for h, ls := range links {
		if isBlank(h) {
			continue
		}
		if _, ok := highSet[h]; !ok {
			unknown = append(unknown, h)
		}
		for _, l := range ls {
			if isBlank(l) {
				continue
			}
			if _, ok := lowSet[l]; !ok {
				unknown = append(unknown, l)
			}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return shapeErrorf(dedupeSorted(unknown), "%s reference unknown requirements", what)
}

func putNonEmpty(ls LinkSet, key string, values []string) {
	if len(values) > 0 {
		ls[key] = values
	}
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if isBlank(id) {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func dedupeSorted(ids []string) []string {
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}
