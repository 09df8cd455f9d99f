// Package tracelink recovers trace links between high-level and low-level
// requirements. Requirement text is normalised into tokens, weighted by
// TF-IDF over a shared vocabulary and compared by cosine similarity; a match
// type then selects the links, which can be scored against a reference set.
package tracelink
