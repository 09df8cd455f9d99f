package tracelink

// ColumnCandidates defines possible header names for auto-detecting CSV/TSV columns.
type ColumnCandidates struct {
	ID    []string `yaml:"id"`
	Text  []string `yaml:"text"`
	Links []string `yaml:"links"`
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		ID:    []string{"id", "req_id", "requirement_id", "identifier", "key"},
		Text:  []string{"text", "requirement", "description", "content", "body", "summary"},
		Links: []string{"links", "link", "linked", "trace", "targets"},
	}
}

// withDefaults fills nil candidate lists from the built-in defaults so callers
// can override only the parts they need.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := DefaultColumnCandidates()
	return ColumnCandidates{
		ID:    pickStrings(c.ID, defaults.ID),
		Text:  pickStrings(c.Text, defaults.Text),
		Links: pickStrings(c.Links, defaults.Links),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}
