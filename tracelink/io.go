package tracelink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RequirementRecord is one raw row of a requirement file.
type RequirementRecord struct {
	ID   string
	Text string
}

// ParseOptions allows callers to choose which CSV columns map to record fields.
// Columns are given by header name or 1-based "#n" index. The first row of
// every file is a header.
type ParseOptions struct {
	IDColumn    string
	TextColumn  string
	LinksColumn string
	Candidates  ColumnCandidates
}

// ParseRequirementFile reads an id,text CSV (or TSV by extension). Blank and
// duplicate identifiers fail with *InputShapeError.
func ParseRequirementFile(path string, opts ParseOptions) ([]RequirementRecord, error) {
	rows, err := readDelimited(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: empty file", filepath.Base(path))
	}
	header := cleanRow(rows[0])
	candidates := opts.Candidates.withDefaults()
	idCol, err := pickColumn(header, opts.IDColumn, candidates.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	textCol, err := pickColumn(header, opts.TextColumn, candidates.Text, 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	records := make([]RequirementRecord, 0, len(rows)-1)
	seen := make(map[string]int, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isEmptyRow(row) {
			continue
		}
		id := cellAt(row, idCol)
		if id == "" {
			return nil, shapeErrorf(nil, "%s line %d: blank requirement identifier", filepath.Base(path), line)
		}
		if prev, dup := seen[id]; dup {
			return nil, shapeErrorf([]string{id}, "%s line %d: identifier already used on line %d", filepath.Base(path), line, prev)
		}
		seen[id] = line
		records = append(records, RequirementRecord{ID: id, Text: cellAt(row, textCol)})
	}
	return records, nil
}

// ParseReferenceLinks reads an id,links CSV. The links cell is a comma
// separated list; unquoted lists that spill past the header width are read as
// more links, while other named columns are ignored. Blank identifiers are
// dropped and repeated rows for the same id are merged.
func ParseReferenceLinks(path string, opts ParseOptions) (LinkSet, error) {
	rows, err := readDelimited(path)
	if err != nil {
		return nil, err
	}
	links := LinkSet{}
	if len(rows) == 0 {
		return links, nil
	}
	header := cleanRow(rows[0])
	candidates := opts.Candidates.withDefaults()
	idCol, err := pickColumn(header, opts.IDColumn, candidates.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	fallback := 1
	if idCol == 1 {
		fallback = 0
	}
	linksCol, err := pickColumn(header, opts.LinksColumn, candidates.Links, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	for _, row := range rows[1:] {
		id := cellAt(row, idCol)
		if id == "" {
			continue
		}
		targets := links[id]
		if targets == nil {
			targets = []string{}
		}
		targets = append(targets, SplitLinks(cellAt(row, linksCol))...)
		for c := len(header); c < len(row); c++ {
			if c == idCol || c == linksCol {
				continue
			}
			targets = append(targets, SplitLinks(row[c])...)
		}
		links[id] = dedupe(targets)
	}
	return links, nil
}

// SplitLinks splits a comma separated cell and drops blank entries.
func SplitLinks(cell string) []string {
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = cleanCell(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteLinks writes the link set as id,links rows in the order of high.
func WriteLinks(path string, high []string, links LinkSet) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"id", "links"}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, id := range high {
			if err := w.Write([]string{id, strings.Join(links[id], ",")}); err != nil {
				return fmt.Errorf("write row %s: %w", id, err)
			}
		}
		return nil
	})
}

// WriteSimilarityMatrix writes the matrix with low-level identifiers as the
// header and one row per high-level identifier.
func WriteSimilarityMatrix(path string, m *SimilarityMatrix) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := append([]string{"id"}, m.Low...)
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for i, id := range m.High {
			row := make([]string, 0, len(m.Low)+1)
			row = append(row, id)
			for _, v := range m.Row(i) {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write row %s: %w", id, err)
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(w *csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readDelimited(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = cleanCell(cell)
	}
	return out
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanCell(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

// pickColumn resolves an explicit column, then a header candidate, then the
// positional fallback.
func pickColumn(header []string, explicit string, candidates []string, fallback int) (int, error) {
	if strings.TrimSpace(explicit) != "" {
		return matchExplicitColumn(header, explicit)
	}
	if idx := findColumn(header, candidates); idx >= 0 {
		return idx, nil
	}
	return fallback, nil
}

func matchExplicitColumn(header []string, explicit string) (int, error) {
	trimmed := strings.TrimSpace(explicit)
	for i, col := range header {
		if strings.EqualFold(col, trimmed) {
			return i, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, err
		}
		if idx >= len(header) {
			return -1, fmt.Errorf("column index %s is out of range", trimmed)
		}
		return idx, nil
	}
	return -1, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, errors.New("column indices are 1-based: " + token)
	}
	return idx - 1, nil
}
