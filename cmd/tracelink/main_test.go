package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/tracelink/tracelink"
)

type fixture struct {
	dir       string
	high      string
	low       string
	reference string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return fixture{
		dir:       dir,
		high:      write("high.csv", "id,text\nH1,user log\n"),
		low:       write("low.csv", "id,text\nL1,user log error\nL2,error\n"),
		reference: write("links.csv", "id,links\nH1,L1\n"),
	}
}

func (f fixture) args(extra ...string) []string {
	base := []string{
		"--config", filepath.Join(f.dir, "tracelink.yaml"),
		"--high", f.high,
		"--low", f.low,
		"--reference", f.reference,
	}
	return append(base, extra...)
}

func execute(args ...string) (string, error) {
	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLinkCommand(t *testing.T) {
	f := newFixture(t)
	linksPath := filepath.Join(f.dir, "out", "links.csv")
	metricsPath := filepath.Join(f.dir, "out", "tracelink.prom")

	out, err := execute(f.args("1", "-o", linksPath, "--metrics-file", metricsPath, "--scores")...)
	require.NoError(t, err)

	assert.Contains(t, out, "Using match type 1: Similarity of at least .25.\n")
	assert.Contains(t, out, "Indicated + Predicted: 1\n"+
		"Indicated + Not Predicted: 0\n"+
		"Not Indicated + Predicted: 0\n"+
		"Not Indicated + Not Predicted: 1\n")
	assert.Contains(t, out, "Precision: 1.000\n")

	data, err := os.ReadFile(linksPath)
	require.NoError(t, err)
	assert.Equal(t, "id,links\nH1,L1\n", string(data))

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "tracelink_runs_total 1")
}

func TestLinkCommandMatchTypes(t *testing.T) {
	f := newFixture(t)
	for _, mt := range []string{"0", "2", "3", "combined"} {
		t.Run(mt, func(t *testing.T) {
			out, err := execute(f.args(mt, "-o", filepath.Join(f.dir, "links-"+mt+".csv"))...)
			require.NoError(t, err)
			assert.Contains(t, out, "Indicated + Predicted: 1\n")
			assert.Contains(t, out, "Not Indicated + Not Predicted: 1\n")
		})
	}
}

func TestLinkCommandJSON(t *testing.T) {
	f := newFixture(t)
	out, err := execute(f.args("2", "-o", filepath.Join(f.dir, "links.csv"), "--format", "json")...)
	require.NoError(t, err)

	var got struct {
		MatchType int                 `json:"matchType"`
		Links     map[string][]string `json:"links"`
		Counts    tracelink.Counts    `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.MatchType)
	assert.Equal(t, map[string][]string{"H1": {"L1"}}, got.Links)
	assert.Equal(t, 1, got.Counts.IndicatedPredicted)
}

func TestLinkCommandWithoutEvaluation(t *testing.T) {
	f := newFixture(t)
	out, err := execute(f.args("0", "--no-eval", "--details", "-o", filepath.Join(f.dir, "links.csv"))...)
	require.NoError(t, err)
	assert.Contains(t, out, "1. H1 -> L1\n")
	assert.Contains(t, out, "Links: 1\n")
	assert.NotContains(t, out, "Indicated + Predicted")
}

func TestLinkCommandErrors(t *testing.T) {
	f := newFixture(t)
	clash := filepath.Join(f.dir, "clash.csv")
	require.NoError(t, os.WriteFile(clash, []byte("id,text\nH1,user error\n"), 0o644))
	unknown := filepath.Join(f.dir, "unknown.csv")
	require.NoError(t, os.WriteFile(unknown, []byte("id,links\nH1,L7\n"), 0o644))

	tests := []struct {
		name string
		args []string
		kind error
		code int
	}{
		{name: "invalid match type", args: f.args("7"), kind: tracelink.ErrConfiguration, code: exitConfiguration},
		{name: "not a number", args: f.args("abc"), kind: tracelink.ErrConfiguration, code: exitConfiguration},
		{name: "missing match type", args: f.args(), kind: tracelink.ErrConfiguration, code: exitConfiguration},
		{name: "bad format", args: f.args("1", "--format", "xml"), kind: tracelink.ErrConfiguration, code: exitConfiguration},
		{name: "bad threshold", args: f.args("1", "--min-score", "2"), kind: tracelink.ErrConfiguration, code: exitConfiguration},
		{name: "unknown log level", args: f.args("1", "--log-level", "verbose"), kind: tracelink.ErrConfiguration, code: exitConfiguration},
		{name: "identifier clash", args: f.args("1", "--low", clash), kind: tracelink.ErrInputShape, code: exitInputShape},
		{name: "unknown reference", args: f.args("1", "--reference", unknown), kind: tracelink.ErrInputShape, code: exitInputShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(append(tt.args, "-o", filepath.Join(f.dir, "ignored.csv"))...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestLinkCommandZeroMinScore(t *testing.T) {
	f := newFixture(t)
	weak := filepath.Join(f.dir, "weak.csv")
	require.NoError(t, os.WriteFile(weak, []byte("id,text\n"+
		"L1,user log error\n"+
		"L2,error\n"+
		"L3,user alpha beta gamma delta epsilon\n"), 0o644))

	tests := []struct {
		name  string
		extra []string
		want  []string
	}{
		{name: "default floor", want: []string{"L1"}},
		{name: "zero floor", extra: []string{"--min-score", "0"}, want: []string{"L1", "L3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := f.args("1", "--low", weak, "--no-eval", "--format", "json", "-o", filepath.Join(f.dir, "links.csv"))
			out, err := execute(append(args, tt.extra...)...)
			require.NoError(t, err)

			var got struct {
				Links map[string][]string `json:"links"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got.Links["H1"])
		})
	}
}

func TestLinkCommandReferenceWithCommentColumn(t *testing.T) {
	f := newFixture(t)
	reference := filepath.Join(f.dir, "reviewed.csv")
	require.NoError(t, os.WriteFile(reference, []byte("id,links,comment\nH1,L1,approved\n"), 0o644))

	out, err := execute(f.args("1", "--reference", reference, "-o", filepath.Join(f.dir, "links.csv"))...)
	require.NoError(t, err)
	assert.Contains(t, out, "Indicated + Predicted: 1\n")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitDomain, exitCode(fmt.Errorf("wrap: %w", &tracelink.DomainError{Term: "x"})))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestMatrixCommand(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "similarity.csv")
	out, err := execute(f.args("matrix", "-o", path)...)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Wrote 1x2 similarity matrix over 3 terms to %s\n", path), out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,L1,L2\nH1,0.816497,0.000000\n", string(data))
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracelink.yaml")

	out, err := execute("config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+path+"\n", out)

	_, err = execute("config", "init", path)
	assert.Error(t, err)

	handWritten := filepath.Join(dir, "hand.yaml")
	original := []byte("workers: 2\n")
	require.NoError(t, os.WriteFile(handWritten, original, 0o644))
	_, err = execute("config", "init", handWritten)
	assert.Error(t, err)
	data, err := os.ReadFile(handWritten)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	_, err = execute("config", "init", path, "--force")
	assert.NoError(t, err)

	out, err = execute("--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "match_type: 1 (absolute)\n")
	assert.Contains(t, out, "thresholds: min_score=0.25 relative_factor=0.67\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Equal(t, "tracelink version "+Version+"\n", out)
}
