package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/tracelink/internal/report"
	"yashubustudio/tracelink/internal/telemetry"
	"yashubustudio/tracelink/tracelink"
)

// globalOptions are shared by every command that reads requirements.
type globalOptions struct {
	configPath string
	logLevel   string
	high       string
	low        string
	reference  string
	workers    int
	stopwords  string
	noStem     bool
	idColumn    string
	textColumn  string
	linksColumn string
}

type linkOptions struct {
	output         string
	metricsFile    string
	minScore       float64
	relativeFactor float64
	noEval         bool
	details        bool
	scores         bool
	format         string
}

func rootCmd() *cobra.Command {
	var g globalOptions
	var opts linkOptions

	cmd := &cobra.Command{
		Use:   "tracelink [match-type]",
		Short: "Recover trace links between high- and low-level requirements",
		Long: `tracelink links every high-level requirement to the low-level requirements
whose TF-IDF vectors are similar enough, writes the links to a CSV file and
compares them with a reference link set.

Match types:
  0  ` + tracelink.MatchNoFilter.Description() + `
  1  ` + tracelink.MatchAbsolute.Description() + `
  2  ` + tracelink.MatchRelative.Description() + `
  3  ` + tracelink.MatchCombined.Description(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, g, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML, default ./tracelink.yaml)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.high, "high", "", "CSV of high-level requirements (id,text)")
	pf.StringVar(&g.low, "low", "", "CSV of low-level requirements (id,text)")
	pf.StringVar(&g.reference, "reference", "", "CSV of reference links (id,links)")
	pf.IntVar(&g.workers, "workers", 0, "Goroutines computing similarity rows (0 = GOMAXPROCS)")
	pf.StringVar(&g.stopwords, "stopwords", "", "Newline separated stop word file (default: built-in English list)")
	pf.BoolVar(&g.noStem, "no-stem", false, "Disable stemming")
	pf.StringVar(&g.idColumn, "id-column", "", "Column name or #index of requirement identifiers")
	pf.StringVar(&g.textColumn, "text-column", "", "Column name or #index of requirement text")
	pf.StringVar(&g.linksColumn, "links-column", "", "Column name or #index of the reference links")

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "CSV file receiving the predicted links")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	f.Float64Var(&opts.minScore, "min-score", 0, "Absolute similarity floor of match types 1 and 3")
	f.Float64Var(&opts.relativeFactor, "relative-factor", 0, "Fraction of the best similarity for match types 2 and 3")
	f.BoolVar(&opts.noEval, "no-eval", false, "Skip evaluation against the reference links")
	f.BoolVar(&opts.details, "details", false, "Print per-requirement links and outcomes")
	f.BoolVar(&opts.scores, "scores", false, "Print precision, recall and F-measures")
	f.StringVar(&opts.format, "format", "text", "Output format (text, json)")

	cmd.AddCommand(matrixCmd(&g), configCmd(&g), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, &tracelink.ConfigurationError{Field: "log-level", Value: level, Reason: "must be debug, info, warn or error"}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, g globalOptions) (tracelink.Config, error) {
	cfg, err := tracelink.LoadConfig(g.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("high") {
		cfg.Input.High = g.high
	}
	if flags.Changed("low") {
		cfg.Input.Low = g.low
	}
	if flags.Changed("reference") {
		cfg.Input.Reference = g.reference
	}
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}
	if flags.Changed("stopwords") {
		cfg.Normalize.StopwordsPath = g.stopwords
	}
	if flags.Changed("no-stem") {
		cfg.Normalize.Stem = !g.noStem
	}
	return cfg, nil
}

func newService(cmd *cobra.Command, g globalOptions, cfg tracelink.Config, recorder tracelink.Recorder) (*tracelink.Service, error) {
	normalizer, err := tracelink.NewTextNormalizer(cfg.Normalize)
	if err != nil {
		return nil, fmt.Errorf("init normalizer: %w", err)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), g.logLevel)
	if err != nil {
		return nil, err
	}
	return tracelink.NewService(normalizer, cfg, logger, recorder)
}

func parseOptions(g globalOptions) tracelink.ParseOptions {
	return tracelink.ParseOptions{IDColumn: g.idColumn, TextColumn: g.textColumn, LinksColumn: g.linksColumn}
}

func runLink(cmd *cobra.Command, g globalOptions, opts linkOptions, args []string) error {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		mt, err := tracelink.ParseMatchType(args[0])
		if err != nil {
			return err
		}
		cfg.MatchType = mt
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Links = opts.output
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = opts.metricsFile
	}
	if flags.Changed("min-score") {
		cfg.Thresholds.MinScore = opts.minScore
	}
	if flags.Changed("relative-factor") {
		cfg.Thresholds.RelativeFactor = opts.relativeFactor
	}
	if opts.noEval {
		cfg.Input.Reference = ""
	}
	if opts.format != "text" && opts.format != "json" {
		return &tracelink.ConfigurationError{Field: "format", Value: opts.format, Reason: "must be text or json"}
	}
	if cfg.MatchType == tracelink.MatchUnset {
		return &tracelink.ConfigurationError{Field: "match_type", Value: "unset",
			Reason: "provide an argument or config value to indicate which matcher should be used"}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	metrics := telemetry.New()
	svc, err := newService(cmd, g, cfg, metrics)
	if err != nil {
		return err
	}
	in, err := svc.LoadInputs(parseOptions(g))
	if err != nil {
		return err
	}
	res, err := svc.Run(cmd.Context(), in)
	if err != nil {
		return err
	}
	if cfg.Output.Links != "" {
		if err := tracelink.WriteLinks(cfg.Output.Links, res.Matrix.High, res.Links); err != nil {
			return fmt.Errorf("write links: %w", err)
		}
	}
	if cfg.Output.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
	}
	return printResult(cmd.OutOrStdout(), res, opts)
}

func printResult(w io.Writer, res *tracelink.Result, opts linkOptions) error {
	if opts.format == "json" {
		return report.WriteJSON(w, report.NewSummary(res))
	}
	if _, err := fmt.Fprintln(w, report.Banner(res.Policy.MatchType)); err != nil {
		return err
	}
	if opts.details {
		if err := report.WriteDetails(w, res.Matrix.High, res.Links, res.Partition); err != nil {
			return err
		}
	}
	if res.Counts == nil {
		_, err := fmt.Fprintf(w, "Links: %d\n", res.Links.Total())
		return err
	}
	if err := report.WriteCounts(w, *res.Counts); err != nil {
		return err
	}
	if opts.scores {
		return report.WriteScores(w, report.Score(*res.Counts))
	}
	return nil
}
