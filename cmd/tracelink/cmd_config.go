package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/tracelink/tracelink"
)

func configCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:          "init [path]",
		Short:        "Write a config file with the default settings",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = "tracelink.yaml"
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check %s: %w", path, err)
				}
			}
			cfg := tracelink.DefaultConfig()
			cfg.MatchType = tracelink.MatchAbsolute
			if err := tracelink.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the effective configuration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "match_type: %d (%s)\n", int(cfg.MatchType), cfg.MatchType)
			fmt.Fprintf(out, "thresholds: min_score=%.2f relative_factor=%.2f\n", cfg.Thresholds.MinScore, cfg.Thresholds.RelativeFactor)
			fmt.Fprintf(out, "input: high=%s low=%s reference=%s\n", cfg.Input.High, cfg.Input.Low, cfg.Input.Reference)
			fmt.Fprintf(out, "output: links=%s metrics_file=%s\n", cfg.Output.Links, cfg.Output.MetricsFile)
			return nil
		},
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
