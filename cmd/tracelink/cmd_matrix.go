package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yashubustudio/tracelink/tracelink"
)

func matrixCmd(g *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:          "matrix",
		Short:        "Write the high x low similarity matrix as CSV",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *g)
			if err != nil {
				return err
			}
			svc, err := newService(cmd, *g, cfg, nil)
			if err != nil {
				return err
			}
			in, err := svc.LoadInputs(parseOptions(*g))
			if err != nil {
				return err
			}
			res, err := svc.Compare(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := tracelink.WriteSimilarityMatrix(output, res.Matrix); err != nil {
				return fmt.Errorf("write matrix: %w", err)
			}
			rows, cols := res.Matrix.Dims()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d similarity matrix over %d terms to %s\n",
				rows, cols, res.Vocabulary.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "output/similarity.csv", "CSV file receiving the matrix")
	return cmd
}
