package main

import (
	"encoding/json"
	"fmt"
	"os"

	"convsim/app"
	apperrors "convsim/internal/errors"

	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var parallelism int
	var formats, outDir, logLevel string

	cmd := &cobra.Command{
		Use:   "batch [requests.json]",
		Short: "Analyze independent experiments from a JSON file",
		Long: `Run every analysis request in a JSON array concurrently. Omitted fields
take the configured defaults. A failing request does not stop the others.

Example: convsim batch experiments.json --parallelism 4 --formats html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(logLevel)
			if err != nil {
				return err
			}
			reqs, err := readRequests(args[0], c.DefaultRequest())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("parallelism") {
				parallelism = c.Config.Batch.Parallelism
			}

			results, batchErr := c.Analysis.AnalyzeBatch(cmd.Context(), reqs, parallelism)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "#%d %s: %v\n", r.Index, apperrors.GetCode(r.Err), r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d ", r.Index)
				printReport(cmd.OutOrStdout(), r.Report)
				if err := writeOutputs(cmd, c, r.Report, formats, outDir); err != nil {
					return err
				}
			}
			if batchErr != nil {
				return batchErr
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d analyses failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Maximum concurrent analyses (default BATCH_PARALLELISM)")
	cmd.Flags().StringVar(&formats, "formats", "", "Comma-separated output formats (default OUTPUT_FORMATS, \"none\" to skip)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (default LOG_LEVEL)")

	return cmd
}

func readRequests(path string, base app.AnalysisRequest) ([]app.AnalysisRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read %s", path)
	}
	var inputs []app.AnalysisInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s: %v", path, err))
	}
	reqs := make([]app.AnalysisRequest, len(inputs))
	for i, in := range inputs {
		if reqs[i], err = in.Resolve(base); err != nil {
			return nil, apperrors.Wrapf(err, "%s: request %d", path, i)
		}
	}
	return reqs, nil
}
