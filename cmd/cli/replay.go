package main

import (
	"encoding/json"
	"fmt"
	"os"

	"convsim/domain/run"
	apperrors "convsim/internal/errors"

	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "replay [report.json]",
		Short: "Re-run the simulation recorded in a JSON report and verify its outcomes",
		Long: `Read the manifest of a report written by "analyze --json", simulate the
run again from its seed and check that every outcome matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return apperrors.Wrapf(err, "failed to read %s", args[0])
			}
			var doc struct {
				Manifest *run.Manifest `json:"manifest"`
			}
			if err := json.Unmarshal(data, &doc); err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("%s: %v", args[0], err))
			}
			if doc.Manifest == nil {
				return apperrors.InvalidInput(fmt.Sprintf("%s has no manifest", args[0]))
			}

			c, err := newContainer(logLevel)
			if err != nil {
				return err
			}
			replayed, err := c.Analysis.Replay(cmd.Context(), doc.Manifest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s reproduced: %d outcomes, hash %s\n",
				doc.Manifest.RunID, replayed.Len(), doc.Manifest.OutcomeHash.Short())
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (default LOG_LEVEL)")
	return cmd
}
