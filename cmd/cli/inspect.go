package main

import (
	"fmt"
	"os"

	"convsim/adapters/excel"

	mstats "github.com/montanaflynn/stats"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [workbook.xlsx]",
		Short: "Summarize the simulated outcomes stored in an exported workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			values, err := excel.ReadRunValues(f, excel.DefaultWorkbookConfig())
			if err != nil {
				return err
			}
			data := mstats.Float64Data(values)
			mean, err := data.Mean()
			if err != nil {
				return err
			}
			sd, err := data.StandardDeviationSample()
			if err != nil {
				return err
			}
			lo, _ := data.Min()
			hi, _ := data.Max()

			fmt.Fprintf(cmd.OutOrStdout(), "%d outcomes  mean %.4g  sd %.4g  range [%g, %g]\n",
				len(values), mean, sd, lo, hi)
			return nil
		},
	}
}
