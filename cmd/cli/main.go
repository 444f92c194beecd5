package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "convsim",
		Short: "Simulate binomial conversion experiments and compare them with the normal approximation",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newBatchCmd(),
		newInspectCmd(),
		newReplayCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
