package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/microbialman/igaseq/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := logging.InitFromEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.Sync()

	rootCmd := &cobra.Command{
		Use:   "igaseq",
		Short: "Differential binding analysis for IgA-Seq datasets",
		Long: `igaseq reanalyzes IgA-Seq relative-abundance tables: it filters
contamination out of sorted fractions, scores per-taxon IgA binding through a
scoring oracle, and tests whether binding differs between experimental
conditions using strategies sized for very small group counts.`,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAnalyzeCmd(),
		newSweepCmd(),
		newValidateCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
