// Package cmd implements the lorekeep command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lorekeep",
	Short: "Lorekeep - wiki question answering over your own corpus",
	Long: `Lorekeep answers questions about a wiki corpus using retrieval
augmented generation: passages are embedded into PostgreSQL + pgvector,
and a Gemini model synthesizes grounded answers with source attributions.

Run "lorekeep ingest" to load a corpus, then "lorekeep serve" to start
the HTTP API or "lorekeep ask" for one-off questions.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
