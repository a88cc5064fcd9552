// Command seraph assesses the quality of a code change: test stability,
// mutation survival, lint/type findings, optional security findings, and
// historical risk signals, fused into one graded report. Grounded on
// untoldecay/BeadsLog's cmd/bd package-level cobra command convention.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seraph",
	Short: "Assess the quality of a code change",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(serveCmd)
}
