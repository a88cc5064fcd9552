package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/orchestrator"
	"github.com/evo-hydra/seraph/internal/render"
	"github.com/evo-hydra/seraph/internal/seraphlog"
	"github.com/evo-hydra/seraph/internal/store/sqlite"

	"github.com/evo-hydra/seraph/cmd/seraph/cmdutil"
)

var (
	assessRefBefore    string
	assessRefAfter     string
	assessTestCmd      string
	assessSkipBaseline bool
	assessSkipMutation bool
	assessJSON         bool
	assessVerbose      bool
)

var assessCmd = &cobra.Command{
	Use:   "assess [repo]",
	Short: "Run the assessment pipeline against a repository",
	Args:  cobra.MaximumNArgs(1),
	Run:   runAssess,
}

func init() {
	assessCmd.Flags().StringVar(&assessRefBefore, "ref-before", "", "before ref for the diff")
	assessCmd.Flags().StringVar(&assessRefAfter, "ref-after", "", "after ref for the diff")
	assessCmd.Flags().StringVar(&assessTestCmd, "test-cmd", "", "override the configured test command")
	assessCmd.Flags().BoolVar(&assessSkipBaseline, "skip-baseline", false, "skip the baseline stability probe")
	assessCmd.Flags().BoolVar(&assessSkipMutation, "skip-mutations", false, "skip the mutation-testing stage")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "print the raw report as JSON")
	assessCmd.Flags().BoolVar(&assessVerbose, "verbose", false, "render gaps through glamour markdown")
}

func runAssess(cmd *cobra.Command, args []string) {
	repoPath := repoArg(args)

	cfg, err := config.Load(repoPath)
	if err != nil {
		cmdutil.Fatal(assessJSON, "loading configuration: %v", err)
	}
	if assessTestCmd != "" {
		cfg.Pipeline.TestCmd = assessTestCmd
	}
	if assessSkipBaseline {
		cfg.Pipeline.BaselineRuns = 0
	}
	if assessSkipMutation {
		cfg.Pipeline.MutationTool = ""
	}

	log := seraphlog.New(cfg.Logging, assessVerbose)

	st, err := sqlite.Open(cfg.DBPath(repoPath))
	if err != nil {
		cmdutil.Fatal(assessJSON, "opening store: %v", err)
	}
	defer st.Close()

	pipeline := orchestrator.New(cfg, log, st)

	var before, after *string
	if assessRefBefore != "" {
		before = &assessRefBefore
	}
	if assessRefAfter != "" {
		after = &assessRefAfter
	}

	report, err := pipeline.Assess(context.Background(), repoPath, before, after)
	if err != nil {
		cmdutil.Fatal(assessJSON, "running assessment: %v", err)
	}

	if assessJSON {
		if err := cmdutil.PrintJSON(report); err != nil {
			cmdutil.Fatal(true, "encoding report: %v", err)
		}
		return
	}

	fmt.Println(render.Full(report, assessVerbose))
}

func repoArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
