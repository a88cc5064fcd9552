package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/store/sqlite"

	"github.com/evo-hydra/seraph/cmd/seraph/cmdutil"
)

var (
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history [repo]",
	Short: "List stored assessments",
	Args:  cobra.MaximumNArgs(1),
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum rows to list")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "rows to skip")
}

func runHistory(cmd *cobra.Command, args []string) {
	repoPath := repoArg(args)

	cfg, err := config.Load(repoPath)
	if err != nil {
		cmdutil.Fatal(false, "loading configuration: %v", err)
	}

	st, err := sqlite.Open(cfg.DBPath(repoPath))
	if err != nil {
		cmdutil.Fatal(false, "opening store: %v", err)
	}
	defer st.Close()

	rows, err := st.ListAssessments(context.Background(), historyLimit, historyOffset)
	if err != nil {
		cmdutil.Fatal(false, "listing assessments: %v", err)
	}

	t := table.New().Headers("ID", "Grade", "Mutation", "Flaky", "Created")
	for _, a := range rows {
		score := "-"
		if a.MutationScore != nil {
			score = fmt.Sprintf("%.1f", *a.MutationScore)
		}
		t.Row(a.ID, a.Grade, score, fmt.Sprintf("%d", a.BaselineFlaky), a.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println(t.String())
}
