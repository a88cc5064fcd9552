package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/store/sqlite"

	"github.com/evo-hydra/seraph/cmd/seraph/cmdutil"
)

var (
	pruneDays int
	pruneYes  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune [repo]",
	Short: "Delete assessments older than the retention window",
	Args:  cobra.MaximumNArgs(1),
	Run:   runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "retention window in days (0 = configured default)")
	pruneCmd.Flags().BoolVar(&pruneYes, "yes", false, "skip the confirmation prompt")
}

func runPrune(cmd *cobra.Command, args []string) {
	repoPath := repoArg(args)

	cfg, err := config.Load(repoPath)
	if err != nil {
		cmdutil.Fatal(false, "loading configuration: %v", err)
	}
	days := cfg.Retention.RetentionDays
	if pruneDays > 0 {
		days = pruneDays
	}

	if !pruneYes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete assessments older than %d days?", days)).
					Affirmative("Prune").
					Negative("Cancel").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			if err == huh.ErrUserAborted {
				fmt.Fprintln(os.Stderr, "Prune canceled.")
				os.Exit(0)
			}
			cmdutil.Fatal(false, "confirmation form: %v", err)
		}
		if !confirmed {
			fmt.Fprintln(os.Stderr, "Prune canceled.")
			os.Exit(0)
		}
	}

	st, err := sqlite.Open(cfg.DBPath(repoPath))
	if err != nil {
		cmdutil.Fatal(false, "opening store: %v", err)
	}
	defer st.Close()

	counts, err := st.Prune(context.Background(), days)
	if err != nil {
		cmdutil.Fatal(false, "pruning: %v", err)
	}

	fmt.Printf("Deleted: %d feedback, %d mutation cache rows, %d baselines, %d assessments\n",
		counts.Feedback, counts.MutationCache, counts.Baselines, counts.Assessments)
}
