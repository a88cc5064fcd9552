package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/store"
	"github.com/evo-hydra/seraph/internal/store/sqlite"
	"github.com/evo-hydra/seraph/internal/types"

	"github.com/evo-hydra/seraph/cmd/seraph/cmdutil"
)

var (
	feedbackContext string
	feedbackRepo    string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <assessment_id> <outcome>",
	Short: "Record a human verdict on a past assessment",
	Args:  cobra.ExactArgs(2),
	Run:   runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackContext, "context", "", "free-text context for the verdict")
	feedbackCmd.Flags().StringVar(&feedbackRepo, "repo", ".", "repository path")
}

func runFeedback(cmd *cobra.Command, args []string) {
	assessmentID, outcomeArg := args[0], args[1]

	outcome, ok := types.ParseFeedbackOutcome(outcomeArg)
	if !ok {
		cmdutil.Fatal(false, "invalid outcome %q, want one of accepted|rejected|modified", outcomeArg)
	}

	cfg, err := config.Load(feedbackRepo)
	if err != nil {
		cmdutil.Fatal(false, "loading configuration: %v", err)
	}

	st, err := sqlite.Open(cfg.DBPath(feedbackRepo))
	if err != nil {
		cmdutil.Fatal(false, "opening store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.GetAssessment(ctx, assessmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cmdutil.Fatal(false, "no such assessment: %s", assessmentID)
		}
		cmdutil.Fatal(false, "looking up assessment: %v", err)
	}

	fb := &types.Feedback{
		ID:           uuid.NewString(),
		AssessmentID: assessmentID,
		Outcome:      outcome,
		Context:      feedbackContext,
		CreatedAt:    time.Now(),
	}
	if err := st.SaveFeedback(ctx, fb); err != nil {
		cmdutil.Fatal(false, "saving feedback: %v", err)
	}
}
