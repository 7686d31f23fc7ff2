package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/quoted/internal/trending"
)

// LeaderboardResult reports the refreshed snapshot.
type LeaderboardResult struct {
	Entries     int
	GeneratedAt time.Time
}

// LeaderboardWorkflow recomputes the trending snapshot from the latest
// likes. It is scheduled on a fixed cadence; each run produces exactly one
// snapshot write.
func LeaderboardWorkflow(ctx workflow.Context) (*LeaderboardResult, error) {
	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var a *Activities
	var snap trending.Snapshot
	if err := workflow.ExecuteActivity(ctx, a.RefreshTrending).Get(ctx, &snap); err != nil {
		return nil, err
	}

	logger.Info("Leaderboard refreshed", "entries", len(snap.Entries))
	return &LeaderboardResult{
		Entries:     len(snap.Entries),
		GeneratedAt: snap.GeneratedAt,
	}, nil
}
