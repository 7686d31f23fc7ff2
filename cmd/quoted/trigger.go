package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/workflows"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Start a workflow manually",
	Long: `Start a workflow manually on the configured task queue.

Generation and leaderboard workflows are normally started on a schedule;
these commands kick one off by hand.`,
}

func init() {
	triggerCmd.AddCommand(triggerAutogenCmd)
	triggerCmd.AddCommand(triggerLeaderboardCmd)
	triggerCmd.AddCommand(triggerTrendingCmd)
}

var triggerAutogenCmd = &cobra.Command{
	Use:   "autogen",
	Short: "Generate a new quote from the community's favorites",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startWorkflow(cmd.Context(), "autogen", func(cfgMode string, threshold int) (interface{}, interface{}) {
			return workflows.AutogenQuoteWorkflow, workflows.AutogenConfig{
				Mode:               cfgMode,
				RetentionThreshold: threshold,
			}
		})
	},
}

var triggerLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Refresh the trending leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startWorkflow(cmd.Context(), "leaderboard", func(string, int) (interface{}, interface{}) {
			return workflows.LeaderboardWorkflow, nil
		})
	},
}

var triggerTrendingCmd = &cobra.Command{
	Use:   "trending-quote",
	Short: "Generate a new quote from whatever is trending",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startWorkflow(cmd.Context(), "trending-quote", func(string, int) (interface{}, interface{}) {
			return workflows.TrendingQuoteWorkflow, nil
		})
	},
}

// startWorkflow dials Temporal and starts one workflow execution, leaving it
// to run after the command returns.
func startWorkflow(ctx context.Context, name string, pick func(mode string, threshold int) (interface{}, interface{})) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	wf, arg := pick(cfg.Autogen.Mode, cfg.Autogen.RetentionThreshold)
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-%s", name, uuid.NewString()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}

	var run client.WorkflowRun
	if arg != nil {
		run, err = temporalClient.ExecuteWorkflow(ctx, options, wf, arg)
	} else {
		run, err = temporalClient.ExecuteWorkflow(ctx, options, wf)
	}
	if err != nil {
		return fmt.Errorf("starting %s workflow: %w", name, err)
	}

	logger.Info(ctx, "workflow started",
		zap.String("workflow", name),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
	)
	fmt.Printf("started %s workflow: %s\n", name, run.GetID())
	return nil
}
