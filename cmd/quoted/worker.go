package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/embeddings"
	"github.com/fyrsmithlabs/quoted/internal/genai"
	"github.com/fyrsmithlabs/quoted/internal/store"
	"github.com/fyrsmithlabs/quoted/internal/tags"
	"github.com/fyrsmithlabs/quoted/internal/trending"
	"github.com/fyrsmithlabs/quoted/internal/vectorstore"
	"github.com/fyrsmithlabs/quoted/internal/workflows"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal worker",
	Long: `Run the Temporal worker.

The worker executes the publication pipeline, quote generation, and
leaderboard maintenance workflows on the configured task queue.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "quoted worker starting",
		zap.String("temporal_host", cfg.Temporal.HostPort),
		zap.String("task_queue", cfg.Temporal.TaskQueue),
	)

	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	quotes := store.NewQuoteStore(db)
	ledger := store.NewLedger(db)

	vocabulary, err := tags.LoadFile(cfg.Tags.Path)
	if err != nil {
		return fmt.Errorf("loading tag vocabulary: %w", err)
	}

	snapshots, err := trending.OpenSnapshotStore(&cfg.Trending)
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	embedder, err := embeddings.NewService(&cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("initializing embeddings: %w", err)
	}

	index, err := vectorstore.NewStore(&cfg.Qdrant, logger)
	if err != nil {
		logger.Warn(ctx, "vector index unavailable, quotes will publish unindexed", zap.Error(err))
		index = nil
	} else {
		defer func() { _ = index.Close() }()
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporalLogAdapter{logger: logger},
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	activities := &workflows.Activities{
		Quotes:     quotes,
		Ledger:     ledger,
		Vocabulary: vocabulary,
		GenAI:      genai.NewClient(&cfg.OpenAI, logger),
		Embedder:   embedder,
		Index:      index,
		Snapshots:  snapshots,
		Aggregator: trending.NewAggregator(quotes, ledger, snapshots, &cfg.Trending, logger),
		Temporal:   temporalClient,
		Logger:     logger,
	}

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.PublishQuoteWorkflow)
	w.RegisterWorkflow(workflows.AutogenQuoteWorkflow)
	w.RegisterWorkflow(workflows.LeaderboardWorkflow)
	w.RegisterWorkflow(workflows.TrendingQuoteWorkflow)
	w.RegisterActivity(activities)

	logger.Info(ctx, "worker configured", zap.String("task_queue", cfg.Temporal.TaskQueue))

	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- w.Run(worker.InterruptCh())
	}()

	select {
	case err := <-workerErrors:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	logger.Info(ctx, "worker stopped gracefully")
	return nil
}
