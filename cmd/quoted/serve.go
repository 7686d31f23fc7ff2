package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/embeddings"
	"github.com/fyrsmithlabs/quoted/internal/httpapi"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/similarity"
	"github.com/fyrsmithlabs/quoted/internal/store"
	"github.com/fyrsmithlabs/quoted/internal/tags"
	"github.com/fyrsmithlabs/quoted/internal/trending"
	"github.com/fyrsmithlabs/quoted/internal/vectorstore"
	"github.com/fyrsmithlabs/quoted/internal/vote"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server.

The server handles quote submission, voting, browsing, search, and the
trending leaderboard. Submissions are handed to the Temporal worker for
publication; run "quoted worker" alongside this process.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "quoted API server starting",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
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
		// Browsing and voting work without the index; search and similar
		// degrade to empty responses.
		logger.Warn(ctx, "vector index unavailable, similarity disabled", zap.Error(err))
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

	resolver := similarity.NewResolver(indexOrUnavailable(index), embedder, quotes, ledger, &cfg.Similarity, logger)
	votes := vote.NewStateMachine(quotes, ledger, logger)

	server, err := httpapi.NewServer(&cfg.Server, httpapi.Deps{
		Quotes:     quotes,
		Ledger:     ledger,
		Votes:      votes,
		Resolver:   resolver,
		Snapshots:  snapshots,
		Vocabulary: vocabulary,
		Temporal:   temporalClient,
		TaskQueue:  cfg.Temporal.TaskQueue,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info(ctx, "server stopped gracefully")
	return nil
}

// indexOrUnavailable substitutes a permanently-unavailable index when the
// connection at startup failed, keeping the resolver non-nil.
func indexOrUnavailable(index *vectorstore.Store) similarity.Index {
	if index == nil {
		return unavailableIndex{}
	}
	return index
}

type unavailableIndex struct{}

func (unavailableIndex) Query(context.Context, []float32, string, int) ([]vectorstore.Hit, error) {
	return nil, vectorstore.ErrUnavailable
}

func (unavailableIndex) Vectors(context.Context, []string) (map[string][]float32, error) {
	return nil, vectorstore.ErrUnavailable
}

func (unavailableIndex) Available(context.Context) bool { return false }

// temporalLogAdapter routes Temporal SDK logs through the service logger.
type temporalLogAdapter struct {
	logger *logging.Logger
}

func (t temporalLogAdapter) toFields(keyvals []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	return fields
}

func (t temporalLogAdapter) Debug(msg string, keyvals ...interface{}) {
	t.logger.Debug(context.Background(), msg, t.toFields(keyvals)...)
}

func (t temporalLogAdapter) Info(msg string, keyvals ...interface{}) {
	t.logger.Info(context.Background(), msg, t.toFields(keyvals)...)
}

func (t temporalLogAdapter) Warn(msg string, keyvals ...interface{}) {
	t.logger.Warn(context.Background(), msg, t.toFields(keyvals)...)
}

func (t temporalLogAdapter) Error(msg string, keyvals ...interface{}) {
	t.logger.Error(context.Background(), msg, t.toFields(keyvals)...)
}
