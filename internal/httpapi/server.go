// Package httpapi provides the HTTP API for the quotes platform.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/config"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/similarity"
	"github.com/fyrsmithlabs/quoted/internal/store"
	"github.com/fyrsmithlabs/quoted/internal/tags"
	"github.com/fyrsmithlabs/quoted/internal/trending"
	"github.com/fyrsmithlabs/quoted/internal/vote"
)

// WorkflowStarter starts workflows. Satisfied by client.Client; tests
// substitute a recorder.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Server serves the quotes API.
type Server struct {
	echo       *echo.Echo
	quotes     *store.QuoteStore
	ledger     *store.Ledger
	votes      *vote.StateMachine
	resolver   *similarity.Resolver
	snapshots  *trending.SnapshotStore
	vocabulary *tags.Vocabulary
	temporal   WorkflowStarter
	taskQueue  string
	logger     *logging.Logger
	config     *config.ServerConfig
}

// Deps bundles the server's collaborators.
type Deps struct {
	Quotes     *store.QuoteStore
	Ledger     *store.Ledger
	Votes      *vote.StateMachine
	Resolver   *similarity.Resolver
	Snapshots  *trending.SnapshotStore
	Vocabulary *tags.Vocabulary
	Temporal   WorkflowStarter
	TaskQueue  string
	Logger     *logging.Logger
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(cfg *config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Quotes == nil || deps.Ledger == nil || deps.Votes == nil {
		return nil, fmt.Errorf("stores are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			// Carry the id in the request context so every log line emitted
			// while handling the request is correlated, not just this one.
			c.SetRequest(c.Request().WithContext(
				logging.WithRequestID(c.Request().Context(), rid)))

			start := time.Now()
			err := next(c)

			deps.Logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:       e,
		quotes:     deps.Quotes,
		ledger:     deps.Ledger,
		votes:      deps.Votes,
		resolver:   deps.Resolver,
		snapshots:  deps.Snapshots,
		vocabulary: deps.Vocabulary,
		temporal:   deps.Temporal,
		taskQueue:  deps.TaskQueue,
		logger:     deps.Logger,
		config:     cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api", s.sessionMiddleware)
	api.GET("/tags", s.handleTags)
	api.GET("/quotes", s.handleListQuotes)
	api.POST("/quotes", s.handleSubmitQuote)
	api.GET("/quotes/trending", s.handleTrending)
	api.GET("/quotes/search", s.handleSearch)
	api.GET("/quotes/mine", s.handleMine)
	api.GET("/quotes/liked", s.handleLiked)
	api.GET("/quotes/:quoteId", s.handleQuoteDetail)
	api.GET("/quotes/:quoteId/similar", s.handleSimilar)
	api.POST("/quotes/:quoteId/vote", s.handleVote)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
