package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/trending"
	"github.com/fyrsmithlabs/quoted/internal/workflows"
)

// QuoteView is the wire shape of a quote with its vote aggregates.
type QuoteView struct {
	ID        string    `json:"id"`
	Quote     string    `json:"quote"`
	Author    string    `json:"author,omitempty"`
	Tags      string    `json:"tags,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Score     int       `json:"score"`
}

func viewOf(sq quote.Scored) QuoteView {
	return QuoteView{
		ID:        sq.ID,
		Quote:     sq.Text,
		Author:    sq.Author,
		Tags:      sq.Tags,
		Status:    string(sq.Status),
		CreatedAt: sq.CreatedAt,
		Likes:     sq.Likes,
		Dislikes:  sq.Dislikes,
		Score:     sq.Score,
	}
}

func viewsOf(scored []quote.Scored) []QuoteView {
	views := make([]QuoteView, len(scored))
	for i, sq := range scored {
		views[i] = viewOf(sq)
	}
	return views
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case quote.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, quote.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "quote not found")
	case errors.Is(err, quote.ErrActorNotFound):
		return echo.NewHTTPError(http.StatusForbidden, "unknown user")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// SubmitRequest is the request body for POST /api/quotes.
type SubmitRequest struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Tags   string `json:"tags"`
}

// SubmitResponse acknowledges an accepted submission. Publication runs
// asynchronously; the quote stays a draft until the workflow finishes.
type SubmitResponse struct {
	QuoteID    string `json:"quoteId"`
	Status     string `json:"status"`
	WorkflowID string `json:"workflowId"`
}

func (s *Server) handleSubmitQuote(c echo.Context) error {
	ctx := c.Request().Context()

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	text := quote.SanitizeText(req.Quote)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Quote text is required")
	}
	tagString := s.vocabulary.NormalizeJoined(req.Tags)
	if tagString == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "At least one tag is required")
	}

	actor := requestActor(c)
	q := &quote.Quote{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    strings.TrimSpace(req.Author),
		Tags:      tagString,
		Status:    quote.StatusDraft,
		Creator:   actor.Key(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		s.logger.Error(ctx, "failed to create quote", zap.Error(err))
		return httpError(err)
	}

	workflowID := "publish-" + q.ID
	_, err := s.temporal.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: s.taskQueue,
	}, workflows.PublishQuoteWorkflow, workflows.PublishConfig{QuoteID: q.ID})
	if err != nil {
		s.logger.Error(ctx, "failed to start publish workflow",
			zap.String("quote_id", q.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "publication unavailable")
	}

	return c.JSON(http.StatusAccepted, SubmitResponse{
		QuoteID:    q.ID,
		Status:     string(quote.StatusDraft),
		WorkflowID: workflowID,
	})
}

// VoteRequest is the request body for POST /api/quotes/:quoteId/vote.
// Vote is the absolute desired state, not a delta.
type VoteRequest struct {
	Vote int `json:"vote"`
}

func (s *Server) handleVote(c echo.Context) error {
	ctx := c.Request().Context()

	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.votes.SetVote(ctx, c.Param("quoteId"), requestActor(c), req.Vote)
	if err != nil {
		if !quote.IsValidation(err) && !errors.Is(err, quote.ErrNotFound) {
			s.logger.Error(ctx, "vote failed", zap.Error(err))
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleListQuotes(c echo.Context) error {
	ctx := c.Request().Context()

	published, err := s.quotes.ListPublished(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list quotes", zap.Error(err))
		return httpError(err)
	}
	scored, err := s.ledger.EnrichScores(ctx, published)
	if err != nil {
		s.logger.Error(ctx, "failed to score quotes", zap.Error(err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewsOf(scored))
}

func (s *Server) handleMine(c echo.Context) error {
	ctx := c.Request().Context()

	mine, err := s.quotes.ListByCreator(ctx, requestActor(c).Key())
	if err != nil {
		s.logger.Error(ctx, "failed to list own quotes", zap.Error(err))
		return httpError(err)
	}
	scored, err := s.ledger.EnrichScores(ctx, mine)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewsOf(scored))
}

func (s *Server) handleLiked(c echo.Context) error {
	ctx := c.Request().Context()

	liked, err := s.ledger.LikedQuotes(ctx, requestActor(c))
	if err != nil {
		s.logger.Error(ctx, "failed to list liked quotes", zap.Error(err))
		return httpError(err)
	}
	scored, err := s.ledger.EnrichScores(ctx, liked)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewsOf(scored))
}

func (s *Server) handleQuoteDetail(c echo.Context) error {
	ctx := c.Request().Context()
	actor := requestActor(c)

	q, err := s.quotes.Get(ctx, c.Param("quoteId"))
	if err != nil {
		return httpError(err)
	}

	// Unpublished quotes are visible only to their creator; everyone else
	// sees not-found rather than a hint that the quote exists.
	if q.Status != quote.StatusPublished && q.Creator != actor.Key() {
		return echo.NewHTTPError(http.StatusNotFound, "quote not found")
	}

	if q.Status == quote.StatusPublished {
		if err := s.votes.RecordDetail(ctx, q.ID, actor); err != nil {
			s.logger.Warn(ctx, "failed to record detail view",
				zap.String("quote_id", q.ID), zap.Error(err))
		}
	}

	scored, err := s.ledger.EnrichScores(ctx, []quote.Quote{*q})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewOf(scored[0]))
}

func (s *Server) handleSimilar(c echo.Context) error {
	ctx := c.Request().Context()

	q, err := s.quotes.Get(ctx, c.Param("quoteId"))
	if err != nil {
		return httpError(err)
	}
	if q.Status != quote.StatusPublished {
		return echo.NewHTTPError(http.StatusNotFound, "quote not found")
	}

	results, err := s.resolver.SimilarToQuote(ctx, q)
	if err != nil {
		s.logger.Error(ctx, "similarity lookup failed",
			zap.String("quote_id", q.ID), zap.Error(err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) handleSearch(c echo.Context) error {
	ctx := c.Request().Context()

	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "search query is required")
	}

	results, err := s.resolver.Search(ctx, query)
	if err != nil {
		s.logger.Error(ctx, "search failed", zap.Error(err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) handleTrending(c echo.Context) error {
	ctx := c.Request().Context()

	snap, err := s.snapshots.Load(ctx)
	if errors.Is(err, quote.ErrSnapshotMissing) {
		return c.JSON(http.StatusOK, trending.Snapshot{Entries: []trending.Entry{}})
	}
	if err != nil {
		s.logger.Error(ctx, "failed to load trending snapshot", zap.Error(err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleTags(c echo.Context) error {
	return c.JSON(http.StatusOK, s.vocabulary.Entries())
}
