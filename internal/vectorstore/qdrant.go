// Package vectorstore persists quote embeddings in Qdrant over gRPC.
//
// A single collection holds two logical namespaces distinguished by a
// payload field: "content" points carry the quote-plus-summary embedding,
// "categories" points carry the tag embedding. Point ids are derived
// deterministically from the record id so re-indexing the same quote
// overwrites rather than duplicates.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fyrsmithlabs/quoted/internal/config"
	"github.com/fyrsmithlabs/quoted/internal/logging"
)

const (
	// NamespaceContent holds quote-plus-summary embeddings.
	NamespaceContent = "content"

	// NamespaceCategories holds category-text embeddings.
	NamespaceCategories = "categories"

	maxRetries     = 3
	retryBackoff   = time.Second
	maxMessageSize = 4 * 1024 * 1024
)

// ErrUnavailable indicates the index could not be reached. Read paths treat
// this as a soft failure and return empty results.
var ErrUnavailable = errors.New("vector index unavailable")

// Record is one point to index: a quote's embedding in one namespace.
type Record struct {
	QuoteID    string
	Namespace  string
	Text       string
	Summary    string
	Categories string
	Vector     []float32
}

// RecordID returns the stable external id of the record,
// "<namespace>-<quoteId>".
func (r Record) RecordID() string {
	return RecordID(r.Namespace, r.QuoteID)
}

// RecordID builds the stable external id for a namespace and quote id.
func RecordID(namespace, quoteID string) string {
	return namespace + "-" + quoteID
}

// Hit is one scored search result.
type Hit struct {
	RecordID  string
	QuoteID   string
	Namespace string
	Score     float32
}

// pointID maps a record id to a deterministic UUIDv5 so repeated upserts of
// the same record replace the existing point.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("quoted:"+recordID)).String()
}

// IsTransientError reports whether a gRPC error is worth retrying.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// Store is the Qdrant-backed quote index.
type Store struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
	logger     *logging.Logger
}

// NewStore connects to Qdrant and ensures the collection exists.
func NewStore(cfg *config.QdrantConfig, logger *logging.Logger) (*Store, error) {
	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxMessageSize),
				grpc.MaxCallSendMsgSize(maxMessageSize),
			),
		},
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	s := &Store{
		client:     client,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
		logger:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	return nil
}

// Available reports whether the index answers health checks.
func (s *Store) Available(ctx context.Context) bool {
	_, err := s.client.HealthCheck(ctx)
	return err == nil
}

func (s *Store) retry(ctx context.Context, name string, op func() error) error {
	backoff := retryBackoff
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsTransientError(err) {
			return fmt.Errorf("%s failed (permanent): %w", name, err)
		}
		if attempt == maxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", name, maxRetries, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", name, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Upsert indexes the given records. Existing points with the same record id
// are replaced.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		if rec.Namespace != NamespaceContent && rec.Namespace != NamespaceCategories {
			return fmt.Errorf("unknown namespace %q", rec.Namespace)
		}
		if len(rec.Vector) == 0 {
			return fmt.Errorf("record %s has no vector", rec.RecordID())
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(rec.RecordID())),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"id":         rec.RecordID(),
				"quoteId":    rec.QuoteID,
				"namespace":  rec.Namespace,
				"quote":      rec.Text,
				"summary":    rec.Summary,
				"categories": rec.Categories,
			}),
		}
	}

	err := s.retry(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}

	s.logger.Debug(ctx, "indexed records",
		zap.Int("count", len(points)),
		zap.String("collection", s.collection),
	)
	return nil
}

// Query searches one namespace for the nearest points to the vector.
func (s *Store) Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("namespace", namespace),
		},
	}

	var scored []*qdrant.ScoredPoint
	err := s.retry(ctx, "query", func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         filter,
		})
		if err != nil {
			return err
		}
		scored = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("querying namespace %s: %w", namespace, err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, point := range scored {
		hit := Hit{Score: point.Score, Namespace: namespace}
		if v, ok := point.Payload["id"]; ok {
			hit.RecordID = v.GetStringValue()
		}
		if v, ok := point.Payload["quoteId"]; ok {
			hit.QuoteID = v.GetStringValue()
		}
		if hit.QuoteID == "" {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Vectors fetches the stored vectors for the given record ids. Missing
// records are absent from the result map.
func (s *Store) Vectors(ctx context.Context, recordIDs []string) (map[string][]float32, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}

	ids := make([]*qdrant.PointId, len(recordIDs))
	for i, rid := range recordIDs {
		ids[i] = qdrant.NewIDUUID(pointID(rid))
	}

	var points []*qdrant.RetrievedPoint
	err := s.retry(ctx, "get", func() error {
		res, err := s.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: s.collection,
			Ids:            ids,
			WithVectors:    qdrant.NewWithVectors(true),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %d points: %w", len(ids), err)
	}

	vectors := make(map[string][]float32, len(points))
	for _, point := range points {
		rid := ""
		if v, ok := point.Payload["id"]; ok {
			rid = v.GetStringValue()
		}
		if rid == "" {
			continue
		}
		if vo := point.Vectors.GetVector(); vo != nil {
			vectors[rid] = vo.Data
		}
	}
	return vectors, nil
}

// Delete removes all points for a quote across namespaces.
func (s *Store) Delete(ctx context.Context, quoteID string) error {
	err := s.retry(ctx, "delete", func() error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
				Must: []*qdrant.Condition{
					qdrant.NewMatch("quoteId", quoteID),
				},
			}),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting points for quote %s: %w", quoteID, err)
	}
	return nil
}
