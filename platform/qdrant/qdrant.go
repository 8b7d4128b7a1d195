package qdrant

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"regis_chat_backend/config"
	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
)

const (
	grpcPort    = 6334
	restPort    = 6333
	maxRecvSize = 32 << 20
	upsertBatch = 64

	payloadText     = "page_content"
	payloadMetadata = "metadata"
)

// Endpoint is the gRPC address derived from QDRANT_URL.
type Endpoint struct {
	Host   string
	Port   int
	UseTLS bool
}

// ParseEndpoint accepts the REST style URL people usually copy from the
// Qdrant console and turns it into a gRPC endpoint.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("empty qdrant url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse qdrant url: %w", err)
	}
	ep := Endpoint{Host: u.Hostname(), Port: grpcPort}
	switch u.Scheme {
	case "https":
		ep.UseTLS = true
	case "http", "grpc":
	default:
		return Endpoint{}, fmt.Errorf("unsupported qdrant url scheme %q", u.Scheme)
	}
	if ep.Host == "" {
		return Endpoint{}, fmt.Errorf("qdrant url %q has no host", raw)
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("qdrant port %q: %w", p, err)
		}
		if n != restPort {
			ep.Port = n
		}
	}
	return ep, nil
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Store wraps one Qdrant collection with named dense and sparse vectors.
type Store struct {
	client     *qdrant.Client
	collection string
	denseName  string
	sparseName string
}

func NewStore(cfg *config.Config) (*Store, error) {
	ep, err := ParseEndpoint(cfg.QdrantURL)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   ep.Host,
		Port:   ep.Port,
		APIKey: cfg.QdrantAPIKey,
		UseTLS: ep.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithUserAgent("regis-chat-backend"),
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvSize)),
		},
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant %s: %w", ep, err)
	}
	logging.Logger.Info("Qdrant client ready", "endpoint", ep.String(), "tls", ep.UseTLS, "collection", cfg.CollectionName)
	return &Store{
		client:     client,
		collection: cfg.CollectionName,
		denseName:  cfg.DenseVectorName,
		sparseName: cfg.SparseVectorName,
	}, nil
}

// HybridSearch runs a dense and a sparse prefetch and fuses them with
// reciprocal rank fusion. An empty sparse vector skips the lexical leg.
func (s *Store) HybridSearch(ctx context.Context, dense []float32, sparse models.SparseVector, k int) ([]models.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	prefetchLimit := uint64(max(4*k, 20))
	prefetch := []*qdrant.PrefetchQuery{{
		Query: qdrant.NewQueryDense(dense),
		Using: qdrant.PtrOf(s.denseName),
		Limit: qdrant.PtrOf(prefetchLimit),
	}}
	if !sparse.Empty() {
		prefetch = append(prefetch, &qdrant.PrefetchQuery{
			Query: qdrant.NewQuerySparse(sparse.Indices, sparse.Values),
			Using: qdrant.PtrOf(s.sparseName),
			Limit: qdrant.PtrOf(prefetchLimit),
		})
	}
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Prefetch:       prefetch,
		Query:          qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant hybrid query: %w", err)
	}
	out := make([]models.Passage, 0, len(points))
	for _, p := range points {
		out = append(out, passageFromPoint(p))
	}
	return out, nil
}

// EnsureCollection creates the collection when it is absent. With recreate
// set an existing collection is dropped first.
func (s *Store) EnsureCollection(ctx context.Context, dim int, recreate bool) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists && recreate {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("drop collection %s: %w", s.collection, err)
		}
		logging.Logger.Warn("Dropped collection", "collection", s.collection)
		exists = false
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			s.denseName: {Size: uint64(dim), Distance: qdrant.Distance_Cosine},
		}),
		SparseVectorsConfig: qdrant.NewSparseVectorsConfig(map[string]*qdrant.SparseVectorParams{
			s.sparseName: {Modifier: qdrant.Modifier_Idf.Enum()},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	logging.Logger.Info("Created collection", "collection", s.collection, "dim", dim)
	return nil
}

// Upsert writes points in batches and waits for each batch to be applied.
func (s *Store) Upsert(ctx context.Context, points []models.VectorPoint) (int, error) {
	written := 0
	for start := 0; start < len(points); start += upsertBatch {
		end := min(start+upsertBatch, len(points))
		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			ps, err := pointStruct(p, s.denseName, s.sparseName)
			if err != nil {
				return written, err
			}
			batch = append(batch, ps)
		}
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         batch,
		})
		if err != nil {
			return written, fmt.Errorf("upsert into %s: %w", s.collection, err)
		}
		written += len(batch)
	}
	return written, nil
}

// Ping checks the server answers its health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func pointStruct(p models.VectorPoint, denseName, sparseName string) (*qdrant.PointStruct, error) {
	payload, err := qdrant.TryValueMap(map[string]any{
		payloadText: p.Text,
		payloadMetadata: map[string]any{
			"file":   p.File,
			"source": p.File,
			"page":   p.Page,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("payload for point %s: %w", p.ID, err)
	}
	vectors := map[string]*qdrant.Vector{
		denseName: qdrant.NewVectorDense(p.Dense),
	}
	if !p.Sparse.Empty() {
		vectors[sparseName] = qdrant.NewVectorSparse(p.Sparse.Indices, p.Sparse.Values)
	}
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(p.ID),
		Payload: payload,
		Vectors: qdrant.NewVectorsMap(vectors),
	}, nil
}

// passageFromPoint reads the langchain style payload written by the ingester.
func passageFromPoint(p *qdrant.ScoredPoint) models.Passage {
	out := models.Passage{Score: p.GetScore()}
	if id := p.GetId(); id != nil {
		if u := id.GetUuid(); u != "" {
			out.ID = u
		} else {
			out.ID = strconv.FormatUint(id.GetNum(), 10)
		}
	}
	payload := p.GetPayload()
	out.Text = payload[payloadText].GetStringValue()
	meta := payload[payloadMetadata].GetStructValue().GetFields()
	out.File = meta["file"].GetStringValue()
	if out.File == "" {
		out.File = meta["source"].GetStringValue()
	}
	if page := meta["page"]; page != nil {
		if n := page.GetIntegerValue(); n != 0 {
			out.Page = int(n)
		} else {
			out.Page = int(page.GetDoubleValue())
		}
	}
	return out
}
