package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/cache"
	"regis_chat_backend/utils"
)

const genericDocumentName = "เอกสารทั่วไป"

// RetrievalService merges registry keyword hits with hybrid vector search
// into one context blob and a URL-unique source list.
type RetrievalService struct {
	registry *FormRegistry
	embedder Embedder
	sparse   *SparseEncoder
	searcher VectorSearcher
	cache    *cache.TypedCache[*models.RetrievalResult]
	cacheTTL time.Duration
}

// NewRetrievalService wires the gateway. cacheService may be nil to disable
// result caching.
func NewRetrievalService(registry *FormRegistry, embedder Embedder, sparse *SparseEncoder, searcher VectorSearcher, cacheService cache.CacheService, cacheTTL time.Duration) *RetrievalService {
	s := &RetrievalService{
		registry: registry,
		embedder: embedder,
		sparse:   sparse,
		searcher: searcher,
		cacheTTL: cacheTTL,
	}
	if cacheService != nil && cacheTTL > 0 {
		s.cache = cache.NewTypedCache[*models.RetrievalResult](cacheService)
	}
	return s
}

// Retrieve returns the context and sources for a question. Vector store and
// embedding errors are returned unchanged in meaning; no partial result is
// produced.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) (*models.RetrievalResult, error) {
	if s.cache == nil {
		return s.retrieve(ctx, query, k)
	}
	return s.cache.GetOrLoad(ctx, retrievalCacheKey(query, k), s.cacheTTL, func(ctx context.Context) (*models.RetrievalResult, error) {
		return s.retrieve(ctx, query, k)
	})
}

func (s *RetrievalService) retrieve(ctx context.Context, query string, k int) (*models.RetrievalResult, error) {
	var b strings.Builder
	sources := newSourceList()

	for _, entry := range s.registry.Lookup(query) {
		fmt.Fprintf(&b, "\n[ข้อมูลสำคัญ]: ผู้ใช้ถามถึง '%s' (%s). ลิงก์: %s\n", entry.Name, entry.ID, entry.URL)
		sources.add(models.Source{Doc: entry.DisplayName(), Page: 1, URL: entry.URL})
	}

	dense, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	passages, err := s.searcher.HybridSearch(ctx, dense, s.sparse.EncodeQuery(query), k)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(passages, func(i, j int) bool { return passages[i].Score > passages[j].Score })

	chunks := make([]models.RetrievedChunk, 0, len(passages))
	for _, p := range passages {
		b.WriteString(p.Text)
		b.WriteString("\n\n")

		chunk := s.resolveChunk(p)
		chunks = append(chunks, chunk)
		if chunk.SourceURL != "" {
			page := p.Page
			if page <= 0 {
				page = 1
			}
			sources.add(models.Source{Doc: chunk.DisplayName, Page: page, URL: chunk.SourceURL})
		}
	}

	logging.Logger.Debug("retrieval done", "passages", len(passages), "sources", len(sources.items))
	return &models.RetrievalResult{
		Context: b.String(),
		Sources: sources.items,
		Chunks:  chunks,
	}, nil
}

// resolveChunk attributes a passage to a registry form when possible, then
// to the first URL in its text.
func (s *RetrievalService) resolveChunk(p models.Passage) models.RetrievedChunk {
	chunk := models.RetrievedChunk{Text: p.Text, Score: p.Score}
	if entry, ok := s.registry.FindSource(p.File, p.Text); ok {
		chunk.SourceURL = entry.URL
		chunk.DisplayName = entry.DisplayName()
		return chunk
	}
	chunk.DisplayName = utils.LastPathSegment(p.File)
	if chunk.DisplayName == "" {
		chunk.DisplayName = genericDocumentName
	}
	chunk.SourceURL = utils.FirstURL(p.Text)
	return chunk
}

func retrievalCacheKey(query string, k int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", k, strings.ToLower(strings.TrimSpace(query)))))
	return "retrieval:" + hex.EncodeToString(sum[:])
}

type sourceList struct {
	items []models.Source
	seen  map[string]struct{}
}

func newSourceList() *sourceList {
	return &sourceList{items: []models.Source{}, seen: map[string]struct{}{}}
}

func (l *sourceList) add(src models.Source) {
	if _, dup := l.seen[src.URL]; dup {
		return
	}
	l.seen[src.URL] = struct{}{}
	l.items = append(l.items, src)
}
