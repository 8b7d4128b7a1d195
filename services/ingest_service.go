package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/redis"
	"regis_chat_backend/utils"
)

const (
	chunkSize        = 500
	chunkOverlap     = 50
	maxDownloadBytes = 50 * 1024 * 1024
)

// IngestJobSource hands out queued ingest jobs.
type IngestJobSource interface {
	NextIngest(ctx context.Context, timeout time.Duration) (*models.IngestJob, error)
}

type IngestOptions struct {
	Dimension   int
	Concurrency int
	ExtraURLs   []string
	HTTPClient  *http.Client
}

// IngestService downloads the registrar documents, splits them into
// passages and stores dense and sparse vectors for hybrid search.
type IngestService struct {
	registry    *FormRegistry
	embedder    Embedder
	sparse      *SparseEncoder
	store       VectorWriter
	splitter    textsplitter.TextSplitter
	client      *http.Client
	dimension   int
	concurrency int
	extraURLs   []string
}

func NewIngestService(registry *FormRegistry, embedder Embedder, sparse *SparseEncoder, store VectorWriter, opts IngestOptions) *IngestService {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &IngestService{
		registry: registry,
		embedder: embedder,
		sparse:   sparse,
		store:    store,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		client:      client,
		dimension:   opts.Dimension,
		concurrency: concurrency,
		extraURLs:   opts.ExtraURLs,
	}
}

// Sources lists every registry URL, then the configured extras, then
// extra, without duplicates.
func (s *IngestService) Sources(extra []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, u := range s.registry.URLs() {
		add(u)
	}
	for _, u := range s.extraURLs {
		add(u)
	}
	for _, u := range extra {
		add(u)
	}
	return out
}

// Run ingests the sources of one job. Individual sources that cannot be
// fetched or parsed are reported and skipped.
func (s *IngestService) Run(ctx context.Context, job *models.IngestJob) (*models.IngestReport, error) {
	if err := s.store.EnsureCollection(ctx, s.dimension, job.Recreate); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	sources := s.Sources(job.URLs)
	report := &models.IngestReport{Sources: len(sources)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, src := range sources {
		g.Go(func() error {
			chunks, stored, err := s.ingestSource(gctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.Logger.Warn("skip source", "url", src, "error", err)
				report.FailedURLs = append(report.FailedURLs, src)
				return nil
			}
			report.Chunks += chunks
			report.PointsStored += stored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	logging.Logger.Info("ingest finished",
		"job_id", job.ID,
		"sources", report.Sources,
		"failed", len(report.FailedURLs),
		"chunks", report.Chunks,
		"points", report.PointsStored,
	)
	return report, nil
}

func (s *IngestService) ingestSource(ctx context.Context, src string) (int, int, error) {
	data, contentType, err := s.download(ctx, utils.DriveDownloadURL(src))
	if err != nil {
		return 0, 0, err
	}
	pages, err := loadDocuments(ctx, data, contentType)
	if err != nil {
		return 0, 0, fmt.Errorf("load %s: %w", src, err)
	}
	chunks, err := textsplitter.SplitDocuments(s.splitter, pages)
	if err != nil {
		return 0, 0, fmt.Errorf("split %s: %w", src, err)
	}
	chunks = nonBlank(chunks)
	if len(chunks) == 0 {
		return 0, 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.PageContent
	}
	dense, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("embed %s: %w", src, err)
	}

	points := make([]models.VectorPoint, len(chunks))
	for i, c := range chunks {
		page := pageOf(c.Metadata)
		points[i] = models.VectorPoint{
			ID:     pointID(src, page, i),
			Dense:  dense[i],
			Sparse: s.sparse.EncodeDocument(c.PageContent),
			Text:   c.PageContent,
			File:   src,
			Page:   page,
		}
	}
	stored, err := s.store.Upsert(ctx, points)
	if err != nil {
		return len(chunks), stored, fmt.Errorf("upsert %s: %w", src, err)
	}
	logging.Logger.Debug("source ingested", "url", src, "chunks", len(chunks))
	return len(chunks), stored, nil
}

func (s *IngestService) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	if len(data) > maxDownloadBytes {
		return nil, "", fmt.Errorf("download %s: larger than %d bytes", rawURL, maxDownloadBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// loadDocuments picks a loader by content: PDF pages carry their page
// number, HTML and plain text count as one page.
func loadDocuments(ctx context.Context, data []byte, contentType string) ([]schema.Document, error) {
	var loader documentloaders.Loader
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		loader = documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	case strings.Contains(contentType, "html"):
		loader = documentloaders.NewHTML(bytes.NewReader(data))
	default:
		loader = documentloaders.NewText(bytes.NewReader(data))
	}
	return loader.Load(ctx)
}

func nonBlank(docs []schema.Document) []schema.Document {
	out := docs[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.PageContent) != "" {
			out = append(out, d)
		}
	}
	return out
}

func pageOf(meta map[string]any) int {
	switch p := meta["page"].(type) {
	case int:
		return p
	case int64:
		return int(p)
	case float64:
		return int(p)
	}
	return 1
}

// pointID is stable for a source, page and chunk position so re-ingesting
// overwrites earlier points.
func pointID(src string, page, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d#%d", src, page, index))).String()
}

// RunWorker consumes queued jobs until ctx ends.
func (s *IngestService) RunWorker(ctx context.Context, jobs IngestJobSource, pollTimeout time.Duration) error {
	logging.Logger.Info("ingest worker started")
	for {
		job, err := jobs.NextIngest(ctx, pollTimeout)
		if ctx.Err() != nil {
			logging.Logger.Info("ingest worker stopped")
			return nil
		}
		if errors.Is(err, redis.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			logging.Logger.Error("fail NextIngest", "error", err)
			if sleepCtx(ctx, time.Second) != nil {
				return nil
			}
			continue
		}
		if _, err := s.Run(ctx, job); err != nil {
			logging.Logger.Error("ingest job failed", "job_id", job.ID, "error", err)
		}
	}
}
