package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/splap/bookqa/internal/chunker"
	"github.com/splap/bookqa/internal/conceptmap"
	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/core/ports/driving"
	"github.com/splap/bookqa/internal/index/hnsw"
	"github.com/splap/bookqa/internal/index/lexical"
	"github.com/splap/bookqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	// embedWorkers bounds concurrent embedding batches.
	embedWorkers = 4

	// embedRateLimit is the request rate ceiling against the embedding
	// service, in batches per second.
	embedRateLimit = rate.Limit(8)
	embedBurst     = 4
)

// IngestService runs the indexing pipeline: chunk, lexical index,
// embed, semantic index, concept map, persist, register. Everything a
// book needs to answer questions is built here; nothing is mutated
// afterwards.
type IngestService struct {
	registry   *BookRegistry
	bookStore  driven.BookStore
	concepts   driven.ConceptStore
	summaries  driven.SummaryStore
	embedding  driven.EmbeddingService
	builder    *conceptmap.Builder
	splitter   *chunker.Chunker
	summarySvc *SummaryService

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewIngestService creates an ingest service. The embedding service
// may be nil; books then come up lexical-only.
func NewIngestService(
	registry *BookRegistry,
	bookStore driven.BookStore,
	concepts driven.ConceptStore,
	summaries driven.SummaryStore,
	embedding driven.EmbeddingService,
	builder *conceptmap.Builder,
	splitter *chunker.Chunker,
) *IngestService {
	return &IngestService{
		registry:  registry,
		bookStore: bookStore,
		concepts:  concepts,
		summaries: summaries,
		embedding: embedding,
		builder:   builder,
		splitter:  splitter,
		inFlight:  make(map[string]bool),
	}
}

// SetSummaryService wires the summary cache for invalidation on
// re-ingest. Optional; set after construction to break the dependency
// cycle between ingest and summaries.
func (s *IngestService) SetSummaryService(svc *SummaryService) {
	s.summarySvc = svc
}

// Ingest runs the full pipeline and returns the new book's ID.
func (s *IngestService) Ingest(ctx context.Context, book driving.BookInput, chapters []driving.ChapterInput) (string, error) {
	title := strings.TrimSpace(book.Title)
	if title == "" {
		return "", fmt.Errorf("missing book title: %w", domain.ErrInvalidInput)
	}
	if len(chapters) == 0 {
		return "", fmt.Errorf("no chapters: %w", domain.ErrInvalidInput)
	}

	key := strings.ToLower(title)
	s.mu.Lock()
	if s.inFlight[key] {
		s.mu.Unlock()
		return "", fmt.Errorf("book %q: %w", title, domain.ErrIngestInProgress)
	}
	s.inFlight[key] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	bookID := uuid.NewString()
	b := domain.Book{ID: bookID, Title: title, Author: strings.TrimSpace(book.Author)}

	logger.Section("Ingest")
	logger.Info("Book %q (%s): %d chapters", title, bookID, len(chapters))

	status := domain.IndexStatus{BookID: bookID, State: domain.IndexStateBuilding}
	if err := s.bookStore.SaveIndexStatus(ctx, &status); err != nil {
		return "", fmt.Errorf("save index status: %w", err)
	}

	idx, err := s.build(ctx, &b, chapters, &status)
	if err != nil {
		status.State = domain.IndexStateFailed
		status.Err = err.Error()
		// Best effort; the pipeline error is the one worth returning.
		if ctx.Err() == nil {
			_ = s.bookStore.SaveIndexStatus(context.WithoutCancel(ctx), &status)
		}
		return "", err
	}

	s.registry.Register(idx)
	if s.summarySvc != nil {
		s.summarySvc.Invalidate(bookID)
	}
	logger.Info("Book %s ready: %d chunks, %d embedded, %d excluded",
		bookID, status.ChunkCount, status.EmbeddedCount, status.ExcludedChunks)
	return bookID, nil
}

// build runs the pipeline stages and assembles the immutable handle.
func (s *IngestService) build(
	ctx context.Context, book *domain.Book, inputs []driving.ChapterInput, status *domain.IndexStatus,
) (*BookIndex, error) {
	// Chunk every chapter.
	chapters := make([]domain.Chapter, 0, len(inputs))
	var chunks []domain.Chunk
	texts := make(map[string]string, len(inputs))
	for i, in := range inputs {
		chapterID := fmt.Sprintf("ch%03d", i+1)
		chapter := domain.Chapter{
			ID:            chapterID,
			BookID:        book.ID,
			Title:         in.Title,
			Ordinal:       i,
			SpinePosition: i,
		}
		chapters = append(chapters, chapter)
		texts[chapterID] = in.Text

		split, err := s.splitter.Split(in.Text, book.ID, chapterID)
		if err != nil {
			return nil, fmt.Errorf("chunk chapter %s: %w", chapterID, err)
		}
		chunks = append(chunks, split...)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	status.ChunkCount = len(chunks)
	logger.Info("Chunked: %d chunks", len(chunks))

	// Embeddings, then the semantic index.
	semantic, err := s.embedChunks(ctx, chapters, chunks, status)
	if err != nil {
		return nil, err
	}

	// Lexical index over all chunks, embedded or not.
	lex := lexical.New(chunks)

	// Concept map needs the embedded chunks for chapter centroids.
	conceptInputs := make([]conceptmap.ChapterInput, 0, len(chapters))
	for _, ch := range chapters {
		conceptInputs = append(conceptInputs, conceptmap.ChapterInput{
			Chapter: ch,
			Text:    texts[ch.ID],
			Chunks:  chapterChunks(chunks, ch.ID),
		})
	}
	cm, err := s.builder.Build(ctx, book.ID, conceptInputs)
	if err != nil {
		return nil, fmt.Errorf("build concept map: %w", err)
	}

	// Persist everything before registering.
	book.IngestedAt = time.Now().UTC()
	if err := s.bookStore.SaveBook(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	if err := s.bookStore.SaveChapters(ctx, book.ID, chapters); err != nil {
		return nil, fmt.Errorf("save chapters: %w", err)
	}
	if err := s.bookStore.SaveChunks(ctx, book.ID, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}
	if err := s.concepts.SaveConceptMap(ctx, cm); err != nil {
		return nil, fmt.Errorf("save concept map: %w", err)
	}
	// Stale summaries from any previous ingest of this title die here.
	if err := s.summaries.DeleteSummaries(ctx, book.ID); err != nil {
		return nil, fmt.Errorf("clear summaries: %w", err)
	}

	status.State = domain.IndexStateReady
	if err := s.bookStore.SaveIndexStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("save index status: %w", err)
	}

	var vector driven.VectorIndex
	if semantic != nil {
		vector = semantic
	}
	return NewBookIndex(*book, chapters, chunks, lex, vector, cm, *status), nil
}

// embedChunks generates embeddings chapter by chapter with bounded
// workers and a rate limiter, then builds the semantic index. A failed
// chunk is retried once and excluded afterwards. Returns nil when the
// embedding capability is missing or unusable; the book then runs
// lexical-only.
func (s *IngestService) embedChunks(
	ctx context.Context, chapters []domain.Chapter, chunks []domain.Chunk, status *domain.IndexStatus,
) (*hnsw.Index, error) {
	if s.embedding == nil {
		logger.Warn("No embedding service, book will be lexical-only")
		status.SemanticAvailable = false
		return nil, nil
	}
	if err := s.embedding.Ping(ctx); err != nil {
		logger.Warn("Embedding service unreachable, book will be lexical-only: %v", err)
		status.SemanticAvailable = false
		return nil, nil
	}

	logger.Section("Embedding")
	logger.Info("Model %s (%d dimensions), %d workers",
		s.embedding.ModelName(), s.embedding.Dimensions(), embedWorkers)

	limiter := rate.NewLimiter(embedRateLimit, embedBurst)
	byChapter := make(map[string][]int, len(chapters))
	for i, c := range chunks {
		byChapter[c.ChapterID] = append(byChapter[c.ChapterID], i)
	}

	var mu sync.Mutex
	excluded := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)
	for _, ch := range chapters {
		indices := byChapter[ch.ID]
		if len(indices) == 0 {
			continue
		}
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			texts := make([]string, len(indices))
			for j, i := range indices {
				texts[j] = chunks[i].Text
			}
			vecs, err := s.embedding.EmbedBatch(gctx, texts)
			if err == nil && len(vecs) == len(indices) {
				for j, i := range indices {
					chunks[i].Embedding = vecs[j]
				}
				return nil
			}
			logger.Warn("Batch embed failed for chapter %s, retrying per chunk: %v", ch.ID, err)

			// One retry per chunk, then exclusion.
			failed := 0
			for _, i := range indices {
				vec, retryErr := s.embedding.Embed(gctx, chunks[i].Text)
				if retryErr != nil {
					failed++
					continue
				}
				chunks[i].Embedding = vec
			}
			if failed > 0 {
				mu.Lock()
				excluded += failed
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embedding pipeline: %w", err)
	}

	embedded := 0
	idx := hnsw.New(s.embedding.Dimensions())
	for _, c := range chunks {
		if c.Embedding == nil {
			continue
		}
		if err := idx.Add(c.ID, c.ChapterID, c.Embedding); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
		embedded++
	}
	status.EmbeddedCount = embedded
	status.ExcludedChunks = excluded
	status.SemanticAvailable = embedded > 0
	logger.Info("Embedded %d/%d chunks (%d excluded)", embedded, len(chunks), excluded)

	if embedded == 0 {
		return nil, nil
	}
	return idx, nil
}

// Status reports a book's indexing state.
func (s *IngestService) Status(ctx context.Context, bookID string) (*domain.IndexStatus, error) {
	if idx, err := s.registry.Get(bookID); err == nil {
		status := idx.Status
		return &status, nil
	}
	status, err := s.bookStore.GetIndexStatus(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("index status for %s: %w", bookID, err)
	}
	return status, nil
}

// Delete removes a book and everything derived from it.
func (s *IngestService) Delete(ctx context.Context, bookID string) error {
	s.registry.Remove(bookID)
	if s.summarySvc != nil {
		s.summarySvc.Invalidate(bookID)
	}
	if err := s.summaries.DeleteSummaries(ctx, bookID); err != nil {
		return fmt.Errorf("delete summaries: %w", err)
	}
	if err := s.concepts.DeleteConceptMap(ctx, bookID); err != nil {
		return fmt.Errorf("delete concept map: %w", err)
	}
	if err := s.bookStore.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	logger.Info("Deleted book %s", bookID)
	return nil
}

// chapterChunks filters one chapter's chunks preserving order.
func chapterChunks(chunks []domain.Chunk, chapterID string) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range chunks {
		if c.ChapterID == chapterID {
			out = append(out, c)
		}
	}
	return out
}
