package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/splap/bookqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// book, concept and summary store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bookqa/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bookqa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// BookStore returns a BookStore interface backed by this store.
func (s *Store) BookStore() driven.BookStore {
	return &bookStore{store: s}
}

// ConceptStore returns a ConceptStore interface backed by this store.
func (s *Store) ConceptStore() driven.ConceptStore {
	return &conceptStore{store: s}
}

// SummaryStore returns a SummaryStore interface backed by this store.
func (s *Store) SummaryStore() driven.SummaryStore {
	return &summaryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Book Store ====================

// bookStore implements driven.BookStore.
type bookStore struct {
	store *Store
}

var _ driven.BookStore = (*bookStore)(nil)

// SaveBook stores or updates a book.
func (s *bookStore) SaveBook(ctx context.Context, book *domain.Book) error {
	if book.IngestedAt.IsZero() {
		book.IngestedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, ingested_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			ingested_at = excluded.ingested_at
	`, book.ID, book.Title, book.Author, book.IngestedAt)

	if err != nil {
		return fmt.Errorf("saving book: %w", err)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *bookStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, author, ingested_at FROM books WHERE id = ?
	`, id)

	var book domain.Book
	var ingestedAt sql.NullTime
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &ingestedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning book: %w", err)
	}
	if ingestedAt.Valid {
		book.IngestedAt = ingestedAt.Time
	}
	return &book, nil
}

// ListBooks returns all books ordered by title.
func (s *bookStore) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, author, ingested_at FROM books ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book //nolint:prealloc // size unknown from query
	for rows.Next() {
		var book domain.Book
		var ingestedAt sql.NullTime
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		if ingestedAt.Valid {
			book.IngestedAt = ingestedAt.Time
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return books, nil
}

// SaveChapters stores a book's chapters, replacing any previous set.
func (s *bookStore) SaveChapters(ctx context.Context, bookID string, chapters []domain.Chapter) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("clearing chapters: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (book_id, id, title, ordinal, spine_position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chapters {
		if _, err := stmt.ExecContext(ctx, bookID, ch.ID, ch.Title, ch.Ordinal, ch.SpinePosition); err != nil {
			return fmt.Errorf("saving chapter %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListChapters returns a book's chapters in reading order.
func (s *bookStore) ListChapters(ctx context.Context, bookID string) ([]domain.Chapter, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, ordinal, spine_position
		FROM chapters WHERE book_id = ?
		ORDER BY ordinal
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter //nolint:prealloc // size unknown from query
	for rows.Next() {
		ch := domain.Chapter{BookID: bookID}
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Ordinal, &ch.SpinePosition); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

// SaveChunks stores a book's chunks, replacing any previous set.
func (s *bookStore) SaveChunks(ctx context.Context, bookID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (book_id, id, chapter_id, ordinal, start_offset, end_offset, content, token_count, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, bookID, chunk.ID, chunk.ChapterID, chunk.Ordinal,
			chunk.StartOffset, chunk.EndOffset, chunk.Text, chunk.TokenCount, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListChunks returns all chunks for a book ordered by chapter and ordinal.
func (s *bookStore) ListChunks(ctx context.Context, bookID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, chapter_id, ordinal, start_offset, end_offset, content, token_count, embedding
		FROM chunks WHERE book_id = ?
		ORDER BY chapter_id, ordinal
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk := domain.Chunk{BookID: bookID}
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.ChapterID, &chunk.Ordinal,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.Text, &chunk.TokenCount, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *bookStore) GetChunk(ctx context.Context, bookID, chunkID string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, chapter_id, ordinal, start_offset, end_offset, content, token_count, embedding
		FROM chunks WHERE book_id = ? AND id = ?
	`, bookID, chunkID)

	chunk := domain.Chunk{BookID: bookID}
	var blob []byte
	if err := row.Scan(&chunk.ID, &chunk.ChapterID, &chunk.Ordinal,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.Text, &chunk.TokenCount, &blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = bytesToFloat32Slice(blob)
	return &chunk, nil
}

// SaveIndexStatus records the book's indexing state and counters.
func (s *bookStore) SaveIndexStatus(ctx context.Context, status *domain.IndexStatus) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_status (book_id, state, chunk_count, embedded_count, excluded_chunks, semantic_available, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			state = excluded.state,
			chunk_count = excluded.chunk_count,
			embedded_count = excluded.embedded_count,
			excluded_chunks = excluded.excluded_chunks,
			semantic_available = excluded.semantic_available,
			error = excluded.error
	`, status.BookID, string(status.State), status.ChunkCount, status.EmbeddedCount,
		status.ExcludedChunks, status.SemanticAvailable, status.Err)

	if err != nil {
		return fmt.Errorf("saving index status: %w", err)
	}
	return nil
}

// GetIndexStatus retrieves the book's indexing state.
func (s *bookStore) GetIndexStatus(ctx context.Context, bookID string) (*domain.IndexStatus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT state, chunk_count, embedded_count, excluded_chunks, semantic_available, error
		FROM index_status WHERE book_id = ?
	`, bookID)

	status := domain.IndexStatus{BookID: bookID}
	var state string
	if err := row.Scan(&state, &status.ChunkCount, &status.EmbeddedCount,
		&status.ExcludedChunks, &status.SemanticAvailable, &status.Err); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index status: %w", err)
	}
	status.State = domain.IndexState(state)
	return &status, nil
}

// DeleteBook removes a book with its chapters, chunks and status.
func (s *bookStore) DeleteBook(ctx context.Context, id string) error {
	// Foreign keys cascade chapters, chunks and the concept map.
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM index_status WHERE book_id = ?", id); err != nil {
		return fmt.Errorf("deleting index status: %w", err)
	}
	return nil
}

// Close is satisfied by the parent store; the wrapper shares its
// connection.
func (s *bookStore) Close() error {
	return nil
}

// ==================== Concept Store ====================

// conceptStore implements driven.ConceptStore.
type conceptStore struct {
	store *Store
}

var _ driven.ConceptStore = (*conceptStore)(nil)

// SaveConceptMap stores a book's concept map, replacing any previous one.
func (s *conceptStore) SaveConceptMap(ctx context.Context, cm *domain.ConceptMap) error {
	entities, err := json.Marshal(cm.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}
	themes, err := json.Marshal(cm.Themes)
	if err != nil {
		return fmt.Errorf("marshalling themes: %w", err)
	}
	events, err := json.Marshal(cm.Events)
	if err != nil {
		return fmt.Errorf("marshalling events: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO concept_maps (book_id, entities, themes, events, degraded)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			entities = excluded.entities,
			themes = excluded.themes,
			events = excluded.events,
			degraded = excluded.degraded
	`, cm.BookID, string(entities), string(themes), string(events), cm.Degraded)

	if err != nil {
		return fmt.Errorf("saving concept map: %w", err)
	}
	return nil
}

// GetConceptMap retrieves a book's concept map.
func (s *conceptStore) GetConceptMap(ctx context.Context, bookID string) (*domain.ConceptMap, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT entities, themes, events, degraded FROM concept_maps WHERE book_id = ?
	`, bookID)

	cm := domain.ConceptMap{BookID: bookID}
	var entities, themes, events string
	if err := row.Scan(&entities, &themes, &events, &cm.Degraded); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning concept map: %w", err)
	}

	if err := json.Unmarshal([]byte(entities), &cm.Entities); err != nil {
		return nil, fmt.Errorf("unmarshaling entities: %w", err)
	}
	if err := json.Unmarshal([]byte(themes), &cm.Themes); err != nil {
		return nil, fmt.Errorf("unmarshaling themes: %w", err)
	}
	if err := json.Unmarshal([]byte(events), &cm.Events); err != nil {
		return nil, fmt.Errorf("unmarshaling events: %w", err)
	}
	return &cm, nil
}

// DeleteConceptMap removes a book's concept map.
func (s *conceptStore) DeleteConceptMap(ctx context.Context, bookID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM concept_maps WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("deleting concept map: %w", err)
	}
	return nil
}

// ==================== Summary Store ====================

// summaryStore implements driven.SummaryStore.
type summaryStore struct {
	store *Store
}

var _ driven.SummaryStore = (*summaryStore)(nil)

// SaveChapterSummary stores or updates one chapter's summary.
func (s *summaryStore) SaveChapterSummary(ctx context.Context, summary *domain.ChapterSummary) error {
	keyPoints, err := json.Marshal(summary.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshalling key points: %w", err)
	}
	characters, err := json.Marshal(summary.Characters)
	if err != nil {
		return fmt.Errorf("marshalling characters: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO chapter_summaries (book_id, chapter_id, heading, key_points, characters, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id, chapter_id) DO UPDATE SET
			heading = excluded.heading,
			key_points = excluded.key_points,
			characters = excluded.characters,
			generated_at = excluded.generated_at
	`, summary.BookID, summary.ChapterID, summary.Heading,
		string(keyPoints), string(characters), summary.GeneratedAt)

	if err != nil {
		return fmt.Errorf("saving chapter summary: %w", err)
	}
	return nil
}

// GetChapterSummary retrieves a chapter's summary.
func (s *summaryStore) GetChapterSummary(ctx context.Context, bookID, chapterID string) (*domain.ChapterSummary, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT heading, key_points, characters, generated_at
		FROM chapter_summaries WHERE book_id = ? AND chapter_id = ?
	`, bookID, chapterID)

	return scanChapterSummary(row, bookID, chapterID)
}

// ListChapterSummaries returns every stored summary for a book.
func (s *summaryStore) ListChapterSummaries(ctx context.Context, bookID string) ([]domain.ChapterSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chapter_id, heading, key_points, characters, generated_at
		FROM chapter_summaries WHERE book_id = ?
		ORDER BY chapter_id
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chapter summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ChapterSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		summary := domain.ChapterSummary{BookID: bookID}
		var keyPoints, characters string
		var generatedAt sql.NullTime
		if err := rows.Scan(&summary.ChapterID, &summary.Heading, &keyPoints, &characters, &generatedAt); err != nil {
			return nil, fmt.Errorf("scanning chapter summary: %w", err)
		}
		if err := json.Unmarshal([]byte(keyPoints), &summary.KeyPoints); err != nil {
			return nil, fmt.Errorf("unmarshaling key points: %w", err)
		}
		if err := json.Unmarshal([]byte(characters), &summary.Characters); err != nil {
			return nil, fmt.Errorf("unmarshaling characters: %w", err)
		}
		if generatedAt.Valid {
			summary.GeneratedAt = generatedAt.Time
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapter summaries: %w", err)
	}
	return summaries, nil
}

// SaveSynopsis stores or updates the whole-book synopsis.
func (s *summaryStore) SaveSynopsis(ctx context.Context, synopsis *domain.BookSynopsis) error {
	characters, err := json.Marshal(synopsis.Characters)
	if err != nil {
		return fmt.Errorf("marshalling characters: %w", err)
	}
	themes, err := json.Marshal(synopsis.Themes)
	if err != nil {
		return fmt.Errorf("marshalling themes: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO synopses (book_id, overview, characters, themes, generated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			overview = excluded.overview,
			characters = excluded.characters,
			themes = excluded.themes,
			generated_at = excluded.generated_at
	`, synopsis.BookID, synopsis.Overview, string(characters), string(themes), synopsis.GeneratedAt)

	if err != nil {
		return fmt.Errorf("saving synopsis: %w", err)
	}
	return nil
}

// GetSynopsis retrieves the book synopsis.
func (s *summaryStore) GetSynopsis(ctx context.Context, bookID string) (*domain.BookSynopsis, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT overview, characters, themes, generated_at FROM synopses WHERE book_id = ?
	`, bookID)

	synopsis := domain.BookSynopsis{BookID: bookID}
	var characters, themes string
	var generatedAt sql.NullTime
	if err := row.Scan(&synopsis.Overview, &characters, &themes, &generatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning synopsis: %w", err)
	}
	if err := json.Unmarshal([]byte(characters), &synopsis.Characters); err != nil {
		return nil, fmt.Errorf("unmarshaling characters: %w", err)
	}
	if err := json.Unmarshal([]byte(themes), &synopsis.Themes); err != nil {
		return nil, fmt.Errorf("unmarshaling themes: %w", err)
	}
	if generatedAt.Valid {
		synopsis.GeneratedAt = generatedAt.Time
	}
	return &synopsis, nil
}

// DeleteSummaries removes all summaries and the synopsis for a book.
func (s *summaryStore) DeleteSummaries(ctx context.Context, bookID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chapter_summaries WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("deleting chapter summaries: %w", err)
	}
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM synopses WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("deleting synopsis: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts a float32 slice to a little-endian byte
// blob for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanChapterSummary scans a single chapter summary row.
func scanChapterSummary(row *sql.Row, bookID, chapterID string) (*domain.ChapterSummary, error) {
	summary := domain.ChapterSummary{BookID: bookID, ChapterID: chapterID}
	var keyPoints, characters string
	var generatedAt sql.NullTime

	if err := row.Scan(&summary.Heading, &keyPoints, &characters, &generatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chapter summary: %w", err)
	}

	if err := json.Unmarshal([]byte(keyPoints), &summary.KeyPoints); err != nil {
		return nil, fmt.Errorf("unmarshaling key points: %w", err)
	}
	if err := json.Unmarshal([]byte(characters), &summary.Characters); err != nil {
		return nil, fmt.Errorf("unmarshaling characters: %w", err)
	}
	if generatedAt.Valid {
		summary.GeneratedAt = generatedAt.Time
	}
	return &summary, nil
}
