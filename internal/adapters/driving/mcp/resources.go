package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for bookqa resources.
	uriScheme = "bookqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing ingested books.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "books",
		Name:        "books",
		Description: "List of all ingested books",
		MIMEType:    "application/json",
	}, s.handleBooksResource)

	// Template for book chapters.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{bookId}/chapters",
		Name:        "book-chapters",
		Description: "Chapters of a specific book in reading order",
		MIMEType:    "application/json",
	}, s.handleChaptersResource)

	// Template for chunk content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{bookId}/chunks/{chunkId}",
		Name:        "chunk-content",
		Description: "Full text of a specific chunk",
		MIMEType:    "text/plain",
	}, s.handleChunkResource)
}

// handleBooksResource returns a list of all ingested books.
func (s *Server) handleBooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Books == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	books, err := s.ports.Books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	// Build simplified book list.
	type bookInfo struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Author string `json:"author,omitempty"`
	}

	infos := make([]bookInfo, len(books))
	for i, book := range books {
		infos[i] = bookInfo{
			ID:     book.ID,
			Title:  book.Title,
			Author: book.Author,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling books: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleChaptersResource returns chapters for a specific book.
func (s *Server) handleChaptersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Books == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract bookId from URI: bookqa://books/{bookId}/chapters
	bookID := extractBookID(req.Params.URI)
	if bookID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chapters, err := s.ports.Books.ListChapters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}

	// Build simplified chapter list.
	type chapterInfo struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Ordinal int    `json:"ordinal"`
	}

	infos := make([]chapterInfo, len(chapters))
	for i, ch := range chapters {
		infos[i] = chapterInfo{
			ID:      ch.ID,
			Title:   ch.Title,
			Ordinal: ch.Ordinal,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling chapters: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleChunkResource returns the content of a specific chunk.
func (s *Server) handleChunkResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract IDs from URI: bookqa://books/{bookId}/chunks/{chunkId}
	bookID, chunkID := extractChunkIDs(req.Params.URI)
	if bookID == "" || chunkID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunk, err := s.ports.Tools.GetChunk(ctx, bookID, chunkID)
	if err != nil {
		return nil, fmt.Errorf("getting chunk: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     chunk.Text,
		}},
	}, nil
}

// extractBookID extracts the book ID from a URI like bookqa://books/{bookId}/chapters.
func extractBookID(uri string) string {
	const prefix = uriScheme + "books/"
	const suffix = "/chapters"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractChunkIDs extracts book and chunk IDs from a URI like
// bookqa://books/{bookId}/chunks/{chunkId}.
func extractChunkIDs(uri string) (bookID, chunkID string) {
	const prefix = uriScheme + "books/"
	const marker = "/chunks/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}

	rest := strings.TrimPrefix(uri, prefix)
	idx := strings.Index(rest, marker)
	if idx < 0 {
		return "", ""
	}

	return rest[:idx], rest[idx+len(marker):]
}
