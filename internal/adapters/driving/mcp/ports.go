package mcp

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driving"
)

// BookLister lists ingested books and their chapters for the resource
// handlers. driven.BookStore satisfies it.
type BookLister interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	ListChapters(ctx context.Context, bookID string) ([]domain.Chapter, error)
}

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tools is the retrieval tool surface.
	Tools driving.ToolSurface

	// Question answers free-text questions. Optional: without it the
	// ask tool is not registered and callers compose answers from the
	// retrieval tools themselves.
	Question driving.QuestionService

	// Books lists books and chapters for resources. Optional.
	Books BookLister
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingToolSurface
	}
	return nil
}
