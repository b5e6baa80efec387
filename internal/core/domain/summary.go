package domain

import "time"

// ChapterSummary is a lazily generated chapter summary.
// Created on first access, cached indefinitely, regenerated only when
// the book is re-ingested.
type ChapterSummary struct {
	// BookID and ChapterID form the cache key.
	BookID    string
	ChapterID string

	// Heading is a one-line summary heading.
	Heading string

	// KeyPoints are the main points of the chapter.
	KeyPoints []string

	// Characters lists characters appearing in the chapter.
	Characters []string

	// GeneratedAt is when the summary was produced.
	GeneratedAt time.Time
}

// BookSynopsis is a lazily generated whole-book synopsis, synthesised
// from chapter summaries plus the concept map's top entities and themes.
type BookSynopsis struct {
	// BookID is the cache key.
	BookID string

	// Overview is the synopsis text.
	Overview string

	// Characters lists the book's main characters.
	Characters []string

	// Themes lists the book's main themes.
	Themes []string

	// GeneratedAt is when the synopsis was produced.
	GeneratedAt time.Time
}
