// Package conceptmap builds the compact book-level routing structure:
// entities, themes and events with chapter assignments and evidence.
//
// The builder runs once per book, after chunking and embedding complete,
// in five stages: per-chapter signal extraction, entity
// canonicalisation, theme clustering, event derivation and capped
// assembly. LLM-backed stages (canonicalisation, labelling) degrade to
// deterministic fallbacks; the map is never skipped, only degraded.
package conceptmap
