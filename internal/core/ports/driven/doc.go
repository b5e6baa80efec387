// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - BookStore: Book, chapter and chunk persistence
//   - ConceptStore: Concept map persistence
//   - SummaryStore: Chapter summary and synopsis persistence
//   - ConfigStore: Application configuration
//   - LexicalIndex: BM25 keyword search. Always required.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Semantic similarity search. Only built when EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, books are lexical-only.
//   - LLMService: Language model operations. Without it, routing, summaries
//     and concept-map labelling fall back to deterministic behaviour.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or index package
package driven
