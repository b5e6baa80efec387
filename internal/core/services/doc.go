// Package services implements the driving port interfaces.
// Services hold the retrieval core: the book registry, the ingest
// pipeline, the tool surface, routing and the budgeted answer
// executor. They orchestrate calls to driven ports (adapters) and are
// pure Go with no CGO.
package services
