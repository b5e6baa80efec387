// Package domain contains the core business types for book question
// answering: books and chapters, retrieval chunks, the concept map,
// routing results and grounded answers.
//
// Domain types carry no behaviour beyond validation and small helpers.
// All orchestration lives in the services package; all I/O lives behind
// the ports.
package domain
