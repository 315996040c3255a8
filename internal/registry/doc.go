// Package registry provides SQLite-backed storage for compiled element
// templates and the negotiation history.
//
// Elements are keyed by name and carry a content hash of their template
// (see ir.TemplateHash), so re-registering an unchanged element is a no-op
// and a changed one replaces its pads atomically.
//
// # Deterministic queries
//
// Every list query has a total order:
//   - elements: ORDER BY rank DESC, name ASC COLLATE BINARY
//   - pads: ORDER BY position ASC (declaration order is preference order)
//   - negotiations: ORDER BY seq ASC
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package registry
