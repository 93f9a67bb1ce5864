// Package stores provides the session catalog: SQLite-based persistence
// for imported sessions and resolved attribute snapshots, with WAL mode
// and embedded schema migrations. The catalog records what was imported
// and what it resolved to; raw sample tables stay in memory.
package stores
