// Package storage persists cleaned expenditure tables in a relational database.
//
// Store works with SQLite (github.com/mattn/go-sqlite3) and PostgreSQL
// (github.com/lib/pq) through sqlx. Queries are written with ? placeholders and
// rebound for the active driver. Each category is replaced as a unit inside a
// transaction, so readers see either the previous load or the new one.
package storage
