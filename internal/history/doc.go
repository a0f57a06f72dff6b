// Package history persists a ledger of optimization runs in SQLite so past
// results stay inspectable from the command line.
package history
