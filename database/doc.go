// Package database is the SQL persistence backend: a gorm handle on SQLite,
// a component that migrates and health-checks it, and KVStore, which keeps
// JSON values in one key/value table.
package database
