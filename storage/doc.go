// Package storage is the default persistence backend: a
// provider.ContextStore that writes each key as a JSON file.
package storage
