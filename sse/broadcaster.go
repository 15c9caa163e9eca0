package sse

// Broadcaster sends a named event to every client whose ID matches pattern.
// Pattern uses glob matching, e.g. "state:*".
type Broadcaster interface {
	BroadcastToPattern(pattern string, ev Event)
}
