package query

import "time"

// Status is the lifecycle stage of a cache entry.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusPending       Status = "pending"
	StatusFulfilled     Status = "fulfilled"
	StatusRejected      Status = "rejected"
)

// State is what a subscriber sees of its entry. Data keeps the last
// fulfilled value while a refetch is running or after it failed.
type State[T any] struct {
	Status  Status `json:"status"`
	Data    T      `json:"data"`
	HasData bool   `json:"hasData"`
	Error   string `json:"error,omitempty"`
	// IsLoading is true for a pending entry with no data yet.
	IsLoading bool `json:"isLoading"`
	// IsFetching is true whenever a fetch is in flight.
	IsFetching  bool      `json:"isFetching"`
	FulfilledAt time.Time `json:"fulfilledAt"`
}

func (s State[T]) IsSuccess() bool { return s.Status == StatusFulfilled }
func (s State[T]) IsError() bool   { return s.Status == StatusRejected }

// snapshot is the untyped form of an entry's state.
type snapshot struct {
	endpoint    string
	key         string
	status      Status
	data        any
	hasData     bool
	err         string
	generation  uint64
	fulfilledAt time.Time
}

func typed[T any](s snapshot) State[T] {
	st := State[T]{
		Status:      s.status,
		HasData:     s.hasData,
		Error:       s.err,
		IsFetching:  s.status == StatusPending,
		IsLoading:   s.status == StatusPending && !s.hasData,
		FulfilledAt: s.fulfilledAt,
	}
	if v, ok := s.data.(T); ok {
		st.Data = v
	}
	return st
}
