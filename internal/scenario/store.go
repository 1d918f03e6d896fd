package scenario

import (
	"sync/atomic"

	"github.com/aurelienhbts/leoptim/internal/genetic"
)

// Store provides lock-free access to the most recent completed search
// result. The API reads it on every /search/latest request while a
// background search may replace it at any time.
type Store struct {
	result atomic.Pointer[genetic.Result]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Latest returns the most recent result, or nil if no search has finished.
func (s *Store) Latest() *genetic.Result {
	return s.result.Load()
}

// SetLatest atomically replaces the stored result.
func (s *Store) SetLatest(r *genetic.Result) {
	s.result.Store(r)
}
