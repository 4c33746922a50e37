// Package blocklist holds the set of key codes whose native propagation is
// suppressed while a session is active.
package blocklist

import (
	"slices"
	"sync/atomic"
)

type codeSet map[int32]struct{}

// Store is safe for concurrent use. Readers on the event path never block;
// writers swap in a fresh immutable set.
type Store struct {
	codes atomic.Pointer[codeSet]
}

func New(codes ...int32) *Store {
	s := &Store{}
	s.SetBlocked(codes)
	return s
}

// SetBlocked replaces the whole set. Duplicates collapse.
func (s *Store) SetBlocked(codes []int32) {
	next := make(codeSet, len(codes))
	for _, c := range codes {
		next[c] = struct{}{}
	}
	s.codes.Store(&next)
}

func (s *Store) Clear() {
	s.SetBlocked(nil)
}

func (s *Store) IsBlocked(code int32) bool {
	set := s.codes.Load()
	if set == nil {
		return false
	}
	_, ok := (*set)[code]
	return ok
}

func (s *Store) Len() int {
	set := s.codes.Load()
	if set == nil {
		return 0
	}
	return len(*set)
}

// Snapshot returns the blocked codes in ascending order.
func (s *Store) Snapshot() []int32 {
	set := s.codes.Load()
	if set == nil {
		return nil
	}
	out := make([]int32, 0, len(*set))
	for c := range *set {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
