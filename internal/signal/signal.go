// Package signal implements the observable value type the Playback
// Controller publishes current_time/playback/loop/in_out_range/speed
// through: a small Signal[T] with a synchronous,
// owner-thread broadcast, replacing the subscriber-channel/broadcast
// pattern of a subscriber-channel progress service with a type that never
// drops an update: Set returns only after every observer has run.
package signal

import (
	"sort"
	"sync"
)

// Token identifies one subscription. Dropping it (calling Unsubscribe)
// removes the observer; it carries no other meaning.
type Token uint64

// Signal holds a current value of type T and broadcasts every change to
// its subscribers, synchronously, on the calling goroutine. The owner
// thread discipline the rest of the engine keeps means in practice this is always the
// Playback Controller's tick goroutine.
type Signal[T any] struct {
	mu        sync.RWMutex
	value     T
	nextToken Token
	observers map[Token]func(T)
}

// New returns a Signal initialized to v.
func New[T any](v T) *Signal[T] {
	return &Signal[T]{value: v, observers: make(map[Token]func(T))}
}

// Current returns the signal's present value.
func (s *Signal[T]) Current() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and synchronously calls every subscriber with the
// new value, in subscription order. Set must be called from the owner
// thread; it does not serialize concurrent callers against each other
// beyond protecting the stored value and observer map.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	tokens := make([]Token, 0, len(s.observers))
	for tok := range s.observers {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	observers := make([]func(T), 0, len(tokens))
	for _, tok := range tokens {
		observers = append(observers, s.observers[tok])
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(v)
	}
}

// Subscribe registers fn to be called with every subsequent value. It
// returns a Token that Unsubscribe accepts to remove fn again. Subscribe
// does not itself call fn with the current value; callers that need the
// current value read Current() first.
func (s *Signal[T]) Subscribe(fn func(T)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextToken++
	tok := s.nextToken
	s.observers[tok] = fn
	return tok
}

// Unsubscribe removes the observer registered under tok, if any.
func (s *Signal[T]) Unsubscribe(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, tok)
}
