// Package store holds application state behind a single serialized
// mutation entry point. State only changes by running a Reducer over a
// dispatched Action; readers get immutable snapshots.
package store

import (
	"context"
	"reflect"
	"sync"
)

// InitKind is dispatched once by New so every reducer can populate its slice.
const InitKind = "@@store/INIT"

// State maps field names to values. A State handed out by the store is
// never modified afterwards; reducers build a new map for every change.
type State map[string]any

// Action is a tagged state-change request. Kind returns its discriminant.
type Action interface {
	Kind() string
}

// Unrecognized carries a discriminant no reducer knows about. Reducers
// must return their input unchanged for it.
type Unrecognized struct {
	Type string
}

func (u Unrecognized) Kind() string { return u.Type }

// Reducer computes the next state. It must not mutate its input and must
// return the same reference when nothing changed.
type Reducer func(state State, action Action) State

// Dispatcher is the capability handed to components and thunks.
type Dispatcher interface {
	Dispatch(ctx context.Context, action Action) error
}

// Thunk defers dispatching until some asynchronous work completes.
type Thunk func(ctx context.Context, d Dispatcher) error

// DispatchFunc is one link of the dispatch chain.
type DispatchFunc func(ctx context.Context, action Action) error

// Middleware wraps the next link of the dispatch chain.
type Middleware func(next DispatchFunc) DispatchFunc

// Store is the process-wide state container. It is owned by the
// composition root and shared by pointer.
type Store struct {
	mu      sync.Mutex
	reducer Reducer
	state   State

	// states waiting for listeners, guarded by mu
	pending  []State
	draining bool

	listenMu  sync.Mutex
	listeners map[uint64]func(State)
	nextID    uint64

	dispatch DispatchFunc
}

// New creates a store and runs the reducer once with InitKind. The first
// middleware is the outermost link.
func New(reducer Reducer, initial State, mw ...Middleware) *Store {
	if initial == nil {
		initial = State{}
	}
	s := &Store{
		reducer:   reducer,
		state:     initial,
		listeners: make(map[uint64]func(State)),
	}
	s.dispatch = s.reduce
	for i := len(mw) - 1; i >= 0; i-- {
		s.dispatch = mw[i](s.dispatch)
	}
	_ = s.reduce(context.Background(), Unrecognized{Type: InitKind})
	return s
}

// GetState returns the current state snapshot.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch runs the action through the middleware chain and the reducer.
// Reducers must not call Dispatch.
func (s *Store) Dispatch(ctx context.Context, action Action) error {
	return s.dispatch(ctx, action)
}

// DispatchThunk runs t with the store as its dispatcher. The thunk runs
// on the caller's goroutine and outside the reducer lock.
func (s *Store) DispatchThunk(ctx context.Context, t Thunk) error {
	return t(ctx, s)
}

// Subscribe registers fn to be called with the new state after every
// dispatch that changed it. States arrive in the order they were reduced,
// possibly on the goroutine of another dispatch. The returned func removes
// the listener.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.listenMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenMu.Lock()
			delete(s.listeners, id)
			s.listenMu.Unlock()
		})
	}
}

func (s *Store) reduce(_ context.Context, action Action) error {
	if s.apply(action) {
		s.drain()
	}
	return nil
}

// apply runs the reducer under the lock and queues the new state for
// listeners. It reports whether the caller must drain the queue.
func (s *Store) apply(action Action) (drain bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := s.reducer(prev, action)
	s.state = next
	if Same(prev, next) {
		return false
	}
	s.pending = append(s.pending, next)
	if s.draining {
		return false
	}
	s.draining = true
	return true
}

// drain delivers queued states in the order they were reduced. Only one
// goroutine drains at a time; a dispatch made by a listener is queued and
// delivered after the current round.
func (s *Store) drain() {
	done := false
	defer func() {
		if !done {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			done = true
			return
		}
		state := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.notify(state)
	}
}

func (s *Store) notify(state State) {
	s.listenMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Same reports whether a and b are the same map, not merely equal ones.
func Same(a, b State) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
