package store

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinx/internal/shared"
)

// Dispatcher accepts actions.
type Dispatcher interface {
	Dispatch(action Action)
}

// DispatchFunc adapts a function to [Dispatcher].
type DispatchFunc func(action Action)

func (f DispatchFunc) Dispatch(action Action) { f(action) }

// Applier dispatches an action and reports why it was not applied.
type Applier interface {
	Apply(action Action) error
}

// Committer makes a state transition durable before it becomes visible.
//
// A non-nil error abandons the action: the state stays at prev and subscribers are not notified.
type Committer interface {
	Commit(action Action, prev, next State) error
}

// CommitFunc adapts a function to [Committer].
type CommitFunc func(action Action, prev, next State) error

func (f CommitFunc) Commit(action Action, prev, next State) error { return f(action, prev, next) }

// Subscriber is notified after each dispatched action with the states before and after it.
//
// Subscribers run on the dispatching goroutine and must not call [Store.Dispatch] synchronously.
type Subscriber interface {
	StateChanged(action Action, prev, next State)
}

// SubscriberFunc adapts a function to [Subscriber].
type SubscriberFunc func(action Action, prev, next State)

func (f SubscriberFunc) StateChanged(action Action, prev, next State) { f(action, prev, next) }

type subscription struct {
	id  int
	sub Subscriber
}

// Store applies actions to its state one at a time, in the order they are dispatched.
type Store struct {
	dispatchMu sync.Mutex   // serialises reduce + commit + notify
	mu         sync.RWMutex // guards state, committer and subs
	state      State
	committer  Committer
	subs       []subscription
	nextID     int
	logger     *log.Logger
}

// New creates a Store holding initial.
func New(initial State, logger *log.Logger) *Store {
	return &Store{state: initial, logger: logger}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetCommitter installs c to run before every state change.
func (s *Store) SetCommitter(c Committer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committer = c
}

// Dispatch applies action, dropping the error. Failed commits are reported by the committer.
func (s *Store) Dispatch(action Action) {
	_ = s.Apply(action)
}

// Apply reduces action, commits the result and notifies every subscriber before returning.
//
// Actions that target a movie the state does not hold return [shared.ErrMovieNotFound]
// and a failed commit returns its error; in both cases the state is unchanged.
func (s *Store) Apply(action Action) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.RLock()
	prev := s.state
	committer := s.committer
	s.mu.RUnlock()

	if id, ok := target(action); ok && prev.Index(id) < 0 {
		return fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
	}

	next := Reduce(prev, action)
	if committer != nil {
		if err := committer.Commit(action, prev, next); err != nil {
			if s.logger != nil {
				s.logger.Debug("abandoned action", "action", Name(action), "error", err)
			}
			return err
		}
	}

	s.mu.Lock()
	s.state = next
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("dispatched action", "action", Name(action), "movies", len(next.Movies))
	}

	for _, sub := range subs {
		sub.sub.StateChanged(action, prev, next)
	}
	return nil
}

// Subscribe registers sub and returns a function that removes it.
func (s *Store) Subscribe(sub Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, sub: sub})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.subs {
			if existing.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
