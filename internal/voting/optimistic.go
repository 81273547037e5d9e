package voting

import (
	"context"
	"errors"
	"sync"

	"github.com/unsaid-app/backend/internal/models"
)

// ErrAuthRequired is returned when an unauthenticated caller tries to vote.
// The engine does not mutate any state in that case.
var ErrAuthRequired = errors.New("sign-in required")

// VoteState is the optimistic local view of a user's vote on one target.
// Counts mirror the stored aggregate counters and are adjusted immediately
// on every cast, before the remote store acknowledges.
type VoteState struct {
	TargetKind  TargetKind
	TargetID    string
	CurrentVote models.VoteType // 0 when the user holds no vote
	Upvotes     int
	Downvotes   int
}

// Score returns upvotes minus downvotes. May be negative.
func (s VoteState) Score() int {
	return s.Upvotes - s.Downvotes
}

// Store applies a vote against the authoritative backend. A zero direction
// means the user retracted their vote. Implementations are expected to make
// the counter adjustment atomic server-side.
type Store interface {
	ApplyVote(ctx context.Context, kind TargetKind, targetID string, direction models.VoteType) error
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, kind TargetKind, targetID string, direction models.VoteType) error

func (f StoreFunc) ApplyVote(ctx context.Context, kind TargetKind, targetID string, direction models.VoteType) error {
	return f(ctx, kind, targetID, direction)
}

// Session carries the identity of the acting user. A nil session or an
// empty UserID means unauthenticated.
type Session struct {
	UserID string
}

// Engine reconciles a single target's optimistic vote state with a remote
// store. Casts update local state synchronously and dispatch the remote
// mutation in the background; a failed mutation rolls local state back to
// the snapshot captured when that cast was applied.
//
// Each cast derives the new state from the latest optimistic state, so
// rapid repeated casts converge on the user's final intent even while
// earlier mutations are still in flight.
type Engine struct {
	mu      sync.Mutex
	state   VoteState
	store   Store
	session *Session
	closed  bool
	wg      sync.WaitGroup

	onError      func(error)
	onInvalidate func(kind TargetKind, targetID string)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithErrorHandler registers a callback invoked when a remote mutation
// fails, after local state has been rolled back.
func WithErrorHandler(fn func(error)) EngineOption {
	return func(e *Engine) { e.onError = fn }
}

// WithInvalidator registers a callback invoked after a remote mutation
// succeeds, so cached listing views can refetch authoritative counts.
func WithInvalidator(fn func(kind TargetKind, targetID string)) EngineOption {
	return func(e *Engine) { e.onInvalidate = fn }
}

// NewEngine creates an engine for one target, seeded with the last known
// server-side counts and the user's existing vote.
func NewEngine(store Store, session *Session, initial VoteState, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		session: session,
		state:   initial,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a copy of the current optimistic state.
func (e *Engine) State() VoteState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CastVote casts, switches, or retracts a vote with toggle semantics:
// casting the direction the user already holds retracts it. Local state is
// updated before this method returns; the remote mutation completes in the
// background. Returns ErrAuthRequired without touching state when the
// session is unauthenticated.
func (e *Engine) CastVote(ctx context.Context, direction models.VoteType) error {
	if direction != models.VoteUp && direction != models.VoteDown {
		return ErrInvalidDirection
	}
	if e.session == nil || e.session.UserID == "" {
		return ErrAuthRequired
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	snapshot := e.state

	newVote := direction
	if e.state.CurrentVote == direction {
		newVote = 0 // toggle off
	}

	// Reverse the old vote's effect, then apply the new one.
	up, down := e.state.Upvotes, e.state.Downvotes
	switch e.state.CurrentVote {
	case models.VoteUp:
		up--
	case models.VoteDown:
		down--
	}
	switch newVote {
	case models.VoteUp:
		up++
	case models.VoteDown:
		down++
	}
	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}

	e.state.CurrentVote = newVote
	e.state.Upvotes = up
	e.state.Downvotes = down
	kind, targetID := e.state.TargetKind, e.state.TargetID
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.settle(ctx, kind, targetID, newVote, snapshot)
	}()

	return nil
}

// settle runs the remote mutation and reconciles the outcome.
func (e *Engine) settle(ctx context.Context, kind TargetKind, targetID string, direction models.VoteType, snapshot VoteState) {
	err := e.store.ApplyVote(ctx, kind, targetID, direction)

	e.mu.Lock()
	if e.closed {
		// Completion after Close is a no-op.
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state = snapshot
	}
	e.mu.Unlock()

	if err != nil {
		if e.onError != nil {
			e.onError(err)
		}
		return
	}
	if e.onInvalidate != nil {
		e.onInvalidate(kind, targetID)
	}
}

// Wait blocks until all in-flight mutations have settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close detaches the engine from future completions. In-flight mutations
// still run, but their results no longer touch local state. Safe to call
// more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// ServiceStore adapts the server-side vote service to the Store interface
// so the engine can run directly against the database.
type ServiceStore struct {
	svc    *Service
	userID string
}

// NewServiceStore binds a vote service and acting user into a Store.
func NewServiceStore(svc *Service, userID string) *ServiceStore {
	return &ServiceStore{svc: svc, userID: userID}
}

func (s *ServiceStore) ApplyVote(ctx context.Context, kind TargetKind, targetID string, direction models.VoteType) error {
	if direction == 0 {
		// The service's toggle semantics retract when re-casting the
		// user's current direction, so look it up first.
		current, err := s.svc.GetVote(s.userID, kind, targetID)
		if err != nil {
			return err
		}
		if current == 0 {
			return nil
		}
		_, err = s.svc.CastVote(s.userID, kind, targetID, current)
		return err
	}

	current, err := s.svc.GetVote(s.userID, kind, targetID)
	if err != nil {
		return err
	}
	if current == direction {
		// Already holds this vote remotely, nothing to apply.
		return nil
	}
	_, err = s.svc.CastVote(s.userID, kind, targetID, direction)
	return err
}
