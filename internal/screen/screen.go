package screen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"komoralink/internal/core"
	"komoralink/internal/wallet"
)

// Source loads the transactions of a range.
type Source interface {
	FetchAll(ctx context.Context, s wallet.Session, f wallet.Filter) ([]core.Transaction, error)
}

// State is a snapshot of a screen.
type State struct {
	Unit         core.Unit
	Range        core.Range
	Transactions []core.Transaction
	Buckets      []core.PeriodBucket
	Summary      core.Summary
	UpdatedAt    time.Time
	Loaded       bool
}

// Screen is the state of one statistics view for one session. Refresh may be
// called concurrently; the last started refresh wins.
type Screen struct {
	source  Source
	session wallet.Session
	opts    core.AggregateOptions
	guard   Guard

	mu    sync.Mutex
	unit  core.Unit
	rng   core.Range
	state State
	now   func() time.Time
}

// New creates a screen showing unit buckets over r. Nothing is fetched until
// Refresh.
func New(source Source, session wallet.Session, unit core.Unit, r core.Range, opts core.AggregateOptions) (*Screen, error) {
	if _, err := core.Buckets(unit, r); err != nil {
		return nil, err
	}
	s := &Screen{
		source:  source,
		session: session,
		opts:    opts,
		unit:    unit,
		rng:     r,
		now:     time.Now,
	}
	s.state = s.compute(nil)
	return s, nil
}

// SetClock replaces the clock stamping UpdatedAt. A nil now keeps the
// current clock.
func (s *Screen) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Refresh reloads the transactions of the current range and recomputes the
// buckets. A fetch failure is logged and shown as an empty list. The returned
// bool is false when a newer refresh or period change superseded this one, in
// which case the returned state is the one already committed.
func (s *Screen) Refresh(ctx context.Context) (State, bool) {
	ticket := s.guard.Begin()

	s.mu.Lock()
	r := s.rng
	s.mu.Unlock()

	txs, err := s.source.FetchAll(ctx, s.session, wallet.FilterForRange(r))
	if err != nil {
		slog.WarnContext(ctx, "Screen refresh failed, showing empty state",
			"error", err, "business_id", s.session.BusinessID)
		txs = []core.Transaction{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard.Current(ticket) {
		slog.DebugContext(ctx, "Discarding stale screen refresh", "ticket", uint64(ticket))
		return s.state.clone(), false
	}
	s.state = s.compute(txs)
	return s.state.clone(), true
}

// SetUnit changes the granularity and recomputes from the loaded
// transactions without fetching.
func (s *Screen) SetUnit(unit core.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := core.Buckets(unit, s.rng); err != nil {
		return err
	}
	s.unit = unit
	s.state = s.compute(s.state.Transactions)
	return nil
}

// SetRange changes the period. Loads in flight are invalidated; call Refresh
// to load the new range.
func (s *Screen) SetRange(r core.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := core.Buckets(s.unit, r); err != nil {
		return err
	}
	s.guard.Begin()
	s.rng = r
	s.state = s.compute(nil)
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Screen) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// compute must be called with mu held.
func (s *Screen) compute(txs []core.Transaction) State {
	buckets, err := core.Aggregate(txs, s.unit, s.rng, s.opts)
	if err != nil {
		// unit and range are validated before they are stored
		buckets = nil
	}
	return State{
		Unit:         s.unit,
		Range:        s.rng,
		Transactions: txs,
		Buckets:      buckets,
		Summary:      core.Totals(buckets),
		UpdatedAt:    s.now(),
		Loaded:       txs != nil,
	}
}

func (st State) clone() State {
	out := st
	if st.Transactions != nil {
		out.Transactions = make([]core.Transaction, len(st.Transactions))
		copy(out.Transactions, st.Transactions)
	}
	out.Buckets = make([]core.PeriodBucket, len(st.Buckets))
	copy(out.Buckets, st.Buckets)
	return out
}
