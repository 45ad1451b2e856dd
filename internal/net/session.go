package net

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/peterkuimelis/pillz/internal/log"
	"github.com/peterkuimelis/pillz/internal/replay"
	"github.com/peterkuimelis/pillz/internal/solver"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoMatch     = errors.New("no match in progress")
	ErrNotYourTurn = errors.New("not your turn")
	ErrTooEarly    = errors.New("analysis needs at most two rounds left")
)

// History receives every accepted round. The SQLite store implements it.
type History interface {
	CreateMatch(ctx context.Context, id string, setup game.Setup) error
	AppendRound(ctx context.Context, id string, round int, r replay.Round) error
	FinishMatch(ctx context.Context, id string, status game.GameStatus) error
}

// Update is the result of an accepted move.
type Update struct {
	State  *StateView
	Events []EventView
	Advice *Advice
}

// SessionOption configures a Session.
type SessionOption func(s *Session)

// WithSolver replaces the default solver.
func WithSolver(sv *solver.Solver) SessionOption {
	return func(s *Session) { s.solver = sv }
}

// WithHistory records matches to h.
func WithHistory(h History) SessionOption {
	return func(s *Session) { s.history = h }
}

// WithAutoAdvice runs the advisor after every accepted move.
func WithAutoAdvice(on bool) SessionOption {
	return func(s *Session) { s.autoAdvice = on }
}

// WithDefaults sets the starting life and pillz used when a setup leaves
// them at zero.
func WithDefaults(life, pillz int) SessionOption {
	return func(s *Session) { s.life, s.pillz = life, pillz }
}

// Session is one match plus its advisor. It is safe for concurrent use by
// several connections.
type Session struct {
	cat        *game.Catalog
	solver     *solver.Solver
	history    History
	autoAdvice bool
	life       int
	pillz      int

	mu       sync.Mutex
	id       string
	match    *game.Match
	events   *log.MemoryLogger
	seen     int
	recorder *replay.Recorder
	moves    int

	// searchMu serializes searches; the solver's metrics are per instance.
	searchMu sync.Mutex
	flight   singleflight.Group
}

// NewSession creates a session without a match.
func NewSession(cat *game.Catalog, options ...SessionOption) *Session {
	s := &Session{cat: cat}
	for _, o := range options {
		o(s)
	}
	if s.solver == nil {
		s.solver = solver.New(solver.WithMetrics(solver.NewMetricsCollector()))
	}
	return s
}

// ID is the current match id, empty before Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Start replaces the current match with a new one from setup.
func (s *Session) Start(ctx context.Context, setup game.Setup) (*StateView, error) {
	if setup.Life == 0 {
		setup.Life = s.life
	}
	if setup.Pillz == 0 {
		setup.Pillz = s.pillz
	}
	events := log.NewMemoryLogger()
	m, err := game.NewMatchFromSetup(s.cat, setup, events)
	if err != nil {
		return nil, err
	}
	setup.Life, setup.Pillz = m.Players[0].Life, m.Players[0].Pillz

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.NewString()
	s.match = m
	s.events = events
	s.seen = 0
	s.moves = 0
	s.recorder = replay.NewRecorder(setup, m)

	if s.history != nil {
		if err := s.history.CreateMatch(ctx, s.id, setup); err != nil {
			zlog.Warn().Err(err).Str("match", s.id).Msg("could not record match")
		}
	}
	zlog.Info().Str("match", s.id).Strs("cards", setup.Cards[:]).Int("flip", setup.Flip).Msg("match started")
	return BuildStateView(s.id, m, SeatBoth), nil
}

// State returns the current match as seen from seat.
func (s *Session) State(seat Seat) (*StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return nil, ErrNoMatch
	}
	return BuildStateView(s.id, s.match, seat), nil
}

// Select commits sel for the side to move. With reselect, pending
// selections of the round are discarded first. Illegal selections leave
// the match untouched.
func (s *Session) Select(ctx context.Context, seat Seat, sel game.Selection, reselect bool) (*Update, error) {
	upd, snapshot, key, err := s.commit(ctx, seat, sel, reselect)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		advice, err := s.advise(ctx, key, snapshot, reselect, false)
		if err != nil {
			zlog.Warn().Err(err).Msg("advisor skipped")
		}
		upd.Advice = advice
	}
	return upd, nil
}

// commit plays sel under the session lock. The returned snapshot is set
// when auto advice should run for the new position.
func (s *Session) commit(ctx context.Context, seat Seat, sel game.Selection, reselect bool) (*Update, *game.Match, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.match
	if m == nil {
		return nil, nil, "", ErrNoMatch
	}
	if reselect && m.HasSelection() {
		if !seat.Allows(m.FirstTurn()) {
			return nil, nil, "", ErrNotYourTurn
		}
		m.ClearSelection()
		s.recorder.Cancel()
		s.moves++
	}
	if !seat.Allows(m.Turn()) {
		return nil, nil, "", ErrNotYourTurn
	}
	battled, err := m.Play(sel)
	if err != nil {
		return nil, nil, "", err
	}
	s.moves++
	s.recorder.Observe(m, sel, battled)
	if battled {
		s.recordRound(ctx)
	}

	upd := &Update{State: BuildStateView(s.id, m, seat), Events: s.drainEvents()}
	var snapshot *game.Match
	if s.autoAdvice && !m.Status().Over() {
		snapshot = m.Clone()
	}
	return upd, snapshot, s.flightKey(), nil
}

// Cancel discards the pending selection of the round.
func (s *Session) Cancel(seat Seat) (*StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return nil, ErrNoMatch
	}
	if s.match.HasSelection() {
		if !seat.Allows(s.match.FirstTurn()) {
			return nil, ErrNotYourTurn
		}
		s.match.ClearSelection()
		s.recorder.Cancel()
		s.moves++
	}
	return BuildStateView(s.id, s.match, seat), nil
}

// Recommend runs the advisor for the side to move regardless of round.
// Concurrent requests for the same position share one search.
func (s *Session) Recommend(ctx context.Context) (*Advice, error) {
	s.mu.Lock()
	if s.match == nil {
		s.mu.Unlock()
		return nil, ErrNoMatch
	}
	if s.match.Status().Over() {
		s.mu.Unlock()
		return nil, game.ErrMatchOver
	}
	snapshot := s.match.Clone()
	key := s.flightKey()
	s.mu.Unlock()

	return s.advise(ctx, key, snapshot, false, true)
}

// Analyze builds the full result tree of the remaining rounds, in
// player-then-opponent order.
func (s *Session) Analyze(ctx context.Context) (*Analysis, error) {
	s.mu.Lock()
	if s.match == nil {
		s.mu.Unlock()
		return nil, ErrNoMatch
	}
	m := s.match
	if m.Status().Over() {
		s.mu.Unlock()
		return nil, game.ErrMatchOver
	}
	if game.Rounds-m.Round > 2 {
		s.mu.Unlock()
		return nil, ErrTooEarly
	}
	snapshot := m.Clone()
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.searchMu.Lock()
	defer s.searchMu.Unlock()
	tree := s.solver.FillTreeABAB(snapshot)
	best, worst, pct := solver.BestMoves(tree)
	var buf bytes.Buffer
	solver.FormatTree(&buf, tree)

	a := &Analysis{Worst: worst, WinPercent: pct, Tree: buf.String()}
	for _, sel := range best {
		a.Best = append(a.Best, selectionView(sel))
	}
	return a, nil
}

// Testcase returns the recording of the current match.
func (s *Session) Testcase() (replay.Testcase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder == nil {
		return replay.Testcase{}, ErrNoMatch
	}
	return s.recorder.Testcase(), nil
}

// --- Internals (callers hold mu) ---

func (s *Session) flightKey() string {
	return s.id + ":" + strconv.Itoa(s.moves)
}

func (s *Session) drainEvents() []EventView {
	all := s.events.Events()
	fresh := all[s.seen:]
	s.seen = len(all)
	return EventViews(fresh)
}

func (s *Session) recordRound(ctx context.Context) {
	m := s.match
	if s.history == nil {
		return
	}
	tc := s.recorder.Testcase()
	round := len(tc.Moves) - 1
	if err := s.history.AppendRound(ctx, s.id, round, tc.Moves[round]); err != nil {
		zlog.Warn().Err(err).Str("match", s.id).Int("round", round).Msg("could not record round")
	}
	if st := m.Status(); st.Over() {
		if err := s.history.FinishMatch(ctx, s.id, st); err != nil {
			zlog.Warn().Err(err).Str("match", s.id).Msg("could not record result")
		}
		zlog.Info().Str("match", s.id).Str("status", st.String()).Msg("match over")
	}
}

// --- Advisor ---

// advise picks the search for m. Round 0 uses the statistical search,
// unprompted only for the player's fresh moves. Later rounds use the
// exact search and fall back to the statistical one when the exact
// result loses for the side to move.
func (s *Session) advise(ctx context.Context, key string, m *game.Match, reselect, force bool) (*Advice, error) {
	side := m.Turn()
	if m.Round == 0 && !force && (reselect || side != game.SidePlayer) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := s.flight.DoChan(key, func() (any, error) {
		s.searchMu.Lock()
		defer s.searchMu.Unlock()
		if m.Round == 0 {
			return middleAdvice(side, s.solver.Middle(m)), nil
		}
		res, metrics := s.solver.Solve(m)
		if res.Outcome.LoserIs(side) {
			zlog.Debug().Str("result", res.String()).Msg("exact search loses, falling back")
			return middleAdvice(side, s.solver.Middle(m)), nil
		}
		return exactAdvice(side, res, metrics), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("advisor: %w", r.Err)
		}
		return r.Val.(*Advice), nil
	}
}

func (a *Advice) String() string {
	if a.Mode == "exact" {
		return fmt.Sprintf("%s: %s(%s)", a.Side, a.Outcome, a.Selection.Selection())
	}
	return fmt.Sprintf("%s: %s (%.1f%%)", a.Side, a.Selection.Selection(), a.Rate*100)
}
