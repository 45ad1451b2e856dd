// Package solver searches pillz matches for the best selection of the side
// to move. The exact search proves a worst-case outcome; the middle search
// estimates win rates per candidate for display.
package solver

import (
	"fmt"

	"github.com/peterkuimelis/pillz/internal/game"
)

// DefaultWorkers matches the number of top-level card choices.
const DefaultWorkers = game.HandSize

type Option func(s *Solver)

// WithWorkers bounds the parallel middle search.
func WithWorkers(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithReporter receives candidate progress. The reporter never changes
// results.
func WithReporter(r Reporter) Option {
	return func(s *Solver) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithMetrics counts battles with c.
func WithMetrics(c MetricsCollector) Option {
	return func(s *Solver) {
		if c != nil {
			s.metrics = c
		}
	}
}

// Solver runs searches over cloned matches. The input match is never
// modified. A Solver is safe for concurrent use if its reporter and
// metrics collector are.
type Solver struct {
	workers  int
	reporter Reporter
	metrics  MetricsCollector
}

func New(options ...Option) *Solver {
	s := &Solver{ // Default values
		workers:  DefaultWorkers,
		reporter: NopReporter{},
		metrics:  NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Solver) Workers() int { return s.workers }

// SelectionResult is the proven outcome when the side to move plays
// Selection and both sides continue optimally over the pruned tiers.
type SelectionResult struct {
	Outcome   game.GameStatus
	Selection game.Selection
}

func (r SelectionResult) String() string {
	return fmt.Sprintf("%s(%s)", r.Outcome, r.Selection)
}

func winFor(side game.Side) game.GameStatus {
	if side == game.SidePlayer {
		return game.StatusPlayer
	}
	return game.StatusOpponent
}

func lossFor(side game.Side) game.GameStatus {
	return winFor(side.Opposite())
}

// play commits sel on m and counts the battle if one was resolved.
func (s *Solver) play(m *game.Match, sel game.Selection) bool {
	battled := m.Select(sel)
	if battled {
		s.metrics.AddBattle()
	}
	return battled
}

// playBoth resolves a round from both sides at once.
func (s *Solver) playBoth(m *game.Match, player, opponent game.Selection) {
	m.SelectBoth(player, opponent)
	s.metrics.AddBattle()
}

// committed returns the selection of the side that already moved this
// round.
func committed(m *game.Match) (game.Selection, bool) {
	return m.Selection(m.Turn().Opposite())
}
