package solver

import (
	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/rs/zerolog/log"
)

// Solve runs the exact search for the side to move: SolveSecond when the
// other side already committed this round, SolveFirst otherwise.
func (s *Solver) Solve(m *game.Match) (SelectionResult, SearchMetrics) {
	s.metrics.Start(1)
	var best SelectionResult
	if _, ok := committed(m); ok {
		best = s.SolveSecond(m)
	} else {
		best = s.SolveFirst(m)
	}
	metrics := s.metrics.Complete()
	s.reporter.Stats(metrics)
	log.Debug().
		Str("result", best.String()).
		Int64("battles", metrics.Battles).
		Dur("elapsed", metrics.Duration).
		Msg("exact search")
	return best, metrics
}

// SolveFirst searches every unplayed card and SplitShiftRange tier for the
// side to move. The first winning choice ends the search; otherwise the
// first drawing choice is preferred over the first losing one. A match
// that is already over returns its status with a zero selection.
func (s *Solver) SolveFirst(m *game.Match) SelectionResult {
	if st := m.Status(); st.Over() {
		return SelectionResult{Outcome: st}
	}
	turn := m.Turn()
	pool := m.TurnPlayer().Pillz

	var draw, loss *SelectionResult
	for index := range game.HandSize {
		if m.TurnHand().Cards[index].Played {
			continue
		}
		for _, tier := range SplitShiftRange(pool) {
			sel := tier.Selection(index)
			g := m.Clone()
			s.play(g, sel)

			outcome := g.Status()
			if !outcome.Over() {
				outcome = s.SolveFirst(g).Outcome
			}
			switch {
			case outcome.WinnerIs(turn):
				return SelectionResult{Outcome: outcome, Selection: sel}
			case outcome == game.StatusDraw:
				if draw == nil {
					draw = &SelectionResult{Outcome: outcome, Selection: sel}
				}
			default:
				if loss == nil {
					loss = &SelectionResult{Outcome: outcome, Selection: sel}
				}
			}
		}
	}
	if draw != nil {
		return *draw
	}
	if loss == nil {
		panic("solver: no legal selection for " + turn.String())
	}
	return *loss
}

// SolveSecond searches the reply of the side that moves second. The
// opponent's card index is fixed by its commitment but its wager is not
// trusted: every candidate is checked against all of the opponent's tiers
// and abandoned on the first reply that loses.
func (s *Solver) SolveSecond(m *game.Match) SelectionResult {
	turn := m.Turn()
	first, ok := committed(m)
	if !ok {
		return s.SolveFirst(m)
	}
	pool := m.TurnPlayer().Pillz
	firstPool := m.TurnOpponent().Pillz

	g := m.Clone()
	g.ClearSelection()

	var result *SelectionResult
	for index := range game.HandSize {
		if g.Hands[turn].Cards[index].Played {
			continue
		}
		for _, tier := range SplitShiftRange(pool) {
			sel := tier.Selection(index)
			worst := winFor(turn)
		replies:
			for _, reply := range SplitShiftRange(firstPool) {
				c := g.Clone()
				s.play(c, reply.Selection(first.Index))
				s.play(c, sel)

				outcome := c.Status()
				if !outcome.Over() {
					outcome = s.SolveFirst(c).Outcome
				}
				switch {
				case outcome.LoserIs(turn):
					worst = outcome
					break replies
				case outcome == game.StatusDraw:
					worst = outcome
				}
			}

			switch {
			case worst.WinnerIs(turn):
				return SelectionResult{Outcome: worst, Selection: sel}
			case worst == game.StatusDraw:
				result = &SelectionResult{Outcome: worst, Selection: sel}
			case result == nil:
				result = &SelectionResult{Outcome: worst, Selection: sel}
			}
		}
	}
	if result == nil {
		panic("solver: no legal selection for " + turn.String())
	}
	return *result
}
