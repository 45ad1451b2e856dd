package solver

import (
	"cmp"
	"slices"

	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Candidate is a top-level selection with the outcomes counted over the
// opponent replies that were tried.
type Candidate struct {
	Selection game.Selection
	Wins      int
	Draws     int
	Losses    int
}

func (c Candidate) total() int { return c.Wins + c.Draws + c.Losses }

// Rate is the share of replies that do not lose. A candidate with no
// replies counts as zero.
func (c Candidate) Rate() float64 {
	if c.total() == 0 {
		return 0
	}
	return float64(c.Wins+c.Draws) / float64(c.total())
}

// Rounded is the rate in tenths, truncated.
func (c Candidate) Rounded() int {
	if c.total() == 0 {
		return 0
	}
	return (c.Wins + c.Draws) * 100 / c.total() / 10
}

// Recommendation is the outcome of a middle search: the best candidate
// and every candidate ranked by rounded rate, lower pillz first on ties.
type Recommendation struct {
	Best       Candidate
	Candidates []Candidate
	Metrics    SearchMetrics
}

func rank(candidates []Candidate) []Candidate {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		if c := cmp.Compare(b.Rounded(), a.Rounded()); c != 0 {
			return c
		}
		return cmp.Compare(a.Selection.Cost(), b.Selection.Cost())
	})
	return ranked
}

// Middle runs the statistical search for the side to move. Round 0 is
// searched in parallel over the card indices.
func (s *Solver) Middle(m *game.Match) Recommendation {
	workers := 1
	if m.Round == 0 {
		workers = s.workers
	}
	s.metrics.Start(workers)

	var rec Recommendation
	_, second := committed(m)
	switch {
	case second && m.Round == 0:
		rec = s.MiddleSecondPar(m)
	case second:
		rec = s.MiddleSecond(m)
	case m.Round == 0:
		rec = s.MiddleFirstPar(m)
	default:
		rec = s.MiddleFirst(m)
	}

	rec.Metrics = s.metrics.Complete()
	s.reporter.Stats(rec.Metrics)
	log.Debug().
		Str("best", rec.Best.Selection.String()).
		Float64("rate", rec.Best.Rate()).
		Int64("battles", rec.Metrics.Battles).
		Dur("elapsed", rec.Metrics.Duration).
		Msg("middle search")
	return rec
}

// --- Outcome counting ---

// tally records outcome from the point of view of side.
func (c *Candidate) tally(outcome game.GameStatus, side game.Side) {
	switch {
	case outcome.WinnerIs(side):
		c.Wins++
	case outcome == game.StatusDraw:
		c.Draws++
	default:
		c.Losses++
	}
}

// settle returns the final status of g, running the exact search when the
// match goes on.
func (s *Solver) settle(g *game.Match) game.GameStatus {
	if st := g.Status(); st.Over() {
		return st
	}
	return s.SolveFirst(g).Outcome
}

// better reports whether c should replace best. preferMore selects the
// pillz tie-break: the first mover keeps the bigger wager, the second
// mover the smaller one.
func better(c, best Candidate, preferMore bool) bool {
	if c.Rounded() != best.Rounded() {
		return c.Rounded() > best.Rounded()
	}
	if preferMore {
		return c.Selection.Pillz > best.Selection.Pillz
	}
	return c.Selection.Pillz < best.Selection.Pillz
}

// --- Second mover ---

// secondIndex evaluates every tier of one card for the side moving second.
// The committed card is kept but each of its wagers in SplitRange is
// tried. skipIdle ignores zero-pillz replies.
func (s *Solver) secondIndex(g *game.Match, turn game.Side, first game.Selection, index int, skipIdle bool) []Candidate {
	pool := g.Players[turn].Pillz
	firstPool := g.Players[turn.Opposite()].Pillz

	var out []Candidate
	for _, tier := range ShiftFalseRange(pool, g.Round) {
		c := Candidate{Selection: tier.Selection(index)}
		for _, reply := range SplitRange(firstPool) {
			if skipIdle && reply.Pillz == 0 {
				continue
			}
			r := g.Clone()
			s.play(r, reply.Selection(first.Index))
			s.play(r, c.Selection)
			c.tally(s.settle(r), turn)
		}
		s.reporter.Candidate(c)
		out = append(out, c)
	}
	return out
}

func (s *Solver) secondSetup(m *game.Match) (*game.Match, game.Side, game.Selection) {
	turn := m.Turn()
	first, _ := committed(m)
	g := m.Clone()
	g.ClearSelection()
	return g, turn, first
}

// MiddleSecond estimates each reply of the side moving second, one card
// at a time.
func (s *Solver) MiddleSecond(m *game.Match) Recommendation {
	g, turn, first := s.secondSetup(m)

	var all []Candidate
	var best Candidate
	for index := range game.HandSize {
		if g.Hands[turn].Cards[index].Played {
			continue
		}
		for _, c := range s.secondIndex(g, turn, first, index, false) {
			if len(all) == 0 || better(c, best, false) {
				best = c
			}
			all = append(all, c)
		}
		s.reporter.Best(index, best)
	}
	return Recommendation{Best: best, Candidates: rank(all)}
}

// MiddleSecondPar is MiddleSecond with the card indices fanned out over
// the worker pool. Zero-pillz replies are not counted.
func (s *Solver) MiddleSecondPar(m *game.Match) Recommendation {
	g, turn, first := s.secondSetup(m)
	return s.fanOut(func(index int) ([]Candidate, bool) {
		if g.Hands[turn].Cards[index].Played {
			return nil, false
		}
		return s.secondIndex(g.Clone(), turn, first, index, true), true
	}, false)
}

// --- First mover ---

// firstIndex evaluates every tier of one card for the side moving first
// against every unplayed opponent card and SplitRange wager.
func (s *Solver) firstIndex(m *game.Match, index int, skipIdle bool) []Candidate {
	turn := m.Turn()
	opp := turn.Opposite()
	pool := m.Players[turn].Pillz
	oppPool := m.Players[opp].Pillz

	var out []Candidate
	for _, tier := range ShiftFalseRange(pool, m.Round) {
		c := Candidate{Selection: tier.Selection(index)}
		for i := range game.HandSize {
			if m.Hands[opp].Cards[i].Played {
				continue
			}
			for _, reply := range SplitRange(oppPool) {
				if skipIdle && reply.Pillz == 0 {
					continue
				}
				g := m.Clone()
				s.play(g, c.Selection)
				s.play(g, reply.Selection(i))
				c.tally(s.settle(g), turn)
			}
		}
		s.reporter.Candidate(c)
		out = append(out, c)
	}
	return out
}

// MiddleFirst estimates each selection of the side moving first.
func (s *Solver) MiddleFirst(m *game.Match) Recommendation {
	turn := m.Turn()

	var all []Candidate
	var best Candidate
	for index := range game.HandSize {
		if m.Hands[turn].Cards[index].Played {
			continue
		}
		for _, c := range s.firstIndex(m, index, false) {
			if len(all) == 0 || better(c, best, true) {
				best = c
			}
			all = append(all, c)
		}
		s.reporter.Best(index, best)
	}
	return Recommendation{Best: best, Candidates: rank(all)}
}

// MiddleFirstPar is MiddleFirst with the card indices fanned out over the
// worker pool. Zero-pillz replies are not counted.
func (s *Solver) MiddleFirstPar(m *game.Match) Recommendation {
	turn := m.Turn()
	return s.fanOut(func(index int) ([]Candidate, bool) {
		if m.Hands[turn].Cards[index].Played {
			return nil, false
		}
		return s.firstIndex(m.Clone(), index, true), true
	}, true)
}

// --- Parallel reduction ---

// parKey orders per-card winners: rounded rate first, then the smaller
// wager.
func parKey(c Candidate) int {
	return c.Rounded()*100 + (24 - c.Selection.Pillz)
}

// fanOut runs search for every card index on the worker pool. Each worker
// owns its clone of the match. The per-card winners are reduced in index
// order so equal keys resolve to the highest index.
func (s *Solver) fanOut(search func(index int) ([]Candidate, bool), preferMore bool) Recommendation {
	var (
		results [game.HandSize][]Candidate
		active  [game.HandSize]bool
		g       errgroup.Group
	)
	g.SetLimit(s.workers)
	for index := range game.HandSize {
		g.Go(func() error {
			results[index], active[index] = search(index)
			return nil
		})
	}
	_ = g.Wait()

	var all []Candidate
	var best Candidate
	found := false
	for index := range game.HandSize {
		if !active[index] || len(results[index]) == 0 {
			continue
		}
		local := results[index][0]
		for _, c := range results[index][1:] {
			if better(c, local, preferMore) {
				local = c
			}
		}
		s.reporter.Best(index, local)
		all = append(all, results[index]...)
		if !found || parKey(local) >= parKey(best) {
			best = local
			found = true
		}
	}
	return Recommendation{Best: best, Candidates: rank(all)}
}
