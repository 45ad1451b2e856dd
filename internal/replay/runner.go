package replay

import (
	"errors"
	"fmt"

	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/peterkuimelis/pillz/internal/log"
)

// Mismatch reports the first resource that differs from the recording.
type Mismatch struct {
	Round int
	Field string
	Want  int
	Got   int
}

func (e *Mismatch) Error() string {
	return fmt.Sprintf("round %d: %s should be %d, got %d", e.Round, e.Field, e.Want, e.Got)
}

// Run replays tc and checks life and pillz after every round. Moves are
// validated like live input.
func Run(cat *game.Catalog, tc Testcase, logger log.EventLogger) (*game.Match, error) {
	m, err := game.NewMatchFromSetup(cat, tc.Setup(), logger)
	if err != nil {
		return nil, err
	}
	for i, r := range tc.Moves {
		if _, err := m.Play(game.Selection(r.S1)); err != nil {
			return m, fmt.Errorf("round %d first move: %w", i, err)
		}
		battled, err := m.Play(game.Selection(r.S2))
		if err != nil {
			return m, fmt.Errorf("round %d second move: %w", i, err)
		}
		if !battled {
			return m, fmt.Errorf("round %d: no battle after two moves", i)
		}
		checks := []struct {
			field     string
			want, got int
		}{
			{"p1life", r.P1Life, m.Players[0].Life},
			{"p2life", r.P2Life, m.Players[1].Life},
			{"p1pillz", r.P1Pillz, m.Players[0].Pillz},
			{"p2pillz", r.P2Pillz, m.Players[1].Pillz},
		}
		for _, c := range checks {
			if c.want != c.got {
				return m, &Mismatch{Round: i, Field: c.field, Want: c.want, Got: c.got}
			}
		}
	}
	return m, nil
}

// Failure pairs a testcase index with its error.
type Failure struct {
	Index int
	Err   error
}

// Report summarises a batch run.
type Report struct {
	Passed   int
	Failures []Failure
}

// Mismatches counts failures caused by diverging resources rather than
// bad input.
func (r Report) Mismatches() int {
	n := 0
	for _, f := range r.Failures {
		var mm *Mismatch
		if errors.As(f.Err, &mm) {
			n++
		}
	}
	return n
}

// RunAll replays every testcase. loggerFor may be nil for silent runs.
func RunAll(cat *game.Catalog, cases []Testcase, loggerFor func(i int) log.EventLogger) Report {
	var rep Report
	for i, tc := range cases {
		var logger log.EventLogger
		if loggerFor != nil {
			logger = loggerFor(i)
		}
		if _, err := Run(cat, tc, logger); err != nil {
			rep.Failures = append(rep.Failures, Failure{Index: i, Err: err})
			continue
		}
		rep.Passed++
	}
	return rep
}

// --- Recording ---

// Recorder builds a testcase from a live match.
type Recorder struct {
	tc      Testcase
	pending *Move
}

// NewRecorder starts a recording of m, which must be fresh from setup s.
func NewRecorder(s game.Setup, m *game.Match) *Recorder {
	return &Recorder{tc: Testcase{
		Cards: s.Cards,
		Flip:  m.Flip == 1,
		Life:  m.Players[0].Life,
		Pillz: m.Players[0].Pillz,
	}}
}

// Observe records sel right after it was committed on m.
func (r *Recorder) Observe(m *game.Match, sel game.Selection, battled bool) {
	mv := Move(sel)
	if !battled {
		r.pending = &mv
		return
	}
	var first Move
	if r.pending != nil {
		first = *r.pending
	}
	r.pending = nil
	r.tc.Moves = append(r.tc.Moves, Round{
		S1:      first,
		S2:      mv,
		P1Life:  m.Players[0].Life,
		P2Life:  m.Players[1].Life,
		P1Pillz: m.Players[0].Pillz,
		P2Pillz: m.Players[1].Pillz,
	})
}

// Cancel forgets a first move that was taken back.
func (r *Recorder) Cancel() { r.pending = nil }

// Testcase returns a copy of the recording so far.
func (r *Recorder) Testcase() Testcase {
	tc := r.tc
	tc.Moves = append([]Round(nil), r.tc.Moves...)
	return tc
}
