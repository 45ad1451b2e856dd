package solver

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/peterkuimelis/pillz/internal/game"
)

// Reporter observes a search in progress. Calls may come from several
// workers at once.
type Reporter interface {
	// Candidate is called once per evaluated top-level selection.
	Candidate(c Candidate)
	// Best is called when card index has been fully evaluated, with the
	// best selection found so far.
	Best(index int, c Candidate)
	// Stats is called when a search entry point returns.
	Stats(m SearchMetrics)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Candidate(Candidate) {}
func (NopReporter) Best(int, Candidate) {}
func (NopReporter) Stats(SearchMetrics) {}

// Glyph is the one-character summary of a candidate:
//
//	pillz in decimal  never loses and never draws
//	d                 never loses but draws, or only draws beat losses
//	pillz in hex      more non-losing replies than losing ones
//	x                 non-losing rate at or below 25%
//	pillz in hex      loses at least as often as not
func Glyph(c Candidate) string {
	nonLoss := c.Wins + c.Draws
	switch {
	case c.Losses == 0 && c.Draws == 0:
		return fmt.Sprintf("%d", c.Selection.Pillz)
	case c.Losses == 0:
		return "d"
	case nonLoss > c.Losses && c.Wins == 0:
		return "d"
	case nonLoss > c.Losses:
		return fmt.Sprintf("%X", c.Selection.Pillz)
	case c.Rate() <= 0.25:
		return "x"
	default:
		return fmt.Sprintf("%X", c.Selection.Pillz)
	}
}

// TextReporter prints glyph lines: one row of glyphs per card index
// followed by the best selection so far. Rows are buffered per index and
// written whole, so parallel workers do not interleave.
type TextReporter struct {
	mu   sync.Mutex
	w    io.Writer
	rows [game.HandSize][]string
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) Candidate(c Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := c.Selection.Index
	r.rows[i] = append(r.rows[i], Glyph(c))
}

func (r *TextReporter) Best(index int, c Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s\n(%.1f%%) %s\n", strings.Join(r.rows[index], " "), c.Rate()*100, c.Selection)
	r.rows[index] = nil
}

func (r *TextReporter) Stats(m SearchMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "battles %d /%.1fsecs (%.0fk/s)\n", m.Battles, m.Duration.Seconds(), m.BattlesPerSecond()/1000)
}
