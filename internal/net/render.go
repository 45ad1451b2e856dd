package net

import (
	"fmt"
	"io"
	"strings"
)

// RenderState draws the table: opponent on top, player below.
func RenderState(w io.Writer, sv *StateView) {
	if sv == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════════╗")
	renderPlayer(w, "OPPONENT", sv.Opponent)
	fmt.Fprintln(w, "║──────────────────────────────────────────────────────")
	renderPlayer(w, "PLAYER", sv.Player)
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════════╝")

	if sv.Over {
		fmt.Fprintf(w, "Round %d | Result: %s\n", sv.Round, sv.Status)
		return
	}
	fmt.Fprintf(w, "Round %d | %s to select\n", sv.Round+1, sv.Turn)
}

func renderPlayer(w io.Writer, label string, pv PlayerView) {
	fmt.Fprintf(w, "║  %s (Life: %d  Pillz: %d)", label, pv.Life, pv.Pillz)
	if pv.Result != "" {
		fmt.Fprintf(w, "  last: %s", pv.Result)
	}
	if pv.Wildcard != "" {
		fmt.Fprintf(w, "  wildcard: %s", pv.Wildcard)
	}
	fmt.Fprintln(w)
	for _, c := range pv.Hand {
		fmt.Fprintf(w, "║  %s\n", formatCard(c))
	}
	if sel := pv.Selection; sel != nil {
		if sel.Hidden {
			fmt.Fprintf(w, "║  selected: card %d\n", sel.Index)
		} else {
			fmt.Fprintf(w, "║  selected: %s\n", sel.Selection())
		}
	}
}

func formatCard(c CardView) string {
	mark := " "
	switch {
	case c.Played && c.Won:
		mark = "+"
	case c.Played:
		mark = "-"
	}
	line := fmt.Sprintf("%s[%d] %-18s %-10s L%d %2d/%d x%d", mark, c.Index, c.Name, c.Clan, c.Level, c.Power, c.Damage, c.Synergy)
	if c.Ability != "" {
		line += "  " + c.Ability
	}
	if c.Bonus != "" {
		line += "  | " + c.Bonus
	}
	return line
}

// RenderEvents prints battle events like the text logger.
func RenderEvents(w io.Writer, events []EventView) {
	for _, ev := range events {
		phase := ev.Phase
		for len(phase) < 6 {
			phase += " "
		}
		fmt.Fprintf(w, "R%-2d %s| %s\n", ev.Round, phase, ev.Details)
	}
}

// RenderAdvice prints a recommendation. Statistical results show one
// glyph per candidate, best first.
func RenderAdvice(w io.Writer, a *Advice) {
	if a == nil {
		return
	}
	if a.Mode == "exact" {
		fmt.Fprintf(w, "advice %s\n", a)
	} else {
		glyphs := make([]string, 0, len(a.Candidates))
		for _, c := range a.Candidates {
			glyphs = append(glyphs, c.Glyph)
		}
		fmt.Fprintf(w, "%s\nadvice %s\n", strings.Join(glyphs, ""), a)
	}
	fmt.Fprintf(w, "battles %d /%.1fsecs\n", a.Battles, a.Seconds)
}

// RenderAnalysis prints the best moves and the tree.
func RenderAnalysis(w io.Writer, a *Analysis) {
	if a == nil {
		return
	}
	fmt.Fprint(w, a.Tree)
	best := make([]string, 0, len(a.Best))
	for _, sel := range a.Best {
		best = append(best, sel.Selection().String())
	}
	fmt.Fprintf(w, "best [%s] worst %d (%.1f%%)\n", strings.Join(best, ", "), a.Worst, a.WinPercent)
}
