package solver

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/peterkuimelis/pillz/internal/game"
)

// Tree is a fully expanded results tree. A leaf carries a final status;
// an inner node maps each selection tried to the subtree it leads to.
type Tree struct {
	Outcome  game.GameStatus
	Children map[game.Selection]*Tree
}

func (t *Tree) Leaf() bool { return t.Children == nil }

// Leaf scores, from the player's side.
const (
	scoreWin  = 2
	scoreDraw = 1
	scoreLoss = -2
)

// Score returns the worst reachable score and the mean score of the
// subtree. Inner nodes start their worst score at a draw.
func (t *Tree) Score() (int, float64) {
	if t.Leaf() {
		switch t.Outcome {
		case game.StatusPlayer:
			return scoreWin, scoreWin
		case game.StatusOpponent:
			return scoreLoss, scoreLoss
		default:
			return scoreDraw, scoreDraw
		}
	}
	if len(t.Children) == 0 {
		return scoreDraw, 0
	}
	worst, total := scoreDraw, 0.0
	for _, child := range t.Children {
		w, mean := child.Score()
		worst = min(worst, w)
		total += mean
	}
	return worst, total / float64(len(t.Children))
}

// WinPercentage maps a mean score onto 0..100.
func WinPercentage(mean float64) float64 {
	return (mean/2 + 1) / 2 * 100
}

func sortedSelections(children map[game.Selection]*Tree) []game.Selection {
	keys := make([]game.Selection, 0, len(children))
	for sel := range children {
		keys = append(keys, sel)
	}
	slices.SortFunc(keys, func(a, b game.Selection) int {
		if c := cmp.Compare(a.Index, b.Index); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Pillz, b.Pillz); c != 0 {
			return c
		}
		switch {
		case a.Fury == b.Fury:
			return 0
		case a.Fury:
			return 1
		default:
			return -1
		}
	})
	return keys
}

// BestMoves returns the selections maximising (worst score, mean score)
// in selection order, with the shared worst score and win percentage.
func BestMoves(children map[game.Selection]*Tree) ([]game.Selection, int, float64) {
	var (
		best      []game.Selection
		bestWorst int
		bestMean  float64
	)
	for _, sel := range sortedSelections(children) {
		worst, mean := children[sel].Score()
		switch {
		case len(best) == 0 || worst > bestWorst || (worst == bestWorst && mean > bestMean):
			best = append(best[:0], sel)
			bestWorst, bestMean = worst, mean
		case worst == bestWorst && mean == bestMean:
			best = append(best, sel)
		}
	}
	return best, bestWorst, WinPercentage(bestMean)
}

// --- Building ---

// FillTree expands every SplitShiftRange selection of the side to move,
// alternating turns as the match does.
func (s *Solver) FillTree(m *game.Match) map[game.Selection]*Tree {
	tree := make(map[game.Selection]*Tree)
	pool := m.TurnPlayer().Pillz
	for index := range game.HandSize {
		if m.TurnHand().Cards[index].Played {
			continue
		}
		for _, tier := range SplitShiftRange(pool) {
			sel := tier.Selection(index)
			g := m.Clone()
			s.play(g, sel)
			if st := g.Status(); st.Over() {
				tree[sel] = &Tree{Outcome: st}
				continue
			}
			tree[sel] = &Tree{Children: s.FillTree(g)}
		}
	}
	return tree
}

// FillTreeABAB expands rounds as player-then-opponent pairs regardless of
// who commits first. The first level holds the player's selections, the
// second the opponent's. A committed opponent card pins its index.
func (s *Solver) FillTreeABAB(m *game.Match) map[game.Selection]*Tree {
	pinned, hasPin := m.Selection(game.SideOpponent)
	base := m.Clone()
	base.ClearSelection()

	tree := make(map[game.Selection]*Tree)
	p1, p2 := &base.Players[game.SidePlayer], &base.Players[game.SideOpponent]
	for i1 := range game.HandSize {
		if base.Hands[game.SidePlayer].Cards[i1].Played {
			continue
		}
		for _, t1 := range SplitShiftRange(p1.Pillz) {
			s1 := t1.Selection(i1)
			replies := make(map[game.Selection]*Tree)
			for i2 := range game.HandSize {
				if hasPin && i2 != pinned.Index {
					continue
				}
				if base.Hands[game.SideOpponent].Cards[i2].Played {
					continue
				}
				for _, t2 := range SplitShiftRange(p2.Pillz) {
					s2 := t2.Selection(i2)
					g := base.Clone()
					s.playBoth(g, s1, s2)
					if st := g.Status(); st.Over() {
						replies[s2] = &Tree{Outcome: st}
						continue
					}
					replies[s2] = &Tree{Children: s.FillTreeABAB(g)}
				}
			}
			tree[s1] = &Tree{Children: replies}
		}
	}
	return tree
}

// --- Display ---

// FormatTree writes the first two levels of the tree. Deeper subtrees are
// summarised by their move count.
func FormatTree(w io.Writer, children map[game.Selection]*Tree) {
	fmt.Fprintln(w, "{")
	formatLevel(w, children, 0)
	fmt.Fprintln(w, "},")
}

func formatLevel(w io.Writer, children map[game.Selection]*Tree, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, sel := range sortedSelections(children) {
		t := children[sel]
		fmt.Fprintf(w, "  %s%d %d %5t", indent, sel.Index, sel.Pillz, sel.Fury)
		if t.Leaf() {
			fmt.Fprintf(w, ": %s,\n", leafText(t.Outcome))
			continue
		}
		_, mean := t.Score()
		pct := fmt.Sprintf("%.1f%%", WinPercentage(mean))
		if depth < 1 {
			fmt.Fprintf(w, " (%s): {\n", pct)
			formatLevel(w, t.Children, depth+1)
			fmt.Fprintf(w, "%s  },\n", indent)
			continue
		}
		fmt.Fprintf(w, " (%s): %d moves...,\n", pct, len(t.Children))
	}
}

func leafText(st game.GameStatus) string {
	switch st {
	case game.StatusPlayer:
		return "Player Wins"
	case game.StatusOpponent:
		return "Opponent Wins"
	default:
		return "Draw"
	}
}
