package solver

import (
	"testing"

	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/stretchr/testify/require"
)

var (
	playerIDs   = [game.HandSize]int{1, 2, 3, 4}
	opponentIDs = [game.HandSize]int{11, 12, 13, 14}
)

// testCatalog holds two ability-less hands of uneven power so that the
// wager actually decides rounds.
func testCatalog(t *testing.T) *game.Catalog {
	t.Helper()
	card := func(id int, name string, clan game.Clan, power int) game.BaseCard {
		return game.BaseCard{ID: id, Name: name, Clan: clan, Level: 2, LevelMax: 2, Power: power, Damage: 3}
	}
	cards := []game.BaseCard{
		card(1, "Punk A", game.ClanJunkz, 2),
		card(2, "Punk B", game.ClanJunkz, 3),
		card(3, "Punk C", game.ClanJunkz, 4),
		card(4, "Punk D", game.ClanJunkz, 5),
		card(11, "Roots A", game.ClanRoots, 3),
		card(12, "Roots B", game.ClanRoots, 3),
		card(13, "Roots C", game.ClanRoots, 4),
		card(14, "Roots D", game.ClanRoots, 4),
	}
	cat, err := game.NewCatalog(cards, nil)
	require.NoError(t, err)
	return cat
}

func newMatch(t *testing.T, cat *game.Catalog, flip, pillz int) *game.Match {
	t.Helper()
	h1, err := cat.HandFromIDs(playerIDs)
	require.NoError(t, err)
	h2, err := cat.HandFromIDs(opponentIDs)
	require.NoError(t, err)
	return game.NewMatch(cat, game.MatchConfig{Hands: [2]game.Hand{h1, h2}, Flip: flip, Pillz: pillz})
}

// advance plays card r for both sides with no wager for rounds rounds.
func advance(t *testing.T, m *game.Match, rounds int) {
	t.Helper()
	for r := 0; r < rounds; r++ {
		_, err := m.Play(game.Selection{Index: m.Round})
		require.NoError(t, err)
		battled, err := m.Play(game.Selection{Index: m.Round})
		require.NoError(t, err)
		require.True(t, battled)
	}
}

// legalSelections enumerates every legal move of the side to move,
// without any pruning.
func legalSelections(m *game.Match) []game.Selection {
	var out []game.Selection
	pool := m.TurnPlayer().Pillz
	for index := range game.HandSize {
		for p := 0; p <= pool; p++ {
			for _, fury := range []bool{false, true} {
				sel := game.Selection{Index: index, Pillz: p, Fury: fury}
				if m.CanSelect(sel) {
					out = append(out, sel)
				}
			}
		}
	}
	return out
}

// bruteForce is a plain minimax over every legal move.
func bruteForce(m *game.Match) game.GameStatus {
	if st := m.Status(); st.Over() {
		return st
	}
	turn := m.Turn()
	result := lossFor(turn)
	for _, sel := range legalSelections(m) {
		g := m.Clone()
		g.Select(sel)
		out := bruteForce(g)
		if out.WinnerIs(turn) {
			return out
		}
		if out == game.StatusDraw {
			result = out
		}
	}
	return result
}

// bruteForceSecond mirrors SolveSecond: the first mover's card is fixed,
// its wager is chosen adversarially.
func bruteForceSecond(m *game.Match) game.GameStatus {
	turn := m.Turn()
	first, _ := m.Selection(turn.Opposite())
	base := m.Clone()
	base.ClearSelection()

	result := lossFor(turn)
	for _, sel := range legalMovesFor(base, turn) {
		worst := winFor(turn)
		for p := 0; p <= base.Players[turn.Opposite()].Pillz; p++ {
			for _, fury := range []bool{false, true} {
				reply := game.Selection{Index: first.Index, Pillz: p, Fury: fury}
				if !base.CanSelect(reply) {
					continue
				}
				g := base.Clone()
				g.Select(reply)
				g.Select(sel)
				out := bruteForce(g)
				switch {
				case out.LoserIs(turn):
					worst = out
				case out == game.StatusDraw && !worst.LoserIs(turn):
					worst = out
				}
			}
		}
		if worst.WinnerIs(turn) {
			return worst
		}
		if worst == game.StatusDraw {
			result = worst
		}
	}
	return result
}

// legalMovesFor lists the moves side could make once it is on turn.
func legalMovesFor(m *game.Match, side game.Side) []game.Selection {
	var out []game.Selection
	pool := m.Players[side].Pillz
	for index := range game.HandSize {
		if m.Hands[side].Cards[index].Played {
			continue
		}
		for p := 0; p <= pool; p++ {
			out = append(out, game.Selection{Index: index, Pillz: p})
			if p+game.FuryCost <= pool {
				out = append(out, game.Selection{Index: index, Pillz: p, Fury: true})
			}
		}
	}
	return out
}
