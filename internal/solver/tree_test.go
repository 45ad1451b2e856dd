package solver

import (
	"bytes"
	"testing"

	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(st game.GameStatus) *Tree { return &Tree{Outcome: st} }

func TestTreeScore(t *testing.T) {
	w, mean := leaf(game.StatusPlayer).Score()
	assert.Equal(t, 2, w)
	assert.InDelta(t, 2.0, mean, 1e-9)

	mixed := &Tree{Children: map[game.Selection]*Tree{
		{Index: 0}: leaf(game.StatusPlayer),
		{Index: 1}: leaf(game.StatusOpponent),
		{Index: 2}: leaf(game.StatusDraw),
	}}
	w, mean = mixed.Score()
	assert.Equal(t, -2, w)
	assert.InDelta(t, 1.0/3, mean, 1e-9)

	sweep := &Tree{Children: map[game.Selection]*Tree{{Index: 0}: leaf(game.StatusPlayer)}}
	w, _ = sweep.Score()
	assert.Equal(t, 1, w, "inner nodes cap the worst score at a draw")
}

func TestBestMoves(t *testing.T) {
	root := map[game.Selection]*Tree{
		{Index: 0, Pillz: 2}: {Children: map[game.Selection]*Tree{
			{Index: 0}: leaf(game.StatusPlayer),
			{Index: 1}: leaf(game.StatusDraw),
		}},
		{Index: 1, Pillz: 0}: {Children: map[game.Selection]*Tree{
			{Index: 0}: leaf(game.StatusPlayer),
			{Index: 1}: leaf(game.StatusOpponent),
		}},
		{Index: 2, Pillz: 1}: {Children: map[game.Selection]*Tree{
			{Index: 0}: leaf(game.StatusDraw),
			{Index: 1}: leaf(game.StatusPlayer),
		}},
	}
	moves, worst, pct := BestMoves(root)
	assert.Equal(t, []game.Selection{{Index: 0, Pillz: 2}, {Index: 2, Pillz: 1}}, moves)
	assert.Equal(t, 1, worst)
	assert.InDelta(t, 87.5, pct, 1e-9)

	// all losing: the least bad move is still reported
	moves, worst, _ = BestMoves(map[game.Selection]*Tree{{Index: 3}: leaf(game.StatusOpponent)})
	assert.Equal(t, []game.Selection{{Index: 3}}, moves)
	assert.Equal(t, -2, worst)
}

func TestFillTreeLastRound(t *testing.T) {
	cat := testCatalog(t)
	m := newMatch(t, cat, 0, 2)
	advance(t, m, 3)

	metrics := NewMetricsCollector()
	s := New(WithMetrics(metrics))
	metrics.Start(1)
	tree := s.FillTree(m)

	// one card each, SplitShiftRange(2) has three tiers
	require.Len(t, tree, 3)
	for sel, sub := range tree {
		require.False(t, sub.Leaf(), "%s", sel)
		assert.Len(t, sub.Children, 3)
		for _, l := range sub.Children {
			assert.True(t, l.Leaf())
			assert.True(t, l.Outcome.Over())
		}
	}
	assert.EqualValues(t, 9, metrics.Complete().Battles)
}

func TestFillTreeABAB(t *testing.T) {
	cat := testCatalog(t)
	m := newMatch(t, cat, 1, 2)
	advance(t, m, 3)

	tree := New().FillTreeABAB(m)
	require.Len(t, tree, 3)
	for _, sub := range tree {
		assert.Len(t, sub.Children, 3)
	}

	// the opponent's committed card pins its index
	m = newMatch(t, cat, 1, 2)
	advance(t, m, 2)
	_, err := m.Play(game.Selection{Index: 3})
	require.NoError(t, err)
	require.Equal(t, game.SideOpponent, m.FirstTurn())
	tree = New().FillTreeABAB(m)
	for _, sub := range tree {
		for sel := range sub.Children {
			assert.Equal(t, 3, sel.Index)
		}
	}

	var buf bytes.Buffer
	FormatTree(&buf, tree)
	out := buf.String()
	assert.Contains(t, out, "moves...")
	assert.Contains(t, out, "%")
}

func TestFormatTreeLeaves(t *testing.T) {
	var buf bytes.Buffer
	FormatTree(&buf, map[game.Selection]*Tree{
		{Index: 0, Pillz: 1}:             leaf(game.StatusPlayer),
		{Index: 1, Pillz: 0, Fury: true}: leaf(game.StatusDraw),
	})
	assert.Equal(t, "{\n  0 1 false: Player Wins,\n  1 0  true: Draw,\n},\n", buf.String())
}
