package net

import (
	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/peterkuimelis/pillz/internal/log"
	"github.com/peterkuimelis/pillz/internal/solver"
)

// Seat is the side a connection controls. SeatBoth drives both sides, as
// a local analysis session does.
type Seat int

const (
	SeatBoth     Seat = -1
	SeatPlayer   Seat = Seat(game.SidePlayer)
	SeatOpponent Seat = Seat(game.SideOpponent)
)

// Allows reports whether the seat may act for side.
func (s Seat) Allows(side game.Side) bool {
	return s == SeatBoth || s == Seat(side)
}

func (s Seat) String() string {
	switch s {
	case SeatBoth:
		return "both"
	case SeatPlayer:
		return "player"
	default:
		return "opponent"
	}
}

// BuildStateView creates a StateView for the given seat. The other
// side's pending wager is hidden from a single-side seat; its card index
// stays visible since the second mover reacts to it.
func BuildStateView(id string, m *game.Match, seat Seat) *StateView {
	status := m.Status()
	sv := &StateView{
		MatchID: id,
		Round:   m.Round,
		Flip:    m.Flip,
		Turn:    m.Turn().String(),
		Status:  status.String(),
		Over:    status.Over(),
	}
	sv.Player = buildPlayerView(m, game.SidePlayer, seat)
	sv.Opponent = buildPlayerView(m, game.SideOpponent, seat)
	return sv
}

func buildPlayerView(m *game.Match, side game.Side, seat Seat) PlayerView {
	p := m.Players[side]
	h := &m.Hands[side]
	pv := PlayerView{
		Name:  p.Name,
		Life:  p.Life,
		Pillz: p.Pillz,
		Hand:  make([]CardView, 0, game.HandSize),
	}
	if p.Won != game.ResultNone {
		pv.Result = p.Won.String()
	}
	if h.WildcardClan != game.ClanNone {
		pv.Wildcard = h.WildcardClan.String()
	}
	if sel, ok := m.Selection(side); ok {
		view := selectionView(sel)
		if !seat.Allows(side) {
			view.Pillz, view.Fury, view.Hidden = 0, false, true
		}
		pv.Selection = &view
	}
	cat := m.Catalog()
	for i := range h.Cards {
		c := &h.Cards[i]
		cv := CardView{
			Index:   i,
			Name:    c.Name(),
			Clan:    c.Clan().String(),
			Level:   c.Level,
			Power:   c.Power.Value,
			Damage:  c.Damage.Value,
			Attack:  c.Attack.Value,
			Synergy: h.ClanCount[i],
			Played:  c.Played,
			Won:     c.Won,
		}
		if cat != nil {
			if c.AbilityID != 0 {
				cv.Ability = cat.AbilityText(c.AbilityID)
			}
			if c.BonusID != 0 {
				cv.Bonus = cat.AbilityText(c.BonusID)
			}
		}
		pv.Hand = append(pv.Hand, cv)
	}
	return pv
}

func selectionView(sel game.Selection) SelectionView {
	return SelectionView{Index: sel.Index, Pillz: sel.Pillz, Fury: sel.Fury}
}

// Selection converts the view back into an engine selection.
func (v SelectionView) Selection() game.Selection {
	return game.Selection{Index: v.Index, Pillz: v.Pillz, Fury: v.Fury}
}

// EventViews converts battle events for the wire.
func EventViews(events []log.GameEvent) []EventView {
	out := make([]EventView, 0, len(events))
	for _, ev := range events {
		out = append(out, EventView{
			Round:   ev.Round,
			Phase:   ev.Phase,
			Player:  ev.Player,
			Type:    ev.Type.String(),
			Card:    ev.Card,
			Details: ev.Details,
		})
	}
	return out
}

func exactAdvice(side game.Side, res solver.SelectionResult, metrics solver.SearchMetrics) *Advice {
	return &Advice{
		Mode:      "exact",
		Side:      side.String(),
		Outcome:   res.Outcome.String(),
		Selection: selectionView(res.Selection),
		Battles:   metrics.Battles,
		Seconds:   metrics.Duration.Seconds(),
	}
}

func middleAdvice(side game.Side, rec solver.Recommendation) *Advice {
	a := &Advice{
		Mode:      "middle",
		Side:      side.String(),
		Selection: selectionView(rec.Best.Selection),
		Rate:      rec.Best.Rate(),
		Battles:   rec.Metrics.Battles,
		Seconds:   rec.Metrics.Duration.Seconds(),
	}
	for _, c := range rec.Candidates {
		a.Candidates = append(a.Candidates, CandidateView{
			Selection: selectionView(c.Selection),
			Wins:      c.Wins,
			Draws:     c.Draws,
			Losses:    c.Losses,
			Rate:      c.Rate(),
			Glyph:     solver.Glyph(c),
		})
	}
	return a
}
