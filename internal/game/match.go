package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterkuimelis/pillz/internal/log"
)

const (
	DefaultLife  = 12
	DefaultPillz = 12
	Rounds       = 4
	FuryCost     = 3 // extra pillz spent on fury
	FuryDamage   = 2 // damage bonus granted by fury
)

// --- Player ---

// Player holds one side's resources and round outcomes.
type Player struct {
	Name          string
	Side          Side
	Life          int
	LifePrevious  int
	Pillz         int
	PillzPrevious int
	Won           RoundResult
	WonPrevious   RoundResult
}

func newPlayer(name string, side Side, life, pillz int) Player {
	return Player{
		Name:          name,
		Side:          side,
		Life:          life,
		LifePrevious:  life,
		Pillz:         pillz,
		PillzPrevious: pillz,
	}
}

// --- Selection ---

// Selection is a committed move: a hand index, the pillz wagered and
// whether fury is added on top.
type Selection struct {
	Index int
	Pillz int
	Fury  bool
}

// Cost is the pillz actually deducted, fury surcharge included.
func (s Selection) Cost() int {
	if s.Fury {
		return s.Pillz + FuryCost
	}
	return s.Pillz
}

func (s Selection) String() string {
	return fmt.Sprintf("%d %d %t", s.Index, s.Pillz, s.Fury)
}

// ParseSelection reads "index pillz fury". Missing tokens default to
// zero and false.
func ParseSelection(s string) (Selection, error) {
	var sel Selection
	fields := strings.Fields(s)
	if len(fields) > 3 {
		return sel, fmt.Errorf("%w: %q", ErrMalformedSelection, s)
	}
	var err error
	if len(fields) > 0 {
		if sel.Index, err = strconv.Atoi(fields[0]); err != nil {
			return sel, fmt.Errorf("%w: index %q", ErrMalformedSelection, fields[0])
		}
	}
	if len(fields) > 1 {
		if sel.Pillz, err = strconv.Atoi(fields[1]); err != nil {
			return sel, fmt.Errorf("%w: pillz %q", ErrMalformedSelection, fields[1])
		}
	}
	if len(fields) > 2 {
		if sel.Fury, err = strconv.ParseBool(fields[2]); err != nil {
			return sel, fmt.Errorf("%w: fury %q", ErrMalformedSelection, fields[2])
		}
	}
	if sel.Index < 0 || sel.Pillz < 0 {
		return sel, fmt.Errorf("%w: %q", ErrMalformedSelection, s)
	}
	return sel, nil
}

type pendingSelection struct {
	sel Selection
	set bool
}

// --- Match ---

// MatchConfig describes a new match. Zero Life and Pillz take the
// defaults; a nil Logger keeps the match silent.
type MatchConfig struct {
	Hands  [2]Hand
	Flip   int
	Life   int
	Pillz  int
	Logger log.EventLogger
}

// Match is the full state of a game between the player and the opponent.
type Match struct {
	Round   int
	Flip    int
	Players [2]Player
	Hands   [2]Hand
	Events  [2]Events

	selections [2]pendingSelection
	catalog    *Catalog
	logger     log.EventLogger
}

// NewMatch sets up both sides and registers Leader globals.
func NewMatch(cat *Catalog, cfg MatchConfig) *Match {
	life, pillz := cfg.Life, cfg.Pillz
	if life == 0 {
		life = DefaultLife
	}
	if pillz == 0 {
		pillz = DefaultPillz
	}
	m := &Match{
		Flip:    cfg.Flip & 1,
		Hands:   cfg.Hands,
		catalog: cat,
	}
	if !log.IsNop(cfg.Logger) {
		m.logger = cfg.Logger
	}
	m.Players[0] = newPlayer(SidePlayer.String(), SidePlayer, life, pillz)
	m.Players[1] = newPlayer(SideOpponent.String(), SideOpponent, life, pillz)

	for side := range m.Hands {
		leader, ok := m.Hands[side].Leader()
		if !ok {
			continue
		}
		if m.Events[side].AddGlobal(cat.ability(leader.AbilityID)) && m.logger != nil {
			m.logger.Log(log.NewGlobalRegisteredEvent(side, leader.Name()))
		}
	}
	return m
}

// Clone returns an independent copy. The clone is silent.
func (m *Match) Clone() *Match {
	c := *m
	c.logger = nil
	c.Events[0] = m.Events[0].Clone()
	c.Events[1] = m.Events[1].Clone()
	return &c
}

// SetLogger replaces the observer. Nil or a NopLogger silences the match.
func (m *Match) SetLogger(l log.EventLogger) {
	m.logger = nil
	if !log.IsNop(l) {
		m.logger = l
	}
}

func (m *Match) Catalog() *Catalog { return m.catalog }

// --- Turn order ---

// FirstTurn is the side that commits first this round.
func (m *Match) FirstTurn() Side {
	if m.Round%2 == m.Flip {
		return SidePlayer
	}
	return SideOpponent
}

// Turn is the side expected to commit next.
func (m *Match) Turn() Side {
	first := m.FirstTurn()
	if m.selections[first].set {
		return first.Opposite()
	}
	return first
}

func (m *Match) TurnPlayer() *Player   { return &m.Players[m.Turn()] }
func (m *Match) TurnOpponent() *Player { return &m.Players[m.Turn().Opposite()] }
func (m *Match) TurnHand() *Hand       { return &m.Hands[m.Turn()] }

func (m *Match) TurnOpponentHand() *Hand { return &m.Hands[m.Turn().Opposite()] }

// HasGlobal reports whether any card in side's hand carries a global
// ability or bonus, copies included.
func (m *Match) HasGlobal(side Side) bool {
	for i := range m.Hands[side].Cards {
		c := &m.Hands[side].Cards[i]
		for _, id := range []int{c.AbilityID, c.BonusID} {
			if t := m.catalog.ability(id).Type; t == TypeGlobal || t.IsGlobal() {
				return true
			}
		}
	}
	return false
}

// Selection returns side's pending selection for the current round.
func (m *Match) Selection(side Side) (Selection, bool) {
	p := m.selections[side]
	return p.sel, p.set
}

// HasSelection reports whether either side has committed this round.
func (m *Match) HasSelection() bool {
	return m.selections[0].set || m.selections[1].set
}

// ClearSelection discards any pending commitment for the round.
func (m *Match) ClearSelection() {
	m.selections = [2]pendingSelection{}
}

// --- Moves ---

// CanSelect reports whether the side to move may play sel.
func (m *Match) CanSelect(sel Selection) bool {
	if sel.Index < 0 || sel.Index >= HandSize || sel.Pillz < 0 {
		return false
	}
	turn := m.Turn()
	if m.Hands[turn].Cards[sel.Index].Played {
		return false
	}
	return sel.Cost() <= m.Players[turn].Pillz
}

// Select commits sel for the side to move. When it completes the round
// the battle is resolved, the selections are cleared and true is returned.
// Legality is not checked here; see Play.
func (m *Match) Select(sel Selection) bool {
	first := m.FirstTurn()
	second := first.Opposite()
	if m.logger != nil {
		turn := m.Turn()
		m.logger.Log(log.NewSelectEvent(m.Round, int(turn), m.Hands[turn].Cards[sel.Index].Name(), sel.Pillz, sel.Fury))
	}
	if m.selections[first].set {
		m.selections[second] = pendingSelection{sel: sel, set: true}
		m.battle()
		m.ClearSelection()
		return true
	}
	m.selections[first] = pendingSelection{sel: sel, set: true}
	return false
}

// Play validates sel for the side to move and commits it.
func (m *Match) Play(sel Selection) (bool, error) {
	if m.Status().Over() {
		return false, ErrMatchOver
	}
	if !m.CanSelect(sel) {
		return false, fmt.Errorf("%w: %s for %s", ErrIllegalSelection, sel, m.Turn())
	}
	return m.Select(sel), nil
}

// SelectBoth resolves a round from both selections at once.
func (m *Match) SelectBoth(player, opponent Selection) {
	m.selections[SidePlayer] = pendingSelection{sel: player, set: true}
	m.selections[SideOpponent] = pendingSelection{sel: opponent, set: true}
	m.battle()
	m.ClearSelection()
}

// Status reports the match outcome. A half-committed round is always
// still playing.
func (m *Match) Status() GameStatus {
	if m.selections[0].set != m.selections[1].set {
		return StatusPlaying
	}
	l1, l2 := m.Players[0].Life, m.Players[1].Life
	switch {
	case l1 <= 0 && l2 <= 0:
		return StatusDraw
	case l1 <= 0:
		return StatusOpponent
	case l2 <= 0:
		return StatusPlayer
	case m.Round == Rounds:
		switch {
		case l1 > l2:
			return StatusPlayer
		case l1 < l2:
			return StatusOpponent
		default:
			return StatusDraw
		}
	default:
		return StatusPlaying
	}
}
