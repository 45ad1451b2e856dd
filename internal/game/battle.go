package game

import (
	"github.com/peterkuimelis/pillz/internal/log"
)

// BattleView is one side's perspective of the battle being resolved. All
// pointers refer into the owning Match.
type BattleView struct {
	Round        int
	Time         EventTime
	First        bool
	Side         Side
	Hand         *Hand
	OppHand      *Hand
	Player       *Player
	Opp          *Player
	Card         *Card
	OppCard      *Card
	PillzUsed    int // including the fury surcharge
	OppPillzUsed int

	catalog *Catalog
	logger  log.EventLogger
}

func (v *BattleView) ability(id int) Ability {
	return v.catalog.ability(id)
}

// --- Event logging ---

// Each helper returns early when nobody is listening so that replays run
// by the solver never build event strings.

func (v *BattleView) kind(a *Ability) string {
	return a.Type.String()
}

func (v *BattleView) logApplied(a *Ability, m *Modifier) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewAbilityAppliedEvent(v.Round, v.Time.String(), int(v.Side), v.Card.Name(), v.kind(a), m.String()))
}

func (v *BattleView) logSkipped(m *Modifier) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewModifierSkippedEvent(v.Round, v.Time.String(), int(v.Side), v.Card.Name(), m.String()))
}

func (v *BattleView) logConditionFailed(a *Ability, c Condition) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewConditionFailedEvent(v.Round, v.Time.String(), int(v.Side), v.Card.Name(), c.String()))
}

func (v *BattleView) logBlocked(a *Ability) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewAbilityBlockedEvent(v.Round, v.Time.String(), int(v.Side), v.Card.Name(), v.kind(a)))
}

func (v *BattleView) logSpawned(a *Ability) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewCopySpawnedEvent(v.Round, v.Time.String(), int(v.Side), v.Card.Name(), v.kind(a)))
}

func (v *BattleView) logDropped(a *Ability) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewAbilityDroppedEvent(v.Round, int(v.Side), v.Card.Name(), v.kind(a)))
}

func (v *BattleView) logQueued(a *Ability) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewAbilityQueuedEvent(v.Round, a.EventTime().String(), int(v.Side), v.Card.Name(), v.kind(a), a.Type.IsGlobal()))
}

func (v *BattleView) logGlobalRemoved() {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewGlobalRemovedEvent(v.Round, v.Time.String(), int(v.Side)))
}

func (v *BattleView) logCancelToggle(undone bool) {
	if v.logger == nil {
		return
	}
	v.logger.Log(log.NewCancelToggleEvent(v.Round, int(v.Side), v.Card.Name(), undone))
}

func (v *BattleView) logLife(p *Player, old int) {
	if v.logger == nil || p.Life == old {
		return
	}
	v.logger.Log(log.NewLifeChangeEvent(v.Round, v.Time.String(), int(p.Side), old, p.Life))
}

// --- Battle resolution ---

// battle resolves the round for the two committed selections.
func (m *Match) battle() {
	s1, s2 := m.selections[0].sel, m.selections[1].sel
	p1, p2 := &m.Players[0], &m.Players[1]
	h1, h2 := &m.Hands[0], &m.Hands[1]
	c1, c2 := &h1.Cards[s1.Index], &h2.Cards[s2.Index]

	for _, p := range []*Player{p1, p2} {
		p.WonPrevious = p.Won
		p.LifePrevious = p.Life
		p.PillzPrevious = p.Pillz
	}

	first := m.FirstTurn()
	used1, used2 := s1.Cost(), s2.Cost()
	v1 := &BattleView{
		Round: m.Round, First: first == SidePlayer, Side: SidePlayer,
		Hand: h1, OppHand: h2, Player: p1, Opp: p2, Card: c1, OppCard: c2,
		PillzUsed: used1, OppPillzUsed: used2,
		catalog: m.catalog, logger: m.logger,
	}
	v2 := &BattleView{
		Round: m.Round, First: first == SideOpponent, Side: SideOpponent,
		Hand: h2, OppHand: h1, Player: p2, Opp: p1, Card: c2, OppCard: c1,
		PillzUsed: used2, OppPillzUsed: used1,
		catalog: m.catalog, logger: m.logger,
	}
	e1, e2 := &m.Events[0], &m.Events[1]

	if m.logger != nil {
		m.logger.Log(log.NewRoundStartEvent(m.Round, int(first)))
	}

	m.queue(e1, v1, c1.AbilityID)
	m.queue(e2, v2, c2.AbilityID)
	m.queue(e1, v1, c1.BonusID)
	m.queue(e2, v2, c2.BonusID)

	e1.Execute(TimeStart, v1)
	e2.Execute(TimeStart, v2)

	e1.Execute(TimePre4, v1)
	e2.Execute(TimePre4, v2)
	for range 3 {
		changed1 := e1.CheckCancels(v1)
		changed2 := e2.CheckCancels(v2)
		if !changed1 && !changed2 {
			break
		}
	}

	for _, t := range []EventTime{TimePre3, TimePre2, TimePre1} {
		e1.Execute(t, v1)
		e2.Execute(t, v2)
	}

	if s1.Fury {
		c1.Damage.Value += FuryDamage
		m.logFury(SidePlayer, c1)
	}
	if s2.Fury {
		c2.Damage.Value += FuryDamage
		m.logFury(SideOpponent, c2)
	}

	c1.Attack.Value = (s1.Pillz + 1) * c1.Power.Value
	c2.Attack.Value = (s2.Pillz + 1) * c2.Power.Value
	m.logAttack(SidePlayer, c1)
	m.logAttack(SideOpponent, c2)

	for _, t := range []EventTime{TimePost1, TimePost2, TimePost3, TimePost4} {
		e1.Execute(t, v1)
		e2.Execute(t, v2)
	}

	a1, a2 := c1.Attack.Value, c2.Attack.Value
	playerWins := a1 > a2 || (a1 == a2 && (c1.Level < c2.Level || (c1.Level == c2.Level && first == SidePlayer)))

	winner, loser := p1, p2
	wc, lc := c1, c2
	if !playerWins {
		winner, loser = p2, p1
		wc, lc = c2, c1
	}
	old := loser.Life
	loser.Life -= min(wc.Damage.Value, loser.Life)
	wc.Won = true
	winner.Won = ResultWin
	loser.Won = ResultLose
	if m.logger != nil {
		m.logger.Log(log.NewRoundWinEvent(m.Round, int(winner.Side), wc.Name(), wc.Attack.Value, lc.Attack.Value))
		m.logger.Log(log.NewLifeChangeEvent(m.Round, "", int(loser.Side), old, loser.Life))
	}

	p1.Pillz -= used1
	p2.Pillz -= used2
	if m.logger != nil {
		m.logger.Log(log.NewPillzSpentEvent(m.Round, int(SidePlayer), used1, p1.Pillz))
		m.logger.Log(log.NewPillzSpentEvent(m.Round, int(SideOpponent), used2, p2.Pillz))
	}

	e1.ExecuteEnd(v1)
	e2.ExecuteEnd(v2)

	c1.Played = true
	c2.Played = true
	m.Round++

	if m.logger != nil {
		if status := m.Status(); status.Over() {
			m.logger.Log(log.NewMatchOverEvent(m.Round-1, status.String()))
		}
	}
}

// queue instantiates the catalog ability id and queues it for v's side.
func (m *Match) queue(e *Events, v *BattleView, id int) {
	a := m.catalog.ability(id)
	if e.Add(a) {
		v.logQueued(&a)
		return
	}
	if id != 0 {
		v.logDropped(&a)
	}
}

func (m *Match) logFury(side Side, c *Card) {
	if m.logger != nil {
		m.logger.Log(log.NewFuryEvent(m.Round, int(side), c.Name(), c.Damage.Value))
	}
}

func (m *Match) logAttack(side Side, c *Card) {
	if m.logger != nil {
		m.logger.Log(log.NewAttackEvent(m.Round, int(side), c.Name(), c.Attack.Value))
	}
}
