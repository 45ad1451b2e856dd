package game

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// --- Modifier enums ---

// ModifierKind selects which payload of a Modifier is live.
type ModifierKind int

const (
	ModBasic ModifierKind = iota
	ModCancel
	ModCopy
	ModExchange
	ModProtection
	ModRecover
)

func (k ModifierKind) String() string {
	switch k {
	case ModBasic:
		return "Basic"
	case ModCancel:
		return "Cancel"
	case ModCopy:
		return "Copy"
	case ModExchange:
		return "Exchange"
	case ModProtection:
		return "Protection"
	case ModRecover:
		return "Recover"
	default:
		return "Unknown"
	}
}

// Stat is the target of a basic modifier.
type Stat int

const (
	StatPower Stat = iota
	StatDamage
	StatAttack
	StatLife
	StatPillz
)

var statNames = [...]string{"POWER", "DAMAGE", "ATTACK", "LIFE", "PILLZ"}

func (s Stat) String() string { return statNames[s] }

func parseStat(s string) (Stat, error) {
	for i, name := range statNames {
		if name == s {
			return Stat(i), nil
		}
	}
	return 0, fmt.Errorf("%w: stat %q", ErrMalformedModifier, s)
}

// Per scales a basic modifier's change.
type Per int

const (
	PerNone Per = iota
	PerPower
	PerDamage
	PerLife
	PerPillz
	PerSupport
	PerBrawl
	PerGrowth
	PerDegrowth
	PerEqualizer
	PerSymmetry
	PerAsymmetry
	PerOppPower
	PerOppDamage
	PerOppLife
	PerOppPillz
)

// Cancel targets, in catalog order.
type CancelTarget int

const (
	CancelPower CancelTarget = iota + 1
	CancelDamage
	CancelAttack
	CancelAbility
	CancelBonus
	CancelPillz
	CancelLife
)

type CopyTarget int

const (
	CopyPower CopyTarget = iota + 1
	CopyDamage
	CopyAbility
	CopyBonus
	CopyInfiltrate
)

type ExchangeTarget int

const (
	ExchangePower ExchangeTarget = iota + 1
	ExchangeDamage
	ExchangeImposePower
	ExchangeImposeDamage
)

type ProtectTarget int

const (
	ProtectPower ProtectTarget = iota + 1
	ProtectDamage
	ProtectAttack
	ProtectAbility
	ProtectBonus
)

// CancelState records what the cancel fixed point last did.
type CancelState int

const (
	CancelPending CancelState = iota // never applied
	CancelApplied
	CancelUndone
)

// --- Modifier ---

// Modifier is a single effect primitive. Kind selects which of the payload
// fields is meaningful; the rest stay zero. Modifiers are plain values so
// that copying an Ability copies its cancel state too.
type Modifier struct {
	Kind ModifierKind
	Time EventTime

	// Basic
	WinOnly bool
	Change  int
	Per     Per
	Stat    Stat
	Opp     bool
	Min     int
	Max     int
	Always  bool

	// Cancel
	Cancel CancelTarget
	State  CancelState

	Copy     CopyTarget
	Exchange ExchangeTarget

	// Protection
	Protect ProtectTarget
	Both    bool

	// Recover
	N     int
	OutOf int
}

type rawModifier struct {
	EventTime *int    `yaml:"eventTime"`
	Win       *bool   `yaml:"win"`
	Change    *int    `yaml:"change"`
	Per       *int    `yaml:"per"`
	Stat      *string `yaml:"type"`
	Opp       bool    `yaml:"opp"`
	Min       int     `yaml:"min"`
	Max       int     `yaml:"max"`
	Always    bool    `yaml:"always"`
	Cancel    *int    `yaml:"cancel"`
	Applied   *bool   `yaml:"applied"`
	Copy      *int    `yaml:"copy"`
	Ex        *int    `yaml:"ex"`
	Prot      *int    `yaml:"prot"`
	Both      bool    `yaml:"both"`
	N         *int    `yaml:"n"`
	OutOf     *int    `yaml:"outOf"`
}

func inRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d out of range", ErrMalformedModifier, field, v)
	}
	return nil
}

// UnmarshalYAML decodes the untagged catalog form. The variant is chosen
// by which keys are present.
func (m *Modifier) UnmarshalYAML(value *yaml.Node) error {
	var raw rawModifier
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.EventTime == nil {
		return fmt.Errorf("%w: missing eventTime", ErrMalformedModifier)
	}
	if err := inRange("eventTime", *raw.EventTime, 0, int(TimeEnd)); err != nil {
		return err
	}
	out := Modifier{Time: EventTime(*raw.EventTime)}

	switch {
	case raw.Change != nil && raw.Stat != nil:
		stat, err := parseStat(*raw.Stat)
		if err != nil {
			return err
		}
		out.Kind = ModBasic
		out.WinOnly = raw.Win != nil && *raw.Win
		out.Change = *raw.Change
		out.Stat = stat
		out.Opp = raw.Opp
		out.Min = raw.Min
		out.Max = raw.Max
		out.Always = raw.Always
		if raw.Per != nil {
			if err := inRange("per", *raw.Per, int(PerPower), int(PerOppPillz)); err != nil {
				return err
			}
			out.Per = Per(*raw.Per)
		}
	case raw.Cancel != nil:
		if err := inRange("cancel", *raw.Cancel, int(CancelPower), int(CancelLife)); err != nil {
			return err
		}
		out.Kind = ModCancel
		out.Cancel = CancelTarget(*raw.Cancel)
		if raw.Applied != nil {
			out.State = CancelUndone
			if *raw.Applied {
				out.State = CancelApplied
			}
		}
	case raw.Copy != nil:
		if err := inRange("copy", *raw.Copy, int(CopyPower), int(CopyInfiltrate)); err != nil {
			return err
		}
		out.Kind = ModCopy
		out.Copy = CopyTarget(*raw.Copy)
	case raw.Ex != nil:
		if err := inRange("ex", *raw.Ex, int(ExchangePower), int(ExchangeImposeDamage)); err != nil {
			return err
		}
		out.Kind = ModExchange
		out.Exchange = ExchangeTarget(*raw.Ex)
	case raw.Prot != nil:
		if err := inRange("prot", *raw.Prot, int(ProtectPower), int(ProtectBonus)); err != nil {
			return err
		}
		out.Kind = ModProtection
		out.Protect = ProtectTarget(*raw.Prot)
		out.Both = raw.Both
	case raw.N != nil && raw.OutOf != nil:
		if *raw.OutOf <= 0 {
			return fmt.Errorf("%w: recover outOf must be positive", ErrMalformedModifier)
		}
		out.Kind = ModRecover
		out.N = *raw.N
		out.OutOf = *raw.OutOf
	default:
		return fmt.Errorf("%w: unrecognized shape", ErrMalformedModifier)
	}
	*m = out
	return nil
}

func (m Modifier) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s@%s", m.Kind, m.Time)
	switch m.Kind {
	case ModBasic:
		target := "own"
		if m.Opp {
			target = "opp"
		}
		fmt.Fprintf(&sb, " %s %s %+d", target, m.Stat, m.Change)
		if m.Per != PerNone {
			fmt.Fprintf(&sb, " per %d", m.Per)
		}
		fmt.Fprintf(&sb, " [%d,%d]", m.Min, m.Max)
	case ModCancel:
		fmt.Fprintf(&sb, " %d", m.Cancel)
	case ModCopy:
		fmt.Fprintf(&sb, " %d", m.Copy)
	case ModExchange:
		fmt.Fprintf(&sb, " %d", m.Exchange)
	case ModProtection:
		fmt.Fprintf(&sb, " %d both=%t", m.Protect, m.Both)
	case ModRecover:
		fmt.Fprintf(&sb, " %d/%d", m.N, m.OutOf)
	}
	return sb.String()
}

// --- Application ---

// apply runs the modifier for the acting side. Only Copy can return a
// freshly spawned ability.
func (m *Modifier) apply(v *BattleView) (Ability, bool) {
	switch m.Kind {
	case ModBasic:
		m.applyBasic(v)
	case ModCancel:
		m.applyCancel(v)
	case ModCopy:
		return m.applyCopy(v)
	case ModExchange:
		m.applyExchange(v)
	case ModProtection:
		m.applyProtection(v)
	case ModRecover:
		if !v.Card.Pillz.IsBlocked() {
			v.Player.Pillz += v.PillzUsed * m.N / m.OutOf
		}
	}
	return Ability{}, false
}

func (m *Modifier) canApplyBasic(v *BattleView) bool {
	if m.Always {
		return true
	}
	if m.WinOnly && !v.Card.Won {
		return false
	}
	card := v.Card
	if m.Opp {
		opp := v.OppCard
		switch m.Stat {
		case StatPower:
			return !opp.Power.Attr.IsProtected() && !card.Power.Attr.IsBlocked()
		case StatDamage:
			return !opp.Damage.Attr.IsProtected() && !card.Damage.Attr.IsBlocked()
		case StatAttack:
			return !opp.Attack.Attr.IsProtected() && !card.Attack.Attr.IsBlocked()
		case StatLife:
			return !opp.Life.IsProtected() && !card.Life.IsBlocked() && v.Opp.Life > 0
		case StatPillz:
			return !opp.Pillz.IsProtected() && !card.Pillz.IsBlocked()
		}
		return false
	}
	switch m.Stat {
	case StatPower:
		return !card.Power.Attr.IsBlocked()
	case StatDamage:
		return !card.Damage.Attr.IsBlocked()
	case StatAttack:
		return !card.Attack.Attr.IsBlocked()
	case StatLife:
		return !card.Life.IsBlocked() && v.Player.Life > 0
	case StatPillz:
		return !card.Pillz.IsBlocked()
	}
	return false
}

func (m *Modifier) multiplier(v *BattleView) int {
	player, card := v.Player, v.Card
	if m.Opp {
		player, card = v.Opp, v.OppCard
	}
	switch m.Per {
	case PerNone:
		return 1
	case PerPower:
		return card.Power.Value
	case PerDamage:
		return card.Damage.Value
	case PerLife:
		return player.Life
	case PerPillz:
		return player.Pillz
	case PerSupport:
		return v.Hand.ClanCount[v.Card.Index]
	case PerBrawl:
		return v.OppHand.ClanCount[v.OppCard.Index]
	case PerGrowth:
		return 1 + v.Round
	case PerDegrowth:
		return 4 - v.Round
	case PerEqualizer:
		return v.OppCard.Level
	case PerSymmetry:
		if v.Card.Index == v.OppCard.Index {
			return 1
		}
		return 0
	case PerAsymmetry:
		if v.Card.Index != v.OppCard.Index {
			return 1
		}
		return 0
	default:
		return 1
	}
}

// modify leaves values outside [Min, Max) untouched and clamps the result
// to [Min, Max]. Values never go below zero.
func (m *Modifier) modify(base int, v *BattleView) int {
	if base < m.Min || base >= m.Max {
		return base
	}
	value := base + m.Change*m.multiplier(v)
	value = min(max(value, m.Min), m.Max)
	return max(value, 0)
}

func (m *Modifier) applyBasic(v *BattleView) {
	if !m.canApplyBasic(v) {
		v.logSkipped(m)
		return
	}
	card, player := v.Card, v.Player
	if m.Opp {
		card, player = v.OppCard, v.Opp
	}
	switch m.Stat {
	case StatPower:
		card.Power.Value = m.modify(card.Power.Value, v)
	case StatDamage:
		card.Damage.Value = m.modify(card.Damage.Value, v)
	case StatAttack:
		card.Attack.Value = m.modify(card.Attack.Value, v)
	case StatLife:
		old := player.Life
		player.Life = m.modify(player.Life, v)
		v.logLife(player, old)
	case StatPillz:
		player.Pillz = m.modify(player.Pillz, v)
	}
}

func (m *Modifier) cancelAttr(c *Card) *CardAttr {
	switch m.Cancel {
	case CancelPower:
		return &c.Power.Attr
	case CancelDamage:
		return &c.Damage.Attr
	case CancelAttack:
		return &c.Attack.Attr
	case CancelAbility:
		return &c.Ability
	case CancelBonus:
		return &c.Bonus
	case CancelPillz:
		return &c.Pillz
	default:
		return &c.Life
	}
}

func (m *Modifier) applyCancel(v *BattleView) {
	m.State = CancelApplied
	m.cancelAttr(v.OppCard).Cancel()
}

func (m *Modifier) undoCancel(v *BattleView) {
	m.State = CancelUndone
	m.cancelAttr(v.OppCard).RemoveCancel()
}

func (m *Modifier) applyCopy(v *BattleView) (Ability, bool) {
	card, opp := v.Card, v.OppCard
	switch m.Copy {
	case CopyPower:
		card.Power.Value = opp.Power.Base
	case CopyDamage:
		card.Damage.Value = opp.Damage.Base
	case CopyAbility:
		card.Bonus = opp.Ability
		card.BonusID = opp.AbilityID
		bonus := v.ability(card.BonusID)
		t, ok := abilityAsBonus[bonus.Type]
		if !ok {
			return Ability{}, false
		}
		bonus.Type = t
		return bonus, true
	case CopyBonus:
		card.Ability = opp.Bonus
		card.AbilityID = opp.BonusID
		ability := v.ability(card.AbilityID)
		t, ok := bonusAsAbility[ability.Type]
		if !ok {
			return Ability{}, false
		}
		ability.Type = t
		return ability, true
	case CopyInfiltrate:
		clan := v.Hand.WildcardClan
		if clan == ClanNone {
			return Ability{}, false
		}
		for i := range v.Hand.Cards {
			other := &v.Hand.Cards[i]
			if i == card.Index || other.Clan() != clan {
				continue
			}
			card.Bonus = other.Bonus
			card.BonusID = other.BonusID
			return v.ability(card.BonusID), true
		}
	}
	return Ability{}, false
}

func (m *Modifier) applyExchange(v *BattleView) {
	card, opp := v.Card, v.OppCard
	switch m.Exchange {
	case ExchangePower:
		if !card.Power.Attr.IsBlocked() {
			card.Power.Value = opp.Power.Base
			opp.Power.Value = card.Power.Base
		}
	case ExchangeDamage:
		if !card.Damage.Attr.IsBlocked() {
			card.Damage.Value = opp.Damage.Base
			opp.Damage.Value = card.Damage.Base
		}
	case ExchangeImposePower:
		if !card.Power.Attr.IsBlocked() {
			opp.Power.Value = card.Power.Base
		}
	case ExchangeImposeDamage:
		if !card.Damage.Attr.IsBlocked() {
			opp.Damage.Value = card.Damage.Base
		}
	}
}

func protectAttr(c *Card, t ProtectTarget) *CardAttr {
	switch t {
	case ProtectPower:
		return &c.Power.Attr
	case ProtectDamage:
		return &c.Damage.Attr
	case ProtectAttack:
		return &c.Attack.Attr
	case ProtectAbility:
		return &c.Ability
	default:
		return &c.Bonus
	}
}

func (m *Modifier) applyProtection(v *BattleView) {
	protectAttr(v.Card, m.Protect).Protect()
	if m.Both {
		protectAttr(v.OppCard, m.Protect).Protect()
	}
}
