package game

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	maxModifiers  = 2
	maxConditions = 3
)

// Ability is a bundle of modifiers gated by conditions. Storage is inline
// so an Ability is copied by plain assignment, including the per-instance
// flags below.
type Ability struct {
	ID   int
	Type AbilityType

	modifiers  [maxModifiers]Modifier
	nmod       int
	conditions [maxConditions]Condition
	ncond      int

	Delayed   bool // skip the next evaluation
	Triggered bool // global loss gate already passed
	Remove    bool // global ability scheduled for removal
}

// NewAbility builds an ability, rejecting more modifiers or conditions
// than an ability can carry.
func NewAbility(t AbilityType, mods []Modifier, conds []Condition) (Ability, error) {
	if len(mods) > maxModifiers {
		return Ability{}, fmt.Errorf("%w: %d modifiers", ErrMalformedModifier, len(mods))
	}
	if len(conds) > maxConditions {
		return Ability{}, fmt.Errorf("%w: %d conditions", ErrMalformedModifier, len(conds))
	}
	a := Ability{Type: t, nmod: len(mods), ncond: len(conds)}
	copy(a.modifiers[:], mods)
	copy(a.conditions[:], conds)
	return a, nil
}

// MustAbility is NewAbility for literals known to be valid.
func MustAbility(t AbilityType, mods []Modifier, conds ...Condition) Ability {
	a, err := NewAbility(t, mods, conds)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Ability) Modifiers() []Modifier   { return a.modifiers[:a.nmod] }
func (a *Ability) Conditions() []Condition { return a.conditions[:a.ncond] }

// Empty reports whether the ability carries no modifiers.
func (a *Ability) Empty() bool { return a.nmod == 0 }

// EventTime is the phase of the first modifier.
func (a *Ability) EventTime() EventTime { return a.modifiers[0].Time }

type rawAbility struct {
	AbilityType int          `yaml:"ability_type"`
	Modifiers   []*Modifier  `yaml:"modifiers"`
	Conditions  []*Condition `yaml:"conditions"`
	Delayed     bool         `yaml:"delayed"`
	Won         bool         `yaml:"won"`
	Remove      bool         `yaml:"remove"`
}

func (a *Ability) UnmarshalYAML(value *yaml.Node) error {
	var raw rawAbility
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.AbilityType < int(TypeGlobal) || raw.AbilityType > int(TypeGlobalBonus) {
		return fmt.Errorf("%w: ability_type %d", ErrMalformedModifier, raw.AbilityType)
	}
	var mods []Modifier
	for _, m := range raw.Modifiers {
		if m != nil {
			mods = append(mods, *m)
		}
	}
	var conds []Condition
	for _, c := range raw.Conditions {
		if c != nil {
			conds = append(conds, *c)
		}
	}
	parsed, err := NewAbility(AbilityType(raw.AbilityType), mods, conds)
	if err != nil {
		return err
	}
	parsed.Delayed = raw.Delayed
	parsed.Triggered = raw.Won
	parsed.Remove = raw.Remove
	*a = parsed
	return nil
}

// canApply runs the global loss gate, the one-shot delay, the conditions
// and finally the block check on the owning card attribute.
func (a *Ability) canApply(v *BattleView) bool {
	if a.Type.IsGlobal() && !a.Triggered {
		if v.Player.Won == ResultLose {
			a.Remove = true
			return false
		}
		a.Triggered = true
	}
	if a.Delayed {
		a.Delayed = false
		return false
	}
	for _, c := range a.Conditions() {
		if !c.Met(v) {
			v.logConditionFailed(a, c)
			return false
		}
	}
	switch a.Type {
	case TypeAbility, TypeGlobalAbility:
		if v.Card.Ability.IsBlocked() {
			v.logBlocked(a)
			return false
		}
	case TypeBonus, TypeGlobalBonus:
		if v.Card.Bonus.IsBlocked() {
			v.logBlocked(a)
			return false
		}
	}
	return true
}

// Apply runs every modifier in order when the ability may fire. The
// ability spawned by the last modifier, if any, is returned.
func (a *Ability) Apply(v *BattleView) (Ability, bool) {
	if !a.canApply(v) {
		return Ability{}, false
	}
	var spawned Ability
	var ok bool
	for i := range a.Modifiers() {
		m := &a.modifiers[i]
		v.logApplied(a, m)
		spawned, ok = m.apply(v)
	}
	if ok {
		v.logSpawned(&spawned)
	}
	return spawned, ok
}

func (a Ability) String() string {
	return fmt.Sprintf("%s#%d%v", a.Type, a.ID, a.Modifiers())
}
