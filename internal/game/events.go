package game

import "slices"

// Events holds one side's abilities bucketed by event time. Round-scoped
// abilities are cleared at END; globals persist for the whole match.
// Buckets grow as needed: copies can queue more than the card's own
// ability and bonus in a single round.
type Events struct {
	round  [eventTimeCount][]Ability
	global [eventTimeCount][]Ability
	queued int
}

// Clone deep-copies both queues so that the copy's cancel state and
// ability flags evolve independently.
func (e *Events) Clone() Events {
	var out Events
	out.queued = e.queued
	for t := range e.round {
		if len(e.round[t]) > 0 {
			out.round[t] = slices.Clone(e.round[t])
		}
		if len(e.global[t]) > 0 {
			out.global[t] = slices.Clone(e.global[t])
		}
	}
	return out
}

// Add queues a by the time of its first modifier. Abilities without
// modifiers and bare Globals are dropped; false is returned for them.
func (e *Events) Add(a Ability) bool {
	if a.Empty() {
		return false
	}
	t := a.EventTime()
	switch a.Type {
	case TypeAbility, TypeBonus:
		e.queued++
		e.round[t] = append(e.round[t], a)
	case TypeGlobalAbility, TypeGlobalBonus:
		e.global[t] = append(e.global[t], a)
	default:
		return false
	}
	return true
}

// AddGlobal queues a in the global bucket regardless of its type. Used for
// Leader abilities registered at match start.
func (e *Events) AddGlobal(a Ability) bool {
	if a.Empty() {
		return false
	}
	t := a.EventTime()
	e.global[t] = append(e.global[t], a)
	return true
}

// Execute fires round abilities then globals for time t, prunes globals
// marked for removal and queues whatever the round abilities spawned.
func (e *Events) Execute(t EventTime, v *BattleView) {
	v.Time = t
	var spawned []Ability
	for i := range e.round[t] {
		if a, ok := e.round[t][i].Apply(v); ok {
			spawned = append(spawned, a)
		}
	}
	for i := range e.global[t] {
		e.global[t][i].Apply(v)
	}
	for bucket := range e.global {
		before := len(e.global[bucket])
		e.global[bucket] = slices.DeleteFunc(e.global[bucket], func(a Ability) bool { return a.Remove })
		for range before - len(e.global[bucket]) {
			v.logGlobalRemoved()
		}
	}
	for i := range spawned {
		if !e.Add(spawned[i]) {
			v.logDropped(&spawned[i])
		}
	}
}

// CheckCancels reconciles the PRE4 cancels with the current block state of
// the owning card: a cancel whose source got blocked is undone, and one
// whose source got unblocked is re-applied. It reports any change.
func (e *Events) CheckCancels(v *BattleView) bool {
	changed := false
	for i := range e.round[TimePre4] {
		a := &e.round[TimePre4][i]
		if a.Empty() {
			continue
		}
		m := &a.modifiers[0]
		if m.Kind != ModCancel || m.State == CancelPending {
			continue
		}
		var attr CardAttr
		switch a.Type {
		case TypeAbility:
			attr = v.Card.Ability
		case TypeBonus:
			attr = v.Card.Bonus
		default:
			continue
		}
		applied := m.State == CancelApplied
		if attr.IsBlocked() != applied {
			continue
		}
		if applied {
			m.undoCancel(v)
		} else {
			m.applyCancel(v)
		}
		v.logCancelToggle(applied)
		changed = true
	}
	return changed
}

// ExecuteEnd fires END and clears every round-scoped bucket.
func (e *Events) ExecuteEnd(v *BattleView) {
	e.Execute(TimeEnd, v)
	for t := range e.round {
		e.round[t] = e.round[t][:0]
	}
	e.queued = 0
}

// Pending returns the number of round-scoped abilities queued.
func (e *Events) Pending() int { return e.queued }

// Globals returns the number of global abilities registered.
func (e *Events) Globals() int {
	n := 0
	for t := range e.global {
		n += len(e.global[t])
	}
	return n
}
