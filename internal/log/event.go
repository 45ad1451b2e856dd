package log

// EventType enumerates all observable battle events.
type EventType int

const (
	EventRoundStart EventType = iota
	EventSelect
	EventAbilityQueued
	EventAbilityDropped // ability without modifiers, nothing to queue
	EventConditionFailed
	EventAbilityBlocked
	EventAbilityApplied
	EventModifierSkipped
	EventCancelUndone
	EventCancelRedone
	EventCopySpawned
	EventGlobalRegistered
	EventGlobalRemoved
	EventFury
	EventAttack
	EventRoundWin
	EventLifeChange
	EventPillzSpent
	EventMatchOver
)

func (e EventType) String() string {
	switch e {
	case EventRoundStart:
		return "RoundStart"
	case EventSelect:
		return "Select"
	case EventAbilityQueued:
		return "AbilityQueued"
	case EventAbilityDropped:
		return "AbilityDropped"
	case EventConditionFailed:
		return "ConditionFailed"
	case EventAbilityBlocked:
		return "AbilityBlocked"
	case EventAbilityApplied:
		return "AbilityApplied"
	case EventModifierSkipped:
		return "ModifierSkipped"
	case EventCancelUndone:
		return "CancelUndone"
	case EventCancelRedone:
		return "CancelRedone"
	case EventCopySpawned:
		return "CopySpawned"
	case EventGlobalRegistered:
		return "GlobalRegistered"
	case EventGlobalRemoved:
		return "GlobalRemoved"
	case EventFury:
		return "Fury"
	case EventAttack:
		return "Attack"
	case EventRoundWin:
		return "RoundWin"
	case EventLifeChange:
		return "LifeChange"
	case EventPillzSpent:
		return "PillzSpent"
	case EventMatchOver:
		return "MatchOver"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a match.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Round   int       // round being resolved (0-based)
	Phase   string    // event-time phase name (e.g. "PRE4"), empty outside a battle
	Player  int       // acting side (0 = player, 1 = opponent)
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Value   int       // numeric payload (attack, life lost, pillz spent...)
	Details string    // human-readable detail string
}
