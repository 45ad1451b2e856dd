package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EventLogger is the interface for logging match events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- NopLogger: discards everything ---

// NopLogger is the null observer. Matches built with it skip event
// construction entirely.
type NopLogger struct{}

func (NopLogger) Log(GameEvent)       {}
func (NopLogger) Events() []GameEvent { return nil }

// IsNop reports whether l produces no output.
func IsNop(l EventLogger) bool {
	if l == nil {
		return true
	}
	switch l.(type) {
	case NopLogger, *NopLogger:
		return true
	}
	return false
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	mu     sync.Mutex
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]GameEvent(nil), l.events...)
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.Events() {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	events := l.Events()
	if len(events) == 0 {
		return GameEvent{}
	}
	return events[len(events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- ZeroLogger: forwards events to a zerolog.Logger at debug level ---

type ZeroLogger struct {
	logger zerolog.Logger
	seq    int
	mu     sync.Mutex
}

func NewZeroLogger(logger zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{logger: logger}
}

func (l *ZeroLogger) Log(event GameEvent) {
	l.mu.Lock()
	l.seq++
	event.Seq = l.seq
	l.mu.Unlock()

	ev := l.logger.Debug().
		Int("seq", event.Seq).
		Int("round", event.Round).
		Str("side", SideName(event.Player)).
		Str("event", event.Type.String())
	if event.Phase != "" {
		ev = ev.Str("phase", event.Phase)
	}
	if event.Card != "" {
		ev = ev.Str("card", event.Card)
	}
	ev.Msg(event.Details)
}

// Events is empty: a ZeroLogger streams and keeps nothing.
func (l *ZeroLogger) Events() []GameEvent { return nil }

// --- Formatting ---

// SideName returns "Player" or "Opponent" for display.
func SideName(p int) string {
	if p == 0 {
		return "Player"
	}
	return "Opponent"
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	for len(phase) < 6 {
		phase += " "
	}
	return fmt.Sprintf("R%-2d %s| %s", e.Round, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewRoundStartEvent(round int, first int) GameEvent {
	return GameEvent{
		Round:   round,
		Player:  first,
		Type:    EventRoundStart,
		Details: fmt.Sprintf("=== Round %d (%s first) ===", round+1, SideName(first)),
	}
}

func NewSelectEvent(round int, player int, cardName string, pillz int, fury bool) GameEvent {
	d := fmt.Sprintf("%s selects %s with %d pillz", SideName(player), cardName, pillz)
	if fury {
		d += " + fury"
	}
	return GameEvent{
		Round:   round,
		Player:  player,
		Type:    EventSelect,
		Card:    cardName,
		Value:   pillz,
		Details: d,
	}
}

func NewAbilityQueuedEvent(round int, phase string, player int, cardName string, kind string, global bool) GameEvent {
	where := "round queue"
	if global {
		where = "global queue"
	}
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventAbilityQueued,
		Card:    cardName,
		Details: fmt.Sprintf("%s %s of %s queued in %s", SideName(player), kind, cardName, where),
	}
}

func NewAbilityDroppedEvent(round int, player int, cardName string, kind string) GameEvent {
	return GameEvent{
		Round:   round,
		Player:  player,
		Type:    EventAbilityDropped,
		Card:    cardName,
		Details: fmt.Sprintf("%s %s of %s has no modifiers", SideName(player), kind, cardName),
	}
}

func NewConditionFailedEvent(round int, phase string, player int, cardName string, condition string) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventConditionFailed,
		Card:    cardName,
		Details: fmt.Sprintf("%s: condition %s not met", cardName, condition),
	}
}

func NewAbilityBlockedEvent(round int, phase string, player int, cardName string, kind string) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventAbilityBlocked,
		Card:    cardName,
		Details: fmt.Sprintf("%s: %s is cancelled", cardName, kind),
	}
}

func NewAbilityAppliedEvent(round int, phase string, player int, cardName string, kind string, modifier string) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventAbilityApplied,
		Card:    cardName,
		Details: fmt.Sprintf("%s %s: %s", cardName, kind, modifier),
	}
}

func NewModifierSkippedEvent(round int, phase string, player int, cardName string, modifier string) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventModifierSkipped,
		Card:    cardName,
		Details: fmt.Sprintf("%s: %s has no effect", cardName, modifier),
	}
}

func NewCancelToggleEvent(round int, player int, cardName string, undone bool) GameEvent {
	t, verb := EventCancelRedone, "re-applied"
	if undone {
		t, verb = EventCancelUndone, "undone"
	}
	return GameEvent{
		Round:   round,
		Phase:   "PRE4",
		Player:  player,
		Type:    t,
		Card:    cardName,
		Details: fmt.Sprintf("%s: cancel %s", cardName, verb),
	}
}

func NewCopySpawnedEvent(round int, phase string, player int, cardName string, kind string) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventCopySpawned,
		Card:    cardName,
		Details: fmt.Sprintf("%s gains a copied %s", cardName, kind),
	}
}

func NewGlobalRegisteredEvent(player int, cardName string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventGlobalRegistered,
		Card:    cardName,
		Details: fmt.Sprintf("%s leader %s registers a global ability", SideName(player), cardName),
	}
}

func NewGlobalRemovedEvent(round int, phase string, player int) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventGlobalRemoved,
		Details: fmt.Sprintf("%s global ability removed", SideName(player)),
	}
}

func NewFuryEvent(round int, player int, cardName string, damage int) GameEvent {
	return GameEvent{
		Round:   round,
		Player:  player,
		Type:    EventFury,
		Card:    cardName,
		Value:   damage,
		Details: fmt.Sprintf("%s fury: damage %d", cardName, damage),
	}
}

func NewAttackEvent(round int, player int, cardName string, attack int) GameEvent {
	return GameEvent{
		Round:   round,
		Player:  player,
		Type:    EventAttack,
		Card:    cardName,
		Value:   attack,
		Details: fmt.Sprintf("%s attack %d", cardName, attack),
	}
}

func NewRoundWinEvent(round int, winner int, cardName string, attack, oppAttack int) GameEvent {
	return GameEvent{
		Round:   round,
		Player:  winner,
		Type:    EventRoundWin,
		Card:    cardName,
		Value:   attack,
		Details: fmt.Sprintf("%s wins the round with %s (%d vs %d)", SideName(winner), cardName, attack, oppAttack),
	}
}

func NewLifeChangeEvent(round int, phase string, player int, oldLife, newLife int) GameEvent {
	return GameEvent{
		Round:   round,
		Phase:   phase,
		Player:  player,
		Type:    EventLifeChange,
		Value:   newLife - oldLife,
		Details: fmt.Sprintf("%s life: %d → %d", SideName(player), oldLife, newLife),
	}
}

func NewPillzSpentEvent(round int, player int, spent, left int) GameEvent {
	return GameEvent{
		Round:   round,
		Player:  player,
		Type:    EventPillzSpent,
		Value:   spent,
		Details: fmt.Sprintf("%s spends %d pillz (%d left)", SideName(player), spent, left),
	}
}

func NewMatchOverEvent(round int, result string) GameEvent {
	return GameEvent{
		Round:   round,
		Type:    EventMatchOver,
		Details: fmt.Sprintf("Match over: %s", result),
	}
}
