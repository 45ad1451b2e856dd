package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNop(t *testing.T) {
	assert.True(t, IsNop(nil))
	assert.True(t, IsNop(NopLogger{}))
	assert.True(t, IsNop(&NopLogger{}))
	assert.False(t, IsNop(NewMemoryLogger()))
	assert.False(t, IsNop(NewZeroLogger(zerolog.Nop())))
}

func TestMemoryLogger(t *testing.T) {
	l := NewMemoryLogger()
	assert.Equal(t, GameEvent{}, l.LastEvent())

	l.Log(NewRoundStartEvent(0, 0))
	l.Log(NewAttackEvent(0, 1, "Roots A", 6))
	l.Log(NewRoundWinEvent(0, 1, "Roots A", 6, 4))

	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{events[0].Seq, events[1].Seq, events[2].Seq})
	assert.Equal(t, EventRoundWin, l.LastEvent().Type)
	assert.Len(t, l.EventsOfType(EventAttack), 1)

	events[0].Details = "changed"
	assert.NotEqual(t, "changed", l.Events()[0].Details, "Events returns a copy")
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	l.Log(NewLifeChangeEvent(2, "POST1", 0, 12, 9))

	assert.Equal(t, "R2  POST1 | Player life: 12 → 9\n", buf.String())
	assert.Len(t, l.Events(), 1)
	assert.Equal(t, buf.String(), FormatAll(l.Events()))
}

func TestZeroLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZeroLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	l.Log(NewPillzSpentEvent(1, 1, 4, 8))
	l.Log(NewMatchOverEvent(3, "Draw"))
	assert.Nil(t, l.Events())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "debug", first["level"])
	assert.Equal(t, "Opponent", first["side"])
	assert.Equal(t, "PillzSpent", first["event"])
	assert.Equal(t, float64(1), first["seq"])
	assert.Equal(t, "Opponent spends 4 pillz (8 left)", first["message"])
	assert.NotContains(t, first, "card")

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, float64(2), second["seq"])
	assert.Equal(t, "MatchOver", second["event"])
}
