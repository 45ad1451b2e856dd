package net

import (
	"bytes"
	"strings"
	"testing"

	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMessage() ClientMessage {
	return ClientMessage{Type: MsgSetup, Cards: testCards, Pillz: 1}
}

func TestServerProtocol(t *testing.T) {
	srv := NewServer(NewSession(testCatalog(t)), "0")
	enc, msgs := pipePeer(t, srv, SeatBoth)

	require.NoError(t, enc.Encode(ClientMessage{Type: MsgState}))
	msg := receive(t, msgs)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, ErrNoMatch.Error())

	require.NoError(t, enc.Encode(setupMessage()))
	msg = receive(t, msgs)
	require.Equal(t, MsgState, msg.Type)
	assert.NotEmpty(t, msg.State.MatchID)
	assert.Equal(t, 1, msg.State.Player.Pillz)
	assert.Len(t, msg.State.Opponent.Hand, game.HandSize)

	require.NoError(t, enc.Encode(ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 0, Pillz: 5}}))
	msg = receive(t, msgs)
	assert.Equal(t, MsgError, msg.Type)

	require.NoError(t, enc.Encode(ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 0}}))
	msg = receive(t, msgs)
	require.Equal(t, MsgState, msg.Type)
	assert.Equal(t, "Opponent", msg.State.Turn)

	require.NoError(t, enc.Encode(ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 0}}))
	msg = receive(t, msgs)
	require.Equal(t, MsgState, msg.Type)
	assert.Equal(t, 1, msg.State.Round)
	assert.NotEmpty(t, msg.Events)

	require.NoError(t, enc.Encode(ClientMessage{Type: MsgRecommend}))
	msg = receive(t, msgs)
	require.Equal(t, MsgAdvice, msg.Type)
	assert.Equal(t, "Opponent", msg.Advice.Side)

	require.NoError(t, enc.Encode(ClientMessage{Type: "dance"}))
	msg = receive(t, msgs)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, "dance")
}

func TestServerSeats(t *testing.T) {
	srv := NewServer(NewSession(testCatalog(t)), "0")
	host, hostMsgs := pipePeer(t, srv, SeatPlayer)
	guest, guestMsgs := pipePeer(t, srv, SeatOpponent)

	require.NoError(t, guest.Encode(setupMessage()))
	assert.Equal(t, MsgError, receive(t, guestMsgs).Type)

	require.NoError(t, host.Encode(setupMessage()))
	assert.Equal(t, MsgState, receive(t, hostMsgs).Type)
	assert.Equal(t, MsgState, receive(t, guestMsgs).Type)

	require.NoError(t, guest.Encode(ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 0}}))
	msg := receive(t, guestMsgs)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, ErrNotYourTurn.Error())

	require.NoError(t, host.Encode(ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 2, Pillz: 1}}))
	assert.Equal(t, &SelectionView{Index: 2, Pillz: 1}, receive(t, hostMsgs).State.Player.Selection)
	assert.Equal(t, &SelectionView{Index: 2, Hidden: true}, receive(t, guestMsgs).State.Player.Selection)

	// Punk C with one pill attacks 8 against Roots A's 3.
	require.NoError(t, guest.Encode(ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 0}}))
	assert.Equal(t, 9, receive(t, hostMsgs).State.Opponent.Life)
	assert.Equal(t, 9, receive(t, guestMsgs).State.Opponent.Life)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want ClientMessage
		quit bool
	}{
		{"", ClientMessage{}, false},
		{"quit", ClientMessage{}, true},
		{"cancel", ClientMessage{Type: MsgCancel}, false},
		{"r", ClientMessage{Type: MsgRecommend}, false},
		{"analyze", ClientMessage{Type: MsgAnalyze}, false},
		{"2", ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 2}}, false},
		{"1 4 true", ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 1, Pillz: 4, Fury: true}}, false},
		{"x 3 1", ClientMessage{Type: MsgSelect, Selection: &SelectionView{Index: 3, Pillz: 1}, Reselect: true}, false},
		{
			"setup " + strings.Join(testCards, ", ") + ", flip",
			ClientMessage{Type: MsgSetup, Cards: testCards, Flip: true},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, quit, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.quit, quit)
			assert.Equal(t, tt.want, msg)
		})
	}

	for _, bad := range []string{"1 many", "x -1", "setup A, B", "0 1 maybe"} {
		_, _, err := ParseCommand(bad)
		assert.Error(t, err, bad)
	}
}

func TestRenderState(t *testing.T) {
	sess := startSession(t)
	sv, err := sess.State(SeatBoth)
	require.NoError(t, err)

	var buf bytes.Buffer
	RenderState(&buf, sv)
	out := buf.String()
	assert.Contains(t, out, "OPPONENT (Life: 12  Pillz: 1)")
	assert.Contains(t, out, "Punk D")
	assert.Contains(t, out, "Round 1 | Player to select")

	buf.Reset()
	RenderAdvice(&buf, &Advice{
		Mode: "middle", Side: "Player", Selection: SelectionView{Index: 1, Pillz: 2}, Rate: 0.5,
		Candidates: []CandidateView{{Glyph: "2"}, {Glyph: "x"}},
	})
	assert.Contains(t, buf.String(), "2x\nadvice Player: 1 2 false (50.0%)")
}
