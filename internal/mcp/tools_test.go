package mcp

import (
	"context"
	"encoding/json"
	stdnet "net"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/peterkuimelis/pillz/internal/game"
	pnet "github.com/peterkuimelis/pillz/internal/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *game.Catalog {
	t.Helper()
	card := func(id int, name string, clan game.Clan, power int) game.BaseCard {
		return game.BaseCard{ID: id, Name: name, Clan: clan, Level: 2, LevelMax: 2, Power: power, Damage: 3}
	}
	cat, err := game.NewCatalog([]game.BaseCard{
		card(1, "Punk A", game.ClanJunkz, 2),
		card(2, "Punk B", game.ClanJunkz, 3),
		card(3, "Punk C", game.ClanJunkz, 4),
		card(4, "Punk D", game.ClanJunkz, 5),
		card(11, "Roots A", game.ClanRoots, 3),
		card(12, "Roots B", game.ClanRoots, 3),
		card(13, "Roots C", game.ClanRoots, 4),
		card(14, "Roots D", game.ClanRoots, 4),
	}, nil)
	require.NoError(t, err)
	return cat
}

const testCards = "Punk A, Punk B, Punk C, Punk D, Roots A, Roots B, Roots C, Roots D"

func newTestSession(t *testing.T, port string) *GameSession {
	t.Helper()
	cat := testCatalog(t)
	g := NewGameSession(cat, pnet.NewSession(cat), port)
	t.Cleanup(g.Close)
	return g
}

// newCallToolRequest builds a tool call request with arguments.
func newCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func decodeResponse(t *testing.T, res *mcp.CallToolResult) ToolResponse {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var resp ToolResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &resp))
	return resp
}

func TestToolsRequireMatch(t *testing.T) {
	g := newTestSession(t, "")
	ctx := context.Background()

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_state":        g.handleGetState,
		"cancel_selection": g.handleCancelSelection,
		"recommend":        g.handleRecommend,
		"analyze":          g.handleAnalyze,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			res, err := h(ctx, newCallToolRequest(name, nil))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), "start_match")
		})
	}

	res, err := g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStartMatchArguments(t *testing.T) {
	g := newTestSession(t, "")
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"nothing", map[string]any{}},
		{"short hand", map[string]any{"cards": "Punk A, Punk B"}},
		{"unknown card", map[string]any{"cards": strings.Replace(testCards, "Punk D", "Nobody", 1)}},
		{"bad seat", map[string]any{"cards": testCards, "seat": "referee"}},
		{"one clan", map[string]any{"clans": "Junkz"}},
		{"unknown clan", map[string]any{"clans": "Junkz, Pirates"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.handleStartMatch(ctx, newCallToolRequest("start_match", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}

	res, err := g.handleStartMatch(ctx, newCallToolRequest("start_match", map[string]any{
		"clans": "Junkz, Roots", "seed": 7, "life": 8, "pillz": 3,
	}))
	require.NoError(t, err)
	resp := decodeResponse(t, res)
	assert.Equal(t, "both", resp.Seat)
	assert.Equal(t, 8, resp.State.Player.Life)
	assert.Equal(t, 3, resp.State.Opponent.Pillz)
	for _, c := range resp.State.Player.Hand {
		assert.Equal(t, "Junkz", c.Clan)
	}
	assert.Empty(t, resp.Port)
}

func TestToolsPlayRound(t *testing.T) {
	g := newTestSession(t, "")
	ctx := context.Background()

	res, err := g.handleStartMatch(ctx, newCallToolRequest("start_match", map[string]any{"cards": testCards, "pillz": 1}))
	require.NoError(t, err)
	resp := decodeResponse(t, res)
	assert.Equal(t, "Player", resp.State.Turn)

	res, err = g.handleRecommend(ctx, newCallToolRequest("recommend", nil))
	require.NoError(t, err)
	resp = decodeResponse(t, res)
	require.NotNil(t, resp.Advice)
	assert.Equal(t, "middle", resp.Advice.Mode)

	res, err = g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": 7}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": 0, "pillz": 2}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "0 2 false")

	res, err = g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": 2}))
	require.NoError(t, err)
	resp = decodeResponse(t, res)
	assert.Equal(t, "Opponent", resp.State.Turn)

	res, err = g.handleCancelSelection(ctx, newCallToolRequest("cancel_selection", nil))
	require.NoError(t, err)
	resp = decodeResponse(t, res)
	assert.Equal(t, "Player", resp.State.Turn)

	for _, idx := range []int{3, 1} {
		res, err = g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": idx}))
		require.NoError(t, err)
		resp = decodeResponse(t, res)
	}
	// Punk D attacks 5 against Roots B's 3.
	assert.Equal(t, 9, resp.State.Opponent.Life)
	assert.NotEmpty(t, resp.Events)
	assert.False(t, resp.GameOver)

	res, err = g.handleAnalyze(ctx, newCallToolRequest("analyze", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError, "three rounds left")

	res, err = g.handleGetState(ctx, newCallToolRequest("get_state", nil))
	require.NoError(t, err)
	resp = decodeResponse(t, res)
	assert.Equal(t, 1, resp.State.Round)
	assert.NotNil(t, resp.Events)
}

func TestHumanJoins(t *testing.T) {
	g := newTestSession(t, "0")
	ctx := context.Background()

	res, err := g.handleStartMatch(ctx, newCallToolRequest("start_match", map[string]any{
		"cards": testCards, "pillz": 1, "seat": "player",
	}))
	require.NoError(t, err)
	resp := decodeResponse(t, res)
	require.NotEmpty(t, resp.Port)

	conn, err := stdnet.DialTimeout("tcp", "localhost:"+resp.Port, 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))
	enc, dec := json.NewEncoder(conn), json.NewDecoder(conn)

	require.NoError(t, enc.Encode(pnet.ClientMessage{Type: pnet.MsgJoin}))
	var msg pnet.ServerMessage
	require.NoError(t, dec.Decode(&msg))
	require.Equal(t, pnet.MsgState, msg.Type)

	res, err = g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": 3, "pillz": 1}))
	require.NoError(t, err)
	decodeResponse(t, res)

	msg = pnet.ServerMessage{}
	require.NoError(t, dec.Decode(&msg))
	require.Equal(t, pnet.MsgState, msg.Type)
	assert.Equal(t, &pnet.SelectionView{Index: 3, Hidden: true}, msg.State.Player.Selection)

	// The assistant cannot move for the human.
	res, err = g.handleSelectCard(ctx, newCallToolRequest("select_card", map[string]any{"index": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	require.NoError(t, enc.Encode(pnet.ClientMessage{Type: pnet.MsgSelect, Selection: &pnet.SelectionView{Index: 0}}))
	msg = pnet.ServerMessage{}
	require.NoError(t, dec.Decode(&msg))
	require.Equal(t, pnet.MsgState, msg.Type)
	assert.Equal(t, 1, msg.State.Round)

	res, err = g.handleGetState(ctx, newCallToolRequest("get_state", nil))
	require.NoError(t, err)
	resp = decodeResponse(t, res)
	assert.Equal(t, 1, resp.State.Round)
	assert.Equal(t, 9, resp.State.Opponent.Life)
}
