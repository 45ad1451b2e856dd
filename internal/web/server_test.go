package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
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

const setupBody = `{"cards":["Punk A","Punk B","Punk C","Punk D","Roots A","Roots B","Roots C","Roots D"],"pillz":1}`

func newTestServer(t *testing.T, options ...Option) *httptest.Server {
	t.Helper()
	cat := testCatalog(t)
	srv := NewServer(pnet.NewSession(cat), cat, options...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) (int, Response, map[string]string) {
	t.Helper()
	res, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)

	var resp Response
	var errBody map[string]string
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	} else {
		require.NoError(t, json.Unmarshal(buf.Bytes(), &errBody))
	}
	return res.StatusCode, resp, errBody
}

func TestInputFlow(t *testing.T) {
	ts := newTestServer(t)

	code, _, errBody := post(t, ts, `{"index":0,"pillz":0,"fury":false}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, errBody["error"], pnet.ErrNoMatch.Error())

	code, resp, _ := post(t, ts, setupBody)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.State)
	assert.Equal(t, 12, resp.State.Player.Life)
	assert.Equal(t, 1, resp.State.Player.Pillz)
	assert.Equal(t, "Player", resp.State.Turn)

	code, _, _ = post(t, ts, `{"index":0,"pillz":4,"fury":false}`)
	assert.Equal(t, http.StatusConflict, code)

	code, resp, _ = post(t, ts, `{"index":1,"pillz":0,"fury":false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Opponent", resp.State.Turn)

	code, resp, _ = post(t, ts, `{"cancel":true,"selection":{"index":3,"pillz":0,"fury":false}}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.State.Player.Selection)
	assert.Equal(t, 3, resp.State.Player.Selection.Index)

	// Punk D attacks 5 against Roots B's 3.
	code, resp, _ = post(t, ts, `{"index":1,"pillz":0,"fury":false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, resp.State.Round)
	assert.Equal(t, 9, resp.State.Opponent.Life)
	assert.NotEmpty(t, resp.Events)

	res, err := http.Get(ts.URL + "/api/testcase")
	require.NoError(t, err)
	defer res.Body.Close()
	var tc struct {
		Moves []json.RawMessage `json:"moves"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&tc))
	assert.Len(t, tc.Moves, 1)
}

func TestInputErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"no shape", `{"fury":true}`, http.StatusBadRequest},
		{"short setup", `{"cards":["Punk A"]}`, http.StatusBadRequest},
		{"unknown card", `{"cards":["Punk A","Punk B","Punk C","Nobody","Roots A","Roots B","Roots C","Roots D"]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errBody := post(t, ts, tt.body)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, errBody["error"])
		})
	}
}

func TestSetupAdvice(t *testing.T) {
	ts := newTestServer(t, WithSetupAdvice(true))

	code, resp, _ := post(t, ts, setupBody)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Advice)
	assert.Equal(t, "middle", resp.Advice.Mode)
	assert.NotEmpty(t, resp.Advice.Candidates)
}

func TestCardsAndState(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, err = http.Get(ts.URL + "/api/cards")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	var cards []CardInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cards))
	require.Len(t, cards, 8)
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Roots C")

	code, _, _ := post(t, ts, setupBody)
	require.Equal(t, http.StatusOK, code)
	res, err = http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	defer res.Body.Close()
	var sv pnet.StateView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sv))
	assert.NotEmpty(t, sv.MatchID)
	assert.Len(t, sv.Player.Hand, game.HandSize)
}

func TestHands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`hands:
  - name: Punks
    cards: [Punk A, Punk B, Punk C, Punk D]
  - name: Roots
    cards: [Roots A, Roots B, Roots C, Roots D]
`), 0o644))
	ts := newTestServer(t, WithHandsFile(path))

	res, err := http.Get(ts.URL + "/api/hands")
	require.NoError(t, err)
	defer res.Body.Close()
	var hands []HandInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&hands))
	require.Len(t, hands, 2)
	assert.Equal(t, HandInfo{Number: 2, Name: "Roots", Cards: []string{"Roots A", "Roots B", "Roots C", "Roots D"}}, hands[1])
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t)
	code, _, _ := post(t, ts, setupBody)
	require.Equal(t, http.StatusOK, code)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var msg pnet.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, pnet.MsgState, msg.Type)
	assert.Equal(t, 0, msg.State.Round)

	require.NoError(t, wsjson.Write(ctx, conn, pnet.ClientMessage{Type: pnet.MsgSelect, Selection: &pnet.SelectionView{Index: 0}}))
	msg = pnet.ServerMessage{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, pnet.MsgState, msg.Type)
	assert.Equal(t, "Opponent", msg.State.Turn)

	// A move over HTTP reaches websocket subscribers too.
	code, _, _ = post(t, ts, `{"index":0,"pillz":0,"fury":false}`)
	require.Equal(t, http.StatusOK, code)
	msg = pnet.ServerMessage{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, 1, msg.State.Round)
	assert.NotEmpty(t, msg.Events)

	require.NoError(t, wsjson.Write(ctx, conn, pnet.ClientMessage{Type: "dance"}))
	msg = pnet.ServerMessage{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, pnet.MsgError, msg.Type)

	conn.Close(websocket.StatusNormalClosure, "")
}
