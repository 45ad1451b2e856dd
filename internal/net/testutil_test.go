package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/peterkuimelis/pillz/internal/replay"
	"github.com/stretchr/testify/require"
)

// testCatalog holds two ability-less clans of uneven power.
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

var testCards = []string{"Punk A", "Punk B", "Punk C", "Punk D", "Roots A", "Roots B", "Roots C", "Roots D"}

// smallSetup keeps searches tiny: one pill each.
func smallSetup() game.Setup {
	var s game.Setup
	copy(s.Cards[:], testCards)
	s.Pillz = 1
	return s
}

func startSession(t *testing.T, options ...SessionOption) *Session {
	t.Helper()
	sess := NewSession(testCatalog(t), options...)
	_, err := sess.Start(context.Background(), smallSetup())
	require.NoError(t, err)
	return sess
}

// memoryHistory records what a Session reports.
type memoryHistory struct {
	mu       sync.Mutex
	setups   map[string]game.Setup
	rounds   map[string][]replay.Round
	finished map[string]game.GameStatus
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{
		setups:   make(map[string]game.Setup),
		rounds:   make(map[string][]replay.Round),
		finished: make(map[string]game.GameStatus),
	}
}

func (h *memoryHistory) CreateMatch(_ context.Context, id string, setup game.Setup) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setups[id] = setup
	return nil
}

func (h *memoryHistory) AppendRound(_ context.Context, id string, round int, r replay.Round) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.rounds[id]) != round {
		return fmt.Errorf("round %d recorded out of order", round)
	}
	h.rounds[id] = append(h.rounds[id], r)
	return nil
}

func (h *memoryHistory) FinishMatch(_ context.Context, id string, status game.GameStatus) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished[id] = status
	return nil
}

// pipePeer connects a client end of net.Pipe to srv and collects every
// server message on a channel.
func pipePeer(t *testing.T, srv *Server, seat Seat) (*json.Encoder, <-chan ServerMessage) {
	t.Helper()
	client, server := net.Pipe()
	go func() { _ = srv.Serve(context.Background(), server, seat) }()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	msgs := make(chan ServerMessage, 32)
	go func() {
		defer close(msgs)
		dec := json.NewDecoder(client)
		for {
			var msg ServerMessage
			if err := dec.Decode(&msg); err != nil {
				return
			}
			msgs <- msg
		}
	}()
	return json.NewEncoder(client), msgs
}

func receive(t *testing.T, msgs <-chan ServerMessage) ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-msgs:
		require.True(t, ok, "connection closed")
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server message")
		return ServerMessage{}
	}
}
