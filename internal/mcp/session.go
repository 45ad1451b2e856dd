package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdnet "net"
	"strconv"
	"strings"
	"sync"

	"github.com/peterkuimelis/pillz/internal/game"
	pnet "github.com/peterkuimelis/pillz/internal/net"
	zlog "github.com/rs/zerolog/log"
)

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Seat     string           `json:"seat"`
	State    *pnet.StateView  `json:"state,omitempty"`
	Events   []pnet.EventView `json:"events"`
	Advice   *pnet.Advice     `json:"advice,omitempty"`
	Analysis *pnet.Analysis   `json:"analysis,omitempty"`
	GameOver bool             `json:"game_over"`
	Result   string           `json:"result,omitempty"`
	Port     string           `json:"port,omitempty"`
}

// MatchOptions describe a start_match call.
type MatchOptions struct {
	Setup game.Setup
	Seat  pnet.Seat
}

// GameSession is the match driven by one stdio process. The assistant plays
// Seat; when the seat is not SeatBoth a human may join the other side over
// TCP with `pillz-cli join`.
type GameSession struct {
	cat  *game.Catalog
	sess *pnet.Session
	srv  *pnet.Server
	port string

	mu       sync.Mutex
	seat     pnet.Seat
	started  bool
	listener stdnet.Listener
	cancel   context.CancelFunc
}

// NewGameSession wraps sess. An empty port disables human opponents.
func NewGameSession(cat *game.Catalog, sess *pnet.Session, port string) *GameSession {
	return &GameSession{
		cat:  cat,
		sess: sess,
		srv:  pnet.NewServer(sess, port),
		port: port,
		seat: pnet.SeatBoth,
	}
}

// Start begins a new match and, for a single seat, starts accepting a
// human for the other one.
func (g *GameSession) Start(ctx context.Context, opts MatchOptions) (*ToolResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeListenerLocked()
	sv, err := g.sess.Start(ctx, opts.Setup)
	if err != nil {
		return nil, err
	}
	g.seat = opts.Seat
	g.started = true

	resp := &ToolResponse{Seat: g.seat.String(), State: sv, Events: []pnet.EventView{}}
	if g.seat != pnet.SeatBoth && g.port != "" {
		port, err := g.listenLocked()
		if err != nil {
			return nil, err
		}
		resp.Port = port
	}
	return resp, nil
}

// listenLocked accepts human connections in the background until the next
// Start or Close. It returns the port actually bound.
func (g *GameSession) listenLocked() (string, error) {
	ln, err := stdnet.Listen("tcp", ":"+g.port)
	if err != nil {
		return "", fmt.Errorf("listen on port %s: %w", g.port, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.listener, g.cancel = ln, cancel

	human := humanSeat(g.seat)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			zlog.Info().Str("remote", conn.RemoteAddr().String()).Str("seat", human.String()).Msg("human joined")
			go func() {
				defer conn.Close()
				if err := g.srv.Serve(ctx, conn, human); err != nil {
					zlog.Warn().Err(err).Msg("human connection")
				}
			}()
		}
	}()
	return strconv.Itoa(ln.Addr().(*stdnet.TCPAddr).Port), nil
}

func (g *GameSession) closeListenerLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if g.listener != nil {
		_ = g.listener.Close()
		g.listener = nil
	}
}

// Close stops accepting human connections.
func (g *GameSession) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeListenerLocked()
}

// Select plays sel for the assistant's seat.
func (g *GameSession) Select(ctx context.Context, sel game.Selection, reselect bool) (*ToolResponse, error) {
	seat, err := g.current()
	if err != nil {
		return nil, err
	}
	upd, err := g.sess.Select(ctx, seat, sel, reselect)
	if err != nil {
		return nil, err
	}
	g.srv.Broadcast(upd.Events)
	resp := g.response(upd.State)
	resp.Events = nonNil(upd.Events)
	resp.Advice = upd.Advice
	return resp, nil
}

// Cancel drops the assistant's pending selection.
func (g *GameSession) Cancel() (*ToolResponse, error) {
	seat, err := g.current()
	if err != nil {
		return nil, err
	}
	sv, err := g.sess.Cancel(seat)
	if err != nil {
		return nil, err
	}
	g.srv.Broadcast(nil)
	return g.response(sv), nil
}

// State reports the match as the assistant's seat sees it.
func (g *GameSession) State() (*ToolResponse, error) {
	seat, err := g.current()
	if err != nil {
		return nil, err
	}
	sv, err := g.sess.State(seat)
	if err != nil {
		return nil, err
	}
	return g.response(sv), nil
}

// Recommend runs the advisor for the side to move.
func (g *GameSession) Recommend(ctx context.Context) (*ToolResponse, error) {
	resp, err := g.State()
	if err != nil {
		return nil, err
	}
	if resp.Advice, err = g.sess.Recommend(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}

// Analyze builds the result tree of the remaining rounds.
func (g *GameSession) Analyze(ctx context.Context) (*ToolResponse, error) {
	resp, err := g.State()
	if err != nil {
		return nil, err
	}
	if resp.Analysis, err = g.sess.Analyze(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}

var errNoMatch = errors.New("no match is running, use start_match first")

func (g *GameSession) current() (pnet.Seat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return 0, errNoMatch
	}
	return g.seat, nil
}

func (g *GameSession) response(sv *pnet.StateView) *ToolResponse {
	g.mu.Lock()
	seat := g.seat
	g.mu.Unlock()
	resp := &ToolResponse{Seat: seat.String(), State: sv, Events: []pnet.EventView{}}
	if sv != nil && sv.Over {
		resp.GameOver = true
		resp.Result = sv.Status
	}
	return resp
}

func humanSeat(assistant pnet.Seat) pnet.Seat {
	if assistant == pnet.SeatPlayer {
		return pnet.SeatOpponent
	}
	return pnet.SeatPlayer
}

// ParseSeat reads "player", "opponent" or "both"; empty means both.
func ParseSeat(s string) (pnet.Seat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return pnet.SeatBoth, nil
	case "player":
		return pnet.SeatPlayer, nil
	case "opponent":
		return pnet.SeatOpponent, nil
	default:
		return 0, fmt.Errorf("unknown seat %q: want player, opponent or both", s)
	}
}

func nonNil(events []pnet.EventView) []pnet.EventView {
	if events == nil {
		return []pnet.EventView{}
	}
	return events
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
