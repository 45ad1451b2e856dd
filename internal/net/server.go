package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/peterkuimelis/pillz/internal/game"
	zlog "github.com/rs/zerolog/log"
)

// peer is one connected client.
type peer struct {
	enc  *json.Encoder
	seat Seat
	mu   sync.Mutex
}

func (p *peer) send(msg ServerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(msg)
}

// Server relays a Session to its connected clients over JSON lines.
type Server struct {
	Session *Session
	Port    string

	mu    sync.Mutex
	peers map[*peer]struct{}
}

// NewServer creates a server for sess.
func NewServer(sess *Session, port string) *Server {
	return &Server{Session: sess, Port: port, peers: make(map[*peer]struct{})}
}

// Local runs a REPL that drives both sides of the session.
func (s *Server) Local(ctx context.Context, in io.Reader, out io.Writer) error {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	go func() {
		defer serverConn.Close()
		if err := s.Serve(ctx, serverConn, SeatBoth); err != nil {
			zlog.Error().Err(err).Msg("local session")
		}
	}()

	client := &Client{conn: clientConn, in: in, out: out}
	return client.RunREPL(ctx)
}

// Host waits for one opponent, then plays the player's side locally.
func (s *Server) Host(ctx context.Context, in io.Reader, out io.Writer) error {
	ln, err := net.Listen("tcp", ":"+s.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	fmt.Fprintf(out, "Waiting for opponent on port %s...\n", s.Port)

	// Accept exactly one connection (the joiner)
	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	defer conn.Close()

	fmt.Fprintf(out, "Opponent connected from %s\n", conn.RemoteAddr())

	go func() {
		if err := s.Serve(ctx, conn, SeatOpponent); err != nil {
			zlog.Error().Err(err).Msg("opponent connection")
		}
	}()

	clientConn, hostConn := net.Pipe()
	defer clientConn.Close()
	go func() {
		defer hostConn.Close()
		if err := s.Serve(ctx, hostConn, SeatPlayer); err != nil {
			zlog.Error().Err(err).Msg("host connection")
		}
	}()

	client := &Client{conn: clientConn, in: in, out: out}
	return client.RunREPL(ctx)
}

// Serve handles one connection until it closes.
func (s *Server) Serve(ctx context.Context, conn net.Conn, seat Seat) error {
	p := &peer{enc: json.NewEncoder(conn), seat: seat}
	s.add(p)
	defer s.remove(p)

	dec := json.NewDecoder(conn)
	for {
		var msg ClientMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if err := s.dispatch(ctx, p, msg); err != nil {
			return err
		}
	}
}

func (s *Server) add(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peers == nil {
		s.peers = make(map[*peer]struct{})
	}
	s.peers[p] = struct{}{}
}

func (s *Server) remove(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, p)
}

// dispatch handles one client message. Failures of the request itself go
// back to the sender as error messages; only write failures are returned.
func (s *Server) dispatch(ctx context.Context, p *peer, msg ClientMessage) error {
	switch msg.Type {
	case MsgJoin, MsgState:
		sv, err := s.Session.State(p.seat)
		if err != nil {
			return p.send(errorMessage(err))
		}
		return p.send(ServerMessage{Type: MsgState, State: sv})

	case MsgSetup:
		if p.seat == SeatOpponent {
			return p.send(errorMessage(errors.New("only the host can set up a match")))
		}
		setup, err := game.ParseSetup(msg.Cards, msg.Flip)
		if err != nil {
			return p.send(errorMessage(err))
		}
		setup.Life, setup.Pillz = msg.Life, msg.Pillz
		if _, err := s.Session.Start(ctx, setup); err != nil {
			return p.send(errorMessage(err))
		}
		s.Broadcast(nil)
		return nil

	case MsgSelect:
		if msg.Selection == nil {
			return p.send(errorMessage(game.ErrMalformedSelection))
		}
		upd, err := s.Session.Select(ctx, p.seat, msg.Selection.Selection(), msg.Reselect)
		if err != nil {
			return p.send(errorMessage(err))
		}
		s.Broadcast(upd.Events)
		if upd.Advice != nil {
			return p.send(ServerMessage{Type: MsgAdvice, Advice: upd.Advice})
		}
		return nil

	case MsgCancel:
		if _, err := s.Session.Cancel(p.seat); err != nil {
			return p.send(errorMessage(err))
		}
		s.Broadcast(nil)
		return nil

	case MsgRecommend:
		advice, err := s.Session.Recommend(ctx)
		if err != nil {
			return p.send(errorMessage(err))
		}
		return p.send(ServerMessage{Type: MsgAdvice, Advice: advice})

	case MsgAnalyze:
		a, err := s.Session.Analyze(ctx)
		if err != nil {
			return p.send(errorMessage(err))
		}
		return p.send(ServerMessage{Type: MsgAnalysis, Analysis: a})

	default:
		return p.send(errorMessage(fmt.Errorf("unknown message type %q", msg.Type)))
	}
}

// Broadcast sends every peer its view of the match, or game_over once the
// match has ended.
func (s *Server) Broadcast(events []EventView) {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		sv, err := s.Session.State(p.seat)
		if err != nil {
			continue
		}
		msg := ServerMessage{Type: MsgState, State: sv, Events: events}
		if sv.Over {
			msg.Type = MsgGameOver
			msg.Result = sv.Status
		}
		if err := p.send(msg); err != nil {
			zlog.Warn().Err(err).Str("seat", p.seat.String()).Msg("send state")
		}
	}
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: MsgError, Error: err.Error()}
}
