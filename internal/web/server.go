package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/peterkuimelis/pillz/internal/game"
	pnet "github.com/peterkuimelis/pillz/internal/net"
	zlog "github.com/rs/zerolog/log"
)

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Clan     string `json:"clan"`
	Level    int    `json:"level"`
	LevelMax int    `json:"levelMax"`
	Power    int    `json:"power"`
	Damage   int    `json:"damage"`
	Rarity   string `json:"rarity,omitempty"`
	Ability  string `json:"ability,omitempty"`
	Bonus    string `json:"bonus,omitempty"`
}

// HandInfo is the JSON representation of a saved hand for /api/hands.
type HandInfo struct {
	Number int      `json:"number"`
	Name   string   `json:"name"`
	Cards  []string `json:"cards"`
}

// Input is the body of POST /. Exactly one shape is expected: a setup
// ({cards, flip, life, pillz}), a selection ({index, pillz, fury}) or a
// re-selection ({cancel, selection}).
type Input struct {
	Cards     []string            `json:"cards,omitempty"`
	Flip      int                 `json:"flip,omitempty"`
	Life      int                 `json:"life,omitempty"`
	Pillz     int                 `json:"pillz,omitempty"`
	Index     *int                `json:"index,omitempty"`
	Fury      bool                `json:"fury,omitempty"`
	Cancel    *bool               `json:"cancel,omitempty"`
	Selection *pnet.SelectionView `json:"selection,omitempty"`
}

// Response is returned by POST /.
type Response struct {
	State  *pnet.StateView  `json:"state,omitempty"`
	Events []pnet.EventView `json:"events,omitempty"`
	Advice *pnet.Advice     `json:"advice,omitempty"`
}

// Option configures a Server.
type Option func(s *Server)

// WithHandsFile serves the saved hands at path on /api/hands.
func WithHandsFile(path string) Option {
	return func(s *Server) { s.handsFile = path }
}

// WithSetupAdvice runs the opening search after a setup when the player
// moves first.
func WithSetupAdvice(on bool) Option {
	return func(s *Server) { s.setupAdvice = on }
}

// subscriber is one websocket client.
type subscriber struct {
	msgs chan pnet.ServerMessage
}

// Server is the pillz HTTP and websocket endpoint.
type Server struct {
	sess        *pnet.Session
	cat         *game.Catalog
	handsFile   string
	setupAdvice bool
	mux         *http.ServeMux

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewServer creates a new web server for sess.
func NewServer(sess *pnet.Session, cat *game.Catalog, options ...Option) *Server {
	s := &Server{
		sess: sess,
		cat:  cat,
		mux:  http.NewServeMux(),
		subs: make(map[*subscriber]struct{}),
	}
	for _, o := range options {
		o(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /{$}", s.handleInput)
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/hands", s.handleHands)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/testcase", s.handleTestcase)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// ServeHTTP lets the server be mounted or tested directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	zlog.Info().Str("addr", addr).Msg("web server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// --- HTTP ---

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadInput, err))
		return
	}
	ctx := r.Context()

	switch {
	case in.Cards != nil:
		setup, err := game.ParseSetup(in.Cards, in.Flip != 0)
		if err != nil {
			writeError(w, err)
			return
		}
		setup.Life, setup.Pillz = in.Life, in.Pillz
		sv, err := s.sess.Start(ctx, setup)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := Response{State: sv}
		if s.setupAdvice && sv.Turn == game.SidePlayer.String() {
			if resp.Advice, err = s.sess.Recommend(ctx); err != nil {
				zlog.Warn().Err(err).Msg("opening advice")
			}
		}
		s.broadcast(nil)
		writeJSON(w, http.StatusOK, resp)

	case in.Index != nil:
		sel := game.Selection{Index: *in.Index, Pillz: in.Pillz, Fury: in.Fury}
		s.selectAndRespond(w, ctx, sel, false)

	case in.Cancel != nil && in.Selection != nil:
		s.selectAndRespond(w, ctx, in.Selection.Selection(), true)

	default:
		writeError(w, fmt.Errorf("%w: expected cards, index or cancel with selection", errBadInput))
	}
}

func (s *Server) selectAndRespond(w http.ResponseWriter, ctx context.Context, sel game.Selection, reselect bool) {
	upd, err := s.sess.Select(ctx, pnet.SeatBoth, sel, reselect)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast(upd.Events)
	writeJSON(w, http.StatusOK, Response{State: upd.State, Events: upd.Events, Advice: upd.Advice})
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	var cards []CardInfo
	for _, c := range s.cat.Cards() {
		cards = append(cards, CardInfo{
			ID:       c.ID,
			Name:     c.Name,
			Clan:     c.Clan.String(),
			Level:    c.Level,
			LevelMax: c.LevelMax,
			Power:    c.Power,
			Damage:   c.Damage,
			Rarity:   c.Rarity.String(),
			Ability:  s.cat.AbilityText(c.AbilityID),
			Bonus:    s.cat.AbilityText(c.BonusID),
		})
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleHands(w http.ResponseWriter, r *http.Request) {
	if s.handsFile == "" {
		writeJSON(w, http.StatusOK, []HandInfo{})
		return
	}
	hf, err := game.ParseHandFile(s.handsFile)
	if err != nil {
		zlog.Error().Err(err).Str("path", s.handsFile).Msg("read hands")
		http.Error(w, "could not read hands file", http.StatusInternalServerError)
		return
	}
	hands := make([]HandInfo, 0, len(hf.Hands))
	for i, h := range hf.Hands {
		hands = append(hands, HandInfo{Number: i + 1, Name: h.Name, Cards: h.Cards})
	}
	writeJSON(w, http.StatusOK, hands)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sv, err := s.sess.State(pnet.SeatBoth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

func (s *Server) handleTestcase(w http.ResponseWriter, r *http.Request) {
	tc, err := s.sess.Testcase()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

var errBadInput = errors.New("bad input")

// statusFor maps session and engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadInput),
		errors.Is(err, game.ErrMalformedSelection),
		errors.Is(err, game.ErrInvalidHand),
		errors.Is(err, game.ErrUnknownCard):
		return http.StatusBadRequest
	case errors.Is(err, pnet.ErrNoMatch),
		errors.Is(err, pnet.ErrNotYourTurn),
		errors.Is(err, pnet.ErrTooEarly),
		errors.Is(err, game.ErrIllegalSelection),
		errors.Is(err, game.ErrMatchOver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zlog.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("write response")
	}
}

// --- WebSocket ---

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer wsConn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := &subscriber{msgs: make(chan pnet.ServerMessage, 16)}
	if sv, err := s.sess.State(pnet.SeatBoth); err == nil {
		sub.msgs <- stateMessage(sv, nil)
	}
	s.subscribe(sub)
	defer s.unsubscribe(sub)

	// Browser → session
	go func() {
		defer cancel()
		for {
			var msg pnet.ClientMessage
			if err := wsjson.Read(ctx, wsConn, &msg); err != nil {
				return
			}
			if reply, ok := s.handleClientMessage(ctx, msg); ok {
				s.deliver(sub, reply)
			}
		}
	}()

	// Session → browser
	for {
		select {
		case <-ctx.Done():
			wsConn.Close(websocket.StatusNormalClosure, "bye")
			return
		case msg := <-sub.msgs:
			if err := wsjson.Write(ctx, wsConn, msg); err != nil {
				zlog.Debug().Err(err).Msg("websocket write")
				return
			}
		}
	}
}

// handleClientMessage applies a websocket command. State changes reach every
// subscriber through broadcast; the returned message goes to the sender only.
func (s *Server) handleClientMessage(ctx context.Context, msg pnet.ClientMessage) (pnet.ServerMessage, bool) {
	switch msg.Type {
	case pnet.MsgSelect:
		if msg.Selection == nil {
			return errorMessage(game.ErrMalformedSelection), true
		}
		upd, err := s.sess.Select(ctx, pnet.SeatBoth, msg.Selection.Selection(), msg.Reselect)
		if err != nil {
			return errorMessage(err), true
		}
		s.broadcast(upd.Events)
		if upd.Advice != nil {
			return pnet.ServerMessage{Type: pnet.MsgAdvice, Advice: upd.Advice}, true
		}
		return pnet.ServerMessage{}, false

	case pnet.MsgCancel:
		if _, err := s.sess.Cancel(pnet.SeatBoth); err != nil {
			return errorMessage(err), true
		}
		s.broadcast(nil)
		return pnet.ServerMessage{}, false

	case pnet.MsgState:
		sv, err := s.sess.State(pnet.SeatBoth)
		if err != nil {
			return errorMessage(err), true
		}
		return stateMessage(sv, nil), true

	case pnet.MsgRecommend:
		advice, err := s.sess.Recommend(ctx)
		if err != nil {
			return errorMessage(err), true
		}
		return pnet.ServerMessage{Type: pnet.MsgAdvice, Advice: advice}, true

	default:
		return errorMessage(fmt.Errorf("unknown message type %q", msg.Type)), true
	}
}

func (s *Server) subscribe(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
}

func (s *Server) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}

// broadcast pushes the current state to every websocket subscriber.
func (s *Server) broadcast(events []pnet.EventView) {
	sv, err := s.sess.State(pnet.SeatBoth)
	if err != nil {
		return
	}
	msg := stateMessage(sv, events)

	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		s.deliver(sub, msg)
	}
}

func (s *Server) deliver(sub *subscriber, msg pnet.ServerMessage) {
	select {
	case sub.msgs <- msg:
	default:
		zlog.Warn().Str("type", msg.Type).Msg("websocket subscriber too slow, dropping message")
	}
}

func stateMessage(sv *pnet.StateView, events []pnet.EventView) pnet.ServerMessage {
	msg := pnet.ServerMessage{Type: pnet.MsgState, State: sv, Events: events}
	if sv.Over {
		msg.Type = pnet.MsgGameOver
		msg.Result = sv.Status
	}
	return msg
}

func errorMessage(err error) pnet.ServerMessage {
	return pnet.ServerMessage{Type: pnet.MsgError, Error: err.Error()}
}
