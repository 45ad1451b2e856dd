package net

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/peterkuimelis/pillz/internal/game"
)

const replHelp = `Commands:
  <index> [pillz] [fury]   select a card, e.g. "2 5 true"
  x <index> [pillz] [fury] discard pending selections and select again
  cancel                   discard the pending selection
  setup A, B, ..., H[, flip]  start a match from eight card names
  recommend                run the advisor for the side to move
  analyze                  print the result tree of the last two rounds
  state                    show the table
  quit`

// Client connects to a game server and provides a terminal REPL.
type Client struct {
	conn net.Conn
	in   io.Reader
	out  io.Writer
	mu   sync.Mutex // guards out
}

// Connect joins a hosted match as the opponent and runs the REPL.
func Connect(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ClientMessage{Type: MsgJoin}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	fmt.Fprintln(out, "Connected! Waiting for the match...")

	client := &Client{conn: conn, in: in, out: out}
	return client.RunREPL(ctx)
}

// RunREPL sends commands read from the input and prints every server
// message. It returns on quit, end of input or when the server hangs up.
func (c *Client) RunREPL(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- c.readLoop() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	c.printf("%s\n", replHelp)
	enc := json.NewEncoder(c.conn)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			msg, quit, err := ParseCommand(line)
			if quit {
				return nil
			}
			if err != nil {
				c.printf("%v\n", err)
				continue
			}
			if msg.Type == "" {
				continue
			}
			if err := enc.Encode(msg); err != nil {
				return fmt.Errorf("send %s: %w", msg.Type, err)
			}
		}
	}
}

func (c *Client) readLoop() error {
	dec := json.NewDecoder(c.conn)
	for {
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		c.render(msg)
	}
}

func (c *Client) render(msg ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case MsgState:
		RenderEvents(c.out, msg.Events)
		RenderState(c.out, msg.State)
	case MsgAdvice:
		RenderAdvice(c.out, msg.Advice)
	case MsgAnalysis:
		RenderAnalysis(c.out, msg.Analysis)
	case MsgError:
		fmt.Fprintf(c.out, "error: %s\n", msg.Error)
	case MsgGameOver:
		RenderEvents(c.out, msg.Events)
		RenderState(c.out, msg.State)
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "═══════════════════════════════════")
		fmt.Fprintln(c.out, "          GAME OVER")
		fmt.Fprintln(c.out, "═══════════════════════════════════")
		fmt.Fprintln(c.out, msg.Result)
		fmt.Fprintln(c.out, "═══════════════════════════════════")
	}
}

func (c *Client) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// ParseCommand turns one REPL line into a client message. An empty line
// yields a message with no type.
func ParseCommand(line string) (ClientMessage, bool, error) {
	line = strings.TrimSpace(line)
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(word) {
	case "":
		return ClientMessage{}, false, nil
	case "q", "quit", "exit":
		return ClientMessage{}, true, nil
	case "cancel", "c":
		return ClientMessage{Type: MsgCancel}, false, nil
	case "recommend", "r":
		return ClientMessage{Type: MsgRecommend}, false, nil
	case "analyze", "a":
		return ClientMessage{Type: MsgAnalyze}, false, nil
	case "state", "s":
		return ClientMessage{Type: MsgState}, false, nil
	case "setup":
		names := strings.Split(rest, ",")
		flip := false
		if len(names) == 2*game.HandSize+1 && strings.EqualFold(strings.TrimSpace(names[2*game.HandSize]), "flip") {
			names, flip = names[:2*game.HandSize], true
		}
		setup, err := game.ParseSetup(names, flip)
		if err != nil {
			return ClientMessage{}, false, err
		}
		return ClientMessage{Type: MsgSetup, Cards: setup.Cards[:], Flip: flip}, false, nil
	case "x":
		sel, err := game.ParseSelection(rest)
		if err != nil {
			return ClientMessage{}, false, err
		}
		view := selectionView(sel)
		return ClientMessage{Type: MsgSelect, Selection: &view, Reselect: true}, false, nil
	default:
		sel, err := game.ParseSelection(line)
		if err != nil {
			return ClientMessage{}, false, err
		}
		view := selectionView(sel)
		return ClientMessage{Type: MsgSelect, Selection: &view}, false, nil
	}
}
