package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/pillz/internal/game"
)

// RegisterTools adds all game tools to the MCP server.
func RegisterTools(s *server.MCPServer, g *GameSession) {
	s.AddTool(startMatchTool(), g.handleStartMatch)
	s.AddTool(selectCardTool(), g.handleSelectCard)
	s.AddTool(cancelSelectionTool(), g.handleCancelSelection)
	s.AddTool(getStateTool(), g.handleGetState)
	s.AddTool(recommendTool(), g.handleRecommend)
	s.AddTool(analyzeTool(), g.handleAnalyze)
}

// --- Tool definitions ---

func startMatchTool() mcp.Tool {
	return mcp.NewTool("start_match",
		mcp.WithDescription("Start a new pillz match. Give eight card names (player hand first) or two clans for random hands. "+
			"When seat is player or opponent, a human can take the other side with `pillz-cli join --addr localhost:<port>`."),
		mcp.WithString("cards", mcp.Description("Eight comma-separated card names: four for the player, then four for the opponent")),
		mcp.WithString("clans", mcp.Description("Two comma-separated clan names for random hands, e.g. 'Junkz, Roots'")),
		mcp.WithNumber("seed", mcp.Description("Seed for random hands")),
		mcp.WithBoolean("flip", mcp.Description("Opponent selects first in even rounds")),
		mcp.WithNumber("life", mcp.Description("Starting life for both sides (default 12)")),
		mcp.WithNumber("pillz", mcp.Description("Starting pillz for both sides (default 12)")),
		mcp.WithString("seat", mcp.Description("Side the assistant plays: player, opponent or both (default both)")),
	)
}

func selectCardTool() mcp.Tool {
	return mcp.NewTool("select_card",
		mcp.WithDescription("Select a card for the side to move. The round resolves once both sides have selected."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index of an unplayed card in the hand")),
		mcp.WithNumber("pillz", mcp.Description("Pillz to wager on the card")),
		mcp.WithBoolean("fury", mcp.Description("Spend 3 extra pillz for +2 damage")),
		mcp.WithBoolean("reselect", mcp.Description("Discard pending selections of this round and select again")),
	)
}

func cancelSelectionTool() mcp.Tool {
	return mcp.NewTool("cancel_selection",
		mcp.WithDescription("Discard the pending selection of the round."),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current table without making a move. Read-only."),
	)
}

func recommendTool() mcp.Tool {
	return mcp.NewTool("recommend",
		mcp.WithDescription("Run the advisor for the side to move. Round 1 uses a statistical search; later rounds search exactly."),
	)
}

func analyzeTool() mcp.Tool {
	return mcp.NewTool("analyze",
		mcp.WithDescription("Build the full result tree of the last two rounds and report the best moves."),
	)
}

// --- Tool handlers ---

func (g *GameSession) handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seat, err := ParseSeat(request.GetString("seat", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var setup game.Setup
	cards := request.GetString("cards", "")
	clans := request.GetString("clans", "")
	switch {
	case cards != "":
		setup, err = game.ParseSetup(strings.Split(cards, ","), request.GetBool("flip", false))
	case clans != "":
		setup, err = g.randomSetup(clans, uint64(request.GetInt("seed", 0)))
	default:
		err = fmt.Errorf("give either cards or clans")
	}
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid setup: %v", err), nil
	}
	setup.Life = request.GetInt("life", 0)
	setup.Pillz = request.GetInt("pillz", 0)

	resp, err := g.Start(ctx, MatchOptions{Setup: setup, Seat: seat})
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start match: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (g *GameSession) randomSetup(clans string, seed uint64) (game.Setup, error) {
	parts := strings.Split(clans, ",")
	if len(parts) != 2 {
		return game.Setup{}, fmt.Errorf("need two clans, got %d", len(parts))
	}
	var pair [2]game.Clan
	for i, p := range parts {
		c, ok := game.ClanByName(strings.TrimSpace(p))
		if !ok {
			return game.Setup{}, fmt.Errorf("%w: %q", game.ErrUnknownClan, p)
		}
		pair[i] = c
	}
	return g.cat.RandomSetup(pair[0], pair[1], seed)
}

func (g *GameSession) handleSelectCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := request.GetInt("index", -1)
	if index < 0 || index >= game.HandSize {
		return mcp.NewToolResultErrorf("Invalid index %d. Must be 0-%d.", index, game.HandSize-1), nil
	}
	sel := game.Selection{
		Index: index,
		Pillz: request.GetInt("pillz", 0),
		Fury:  request.GetBool("fury", false),
	}
	resp, err := g.Select(ctx, sel, request.GetBool("reselect", false))
	if err != nil {
		return mcp.NewToolResultErrorf("Selection %s rejected: %v", sel, err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (g *GameSession) handleCancelSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := g.Cancel()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (g *GameSession) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := g.State()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (g *GameSession) handleRecommend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := g.Recommend(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (g *GameSession) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := g.Analyze(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}
