package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/analysis"
	"github.com/peterkuimelis/lanesim/internal/game"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
)

// Tools serves the simulator over MCP.
type Tools struct {
	Runner     *lanenet.Runner
	Thresholds analysis.Thresholds
	Logger     *zap.Logger
}

// NewServer returns an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("lanesim", version)
	t.Register(s)
	return s
}

// Register adds all simulator tools to the MCP server.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTools(t.serverTools()...)
}

// serverTools pairs each tool with its handler. list_runs is only offered
// when the runner has a store.
func (t *Tools) serverTools() []server.ServerTool {
	tools := []server.ServerTool{
		{Tool: listCardsTool(), Handler: t.handleListCards},
		{Tool: listDecksTool(), Handler: t.handleListDecks},
		{Tool: simulateTool(), Handler: t.handleSimulate},
		{Tool: calibrateTool(), Handler: t.handleCalibrate},
	}
	if t.Runner.Store != nil {
		tools = append(tools, server.ServerTool{Tool: listRunsTool(), Handler: t.handleListRuns})
	}
	return tools
}

func (t *Tools) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// --- Tool definitions ---

func listCardsTool() mcp.Tool {
	return mcp.NewTool("list_cards",
		mcp.WithDescription("List every card in the library pool with its id, stats, blood cost, rarity and abilities."),
	)
}

func listDecksTool() mcp.Tool {
	return mcp.NewTool("list_decks",
		mcp.WithDescription("List the player decks and opponent scripts defined in the library."),
	)
}

func simulateTool() mcp.Tool {
	return mcp.NewTool("simulate",
		mcp.WithDescription("Run the breadth-first battle search for a player deck against an opponent script. "+
			"Returns round outcomes, win rate and per-card performance."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Player deck name from list_decks")),
		mcp.WithString("opponent", mcp.Description("Opponent script name; empty for no enemy moves")),
		mcp.WithNumber("seed", mcp.Description("Shuffle and opponent seed (default 1)")),
		mcp.WithNumber("hand_size", mcp.Description("Starting hand size")),
		mcp.WithNumber("max_turns", mcp.Description("Turn limit per branch")),
		mcp.WithNumber("max_branch", mcp.Description("Actions expanded per player turn")),
		mcp.WithBoolean("check_duplicates", mcp.Description("Prune states already seen")),
	)
}

func calibrateTool() mcp.Tool {
	return mcp.NewTool("calibrate",
		mcp.WithDescription("Grade an opponent script as Easy, Medium, Hard or FailedGuardrail by simulating it against a deck."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Player deck name from list_decks")),
		mcp.WithString("opponent", mcp.Required(), mcp.Description("Opponent script name")),
		mcp.WithNumber("seed", mcp.Description("Shuffle and opponent seed (default 1)")),
	)
}

func listRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List stored simulation runs, newest first. Read-only."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	)
}

// --- Tool handlers ---

func (t *Tools) handleListCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cards := []lanenet.CardView{}
	for _, c := range t.Runner.Library.Pool.Cards() {
		cards = append(cards, lanenet.NewCardView(c))
	}
	return mcp.NewToolResultText(respondJSON(cards)), nil
}

type deckSummary struct {
	Name       string `json:"name"`
	Cards      int    `json:"cards"`
	Creatures  int    `json:"creatures"`
	Sacrifices int    `json:"sacrifices"`
}

type decksResponse struct {
	Decks     []deckSummary `json:"decks"`
	Opponents []string      `json:"opponents"`
}

func (t *Tools) handleListDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lib := t.Runner.Library
	resp := decksResponse{Decks: []deckSummary{}, Opponents: lib.OpponentNames()}
	for _, name := range lib.DeckNames() {
		cards, err := lib.Deck(name)
		if err != nil {
			return mcp.NewToolResultErrorf("Failed to read deck %q: %v", name, err), nil
		}
		creatures, sacrifices := game.SplitDeck(cards)
		resp.Decks = append(resp.Decks, deckSummary{
			Name:       name,
			Cards:      len(cards),
			Creatures:  len(creatures),
			Sacrifices: len(sacrifices),
		})
	}
	if resp.Opponents == nil {
		resp.Opponents = []string{}
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

type simulateResponse struct {
	RunID  string              `json:"run_id,omitempty"`
	Result *lanenet.ResultView `json:"result"`
}

func (t *Tools) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := requestFromArgs(request)
	if err := t.Runner.Validate(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, id, err := t.Runner.Run(ctx, req, nil)
	if err != nil {
		return mcp.NewToolResultErrorf("Simulation failed: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(simulateResponse{RunID: id, Result: lanenet.NewResultView(res)})), nil
}

func (t *Tools) handleCalibrate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := requestFromArgs(request)
	if req.Opponent == "" {
		return mcp.NewToolResultError("opponent is required"), nil
	}

	setup, _, err := t.Runner.Setup(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := analysis.Calibrate(setup, analysis.CalibrationConfig(), t.Thresholds)
	if err != nil {
		return mcp.NewToolResultErrorf("Calibration failed: %v", err), nil
	}
	t.logger().Info("calibrated opponent",
		zap.String("deck", req.Deck),
		zap.String("opponent", req.Opponent),
		zap.Stringer("difficulty", cal.Difficulty),
		zap.Float64("win_rate", cal.WinRate))
	return mcp.NewToolResultText(respondJSON(cal)), nil
}

func (t *Tools) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	runs, err := t.Runner.Store.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list runs: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(runs)), nil
}

// requestFromArgs maps tool arguments onto a simulation request. Optional
// overrides are only set when the caller passed them.
func requestFromArgs(request mcp.CallToolRequest) lanenet.RequestView {
	req := lanenet.RequestView{
		Deck:     request.GetString("deck", ""),
		Opponent: request.GetString("opponent", ""),
		Seed:     int64(request.GetInt("seed", 1)),
		HandSize: request.GetInt("hand_size", 0),
	}
	args := request.GetArguments()
	if _, ok := args["max_turns"]; ok {
		v := request.GetInt("max_turns", 0)
		req.MaxTurns = &v
	}
	if _, ok := args["max_branch"]; ok {
		v := request.GetInt("max_branch", 0)
		req.MaxBranch = &v
	}
	if _, ok := args["check_duplicates"]; ok {
		v := request.GetBool("check_duplicates", false)
		req.CheckDuplicates = &v
	}
	return req
}

func respondJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
