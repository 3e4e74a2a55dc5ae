package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// sessionTools lists the session-mutating tools exposed by the bridge. Each
// one routes through the opaque action handler under its own name; the rules
// behind them live in the game backend.
var sessionTools = []*mcp.Tool{
	{Name: "move_token", Description: "Moves a token on the shared session board"},
	{Name: "roll_dice", Description: "Rolls dice and records the outcome in the session"},
	{Name: "update_scene", Description: "Updates the active scene of the session"},
}

// ActionInput is the shared MCP tool input for session actions.
type ActionInput struct {
	SessionID string         `json:"sessionId" jsonschema:"identifier of the session the action targets"`
	Arguments map[string]any `json:"arguments,omitempty" jsonschema:"tool-specific arguments"`
}

// ActionOutput is the shared MCP tool output for session actions.
type ActionOutput struct {
	Success bool           `json:"success" jsonschema:"whether the action was applied"`
	Data    map[string]any `json:"data,omitempty" jsonschema:"tool-specific result data"`
	Error   string         `json:"error,omitempty" jsonschema:"failure reason when not successful"`
}

func registerSessionTools(mcpServer *mcp.Server, actions ActionHandler, forwarder EventForwarder, actionTimeout time.Duration) {
	for _, tool := range sessionTools {
		mcp.AddTool(mcpServer, tool, actionToolHandler(tool.Name, actions, forwarder, actionTimeout))
	}
}

// actionToolHandler executes one session action and forwards the produced
// events to the stream service. Forwarding is best-effort: a delivery
// failure is logged, never surfaced as a tool error, because reconnecting
// clients recover through replay.
func actionToolHandler(name string, actions ActionHandler, forwarder EventForwarder, actionTimeout time.Duration) mcp.ToolHandlerFor[ActionInput, ActionOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActionInput) (*mcp.CallToolResult, ActionOutput, error) {
		runCtx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		args := ActionArgs{SessionID: input.SessionID, Arguments: input.Arguments}
		result, err := actions.HandleAction(runCtx, name, args)
		if err != nil {
			return nil, ActionOutput{}, fmt.Errorf("%s failed: %w", name, err)
		}

		if len(result.Events) > 0 && forwarder != nil {
			sessionID := dispatchSessionID(args, result.Events)
			if sessionID == "" {
				log.Printf("mcp: %s produced %d events with no session id, dropping", name, len(result.Events))
			} else if err := forwarder.Forward(runCtx, sessionID, result.Events); err != nil {
				log.Printf("mcp: forward %d events for session %s: %v", len(result.Events), sessionID, err)
			}
		}

		return nil, ActionOutput{
			Success: result.Success,
			Data:    result.Data,
			Error:   result.Error,
		}, nil
	}
}
