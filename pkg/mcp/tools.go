package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/composiotools/internal/actions"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/pkg/schema"
)

// emptyObjectSchema is used for actions that publish no parameter schema.
var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// tools builds one ServerTool per registered action, in registry order.
func (s *ToolServer) tools() []server.ServerTool {
	if s.registry == nil {
		return nil
	}
	infos := s.registry.List()
	out := make([]server.ServerTool, 0, len(infos))
	for _, info := range infos {
		act, err := s.registry.Get(info.Name)
		if err != nil {
			s.logger.Warn("skipping unregistered action", slog.String("action", info.Name))
			continue
		}
		out = append(out, server.ServerTool{
			Tool:    actionTool(act),
			Handler: s.handleAction(act),
		})
	}
	return out
}

// actionTool describes an action as an MCP tool.
func actionTool(act actions.Action) mcp.Tool {
	sch := act.Schema()
	input := sch.InputSchema
	if len(input) == 0 || !json.Valid(input) {
		input = emptyObjectSchema
	}
	desc := sch.Description
	if desc == "" {
		desc = fmt.Sprintf("Run the %s action", act.Name())
	}
	return mcp.NewToolWithRawSchema(act.Name(), desc, input)
}

// handleAction returns the handler that runs act with the call's arguments.
// Action failures become tool errors so the agent can read them.
func (s *ToolServer) handleAction(act actions.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
		start := time.Now()

		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		out, err := act.Execute(ctx, actions.ActionInput{Params: args})
		if err != nil {
			s.logger.WarnContext(ctx, "tool call failed",
				slog.String("action", act.Name()),
				slog.String("code", schema.CodeOf(err)),
				slog.String("error", err.Error()),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}

		s.logger.InfoContext(ctx, "tool call completed",
			slog.String("action", act.Name()),
			slog.Duration("duration", time.Since(start)),
		)
		return marshalResult(out.Data)
	}
}

// marshalResult converts an action payload to a JSON tool result.
func marshalResult(data json.RawMessage) (*mcp.CallToolResult, error) {
	if len(data) == 0 {
		data = json.RawMessage(`null`)
	}
	if !json.Valid(data) {
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultJSON(data)
}
