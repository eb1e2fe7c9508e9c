package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rendis/composiotools/internal/actions"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/pkg/mcp"
)

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve <node-id>",
		Short: "Serve a node's tools over MCP on stdio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := logging.WithNodeID(cmd.Context(), args[0])
			srv, err := newNodeToolServer(cmd, a, args[0])
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
}

func newNodeToolServer(cmd *cobra.Command, a *app, nodeID string) (*mcp.ToolServer, error) {
	ctx := logging.WithNodeID(cmd.Context(), nodeID)
	tools, err := buildTools(ctx, a, nodeID)
	if err != nil {
		return nil, err
	}

	reg := actions.NewRegistry()
	if _, err := reg.RegisterAll(tools); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "serving tools", slog.Int("count", reg.Count()))

	return mcp.NewToolServer(mcp.ToolServerDeps{
		Registry: reg,
		Logger:   a.logger,
		Version:  version,
	}), nil
}
