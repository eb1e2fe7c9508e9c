// Command composiotools hosts Composio Tools nodes locally: it edits node
// configurations, runs the selected actions and serves them over MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rendis/composiotools/internal/component"
)

// env carries what commands need to open the app. Tests override opts.
type env struct {
	opts component.Options
}

func (e *env) open(cmd *cobra.Command) (*app, error) {
	return openApp(cmd.Context(), loadConfig(), e.opts)
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "composiotools",
		Short:         "Configure and run Composio Tools nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Output in JSON format")
	root.AddCommand(
		newNodeCommand(e),
		newToolsCommand(e),
		newServeCommand(e),
		newVersionCommand(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&env{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
