package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rendis/composiotools/internal/actions"
	"github.com/rendis/composiotools/internal/component"
	"github.com/rendis/composiotools/internal/expressions"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/internal/store"
	"github.com/rendis/composiotools/pkg/schema"
)

func newToolsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and run a node's tools",
	}
	cmd.AddCommand(
		newToolsListCommand(e),
		newToolsExecCommand(e),
		newToolsHistoryCommand(e),
	)
	return cmd
}

// buildTools materializes the node's selected actions, each recording its
// executions.
func buildTools(ctx context.Context, a *app, nodeID string) ([]actions.Action, error) {
	node, err := a.loadNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	tools, err := a.component.BuildTools(ctx, node.Config)
	if err != nil {
		return nil, err
	}
	entity := node.Config.String(component.FieldEntityID)
	if entity == "" {
		entity = component.DefaultEntityID
	}
	return recordAll(tools, nodeID, entity, a.store, a.logger), nil
}

func infoOf(t actions.Action) actions.ActionInfo {
	s := t.Schema()
	return actions.ActionInfo{Name: t.Name(), Description: s.Description, App: s.App}
}

func newToolsListCommand(e *env) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "list <node-id>",
		Short: "List the tools a node provides",
		Long:  "List the tools a node provides. --where takes an expr predicate over name, description and app.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := logging.WithNodeID(cmd.Context(), args[0])
			tools, err := buildTools(ctx, a, args[0])
			if err != nil {
				return err
			}

			engine := expressions.NewExprEngine()
			infos := make([]actions.ActionInfo, 0, len(tools))
			for _, t := range tools {
				info := infoOf(t)
				if where != "" {
					ok, err := matchView(ctx, engine, where, info)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
				}
				infos = append(infos, info)
			}

			if jsonMode(cmd) {
				return printJSON(cmd.OutOrStdout(), infos)
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tAPP\tDESCRIPTION")
			for _, i := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", i.Name, orDash(i.App), orDash(i.Description))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "expr predicate tools must satisfy")
	return cmd
}

// parseParams decodes the --input object. Empty input means no parameters.
func parseParams(raw string) (map[string]any, error) {
	v, err := expressions.FromJSON([]byte(raw))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "input must be a JSON object, got %T", v)
	}
	return m, nil
}

func findTool(tools []actions.Action, name string) (actions.Action, error) {
	for _, t := range tools {
		if strings.EqualFold(t.Name(), name) {
			return t, nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeActionUnavailable, "action %q is not selected on this node", name)
}

func newToolsExecCommand(e *env) *cobra.Command {
	var input, jq string
	cmd := &cobra.Command{
		Use:   "exec <node-id> <action>",
		Short: "Run one of a node's tools",
		Long: "Run one of a node's tools. --input is a JSON object of action parameters; " +
			"--jq transforms the result, printing one JSON value per output.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(input)
			if err != nil {
				return err
			}

			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := logging.WithNodeID(cmd.Context(), args[0])
			tools, err := buildTools(ctx, a, args[0])
			if err != nil {
				return err
			}
			tool, err := findTool(tools, args[1])
			if err != nil {
				return err
			}

			out, err := tool.Execute(ctx, actions.ActionInput{Params: params})
			if err != nil {
				return err
			}
			return printResult(ctx, cmd, out.Data, jq)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Action parameters as a JSON object")
	cmd.Flags().StringVar(&jq, "jq", "", "jq filter applied to the result")
	return cmd
}

func printResult(ctx context.Context, cmd *cobra.Command, data json.RawMessage, jq string) error {
	if jq == "" {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		return printJSON(cmd.OutOrStdout(), v)
	}

	v, err := expressions.FromJSON(data)
	if err != nil {
		return err
	}
	results, err := expressions.NewGoJQEngine().EvaluateAll(ctx, jq, v)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := printJSON(cmd.OutOrStdout(), r); err != nil {
			return err
		}
	}
	return nil
}

func newToolsHistoryCommand(e *env) *cobra.Command {
	var (
		action string
		since  int64
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history <node-id>",
		Short: "Show a node's execution log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			execs, err := a.store.ListExecutions(cmd.Context(), args[0], store.ExecutionFilter{
				Action: action,
				Since:  since,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if jsonMode(cmd) {
				return printJSON(cmd.OutOrStdout(), execs)
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "SEQ\tACTION\tENTITY\tDURATION\tERROR\tAT")
			for _, x := range execs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%dms\t%s\t%s\n",
					x.Sequence, x.Action, x.EntityID, x.DurationMs, orDash(x.Error), x.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "Only executions of this action")
	cmd.Flags().Int64Var(&since, "since", 0, "Only executions after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of executions")
	return cmd
}
