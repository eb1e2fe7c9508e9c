package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rendis/composiotools/internal/component"
	"github.com/rendis/composiotools/internal/expressions"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/internal/store"
	"github.com/rendis/composiotools/pkg/schema"
)

// editableFields are the fields `node set` accepts.
var editableFields = []string{
	component.FieldAPIKey,
	component.FieldEntityID,
	component.FieldAppNames,
	component.FieldAuthStatus,
	component.FieldActionNames,
}

// nodeView is the listing form of a node. It never carries the API key.
type nodeView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	EntityID      string    `json:"entity_id"`
	App           string    `json:"app,omitempty"`
	AuthState     string    `json:"auth_state"`
	AuthStatus    string    `json:"auth_status"`
	AuthLink      string    `json:"auth_link,omitempty"`
	AppOptions    []string  `json:"app_options,omitempty"`
	Actions       []string  `json:"actions,omitempty"`
	ActionOptions []string  `json:"action_options,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func viewOf(n *store.Node) nodeView {
	cfg := n.Config
	v := nodeView{
		ID:         n.ID,
		Name:       n.Name,
		EntityID:   cfg.String(component.FieldEntityID),
		App:        component.NormalizeAppName(cfg.String(component.FieldAppNames)),
		AuthState:  string(schema.ParseAuthState(cfg.String(component.FieldAuthState))),
		AuthStatus: cfg.String(component.FieldAuthStatus),
		AuthLink:   cfg.String(component.FieldAuthLink),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
	if f, ok := cfg[component.FieldAppNames]; ok && f != nil {
		v.AppOptions = f.Options
	}
	if f, ok := cfg[component.FieldActionNames]; ok && f != nil {
		v.ActionOptions = f.Options
	}
	for _, a := range cfg.Strings(component.FieldActionNames) {
		if a != "" {
			v.Actions = append(v.Actions, a)
		}
	}
	return v
}

func printNode(cmd *cobra.Command, n *store.Node) error {
	v := viewOf(n)
	if jsonMode(cmd) {
		return printJSON(cmd.OutOrStdout(), v)
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "ID\t%s\n", v.ID)
	fmt.Fprintf(w, "NAME\t%s\n", orDash(v.Name))
	fmt.Fprintf(w, "ENTITY\t%s\n", orDash(v.EntityID))
	fmt.Fprintf(w, "APP\t%s\n", orDash(v.App))
	fmt.Fprintf(w, "AUTH STATUS\t%s\n", orDash(v.AuthStatus))
	fmt.Fprintf(w, "AUTH LINK\t%s\n", orDash(v.AuthLink))
	fmt.Fprintf(w, "ACTIONS\t%s\n", orDash(strings.Join(v.Actions, ", ")))
	fmt.Fprintf(w, "APP OPTIONS\t%s\n", orDash(strings.Join(v.AppOptions, ", ")))
	fmt.Fprintf(w, "ACTION OPTIONS\t%s\n", orDash(strings.Join(v.ActionOptions, ", ")))
	return w.Flush()
}

func newNodeCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Create, edit and inspect nodes",
	}
	cmd.AddCommand(
		newNodeInitCommand(e),
		newNodeSetCommand(e),
		newNodeShowCommand(e),
		newNodeListCommand(e),
		newNodeDeleteCommand(e),
		newNodeCheckCommand(e),
	)
	return cmd
}

func newNodeInitCommand(e *env) *cobra.Command {
	var name, entity, apiKey string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a node with the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			node := &store.Node{ID: uuid.NewString(), Name: name, Config: component.DefaultBuildConfig()}
			if entity != "" {
				node.Config.SetValue(component.FieldEntityID, entity)
			}
			ctx := logging.WithNodeID(cmd.Context(), node.ID)
			if err := a.saveNode(ctx, node); err != nil {
				return err
			}

			if apiKey != "" {
				if err := a.putAPIKey(ctx, node.ID, apiKey); err != nil {
					return err
				}
			} else {
				apiKey = a.cfg.APIKey
			}
			if apiKey != "" {
				if err := applyEdit(ctx, a, node, component.FieldAPIKey, apiKey); err != nil {
					return err
				}
			}
			return printNode(cmd, node)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Node display name")
	cmd.Flags().StringVar(&entity, "entity-id", "", "Composio entity ID (default \"default\")")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Composio API key to store for this node")
	return cmd
}

// applyEdit runs one field edit through the component and persists the
// node. The node is saved even when the refresh fails.
func applyEdit(ctx context.Context, a *app, node *store.Node, field string, value any) error {
	node.Config.SetValue(field, value)
	cfg, editErr := a.component.UpdateBuildConfig(ctx, node.Config, value, field)
	if cfg != nil {
		node.Config = cfg
	}
	if err := a.saveNode(ctx, node); err != nil {
		return err
	}
	return editErr
}

func parseFieldValue(field, raw string) any {
	if field != component.FieldActionNames {
		return raw
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newNodeSetCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <node-id> <field> <value>",
		Short: "Edit a node field and refresh dependent fields",
		Long: "Edit a node field. Editable fields: " + strings.Join(editableFields, ", ") + ".\n" +
			"action_names takes a comma-separated list. api_key is stored in the vault.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, field, raw := args[0], args[1], args[2]
			if !isEditable(field) {
				return schema.NewErrorf(schema.ErrCodeValidation, "field %q is not editable", field).WithField(field)
			}

			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := logging.WithNodeID(cmd.Context(), id)
			node, err := a.loadNode(ctx, id)
			if err != nil {
				return err
			}
			if field == component.FieldAPIKey {
				if err := a.putAPIKey(ctx, id, raw); err != nil {
					return err
				}
			}
			if err := applyEdit(ctx, a, node, field, parseFieldValue(field, raw)); err != nil {
				return err
			}
			return printNode(cmd, node)
		},
	}
}

func isEditable(field string) bool {
	for _, f := range editableFields {
		if f == field {
			return true
		}
	}
	return false
}

func newNodeShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <node-id>",
		Short: "Show a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			node, err := a.store.GetNode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printNode(cmd, node)
		},
	}
}

func newNodeListCommand(e *env) *cobra.Command {
	var (
		name  string
		where string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes",
		Long: "List nodes. --where takes an expr predicate over the node fields " +
			"(id, name, entity_id, app, auth_state, actions), e.g. 'auth_state == \"connected\"'.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			nodes, err := a.store.ListNodes(cmd.Context(), store.NodeFilter{Name: name, Limit: limit})
			if err != nil {
				return err
			}

			views := make([]nodeView, 0, len(nodes))
			engine := expressions.NewExprEngine()
			for _, n := range nodes {
				v := viewOf(n)
				if where != "" {
					ok, err := matchView(cmd.Context(), engine, where, v)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
				}
				views = append(views, v)
			}

			if jsonMode(cmd) {
				return printJSON(cmd.OutOrStdout(), views)
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tAPP\tSTATUS\tACTIONS")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", v.ID, orDash(v.Name), orDash(v.App), orDash(v.AuthStatus), len(v.Actions))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Only nodes with this name")
	cmd.Flags().StringVar(&where, "where", "", "expr predicate nodes must satisfy")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of nodes")
	return cmd
}

func matchView(ctx context.Context, e expressions.Engine, where string, v any) (bool, error) {
	data, err := expressions.ToData(v)
	if err != nil {
		return false, err
	}
	return expressions.Match(ctx, e, where, data)
}

func newNodeDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <node-id>",
		Short: "Delete a node, its execution log and its stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.deleteNode(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func newNodeCheckCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check <node-id>",
		Short: "Report configuration problems without calling the vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			node, err := a.readNode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := a.component.Check(node.Config)

			if jsonMode(cmd) {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "SEVERITY\tFIELD\tCODE\tMESSAGE")
				for _, is := range append(result.Errors, result.Warnings...) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", is.Severity, is.Field, is.Code, is.Message)
				}
				fmt.Fprintln(w, result.String())
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return result.ToError()
		},
	}
}
