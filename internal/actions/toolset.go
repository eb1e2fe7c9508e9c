package actions

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/internal/validation"
	"github.com/rendis/composiotools/pkg/schema"
)

// Toolset materializes selected action identifiers into callable tools.
type Toolset struct {
	client    composio.Client
	entityID  string
	validator validation.Validator
	logger    *slog.Logger
}

// NewToolset creates a Toolset bound to an entity.
func NewToolset(client composio.Client, entityID string, validator validation.Validator, logger *slog.Logger) *Toolset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolset{
		client:    client,
		entityID:  entityID,
		validator: validator,
		logger:    logger,
	}
}

// GetTools returns one tool per requested identifier, in request order.
// Empty and repeated identifiers are skipped. Vendor errors propagate as-is.
func (t *Toolset) GetTools(ctx context.Context, names []string) ([]Action, error) {
	wanted := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := strings.ToUpper(strings.TrimSpace(n))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		wanted = append(wanted, key)
	}
	if len(wanted) == 0 {
		return []Action{}, nil
	}

	defs, err := t.client.ListActions(ctx, composio.ActionFilter{Actions: wanted})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]composio.Action, len(defs))
	for _, d := range defs {
		byName[strings.ToUpper(d.Name)] = d
	}

	tools := make([]Action, 0, len(wanted))
	for _, name := range wanted {
		def, ok := byName[name]
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeActionUnavailable, "action %q not found in catalog", name)
		}
		tools = append(tools, NewComposioAction(def, t.entityID, t.client, t.validator))
	}

	t.logger.DebugContext(ctx, "materialized tools",
		slog.String("entity_id", t.entityID),
		slog.Int("count", len(tools)),
	)
	return tools, nil
}
