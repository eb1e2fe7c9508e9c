package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rendis/composiotools/internal/actions"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/internal/store"
)

// recordedAction appends every execution of the wrapped action to the
// node's execution log.
type recordedAction struct {
	actions.Action
	nodeID   string
	entityID string
	store    store.Store
	logger   *slog.Logger
}

func recordAll(acts []actions.Action, nodeID, entityID string, st store.Store, logger *slog.Logger) []actions.Action {
	out := make([]actions.Action, len(acts))
	for i, a := range acts {
		out[i] = &recordedAction{Action: a, nodeID: nodeID, entityID: entityID, store: st, logger: logger}
	}
	return out
}

func (r *recordedAction) Execute(ctx context.Context, input actions.ActionInput) (*actions.ActionOutput, error) {
	start := time.Now()
	out, err := r.Action.Execute(ctx, input)

	exec := &store.Execution{
		NodeID:     r.nodeID,
		Action:     r.Name(),
		EntityID:   r.entityID,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if raw, mErr := json.Marshal(input.Params); mErr == nil {
		exec.Input = raw
	}
	if err != nil {
		exec.Error = err.Error()
	} else if out != nil {
		exec.Output = out.Data
	}

	// A failed write must not mask the action result.
	if aErr := r.store.AppendExecution(context.WithoutCancel(ctx), exec); aErr != nil {
		r.logger.WarnContext(logging.WithNodeID(ctx, r.nodeID), "record execution failed",
			slog.String("action", r.Name()),
			slog.String("error", aErr.Error()),
		)
	}
	return out, err
}
