package actions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/internal/validation"
	"github.com/rendis/composiotools/pkg/schema"
)

// ComposioAction executes one vendor action on behalf of a fixed entity.
type ComposioAction struct {
	def       composio.Action
	entityID  string
	client    composio.Client
	validator validation.Validator
}

// NewComposioAction wraps a catalog entry. validator may be nil, in which
// case Validate accepts any input.
func NewComposioAction(def composio.Action, entityID string, client composio.Client, validator validation.Validator) *ComposioAction {
	return &ComposioAction{
		def:       def,
		entityID:  entityID,
		client:    client,
		validator: validator,
	}
}

func (a *ComposioAction) Name() string { return a.def.Name }

func (a *ComposioAction) Schema() ActionSchema {
	app := a.def.AppName
	if app == "" {
		if i := strings.Index(a.def.Name, "_"); i > 0 {
			app = strings.ToLower(a.def.Name[:i])
		}
	}
	return ActionSchema{
		Description:  a.def.Description,
		InputSchema:  a.def.Parameters,
		OutputSchema: a.def.Response,
		App:          app,
	}
}

func (a *ComposioAction) Validate(input map[string]any) error {
	if a.validator == nil {
		return nil
	}
	if err := a.validator.ValidateInput(input, a.def.Parameters); err != nil {
		return err
	}
	return nil
}

// Execute validates input and calls the vendor. A vendor result with
// successful=false becomes an ErrCodeExecution error carrying the payload.
func (a *ComposioAction) Execute(ctx context.Context, input ActionInput) (*ActionOutput, error) {
	params := input.Params
	if params == nil {
		params = map[string]any{}
	}
	if err := a.Validate(params); err != nil {
		return nil, err
	}

	res, err := a.client.ExecuteAction(ctx, composio.ExecuteRequest{
		Action:   a.def.Name,
		EntityID: a.entityID,
		Input:    params,
	})
	if err != nil {
		return nil, err
	}

	if !res.Successful {
		msg := res.Error
		if msg == "" {
			msg = "vendor reported an unsuccessful execution"
		}
		return nil, schema.NewErrorf(schema.ErrCodeExecution, "%s: %s", a.def.Name, msg).
			WithDetails(map[string]any{"data": json.RawMessage(res.Data)})
	}

	data := res.Data
	if len(data) == 0 {
		data = json.RawMessage(`null`)
	}
	return &ActionOutput{Data: data}, nil
}
