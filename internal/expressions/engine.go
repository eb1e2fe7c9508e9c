// Package expressions evaluates user-supplied jq transforms and expr
// predicates in the CLI.
package expressions

import (
	"context"
	"encoding/json"

	"github.com/rendis/composiotools/pkg/schema"
)

// Engine evaluates an expression against decoded JSON data. Match is its
// consumer; the CLI's --where predicates run on ExprEngine through it.
// GoJQEngine also satisfies it, but output transforms use EvaluateAll.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data any) (any, error)
}

// Match evaluates a predicate and requires a boolean result.
func Match(ctx context.Context, e Engine, expression string, data any) (bool, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeValidation,
			"%s expression %q returned %T, want bool", e.Name(), expression, out)
	}
	return b, nil
}

// FromJSON decodes raw into the generic form both engines expect.
// Empty input decodes to nil.
func FromJSON(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "invalid JSON input").WithCause(err)
	}
	return v, nil
}

// ToData round-trips v through JSON so struct values become maps.
func ToData(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "encode expression data").WithCause(err)
	}
	return FromJSON(raw)
}
