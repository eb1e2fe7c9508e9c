package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/composiotools/pkg/schema"
)

func TestNewExprEngine(t *testing.T) {
	e := NewExprEngine()
	assert.Equal(t, "expr", e.Name())
}

func TestExpr_Predicate(t *testing.T) {
	e := NewExprEngine()
	row := map[string]any{"name": "GITHUB_STAR_REPO", "app": "github", "deprecated": false}

	ok, err := Match(context.Background(), e, `app == "github" && !deprecated`, row)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match(context.Background(), e, `name startsWith "SLACK_"`, row)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpr_UndefinedVariable(t *testing.T) {
	e := NewExprEngine()
	ok, err := Match(context.Background(), e, `missing == nil`, map[string]any{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpr_NonBoolPredicate(t *testing.T) {
	e := NewExprEngine()
	_, err := Match(context.Background(), e, `name`, map[string]any{"name": "x"})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestExpr_Errors(t *testing.T) {
	e := NewExprEngine()
	ctx := context.Background()

	_, err := e.Evaluate(ctx, "", nil)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	_, err = e.Evaluate(ctx, "app ==", nil)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	_, err = e.Evaluate(ctx, "true", []any{1})
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestToData(t *testing.T) {
	type row struct {
		Name string `json:"name"`
		App  string `json:"app,omitempty"`
	}
	data, err := ToData(row{Name: "GITHUB_STAR_REPO", App: "github"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "GITHUB_STAR_REPO", "app": "github"}, data)

	_, err = FromJSON([]byte(`{`))
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	v, err := FromJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
