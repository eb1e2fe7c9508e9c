package actions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/internal/composio/composiotest"
	"github.com/rendis/composiotools/internal/validation"
	"github.com/rendis/composiotools/pkg/schema"
)

const starRepoParams = `{
	"type": "object",
	"required": ["owner", "repo"],
	"properties": {
		"owner": {"type": "string"},
		"repo": {"type": "string"}
	}
}`

func newFakeCatalog() *composiotest.FakeClient {
	fc := composiotest.NewFakeClient()
	fc.Actions = []composio.Action{
		{Name: "GITHUB_STAR_REPO", AppName: "github", Description: "Star a repository", Parameters: json.RawMessage(starRepoParams)},
		{Name: "GITHUB_LIST_REPOS", AppName: "github", Description: "List repositories"},
		{Name: "SLACK_SEND_MESSAGE", AppName: "slack", Description: "Send a message"},
	}
	return fc
}

func newTestValidator(t *testing.T) *validation.JSONSchemaValidator {
	t.Helper()
	v, err := validation.NewJSONSchemaValidator()
	require.NoError(t, err)
	return v
}

func TestToolset_GetTools_Order(t *testing.T) {
	fc := newFakeCatalog()
	ts := NewToolset(fc, "default", nil, nil)

	tools, err := ts.GetTools(context.Background(), []string{"SLACK_SEND_MESSAGE", "github_star_repo"})
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "SLACK_SEND_MESSAGE", tools[0].Name())
	assert.Equal(t, "GITHUB_STAR_REPO", tools[1].Name())
	assert.Equal(t, "github", tools[1].Schema().App)
	assert.Equal(t, "Star a repository", tools[1].Schema().Description)
}

func TestToolset_GetTools_SkipsEmptyAndDuplicates(t *testing.T) {
	fc := newFakeCatalog()
	ts := NewToolset(fc, "default", nil, nil)

	tools, err := ts.GetTools(context.Background(), []string{"", "GITHUB_LIST_REPOS", " ", "github_list_repos"})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "GITHUB_LIST_REPOS", tools[0].Name())
}

func TestToolset_GetTools_NothingSelected(t *testing.T) {
	fc := newFakeCatalog()
	ts := NewToolset(fc, "default", nil, nil)

	tools, err := ts.GetTools(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Empty(t, tools)
	assert.Empty(t, fc.Calls, "no vendor call without a selection")
}

func TestToolset_GetTools_UnknownAction(t *testing.T) {
	fc := newFakeCatalog()
	ts := NewToolset(fc, "default", nil, nil)

	_, err := ts.GetTools(context.Background(), []string{"NOTION_CREATE_PAGE"})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeActionUnavailable, schema.CodeOf(err))
}

func TestToolset_GetTools_VendorErrorPropagates(t *testing.T) {
	fc := newFakeCatalog()
	vendorErr := schema.NewError(schema.ErrCodeVendor, "catalog down")
	fc.ListActionsErr = vendorErr
	ts := NewToolset(fc, "default", nil, nil)

	_, err := ts.GetTools(context.Background(), []string{"GITHUB_STAR_REPO"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vendorErr))
}

func TestComposioAction_Execute(t *testing.T) {
	fc := newFakeCatalog()
	fc.Results["GITHUB_STAR_REPO"] = &composio.ExecuteResult{
		Data:       json.RawMessage(`{"starred":true}`),
		Successful: true,
	}
	ts := NewToolset(fc, "team-a", newTestValidator(t), nil)

	tools, err := ts.GetTools(context.Background(), []string{"GITHUB_STAR_REPO"})
	require.NoError(t, err)

	out, err := tools[0].Execute(context.Background(), ActionInput{
		Params: map[string]any{"owner": "rendis", "repo": "composiotools"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"starred":true}`, string(out.Data))

	require.Len(t, fc.Executed, 1)
	assert.Equal(t, "team-a", fc.Executed[0].EntityID)
	assert.Equal(t, "rendis", fc.Executed[0].Input["owner"])
}

func TestComposioAction_ValidateRejectsBadInput(t *testing.T) {
	fc := newFakeCatalog()
	ts := NewToolset(fc, "default", newTestValidator(t), nil)

	tools, err := ts.GetTools(context.Background(), []string{"GITHUB_STAR_REPO"})
	require.NoError(t, err)

	_, err = tools[0].Execute(context.Background(), ActionInput{
		Params: map[string]any{"owner": "rendis"},
	})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
	assert.Empty(t, fc.Executed)
}

func TestComposioAction_NoParametersSchema(t *testing.T) {
	fc := newFakeCatalog()
	ts := NewToolset(fc, "default", newTestValidator(t), nil)

	tools, err := ts.GetTools(context.Background(), []string{"GITHUB_LIST_REPOS"})
	require.NoError(t, err)
	assert.NoError(t, tools[0].Validate(map[string]any{"anything": 1}))
}

func TestComposioAction_Unsuccessful(t *testing.T) {
	fc := newFakeCatalog()
	fc.Results["SLACK_SEND_MESSAGE"] = &composio.ExecuteResult{
		Error:      "channel_not_found",
		Successful: false,
	}
	ts := NewToolset(fc, "default", nil, nil)

	tools, err := ts.GetTools(context.Background(), []string{"SLACK_SEND_MESSAGE"})
	require.NoError(t, err)

	_, err = tools[0].Execute(context.Background(), ActionInput{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeExecution, schema.CodeOf(err))
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestComposioAction_SchemaAppFallback(t *testing.T) {
	a := NewComposioAction(composio.Action{Name: "NOTION_CREATE_PAGE"}, "default", nil, nil)
	assert.Equal(t, "notion", a.Schema().App)
}
