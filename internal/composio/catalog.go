package composio

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rendis/composiotools/pkg/schema"
)

// GetApp fetches one app descriptor, including its auth schemes.
func (c *HTTPClient) GetApp(ctx context.Context, app string) (*App, error) {
	key := NormalizeAppKey(app)
	if key == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "app name is empty")
	}

	var out App
	if err := c.get(ctx, "/api/v1/apps/"+url.PathEscape(key), nil, &out); err != nil {
		return nil, err
	}
	if out.Key == "" {
		out.Key = key
	}
	return &out, nil
}

// ListApps returns the vendor's app catalog.
func (c *HTTPClient) ListApps(ctx context.Context) ([]App, error) {
	var resp listResponse[App]
	if err := c.get(ctx, "/api/v1/apps", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []App{}, nil
	}
	return resp.Items, nil
}

// ListActions queries the action catalog, following pagination. Apps are
// sent lower-case, action names upper-case, matching the vendor's
// identifiers. A positive Limit caps the total number of actions returned.
func (c *HTTPClient) ListActions(ctx context.Context, filter ActionFilter) ([]Action, error) {
	base := url.Values{}
	if len(filter.Apps) > 0 {
		apps := make([]string, 0, len(filter.Apps))
		for _, a := range filter.Apps {
			apps = append(apps, NormalizeAppKey(a))
		}
		base.Set("apps", strings.Join(apps, ","))
	}
	if len(filter.Actions) > 0 {
		names := make([]string, 0, len(filter.Actions))
		for _, a := range filter.Actions {
			names = append(names, strings.ToUpper(strings.TrimSpace(a)))
		}
		base.Set("actions", strings.Join(names, ","))
	}
	if filter.Limit > 0 {
		base.Set("limit", strconv.Itoa(filter.Limit))
	}

	all := []Action{}
	page := 1
	for {
		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))

		var resp listResponse[Action]
		if err := c.get(ctx, "/api/v2/actions", q, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)

		if filter.Limit > 0 && len(all) >= filter.Limit {
			return all[:filter.Limit], nil
		}
		if resp.TotalPages <= page || len(resp.Items) == 0 {
			break
		}
		page++
	}
	return all, nil
}

type executeBody struct {
	EntityID           string         `json:"entityId,omitempty"`
	ConnectedAccountID string         `json:"connectedAccountId,omitempty"`
	Input              map[string]any `json:"input"`
}

// ExecuteAction runs an action for an entity. A vendor-reported failure
// (successful=false) is returned as a result, not an error.
func (c *HTTPClient) ExecuteAction(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	name := strings.ToUpper(strings.TrimSpace(req.Action))
	if name == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "action name is empty")
	}
	input := req.Input
	if input == nil {
		input = map[string]any{}
	}

	body := executeBody{
		EntityID:           req.EntityID,
		ConnectedAccountID: req.ConnectedAccountID,
		Input:              input,
	}
	var out ExecuteResult
	if err := c.post(ctx, "/api/v2/actions/"+url.PathEscape(name)+"/execute", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
