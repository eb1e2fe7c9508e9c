package composio

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rendis/composiotools/pkg/schema"
)

// GetConnection returns the most recent active connection of app for the
// entity. A missing connection is reported as ErrCodeNotFound.
func (c *HTTPClient) GetConnection(ctx context.Context, entityID, app string) (*Connection, error) {
	conns, err := c.ListConnections(ctx, entityID)
	if err != nil {
		return nil, err
	}

	key := NormalizeAppKey(app)
	// The vendor lists newest first.
	for i := range conns {
		if NormalizeAppKey(conns[i].AppUniqueID) == key && conns[i].Active() {
			conn := conns[i]
			return &conn, nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeNotFound, "no %s connection for entity %q", key, entityID)
}

// ListConnections returns every active connected account of the entity,
// following pagination.
func (c *HTTPClient) ListConnections(ctx context.Context, entityID string) ([]Connection, error) {
	if entityID == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "entity id is empty")
	}

	var all []Connection
	page := 1
	for {
		q := url.Values{}
		q.Set("user_uuid", entityID)
		q.Set("showActiveOnly", "true")
		q.Set("page", strconv.Itoa(page))

		var resp listResponse[Connection]
		if err := c.get(ctx, "/api/v1/connectedAccounts", q, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)

		if resp.TotalPages <= page || len(resp.Items) == 0 {
			break
		}
		page++
	}

	if all == nil {
		all = []Connection{}
	}
	return all, nil
}

type integration struct {
	ID              string `json:"id"`
	AppID           string `json:"appId,omitempty"`
	AppName         string `json:"appName,omitempty"`
	AuthScheme      string `json:"authScheme,omitempty"`
	UseComposioAuth bool   `json:"useComposioAuth"`
}

type createIntegrationBody struct {
	Name            string            `json:"name"`
	AppID           string            `json:"appId"`
	AuthScheme      string            `json:"authScheme"`
	UseComposioAuth bool              `json:"useComposioAuth"`
	AuthConfig      map[string]string `json:"authConfig,omitempty"`
}

type createConnectionBody struct {
	IntegrationID string            `json:"integrationId"`
	EntityID      string            `json:"entityId"`
	Data          map[string]string `json:"data,omitempty"`
	RedirectURI   string            `json:"redirectUri,omitempty"`
}

// InitiateConnection starts authorizing an app for an entity: it resolves
// or creates an integration, then creates a connected account under it.
// Link-based schemes come back with a RedirectURL for the user to visit.
func (c *HTTPClient) InitiateConnection(ctx context.Context, req ConnectionRequest) (*ConnectionRequestResult, error) {
	if req.EntityID == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "entity id is empty")
	}
	app, err := c.GetApp(ctx, req.App)
	if err != nil {
		return nil, fmt.Errorf("initiate connection: %w", err)
	}

	mode := req.AuthMode
	if mode == "" {
		mode = app.PrimaryAuthMode()
	}

	integrationID, err := c.resolveIntegration(ctx, app, mode, req)
	if err != nil {
		return nil, fmt.Errorf("initiate connection: %w", err)
	}

	var result ConnectionRequestResult
	body := createConnectionBody{
		IntegrationID: integrationID,
		EntityID:      req.EntityID,
		Data:          req.AuthConfig,
		RedirectURI:   req.RedirectURL,
	}
	if err := c.post(ctx, "/api/v1/connectedAccounts", body, &result); err != nil {
		return nil, fmt.Errorf("initiate connection: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) resolveIntegration(ctx context.Context, app *App, mode AuthMode, req ConnectionRequest) (string, error) {
	if !req.ForceNewIntegration {
		q := url.Values{}
		q.Set("appName", app.Key)
		var existing listResponse[integration]
		if err := c.get(ctx, "/api/v1/integrations", q, &existing); err != nil {
			return "", err
		}
		for _, in := range existing.Items {
			if in.AuthScheme == string(mode) && in.UseComposioAuth == req.UseComposioAuth {
				return in.ID, nil
			}
		}
	}

	body := createIntegrationBody{
		Name:            fmt.Sprintf("%s_%d", app.Key, time.Now().UnixNano()),
		AppID:           app.AppID,
		AuthScheme:      string(mode),
		UseComposioAuth: req.UseComposioAuth,
		AuthConfig:      req.AuthConfig,
	}
	var created integration
	if err := c.post(ctx, "/api/v1/integrations", body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", schema.NewErrorf(schema.ErrCodeVendor, "composio: integration for %s created without id", app.Key)
	}
	return created.ID, nil
}
