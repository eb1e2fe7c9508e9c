package component

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/pkg/schema"
)

// resolveAuthStatus determines the auth state of app for the entity.
// It never returns an error: failures are reported as AuthFailed.
func (c *Component) resolveAuthStatus(ctx context.Context, client composio.Client, entity, app string) schema.AuthStatus {
	_, err := client.GetConnection(ctx, entity, app)
	if err == nil {
		return schema.AuthStatus{State: schema.AuthConnected, App: app}
	}
	if !schema.IsNotFound(err) {
		return c.authFailed(ctx, app, err)
	}
	c.logger.DebugContext(ctx, "no connection for app", slog.String("app", app))

	desc, err := client.GetApp(ctx, app)
	if err != nil {
		return c.authFailed(ctx, app, err)
	}

	mode := desc.PrimaryAuthMode()
	switch mode {
	case "":
		return c.authFailed(ctx, app, schema.NewErrorf(schema.ErrCodeVendor, "app %s declares no auth scheme", app))
	case composio.AuthModeAPIKey:
		return schema.AuthStatus{State: schema.AuthAwaitingAPIKey, App: app}
	}

	res, err := client.InitiateConnection(ctx, composio.ConnectionRequest{
		EntityID:            entity,
		App:                 app,
		UseComposioAuth:     true,
		ForceNewIntegration: true,
	})
	if err != nil {
		return c.authFailed(ctx, app, err)
	}
	if res.RedirectURL == "" {
		return c.authFailed(ctx, app, schema.NewErrorf(schema.ErrCodeVendor, "no redirect url returned for %s (%s)", app, mode))
	}
	return schema.AuthStatus{State: schema.AuthAwaitingLink, App: app, Link: res.RedirectURL}
}

// submitAPIKey connects app using key as the app's own credential.
func (c *Component) submitAPIKey(ctx context.Context, client composio.Client, entity, app, key string) schema.AuthStatus {
	_, err := client.InitiateConnection(ctx, composio.ConnectionRequest{
		EntityID:            entity,
		App:                 app,
		AuthMode:            composio.AuthModeAPIKey,
		AuthConfig:          map[string]string{"api_key": key},
		UseComposioAuth:     false,
		ForceNewIntegration: true,
	})
	if err != nil {
		return c.authFailed(ctx, app, err)
	}
	c.logger.InfoContext(ctx, "app connected with api key", slog.String("app", app))
	return schema.AuthStatus{State: schema.AuthConnected, App: app}
}

func (c *Component) authFailed(ctx context.Context, app string, err error) schema.AuthStatus {
	c.logger.ErrorContext(ctx, "error checking auth status",
		slog.String("app", app),
		slog.String("error", err.Error()),
	)
	return schema.AuthStatus{State: schema.AuthFailed, App: app, Message: errorMessage(err)}
}

// errorMessage strips the structured error prefix so the UI shows the
// vendor's own message.
func errorMessage(err error) string {
	var te *schema.ToolsetError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return strings.TrimSpace(err.Error())
}
