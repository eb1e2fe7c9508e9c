// Package component implements the Composio Tools node: it maps field edits
// of a node's BuildConfig onto Composio client calls and materializes the
// selected actions as tools.
package component

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/composiotools/internal/actions"
	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/internal/validation"
	"github.com/rendis/composiotools/pkg/schema"
)

// Component metadata shown by hosts.
const (
	Name        = "ComposioAPI"
	DisplayName = "Composio Tools"
	Description = "Use Composio toolset to run actions with your agent"
)

// ClientFactory builds a vendor client for an API key.
type ClientFactory func(apiKey string) (composio.Client, error)

// Options configures a Component.
type Options struct {
	// ClientFactory overrides the REST client; BaseURL and Timeout are
	// ignored when it is set.
	ClientFactory ClientFactory
	BaseURL       string
	Timeout       time.Duration
	Validator     validation.Validator
	Logger        *slog.Logger
}

// updateHandler applies one field edit. value has already been stored in cfg.
type updateHandler func(c *Component, ctx context.Context, cfg schema.BuildConfig, value any) error

// updateHandlers is the dispatch table for UpdateBuildConfig.
var updateHandlers = map[string]updateHandler{
	FieldAPIKey:     (*Component).onCredentialsChange,
	FieldEntityID:   (*Component).onCredentialsChange,
	FieldAppNames:   (*Component).onAppChange,
	FieldAuthStatus: (*Component).onAuthStatusChange,
}

// Component is stateless between calls: all node state lives in the
// BuildConfig passed in. It is safe for concurrent use.
type Component struct {
	newClient ClientFactory
	validator validation.Validator
	logger    *slog.Logger
}

// New creates a Component.
func New(opts Options) *Component {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	factory := opts.ClientFactory
	if factory == nil {
		baseURL, timeout := opts.BaseURL, opts.Timeout
		factory = func(apiKey string) (composio.Client, error) {
			return composio.NewHTTPClient(composio.Config{
				APIKey:  apiKey,
				BaseURL: baseURL,
				Timeout: timeout,
				Logger:  logger,
			})
		}
	}
	return &Component{
		newClient: factory,
		validator: opts.Validator,
		logger:    logger,
	}
}

// UpdateBuildConfig applies an edit of fieldName to cfg and refreshes the
// dependent fields. cfg is mutated in place and returned. Edits of fields
// without a handler return cfg untouched.
//
// Only credential refreshes return errors; auth resolution failures are
// reported through the auth_status field.
func (c *Component) UpdateBuildConfig(ctx context.Context, cfg schema.BuildConfig, fieldValue any, fieldName string) (schema.BuildConfig, error) {
	handler, ok := updateHandlers[fieldName]
	if !ok {
		return cfg, nil
	}
	if cfg == nil {
		cfg = DefaultBuildConfig()
	}
	cfg.SetValue(fieldName, fieldValue)

	ctx = logging.WithIDs(ctx, logging.NodeID(ctx), fieldName, entityID(cfg))
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	c.logger.DebugContext(ctx, "build config update")

	if err := handler(c, ctx, cfg, fieldValue); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// onCredentialsChange refreshes the app dropdown when a key is present.
func (c *Component) onCredentialsChange(ctx context.Context, cfg schema.BuildConfig, _ any) error {
	key := cfg.String(FieldAPIKey)
	if key == "" {
		return nil
	}
	client, err := c.newClient(key)
	if err != nil {
		return err
	}
	return c.refreshAppOptions(ctx, client, cfg)
}

// onAppChange resolves the auth status of the chosen app and lists its actions.
func (c *Component) onAppChange(ctx context.Context, cfg schema.BuildConfig, _ any) error {
	key := cfg.String(FieldAPIKey)
	if key == "" {
		return nil
	}
	app := NormalizeAppName(cfg.String(FieldAppNames))
	if app == "" {
		applyStatus(cfg, schema.AuthStatus{State: schema.AuthNotConnected})
		cfg.SetOptions(FieldActionNames, []string{})
		cfg.SetValue(FieldActionNames, []string{""})
		return nil
	}

	client, err := c.newClient(key)
	if err != nil {
		applyStatus(cfg, c.authFailed(ctx, app, err))
		cfg.SetOptions(FieldActionNames, []string{})
		cfg.SetValue(FieldActionNames, []string{""})
		return nil
	}

	applyStatus(cfg, c.resolveAuthStatus(ctx, client, entityID(cfg), app))
	c.refreshActionOptions(ctx, client, cfg, app)
	return nil
}

// onAuthStatusChange treats an edit as the app's API key while one is
// awaited. Any other edit restores the rendered status.
func (c *Component) onAuthStatusChange(ctx context.Context, cfg schema.BuildConfig, value any) error {
	app := NormalizeAppName(cfg.String(FieldAppNames))
	state := schema.ParseAuthState(cfg.String(FieldAuthState))
	submitted, _ := value.(string)
	submitted = strings.TrimSpace(submitted)

	current := schema.AuthStatus{State: state, App: app, Link: cfg.String(FieldAuthLink)}
	if state == schema.AuthFailed {
		// The failure message is only kept in the rendered text.
		current = schema.AuthStatus{State: schema.AuthNotConnected, App: app}
	}

	if state != schema.AuthAwaitingAPIKey || app == "" || submitted == "" || schema.IsRenderedText(submitted, app) {
		applyStatus(cfg, current)
		return nil
	}

	key := cfg.String(FieldAPIKey)
	if key == "" {
		applyStatus(cfg, current)
		return nil
	}
	client, err := c.newClient(key)
	if err != nil {
		applyStatus(cfg, c.authFailed(ctx, app, err))
		return nil
	}
	applyStatus(cfg, c.submitAPIKey(ctx, client, entityID(cfg), app, submitted))
	return nil
}

// BuildTools materializes the node's selected actions.
func (c *Component) BuildTools(ctx context.Context, cfg schema.BuildConfig) ([]actions.Action, error) {
	key := cfg.String(FieldAPIKey)
	client, err := c.newClient(key)
	if err != nil {
		return nil, err
	}
	entity := entityID(cfg)
	ctx = logging.WithEntityID(ctx, entity)
	return actions.NewToolset(client, entity, c.validator, c.logger).GetTools(ctx, cfg.Strings(FieldActionNames))
}
