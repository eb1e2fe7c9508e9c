package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rendis/composiotools/internal/component"
	"github.com/rendis/composiotools/internal/logging"
	"github.com/rendis/composiotools/internal/secrets"
	"github.com/rendis/composiotools/internal/store"
	"github.com/rendis/composiotools/internal/validation"
	"github.com/rendis/composiotools/pkg/schema"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg       Config
	store     store.Store
	creds     *secrets.Credentials // nil without a vault passphrase
	component *component.Component
	validator validation.Validator
	logger    *slog.Logger
}

func newLogger(level string) *slog.Logger {
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(level)})
	return slog.New(logging.NewCorrelationHandler(inner))
}

// openApp opens and migrates the store and builds the component.
// opts lets tests inject a fake vendor client.
func openApp(ctx context.Context, cfg Config, opts component.Options) (*app, error) {
	logger := opts.Logger
	if logger == nil {
		logger = newLogger(cfg.LogLevel)
		opts.Logger = logger
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "create data directory").WithCause(err)
	}
	st, err := store.NewLibSQLStore(cfg.dsn())
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	a := &app{cfg: cfg, store: st, logger: logger}

	if vc, err := cfg.vaultConfig(); err == nil {
		vault, err := secrets.NewAESVault(st, vc)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		a.creds = secrets.NewCredentials(vault)
	}

	if opts.Validator == nil {
		v, err := validation.NewJSONSchemaValidator()
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		opts.Validator = v
	}
	a.validator = opts.Validator
	if opts.BaseURL == "" {
		opts.BaseURL = cfg.BaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = cfg.timeout()
	}
	a.component = component.New(opts)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// loadNode is readNode for nodes whose persisted config must be well formed.
// A malformed config is a VALIDATION_ERROR.
func (a *app) loadNode(ctx context.Context, id string) (*store.Node, error) {
	node, err := a.readNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.validator.ValidateBuildConfig(node.Config); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "node %s has a malformed config", id).WithCause(err)
	}
	return node, nil
}

// readNode fetches a node and injects its API key into the config.
// Nodes without a stored key fall back to the configured default key.
func (a *app) readNode(ctx context.Context, id string) (*store.Node, error) {
	node, err := a.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.Config == nil {
		node.Config = component.DefaultBuildConfig()
	}
	key, err := a.apiKey(ctx, id)
	if err != nil {
		return nil, err
	}
	node.Config.SetValue(component.FieldAPIKey, key)
	return node, nil
}

func (a *app) apiKey(ctx context.Context, nodeID string) (string, error) {
	if a.creds == nil {
		return a.cfg.APIKey, nil
	}
	key, err := a.creds.APIKey(ctx, nodeID)
	if schema.IsNotFound(err) {
		return a.cfg.APIKey, nil
	}
	return key, err
}

// saveNode persists a node with the API key stripped from its config.
func (a *app) saveNode(ctx context.Context, node *store.Node) error {
	cp := *node
	cp.Config = node.Config.Clone()
	cp.Config.SetValue(component.FieldAPIKey, "")
	if err := a.store.SaveNode(ctx, &cp); err != nil {
		return err
	}
	node.CreatedAt, node.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	return nil
}

// putAPIKey stores a node's key in the vault.
func (a *app) putAPIKey(ctx context.Context, nodeID, key string) error {
	if a.creds == nil {
		_, err := a.cfg.vaultConfig()
		return err
	}
	return a.creds.PutAPIKey(ctx, nodeID, key)
}

func (a *app) deleteNode(ctx context.Context, id string) error {
	if err := a.store.DeleteNode(ctx, id); err != nil {
		return err
	}
	if a.creds != nil {
		return a.creds.Forget(ctx, id)
	}
	return nil
}
