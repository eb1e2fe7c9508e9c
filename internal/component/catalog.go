package component

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/pkg/schema"
)

// NormalizeAppName strips the connected marker from a dropdown value,
// ignoring case.
func NormalizeAppName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= len(connectedSuffix) && strings.EqualFold(name[len(name)-len(connectedSuffix):], connectedSuffix) {
		return name[:len(name)-len(connectedSuffix)]
	}
	return name
}

// refreshAppOptions lists the app catalog with the entity's connected apps
// first, marked with the connected suffix.
func (c *Component) refreshAppOptions(ctx context.Context, client composio.Client, cfg schema.BuildConfig) error {
	entity := entityID(cfg)

	apps, err := client.ListApps(ctx)
	if err != nil {
		return fmt.Errorf("list apps: %w", err)
	}
	conns, err := client.ListConnections(ctx, entity)
	if err != nil {
		return fmt.Errorf("list connections for entity %q: %w", entity, err)
	}

	connected := make(map[string]bool, len(conns))
	for _, conn := range conns {
		connected[composio.NormalizeAppKey(conn.AppUniqueID)] = true
	}

	var on, off []string
	seen := make(map[string]bool, len(apps))
	for _, app := range apps {
		key := composio.NormalizeAppKey(app.Key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		label := strings.ToUpper(key)
		if connected[key] {
			on = append(on, label+connectedSuffix)
		} else {
			off = append(off, label)
		}
	}

	options := make([]string, 0, len(on)+len(off))
	options = append(options, on...)
	options = append(options, off...)
	cfg.SetOptions(FieldAppNames, options)

	value := ""
	if len(on) > 0 {
		value = on[0]
	}
	cfg.SetValue(FieldAppNames, value)

	c.logger.DebugContext(ctx, "app options refreshed",
		slog.Int("apps", len(options)),
		slog.Int("connected", len(on)),
	)
	return nil
}

// refreshActionOptions offers every catalog action whose identifier starts
// with "<app>_", whatever app the vendor files it under. A listing failure
// leaves no options.
func (c *Component) refreshActionOptions(ctx context.Context, client composio.Client, cfg schema.BuildConfig, app string) {
	options := []string{}

	acts, err := client.ListActions(ctx, composio.ActionFilter{})
	if err != nil {
		c.logger.ErrorContext(ctx, "error listing actions",
			slog.String("app", app),
			slog.String("error", err.Error()),
		)
	} else {
		options = filterActionNames(acts, app)
	}

	cfg.SetOptions(FieldActionNames, options)
	if len(options) > 0 {
		cfg.SetValue(FieldActionNames, []string{options[0]})
	} else {
		cfg.SetValue(FieldActionNames, []string{""})
	}
}

// filterActionNames keeps catalog order and drops duplicates.
func filterActionNames(acts []composio.Action, app string) []string {
	prefix := strings.ToLower(app) + "_"
	out := make([]string, 0, len(acts))
	seen := make(map[string]bool, len(acts))
	for _, a := range acts {
		if !strings.HasPrefix(strings.ToLower(a.Name), prefix) || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a.Name)
	}
	return out
}
