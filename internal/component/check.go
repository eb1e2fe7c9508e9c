package component

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rendis/composiotools/pkg/schema"
)

// Check reports problems that would keep cfg from producing useful tools.
// It makes no vendor calls.
func Check(cfg schema.BuildConfig) *schema.CheckResult {
	result := &schema.CheckResult{}

	if cfg.String(FieldAPIKey) == "" {
		result.AddError(FieldAPIKey, schema.ErrCodeValidation, "composio api key is required")
	}
	if cfg.String(FieldEntityID) == "" {
		result.AddWarning(FieldEntityID, schema.ErrCodeValidation,
			fmt.Sprintf("entity id is empty, %q will be used", DefaultEntityID))
	}

	app := NormalizeAppName(cfg.String(FieldAppNames))
	if app == "" {
		result.AddWarning(FieldAppNames, schema.ErrCodeValidation, "no app selected")
	} else if state := schema.ParseAuthState(cfg.String(FieldAuthState)); state != schema.AuthConnected {
		result.AddWarning(FieldAuthStatus, schema.ErrCodeUnauthorized,
			fmt.Sprintf("app %s is not connected (%s)", app, state))
	}

	var selected []string
	for _, name := range cfg.Strings(FieldActionNames) {
		if strings.TrimSpace(name) != "" {
			selected = append(selected, name)
		}
	}
	if len(selected) == 0 {
		result.AddError(FieldActionNames, schema.ErrCodeValidation, "no action selected")
	}

	if app != "" {
		prefix := strings.ToLower(app) + "_"
		for _, name := range selected {
			if !strings.HasPrefix(strings.ToLower(name), prefix) {
				result.AddWarning(FieldActionNames, schema.ErrCodeValidation,
					fmt.Sprintf("action %s does not belong to app %s", name, app))
			}
		}
	}

	return result
}

// Check runs the package-level Check and, when the component has a
// validator, reports a malformed config shape as an error.
func (c *Component) Check(cfg schema.BuildConfig) *schema.CheckResult {
	result := Check(cfg)
	if c.validator == nil {
		return result
	}
	if err := c.validator.ValidateBuildConfig(cfg); err != nil {
		field := ""
		var te *schema.ToolsetError
		if errors.As(err, &te) {
			field = te.Field
		}
		result.AddError(field, schema.ErrCodeValidation, errorMessage(err))
	}
	return result
}
