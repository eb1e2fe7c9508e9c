package component

import "github.com/rendis/composiotools/pkg/schema"

// Field names of the Composio Tools node.
const (
	FieldEntityID    = "entity_id"
	FieldAPIKey      = "api_key"
	FieldAppNames    = "app_names"
	FieldAuthLink    = "auth_link"
	FieldAuthStatus  = "auth_status"
	FieldActionNames = "action_names"
	FieldAuthState   = "auth_state"
)

// DefaultEntityID is the vendor entity used when the node does not set one.
const DefaultEntityID = "default"

// connectedSuffix marks connected apps in the app dropdown.
const connectedSuffix = "_CONNECTED"

// DefaultBuildConfig returns the node's initial configuration.
func DefaultBuildConfig() schema.BuildConfig {
	return schema.BuildConfig{
		FieldEntityID: {
			Name:        FieldEntityID,
			DisplayName: "Entity ID",
			Type:        schema.FieldMessageText,
			Value:       DefaultEntityID,
			Advanced:    true,
		},
		FieldAPIKey: {
			Name:          FieldAPIKey,
			DisplayName:   "Composio API Key",
			Type:          schema.FieldSecret,
			Value:         "",
			Required:      true,
			RefreshButton: true,
			Info:          "Refer to https://docs.composio.dev/introduction/foundations/howtos/get_api_key",
		},
		FieldAppNames: {
			Name:          FieldAppNames,
			DisplayName:   "App Name",
			Type:          schema.FieldDropdown,
			Value:         "",
			Options:       []string{},
			RefreshButton: true,
			Info:          "The app name to use. Please refresh after selecting app name",
		},
		FieldAuthLink: {
			Name:        FieldAuthLink,
			DisplayName: "Authentication Link",
			Type:        schema.FieldLink,
			Value:       "",
			Dynamic:     true,
			Info:        "Click to authenticate with the selected app",
		},
		FieldAuthStatus: {
			Name:        FieldAuthStatus,
			DisplayName: "Auth Status",
			Type:        schema.FieldString,
			Value:       schema.StatusTextNotConnected,
			Dynamic:     true,
			Info:        "Current authentication status",
		},
		FieldActionNames: {
			Name:        FieldActionNames,
			DisplayName: "Actions to use",
			Type:        schema.FieldMultiselect,
			Value:       []string{},
			Options:     []string{},
			Required:    true,
			Dynamic:     true,
			Info:        "The actions to pass to agent to execute",
		},
		FieldAuthState: {
			Name:  FieldAuthState,
			Type:  schema.FieldHidden,
			Value: string(schema.AuthNotConnected),
		},
	}
}

// entityID returns the configured entity, falling back to DefaultEntityID.
func entityID(cfg schema.BuildConfig) string {
	if id := cfg.String(FieldEntityID); id != "" {
		return id
	}
	return DefaultEntityID
}

// applyStatus writes a resolved status into the status, link and state fields.
func applyStatus(cfg schema.BuildConfig, st schema.AuthStatus) {
	cfg.SetValue(FieldAuthStatus, st.Text())
	cfg.SetValue(FieldAuthLink, st.Link)
	cfg.SetValue(FieldAuthState, string(st.State))
}
