package composio

import (
	"encoding/json"
	"strings"
)

// AuthMode is an app's declared authentication mechanism.
type AuthMode string

const (
	AuthModeAPIKey AuthMode = "API_KEY"
	AuthModeOAuth2 AuthMode = "OAUTH2"
	AuthModeOAuth1 AuthMode = "OAUTH1"
	AuthModeBasic  AuthMode = "BASIC"
	AuthModeBearer AuthMode = "BEARER_TOKEN"
	AuthModeNoAuth AuthMode = "NO_AUTH"
)

// AuthScheme is one way an app can be authorized.
type AuthScheme struct {
	Mode   AuthMode        `json:"auth_mode"`
	Name   string          `json:"name,omitempty"`
	Fields json.RawMessage `json:"fields,omitempty"`
}

// App is a catalog entry for a third-party application.
type App struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName,omitempty"`
	Description string       `json:"description,omitempty"`
	AppID       string       `json:"appId,omitempty"`
	NoAuth      bool         `json:"no_auth,omitempty"`
	AuthSchemes []AuthScheme `json:"auth_schemes,omitempty"`
}

// PrimaryAuthMode returns the first declared auth mode, or "" if none.
func (a *App) PrimaryAuthMode() AuthMode {
	if len(a.AuthSchemes) == 0 {
		return ""
	}
	return a.AuthSchemes[0].Mode
}

// Connection is a connected account linking an entity to an app.
type Connection struct {
	ID                 string `json:"id"`
	AppUniqueID        string `json:"appUniqueId"`
	AppName            string `json:"appName,omitempty"`
	IntegrationID      string `json:"integrationId,omitempty"`
	Status             string `json:"status,omitempty"`
	ClientUniqueUserID string `json:"clientUniqueUserId,omitempty"`
}

// Active reports whether the vendor considers the connection usable.
func (c *Connection) Active() bool {
	return c.Status == "" || strings.EqualFold(c.Status, "ACTIVE")
}

// Action is a catalog entry for a vendor-callable operation.
type Action struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name,omitempty"`
	Description string          `json:"description,omitempty"`
	AppName     string          `json:"appName,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Deprecated  bool            `json:"deprecated,omitempty"`
}

// ActionFilter narrows an action catalog query. Empty fields mean "any".
type ActionFilter struct {
	Apps    []string
	Actions []string
	Limit   int
}

// ConnectionRequest asks the vendor to start authorizing app for an entity.
type ConnectionRequest struct {
	EntityID            string
	App                 string
	AuthMode            AuthMode
	AuthConfig          map[string]string
	UseComposioAuth     bool
	ForceNewIntegration bool
	RedirectURL         string
}

// ConnectionRequestResult is the vendor's answer to a ConnectionRequest.
type ConnectionRequestResult struct {
	ConnectedAccountID string `json:"connectedAccountId"`
	ConnectionStatus   string `json:"connectionStatus"`
	RedirectURL        string `json:"redirectUrl,omitempty"`
}

// ExecuteRequest runs one action on behalf of an entity.
type ExecuteRequest struct {
	Action             string
	EntityID           string
	ConnectedAccountID string
	Input              map[string]any
}

// ExecuteResult is the vendor's execution payload.
type ExecuteResult struct {
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	Successful bool            `json:"successful"`
}

// NormalizeAppKey lower-cases and trims an app identifier for vendor lookups.
func NormalizeAppKey(app string) string {
	return strings.ToLower(strings.TrimSpace(app))
}
