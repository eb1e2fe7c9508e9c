package schema

import "fmt"

// AuthState is the typed authentication state of a node's selected app.
type AuthState string

const (
	AuthNotConnected   AuthState = "not_connected"
	AuthAwaitingAPIKey AuthState = "awaiting_api_key"
	AuthAwaitingLink   AuthState = "awaiting_link"
	AuthConnected      AuthState = "connected"
	AuthFailed         AuthState = "failed"
)

// Rendered status texts shown in the auth_status field.
const (
	StatusTextNotConnected = "Not Connected"
	StatusTextEnterAPIKey  = "Enter API Key"
	StatusTextClickLink    = "Click link to authenticate"
)

// ParseAuthState maps a persisted state value back to an AuthState.
// Unknown values fall back to AuthNotConnected.
func ParseAuthState(s string) AuthState {
	switch AuthState(s) {
	case AuthAwaitingAPIKey, AuthAwaitingLink, AuthConnected, AuthFailed:
		return AuthState(s)
	default:
		return AuthNotConnected
	}
}

// AuthStatus is the result of resolving an app's authentication state.
type AuthStatus struct {
	State   AuthState
	App     string
	Link    string // redirect URL, only for AuthAwaitingLink
	Message string // failure message, only for AuthFailed
}

// Text renders the status for the UI.
func (s AuthStatus) Text() string {
	switch s.State {
	case AuthConnected:
		return fmt.Sprintf("%s CONNECTED", s.App)
	case AuthAwaitingAPIKey:
		return StatusTextEnterAPIKey
	case AuthAwaitingLink:
		return StatusTextClickLink
	case AuthFailed:
		return "Error: " + s.Message
	default:
		return StatusTextNotConnected
	}
}

// IsRenderedText reports whether v is one of the texts this package renders
// for app, so user input can be told apart from status echoes.
func IsRenderedText(v, app string) bool {
	switch v {
	case StatusTextNotConnected, StatusTextEnterAPIKey, StatusTextClickLink:
		return true
	}
	return app != "" && v == AuthStatus{State: AuthConnected, App: app}.Text()
}
