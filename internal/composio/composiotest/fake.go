// Package composiotest provides an in-memory composio.Client for tests.
package composiotest

import (
	"context"
	"strings"
	"sync"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/pkg/schema"
)

// Compile-time interface satisfaction check.
var _ composio.Client = (*FakeClient)(nil)

// FakeClient serves a fixed catalog and records connection requests.
// Set an *Err field to make the matching call fail.
type FakeClient struct {
	mu sync.Mutex

	Apps        []composio.App
	Actions     []composio.Action
	Connections map[string][]composio.Connection // by entity ID
	RedirectURL string
	Results     map[string]*composio.ExecuteResult // by action name

	GetConnectionErr   error
	ListConnectionsErr error
	GetAppErr          error
	ListAppsErr        error
	ListActionsErr     error
	InitiateErr        error
	ExecuteErr         error

	Initiated []composio.ConnectionRequest
	Executed  []composio.ExecuteRequest
	Calls     []string
}

// NewFakeClient returns an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Connections: make(map[string][]composio.Connection),
		Results:     make(map[string]*composio.ExecuteResult),
	}
}

// Connect records an active connection of app for the entity.
func (f *FakeClient) Connect(entityID, app string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connections[entityID] = append(f.Connections[entityID], composio.Connection{
		ID:          "ca_" + composio.NormalizeAppKey(app),
		AppUniqueID: composio.NormalizeAppKey(app),
		Status:      "ACTIVE",
	})
}

func (f *FakeClient) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *FakeClient) GetConnection(_ context.Context, entityID, app string) (*composio.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetConnection:" + app)
	if f.GetConnectionErr != nil {
		return nil, f.GetConnectionErr
	}
	key := composio.NormalizeAppKey(app)
	for _, c := range f.Connections[entityID] {
		if c.AppUniqueID == key {
			conn := c
			return &conn, nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeNotFound, "no %s connection for entity %q", key, entityID)
}

func (f *FakeClient) ListConnections(_ context.Context, entityID string) ([]composio.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListConnections")
	if f.ListConnectionsErr != nil {
		return nil, f.ListConnectionsErr
	}
	return append([]composio.Connection{}, f.Connections[entityID]...), nil
}

func (f *FakeClient) GetApp(_ context.Context, app string) (*composio.App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetApp:" + app)
	if f.GetAppErr != nil {
		return nil, f.GetAppErr
	}
	key := composio.NormalizeAppKey(app)
	for _, a := range f.Apps {
		if a.Key == key {
			out := a
			return &out, nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeNotFound, "app %q not found", key)
}

func (f *FakeClient) ListApps(_ context.Context) ([]composio.App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListApps")
	if f.ListAppsErr != nil {
		return nil, f.ListAppsErr
	}
	return append([]composio.App{}, f.Apps...), nil
}

func (f *FakeClient) ListActions(_ context.Context, filter composio.ActionFilter) ([]composio.Action, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListActions")
	if f.ListActionsErr != nil {
		return nil, f.ListActionsErr
	}

	apps := make(map[string]bool, len(filter.Apps))
	for _, a := range filter.Apps {
		apps[composio.NormalizeAppKey(a)] = true
	}
	names := make(map[string]bool, len(filter.Actions))
	for _, n := range filter.Actions {
		names[strings.ToUpper(n)] = true
	}

	out := make([]composio.Action, 0, len(f.Actions))
	for _, a := range f.Actions {
		if len(apps) > 0 && !apps[composio.NormalizeAppKey(a.AppName)] {
			continue
		}
		if len(names) > 0 && !names[strings.ToUpper(a.Name)] {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *FakeClient) InitiateConnection(_ context.Context, req composio.ConnectionRequest) (*composio.ConnectionRequestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InitiateConnection:" + req.App)
	if f.InitiateErr != nil {
		return nil, f.InitiateErr
	}
	f.Initiated = append(f.Initiated, req)

	if req.AuthMode == composio.AuthModeAPIKey {
		f.Connections[req.EntityID] = append(f.Connections[req.EntityID], composio.Connection{
			ID:          "ca_" + composio.NormalizeAppKey(req.App),
			AppUniqueID: composio.NormalizeAppKey(req.App),
			Status:      "ACTIVE",
		})
		return &composio.ConnectionRequestResult{ConnectedAccountID: "ca_new", ConnectionStatus: "ACTIVE"}, nil
	}
	return &composio.ConnectionRequestResult{
		ConnectedAccountID: "ca_new",
		ConnectionStatus:   "INITIATED",
		RedirectURL:        f.RedirectURL,
	}, nil
}

func (f *FakeClient) ExecuteAction(_ context.Context, req composio.ExecuteRequest) (*composio.ExecuteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ExecuteAction:" + req.Action)
	if f.ExecuteErr != nil {
		return nil, f.ExecuteErr
	}
	f.Executed = append(f.Executed, req)
	if res, ok := f.Results[strings.ToUpper(req.Action)]; ok {
		return res, nil
	}
	return &composio.ExecuteResult{Data: []byte(`{}`), Successful: true}, nil
}
