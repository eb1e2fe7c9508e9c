package secrets

import (
	"context"
	"sort"
	"strings"

	"github.com/rendis/composiotools/pkg/schema"
)

const (
	refPrefix = "node/"
	refSuffix = "/api_key"
)

// APIKeyRef is the vault key holding a node's Composio API key.
func APIKeyRef(nodeID string) string {
	return refPrefix + nodeID + refSuffix
}

// Credentials stores per-node Composio API keys in a Vault.
type Credentials struct {
	vault Vault
}

// NewCredentials wraps v.
func NewCredentials(v Vault) *Credentials {
	return &Credentials{vault: v}
}

// PutAPIKey stores or rotates the node's key.
func (c *Credentials) PutAPIKey(ctx context.Context, nodeID, apiKey string) error {
	if nodeID == "" {
		return schema.NewError(schema.ErrCodeValidation, "node id is required")
	}
	if apiKey == "" {
		return schema.NewError(schema.ErrCodeValidation, "api key is empty").WithField("api_key")
	}
	return c.vault.Store(ctx, APIKeyRef(nodeID), []byte(apiKey))
}

// APIKey returns the node's key. A node without one yields a NOT_FOUND error.
func (c *Credentials) APIKey(ctx context.Context, nodeID string) (string, error) {
	v, err := c.vault.Resolve(ctx, APIKeyRef(nodeID))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Forget removes the node's key. Forgetting a node without one is not an error.
func (c *Credentials) Forget(ctx context.Context, nodeID string) error {
	if err := c.vault.Delete(ctx, APIKeyRef(nodeID)); err != nil && !schema.IsNotFound(err) {
		return err
	}
	return nil
}

// Nodes lists the IDs of nodes with a stored key, sorted.
func (c *Credentials) Nodes(ctx context.Context) ([]string, error) {
	keys, err := c.vault.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range keys {
		if strings.HasPrefix(k, refPrefix) && strings.HasSuffix(k, refSuffix) {
			if id := strings.TrimSuffix(strings.TrimPrefix(k, refPrefix), refSuffix); id != "" {
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
