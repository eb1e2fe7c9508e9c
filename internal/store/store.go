package store

import "context"

// Store defines the persistence layer contract of the local host.
// All implementations must be safe for concurrent use.
type Store interface {
	// Nodes
	SaveNode(ctx context.Context, node *Node) error
	GetNode(ctx context.Context, id string) (*Node, error)
	ListNodes(ctx context.Context, filter NodeFilter) ([]*Node, error)
	DeleteNode(ctx context.Context, id string) error

	// Executions (append-only)
	AppendExecution(ctx context.Context, exec *Execution) error
	ListExecutions(ctx context.Context, nodeID string, filter ExecutionFilter) ([]*Execution, error)

	// Secrets
	StoreSecret(ctx context.Context, key string, value []byte) error
	GetSecret(ctx context.Context, key string) ([]byte, error)
	DeleteSecret(ctx context.Context, key string) error
	ListSecrets(ctx context.Context) ([]string, error)

	// Maintenance
	Migrate(ctx context.Context) error

	// Lifecycle
	Close() error
}
