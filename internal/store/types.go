package store

import (
	"encoding/json"
	"time"

	"github.com/rendis/composiotools/pkg/schema"
)

// Node is a persisted Composio Tools node.
type Node struct {
	ID        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	Config    schema.BuildConfig `json:"config"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NodeFilter narrows ListNodes. Zero values mean no filter.
type NodeFilter struct {
	Name  string
	Limit int
}

// Execution records one tool call made through a node.
type Execution struct {
	ID         int64           `json:"id"`
	NodeID     string          `json:"node_id"`
	Sequence   int64           `json:"sequence"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ExecutionFilter narrows ListExecutions.
type ExecutionFilter struct {
	Action string
	Since  int64 // only sequences greater than Since
	Limit  int
}
