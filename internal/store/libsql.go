package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/composiotools/pkg/schema"
)

// Compile-time interface satisfaction check.
var _ Store = (*LibSQLStore)(nil)

// LibSQLStore implements Store using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "open libsql %s", dbPath).WithCause(err)
	}
	db.SetMaxOpenConns(1)

	// Some PRAGMAs return rows, so they go through QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// --- Nodes ---

// SaveNode inserts or replaces a node. CreatedAt is kept from the first save.
func (s *LibSQLStore) SaveNode(ctx context.Context, node *Node) error {
	if node.ID == "" {
		return schema.NewError(schema.ErrCodeValidation, "node id is required")
	}
	cfg, err := schema.MarshalBuildConfig(node.Config)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	node.CreatedAt = timeOrNow(node.CreatedAt)
	node.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO nodes (id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, config=excluded.config, updated_at=excluded.updated_at`,
		node.ID, nullStr(node.Name), string(cfg), node.CreatedAt, node.UpdatedAt,
	)
	if err != nil {
		return storeError("save node", node.ID, err)
	}
	return nil
}

func (s *LibSQLStore) GetNode(ctx context.Context, id string) (*Node, error) {
	n := &Node{}
	var name sql.NullString
	var cfg string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, config, created_at, updated_at FROM nodes WHERE id = ?`, id,
	).Scan(&n.ID, &name, &cfg, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("node", id)
	}
	if err != nil {
		return nil, storeError("get node", id, err)
	}
	n.Name = name.String
	if n.Config, err = schema.UnmarshalBuildConfig([]byte(cfg)); err != nil {
		return nil, fmt.Errorf("node %q: %w", id, err)
	}
	return n, nil
}

// ListNodes returns nodes, most recently updated first.
func (s *LibSQLStore) ListNodes(ctx context.Context, filter NodeFilter) ([]*Node, error) {
	query := `SELECT id, name, config, created_at, updated_at FROM nodes`
	var args []any
	if filter.Name != "" {
		query += ` WHERE name = ?`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY updated_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list nodes", "", err)
	}
	defer rows.Close()

	var out []*Node
	for rows.Next() {
		n := &Node{}
		var name sql.NullString
		var cfg string
		if err := rows.Scan(&n.ID, &name, &cfg, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, storeError("scan node", "", err)
		}
		n.Name = name.String
		if n.Config, err = schema.UnmarshalBuildConfig([]byte(cfg)); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNode removes a node and its execution history.
func (s *LibSQLStore) DeleteNode(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin delete node", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM executions WHERE node_id = ?`, id); err != nil {
		return storeError("delete executions", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return storeError("delete node", id, err)
	}
	if err := checkRowsAffected(res, "node", id); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Executions ---

// AppendExecution appends exec with the next per-node sequence number.
func (s *LibSQLStore) AppendExecution(ctx context.Context, exec *Execution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin append execution", exec.NodeID, err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM executions WHERE node_id = ?`, exec.NodeID,
	).Scan(&seq); err != nil {
		return storeError("next execution sequence", exec.NodeID, err)
	}

	exec.Sequence = seq
	exec.CreatedAt = timeOrNow(exec.CreatedAt)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO executions (node_id, sequence, action, entity_id, input, output, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.NodeID, seq, exec.Action, exec.EntityID,
		nullRaw(exec.Input), nullRaw(exec.Output), nullStr(exec.Error),
		exec.DurationMs, exec.CreatedAt,
	)
	if err != nil {
		return storeError("append execution", exec.NodeID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		exec.ID = id
	}
	return tx.Commit()
}

// ListExecutions returns a node's executions in sequence order.
func (s *LibSQLStore) ListExecutions(ctx context.Context, nodeID string, filter ExecutionFilter) ([]*Execution, error) {
	query := `SELECT id, node_id, sequence, action, entity_id, input, output, error, duration_ms, created_at
		FROM executions WHERE node_id = ? AND sequence > ?`
	args := []any{nodeID, filter.Since}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	query += ` ORDER BY sequence`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list executions", nodeID, err)
	}
	defer rows.Close()

	var out []*Execution
	for rows.Next() {
		e := &Execution{}
		var input, output, errMsg sql.NullString
		if err := rows.Scan(&e.ID, &e.NodeID, &e.Sequence, &e.Action, &e.EntityID,
			&input, &output, &errMsg, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, storeError("scan execution", nodeID, err)
		}
		e.Input = rawOrNil(input)
		e.Output = rawOrNil(output)
		e.Error = errMsg.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Secrets ---

func (s *LibSQLStore) StoreSecret(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO secrets (key, value, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, rotated_at=CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return storeError("store secret", key, err)
	}
	return nil
}

func (s *LibSQLStore) GetSecret(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("secret", key)
	}
	if err != nil {
		return nil, storeError("get secret", key, err)
	}
	return value, nil
}

func (s *LibSQLStore) DeleteSecret(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key)
	if err != nil {
		return storeError("delete secret", key, err)
	}
	return checkRowsAffected(res, "secret", key)
}

func (s *LibSQLStore) ListSecrets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM secrets ORDER BY key`)
	if err != nil {
		return nil, storeError("list secrets", "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, storeError("scan secret", "", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// --- helpers ---

func storeNotFound(resource, id string) *schema.ToolsetError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func storeError(op, id string, err error) *schema.ToolsetError {
	msg := op
	if id != "" {
		msg = fmt.Sprintf("%s %q", op, id)
	}
	return schema.NewError(schema.ErrCodeStore, msg).WithCause(err)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("rows affected", id, err)
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullRaw(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}

func rawOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
