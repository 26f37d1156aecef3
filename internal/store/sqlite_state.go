package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"loon-cli/internal/model"
)

// SaveNodes replaces the persisted tree with l.
func (s Store) SaveNodes(ctx context.Context, l model.Loom) error {
	if strings.TrimSpace(l.Root) == "" {
		return errors.New("save nodes: tree has no root")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "version", schemaVersion); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "root_id", l.Root); err != nil {
		return err
	}

	// Replace-all: trees are small and this keeps rows exactly in step with the snapshot.
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return err
	}

	nowMs := time.Now().UTC().UnixMilli()
	for _, n := range l.Nodes() {
		raw, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode node %s: %w", n.ID, err)
		}
		pos := 0
		if p, ok := l.Node(n.Parent); ok {
			pos = p.ChildIndex(n.ID)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO nodes(id, parent_id, position, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			n.ID, n.Parent, pos, string(raw), nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadNodes returns the persisted tree. ok is false when nothing was saved yet.
func (s Store) LoadNodes(ctx context.Context) (root string, nodes []model.Node, ok bool, err error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", nil, false, err
	}
	defer db.Close()

	err = db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, "root_id").Scan(&root)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, json FROM nodes ORDER BY parent_id, position, id`)
	if err != nil {
		return "", nil, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return "", nil, false, err
		}
		var n model.Node
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return "", nil, false, fmt.Errorf("decode node %s: %w", id, err)
		}
		if n.Children == nil {
			n.Children = []string{}
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return "", nil, false, err
	}
	if len(nodes) == 0 {
		return "", nil, false, nil
	}
	return root, nodes, true, nil
}

const viewStateKey = "current"

func (s Store) SaveViewState(ctx context.Context, v model.ViewState) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO view_state(k, json) VALUES(?, ?)`, viewStateKey, string(raw))
	return err
}

// LoadViewState returns the persisted view state. ok is false when none was saved.
func (s Store) LoadViewState(ctx context.Context) (*model.ViewState, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, false, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, `SELECT json FROM view_state WHERE k = ?`, viewStateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var v model.ViewState
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, fmt.Errorf("decode view state: %w", err)
	}
	return &v, true, nil
}
