package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// EntityRepo - id lookups and inserts over the content hierarchy tables.
// Table and column names come from code, never from requests.
type EntityRepo interface {
	FindID(ctx context.Context, table string, key []Column) (int64, error)
	InsertID(ctx context.Context, table string, values []Column) (int64, error)
	Exists(ctx context.Context, table string, id int64) (bool, error)
}

type entityRepo struct {
	db *sql.DB
}

func NewEntityRepo(db *sql.DB) EntityRepo {
	return &entityRepo{db: db}
}

// FindID returns the id of the unique row matching key, or ErrNotFound
func (r *entityRepo) FindID(ctx context.Context, table string, key []Column) (int64, error) {
	conds := make([]string, 0, len(key))
	args := make([]interface{}, 0, len(key))
	for _, c := range key {
		if c.Value == nil {
			conds = append(conds, pq.QuoteIdentifier(c.Name)+" IS NULL")
			continue
		}
		args = append(args, c.Value)
		conds = append(conds, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.Name), len(args)))
	}

	query := fmt.Sprintf("SELECT id FROM %s WHERE %s LIMIT 2",
		pq.QuoteIdentifier(table), strings.Join(conds, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan %s: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("find %s: %w", table, err)
	}

	switch len(ids) {
	case 0:
		return 0, ErrNotFound
	case 1:
		return ids[0], nil
	}
	return 0, fmt.Errorf("find %s: key matches more than one row", table)
}

// InsertID inserts values and returns the new id; ErrConflict on a unique violation
func (r *entityRepo) InsertID(ctx context.Context, table string, values []Column) (int64, error) {
	names := make([]string, len(values))
	params := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, c := range values {
		names[i] = pq.QuoteIdentifier(c.Name)
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c.Value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		pq.QuoteIdentifier(table), strings.Join(names, ", "), strings.Join(params, ", "))

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if translated := translate(err); translated == ErrConflict {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

func (r *entityRepo) Exists(ctx context.Context, table string, id int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", pq.QuoteIdentifier(table))
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return exists, nil
}
