// Package sqlite stores theatre content in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-theatre/pkg/theatre"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Repository implements theatre.Repository on SQLite
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases and the foreign_keys pragma consistent
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	r := New(db)
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an already configured database handle
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the tables when they do not exist yet
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) mapError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return theatre.ErrNotFound
	case isForeignKeyViolation(err):
		return theatre.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: slug already in use", op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

const itemColumns = `id, kind, title, slug, body, excerpt, status, author_id,
	comment_status, ping_status, thumbnail_id, menu_order, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*theatre.Item, error) {
	var (
		item    theatre.Item
		thumb   uuid.NullUUID
		created int64
		updated int64
	)
	err := row.Scan(
		&item.ID, &item.Kind, &item.Title, &item.Slug, &item.Body, &item.Excerpt,
		&item.Status, &item.AuthorID, &item.CommentStatus, &item.PingStatus,
		&thumb, &item.MenuOrder, &created, &updated)
	if err != nil {
		return nil, err
	}
	if thumb.Valid {
		id := thumb.UUID
		item.ThumbnailID = &id
	}
	item.CreatedAt = time.Unix(0, created).UTC()
	item.UpdatedAt = time.Unix(0, updated).UTC()
	return &item, nil
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func (r *Repository) CreateItem(ctx context.Context, item *theatre.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO theatre_item (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), string(item.Kind), item.Title, item.Slug, item.Body, item.Excerpt,
		string(item.Status), item.AuthorID, item.CommentStatus, item.PingStatus,
		nullableID(item.ThumbnailID), item.MenuOrder,
		item.CreatedAt.UnixNano(), item.UpdatedAt.UnixNano())
	if err != nil {
		return r.mapError("create item", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*theatre.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM theatre_item WHERE id = ?`, id.String())
	item, err := scanItem(row)
	if err != nil {
		return nil, r.mapError("get item", err)
	}
	return item, nil
}

func (r *Repository) GetItemBySlug(ctx context.Context, kind theatre.Kind, slug string) (*theatre.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM theatre_item WHERE kind = ? AND slug = ?`, string(kind), slug)
	item, err := scanItem(row)
	if err != nil {
		return nil, r.mapError("get item by slug", err)
	}
	return item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *theatre.Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE theatre_item SET
			kind = ?, title = ?, slug = ?, body = ?, excerpt = ?, status = ?,
			author_id = ?, comment_status = ?, ping_status = ?,
			thumbnail_id = ?, menu_order = ?, updated_at = ?
		WHERE id = ?`,
		string(item.Kind), item.Title, item.Slug, item.Body, item.Excerpt, string(item.Status),
		item.AuthorID, item.CommentStatus, item.PingStatus,
		nullableID(item.ThumbnailID), item.MenuOrder, item.UpdatedAt.UnixNano(),
		item.ID.String())
	if err != nil {
		return r.mapError("update item", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM theatre_item WHERE id = ?`, id.String())
	if err != nil {
		return r.mapError("delete item", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return theatre.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (r *Repository) ListItems(ctx context.Context, q theatre.ItemQuery) ([]*theatre.Item, error) {
	var (
		where []string
		args  []any
	)
	if len(q.Kinds) > 0 {
		where = append(where, "kind IN ("+placeholders(len(q.Kinds))+")")
		for _, k := range q.Kinds {
			args = append(args, string(k))
		}
	}
	if len(q.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(q.Statuses))+")")
		for _, s := range q.Statuses {
			args = append(args, string(s))
		}
	}
	if q.Slug != "" {
		where = append(where, "slug = ?")
		args = append(args, q.Slug)
	}
	if q.MetaKey != "" {
		where = append(where, `EXISTS (SELECT 1 FROM theatre_item_meta m
			WHERE m.item_id = theatre_item.id AND m.meta_key = ? AND m.meta_value = ?)`)
		args = append(args, q.MetaKey, q.MetaValue)
	}

	query := `SELECT ` + itemColumns + ` FROM theatre_item`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, q.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapError("list items", err)
	}
	defer rows.Close()

	var items []*theatre.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.mapError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapError("list items", err)
	}
	return items, nil
}

func (r *Repository) AddMeta(ctx context.Context, itemID uuid.UUID, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO theatre_item_meta (item_id, meta_key, meta_value) VALUES (?, ?, ?)`,
		itemID.String(), key, value)
	if err != nil {
		return r.mapError("add meta", err)
	}
	return nil
}

func (r *Repository) SetMeta(ctx context.Context, itemID uuid.UUID, key string, values ...string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.mapError("set meta", err)
	}
	defer tx.Rollback()

	if err := r.exists(ctx, tx, itemID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM theatre_item_meta WHERE item_id = ? AND meta_key = ?`, itemID.String(), key); err != nil {
		return r.mapError("set meta", err)
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO theatre_item_meta (item_id, meta_key, meta_value) VALUES (?, ?, ?)`,
			itemID.String(), key, v); err != nil {
			return r.mapError("set meta", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return r.mapError("set meta", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) exists(ctx context.Context, q queryer, id uuid.UUID) error {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM theatre_item WHERE id = ?`, id.String()).Scan(&n)
	if err != nil {
		return r.mapError("lookup item", err)
	}
	if n == 0 {
		return theatre.ErrNotFound
	}
	return nil
}

func (r *Repository) GetMeta(ctx context.Context, itemID uuid.UUID) (theatre.Metadata, error) {
	if err := r.exists(ctx, r.db, itemID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT meta_key, meta_value FROM theatre_item_meta WHERE item_id = ? ORDER BY id`, itemID.String())
	if err != nil {
		return nil, r.mapError("get meta", err)
	}
	defer rows.Close()

	meta := theatre.Metadata{}
	for rows.Next() {
		var e theatre.MetaEntry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, r.mapError("get meta", err)
		}
		meta = append(meta, e)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapError("get meta", err)
	}
	return meta, nil
}

var _ theatre.Repository = (*Repository)(nil)
