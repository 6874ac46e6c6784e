package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements theatre.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the tables when they do not exist yet
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return r.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return theatre.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return fmt.Errorf("slug already in use: %s", pgErr.Detail)
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return theatre.ErrNotFound
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const itemColumns = `id, kind, title, slug, body, excerpt, status, author_id,
	comment_status, ping_status, thumbnail_id, menu_order, created_at, updated_at`

func scanItem(row pgx.Row) (*theatre.Item, error) {
	var item theatre.Item
	err := row.Scan(
		&item.ID, &item.Kind, &item.Title, &item.Slug, &item.Body, &item.Excerpt,
		&item.Status, &item.AuthorID, &item.CommentStatus, &item.PingStatus,
		&item.ThumbnailID, &item.MenuOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *theatre.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	query := `
		INSERT INTO theatre_item (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.Kind, item.Title, item.Slug, item.Body, item.Excerpt,
		item.Status, item.AuthorID, item.CommentStatus, item.PingStatus,
		item.ThumbnailID, item.MenuOrder, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create item", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*theatre.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM theatre_item WHERE id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get item", err)
	}
	return item, nil
}

func (r *Repository) GetItemBySlug(ctx context.Context, kind theatre.Kind, slug string) (*theatre.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM theatre_item WHERE kind = $1 AND slug = $2`
	item, err := scanItem(r.db.QueryRow(ctx, query, kind, slug))
	if err != nil {
		return nil, r.handlePostgresError("get item by slug", err)
	}
	return item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *theatre.Item) error {
	query := `
		UPDATE theatre_item SET
			kind = $2, title = $3, slug = $4, body = $5, excerpt = $6, status = $7,
			author_id = $8, comment_status = $9, ping_status = $10,
			thumbnail_id = $11, menu_order = $12, updated_at = $13
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.Kind, item.Title, item.Slug, item.Body, item.Excerpt, item.Status,
		item.AuthorID, item.CommentStatus, item.PingStatus,
		item.ThumbnailID, item.MenuOrder, item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return theatre.ErrNotFound
	}
	return nil
}

// DeleteItem removes the item; its metadata goes with it via ON DELETE CASCADE
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM theatre_item WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return theatre.ErrNotFound
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, q theatre.ItemQuery) ([]*theatre.Item, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = string(k)
		}
		where = append(where, "kind = ANY("+arg(kinds)+")")
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if q.Slug != "" {
		where = append(where, "slug = "+arg(q.Slug))
	}
	if q.MetaKey != "" {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM theatre_item_meta m WHERE m.item_id = theatre_item.id AND m.meta_key = %s AND m.meta_value = %s)",
			arg(q.MetaKey), arg(q.MetaValue)))
	}

	query := `SELECT ` + itemColumns + ` FROM theatre_item WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, seq DESC`
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}
	if q.Offset > 0 {
		query += " OFFSET " + arg(q.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	defer rows.Close()

	var result []*theatre.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan item", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	return result, nil
}

// Metadata operations

func (r *Repository) AddMeta(ctx context.Context, itemID uuid.UUID, key, value string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO theatre_item_meta (item_id, meta_key, meta_value) VALUES ($1, $2, $3)`,
		itemID, key, value)
	if err != nil {
		return r.handlePostgresError("add meta", err)
	}
	return nil
}

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SetMeta replaces the values of key in one transaction when the
// underlying handle can start one
func (r *Repository) SetMeta(ctx context.Context, itemID uuid.UUID, key string, values ...string) error {
	replace := func(db DBTX) error {
		var exists bool
		if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM theatre_item WHERE id = $1)`, itemID).Scan(&exists); err != nil {
			return r.handlePostgresError("set meta", err)
		}
		if !exists {
			return theatre.ErrNotFound
		}
		if _, err := db.Exec(ctx, `DELETE FROM theatre_item_meta WHERE item_id = $1 AND meta_key = $2`, itemID, key); err != nil {
			return r.handlePostgresError("set meta", err)
		}
		for _, v := range values {
			if _, err := db.Exec(ctx,
				`INSERT INTO theatre_item_meta (item_id, meta_key, meta_value) VALUES ($1, $2, $3)`,
				itemID, key, v); err != nil {
				return r.handlePostgresError("set meta", err)
			}
		}
		return nil
	}

	b, ok := r.db.(beginner)
	if !ok {
		return replace(r.db)
	}
	return pgx.BeginFunc(ctx, b, func(tx pgx.Tx) error {
		return replace(tx)
	})
}

func (r *Repository) GetMeta(ctx context.Context, itemID uuid.UUID) (theatre.Metadata, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM theatre_item WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return nil, r.handlePostgresError("get meta", err)
	}
	if !exists {
		return nil, theatre.ErrNotFound
	}

	rows, err := r.db.Query(ctx,
		`SELECT meta_key, meta_value FROM theatre_item_meta WHERE item_id = $1 ORDER BY id`, itemID)
	if err != nil {
		return nil, r.handlePostgresError("get meta", err)
	}
	defer rows.Close()

	meta := theatre.Metadata{}
	for rows.Next() {
		var e theatre.MetaEntry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, r.handlePostgresError("get meta", err)
		}
		meta = append(meta, e)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("get meta", err)
	}
	return meta, nil
}

var _ theatre.Repository = (*Repository)(nil)
