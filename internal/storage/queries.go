package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Import mirrors a row of the imports table. Years and Records hold JSON.
type Import struct {
	ID          int64
	Name        string
	Source      string
	Years       string
	Records     string
	RecordCount int64
	Status      string
	CreatedAt   int64
}

type GameOverride struct {
	GameID     string
	CoverImage sql.NullString
	UpdatedAt  int64
}

const createImport = `-- name: CreateImport :execlastid
INSERT INTO imports (name, source, years, records, record_count, status, created_at)
VALUES (?, ?, ?, ?, ?, 'pending', ?)
`

type CreateImportParams struct {
	Name        string
	Source      string
	Years       string
	Records     string
	RecordCount int64
	CreatedAt   int64
}

func (q *Queries) CreateImport(ctx context.Context, arg CreateImportParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createImport,
		arg.Name,
		arg.Source,
		arg.Years,
		arg.Records,
		arg.RecordCount,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getImport = `-- name: GetImport :one
SELECT id, name, source, years, records, record_count, status, created_at
FROM imports
WHERE id = ?
`

func (q *Queries) GetImport(ctx context.Context, id int64) (Import, error) {
	row := q.db.QueryRowContext(ctx, getImport, id)
	var i Import
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Source,
		&i.Years,
		&i.Records,
		&i.RecordCount,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const listImports = `-- name: ListImports :many
SELECT id, name, source, years, '' AS records, record_count, status, created_at
FROM imports
ORDER BY id DESC
`

func (q *Queries) ListImports(ctx context.Context) ([]Import, error) {
	return q.queryImports(ctx, listImports)
}

const listPendingImports = `-- name: ListPendingImports :many
SELECT id, name, source, years, '' AS records, record_count, status, created_at
FROM imports
WHERE status = 'pending'
ORDER BY id ASC
LIMIT ?
`

func (q *Queries) ListPendingImports(ctx context.Context, limit int64) ([]Import, error) {
	return q.queryImports(ctx, listPendingImports, limit)
}

func (q *Queries) queryImports(ctx context.Context, query string, args ...interface{}) ([]Import, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Import
	for rows.Next() {
		var i Import
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Source,
			&i.Years,
			&i.Records,
			&i.RecordCount,
			&i.Status,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateImportStatus = `-- name: UpdateImportStatus :execrows
UPDATE imports SET status = ? WHERE id = ?
`

type UpdateImportStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateImportStatus(ctx context.Context, arg UpdateImportStatusParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateImportStatus, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const importExists = `-- name: ImportExists :one
SELECT COUNT(*) FROM imports WHERE id = ?
`

func (q *Queries) ImportExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRowContext(ctx, importExists, id)
	var n int64
	err := row.Scan(&n)
	return n > 0, err
}

const upsertSummary = `-- name: UpsertSummary :exec
INSERT INTO summaries (import_id, year, data, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (import_id, year) DO UPDATE SET
    data = excluded.data,
    created_at = excluded.created_at
`

type UpsertSummaryParams struct {
	ImportID  int64
	Year      int64
	Data      string
	CreatedAt int64
}

func (q *Queries) UpsertSummary(ctx context.Context, arg UpsertSummaryParams) error {
	_, err := q.db.ExecContext(ctx, upsertSummary,
		arg.ImportID,
		arg.Year,
		arg.Data,
		arg.CreatedAt,
	)
	return err
}

const getSummary = `-- name: GetSummary :one
SELECT data FROM summaries WHERE import_id = ? AND year = ?
`

type GetSummaryParams struct {
	ImportID int64
	Year     int64
}

func (q *Queries) GetSummary(ctx context.Context, arg GetSummaryParams) (string, error) {
	row := q.db.QueryRowContext(ctx, getSummary, arg.ImportID, arg.Year)
	var data string
	err := row.Scan(&data)
	return data, err
}

const upsertOverride = `-- name: UpsertOverride :exec
INSERT INTO game_overrides (game_id, cover_image, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (game_id) DO UPDATE SET
    cover_image = excluded.cover_image,
    updated_at = excluded.updated_at
`

type UpsertOverrideParams struct {
	GameID     string
	CoverImage sql.NullString
	UpdatedAt  int64
}

func (q *Queries) UpsertOverride(ctx context.Context, arg UpsertOverrideParams) error {
	_, err := q.db.ExecContext(ctx, upsertOverride, arg.GameID, arg.CoverImage, arg.UpdatedAt)
	return err
}

const deleteOverride = `-- name: DeleteOverride :execrows
DELETE FROM game_overrides WHERE game_id = ?
`

func (q *Queries) DeleteOverride(ctx context.Context, gameID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteOverride, gameID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listOverrides = `-- name: ListOverrides :many
SELECT game_id, cover_image, updated_at FROM game_overrides ORDER BY game_id
`

func (q *Queries) ListOverrides(ctx context.Context) ([]GameOverride, error) {
	rows, err := q.db.QueryContext(ctx, listOverrides)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GameOverride
	for rows.Next() {
		var i GameOverride
		if err := rows.Scan(&i.GameID, &i.CoverImage, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
