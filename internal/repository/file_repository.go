package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/media-vault/internal/model"
)

// FileStore persists metadata for uploaded files. The blob itself lives on
// disk under the upload root; only the bookkeeping happens here.
type FileStore interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id int64) (model.File, error)
	GetByName(ctx context.Context, name string) (model.File, error)
	List(ctx context.Context, limit, offset int) ([]model.File, int64, error)
	Update(ctx context.Context, f *model.File) error
	Delete(ctx context.Context, id int64) error
}

// FileRepo implements FileStore over MySQL.
type FileRepo struct{ DB *sql.DB }

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{DB: db} }

// Create inserts a file record and fills in the generated id.
func (r *FileRepo) Create(ctx context.Context, f *model.File) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO files (name, extension, mimetype, size) VALUES (?,?,?,?)",
		f.Name, f.Extension, f.Mimetype, f.Size)
	if err != nil {
		// 1062 = ER_DUP_ENTRY on uq_files_name
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicate
		}
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

// GetByID fetches a file record by id.
func (r *FileRepo) GetByID(ctx context.Context, id int64) (model.File, error) {
	return r.get(ctx,
		"SELECT id, name, extension, mimetype, size, created_at FROM files WHERE id=? LIMIT 1", id)
}

// GetByName fetches a file record by its unique name.
func (r *FileRepo) GetByName(ctx context.Context, name string) (model.File, error) {
	return r.get(ctx,
		"SELECT id, name, extension, mimetype, size, created_at FROM files WHERE name=? LIMIT 1", name)
}

func (r *FileRepo) get(ctx context.Context, query string, arg any) (model.File, error) {
	var f model.File
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&f.ID, &f.Name, &f.Extension, &f.Mimetype, &f.Size, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.File{}, ErrNotFound
	}
	if err != nil {
		return model.File{}, err
	}
	return f, nil
}

// List returns one page of file records ordered by id ascending, together
// with the total number of records independent of the pagination window.
func (r *FileRepo) List(ctx context.Context, limit, offset int) ([]model.File, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, extension, mimetype, size, created_at FROM files ORDER BY id ASC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	files := make([]model.File, 0, limit)
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Extension, &f.Mimetype, &f.Size, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// Update overwrites name, extension, mimetype and size of a record.
func (r *FileRepo) Update(ctx context.Context, f *model.File) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE files SET name=?, extension=?, mimetype=?, size=? WHERE id=?",
		f.Name, f.Extension, f.Mimetype, f.Size, f.ID)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return ErrDuplicate
	}
	return err
}

// Delete removes a file record.
func (r *FileRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM files WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
