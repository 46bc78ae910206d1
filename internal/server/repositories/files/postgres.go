package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/cryptovault/internal/common"
	"github.com/dmitrijs2005/cryptovault/internal/dbx"
	"github.com/dmitrijs2005/cryptovault/internal/server/models"
)

// pgUniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements the ledger over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.FileMetadata) error {
	query := `
		INSERT INTO file_metadata (id, filename, filesize, upload_time, checksum, storage_url)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.Filename, file.Filesize, file.UploadTime, file.Checksum, file.StorageURL)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrDuplicateFile
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByFilename(ctx context.Context, filename string) (*models.FileMetadata, error) {
	query := `
		SELECT id, filename, filesize, upload_time, checksum, storage_url FROM file_metadata
		WHERE filename = $1
	`
	result := &models.FileMetadata{}
	err := r.db.QueryRowContext(ctx, query, filename).Scan(
		&result.ID, &result.Filename, &result.Filesize, &result.UploadTime, &result.Checksum, &result.StorageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.FileMetadata, error) {
	query := `
		SELECT id, filename, filesize, upload_time, checksum, storage_url FROM file_metadata
		ORDER BY upload_time
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select file metadata: %w", err)
	}
	defer rows.Close()

	var result []*models.FileMetadata
	for rows.Next() {
		var item models.FileMetadata
		if err := rows.Scan(&item.ID, &item.Filename, &item.Filesize, &item.UploadTime, &item.Checksum, &item.StorageURL); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, filename string) (bool, error) {
	query := `DELETE FROM file_metadata WHERE filename = $1`
	result, err := r.db.ExecContext(ctx, query, filename)
	if err != nil {
		return false, fmt.Errorf("failed to delete file metadata: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}
