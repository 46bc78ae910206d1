package files

import (
	"context"

	"github.com/dmitrijs2005/cryptovault/internal/server/models"
)

// Repository is the metadata ledger: one row per stored file, keyed by
// filename. Filename uniqueness is enforced by the storage layer, so a
// race between two concurrent uploads is decided here, not by an
// application-level check.
type Repository interface {
	// Create inserts a new record. Returns common.ErrDuplicateFile when
	// the filename is already present.
	Create(ctx context.Context, file *models.FileMetadata) error

	// GetByFilename returns the record for filename or common.ErrNotFound.
	GetByFilename(ctx context.Context, filename string) (*models.FileMetadata, error)

	// List returns all records ordered by upload time.
	List(ctx context.Context) ([]*models.FileMetadata, error)

	// Delete removes the record if present and reports whether a row was
	// actually deleted. Absence is not an error.
	Delete(ctx context.Context, filename string) (bool, error)
}
