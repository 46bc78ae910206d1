// Package repomanager vends repository implementations bound to a database
// handle and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cryptovault/internal/dbx"
	"github.com/dmitrijs2005/cryptovault/internal/server/repositories/files"
)

// RepositoryManager produces repositories bound to the given DBTX (either
// *sql.DB or an open transaction), so services control the transactional
// scope of each call. RunInTx runs fn against a repository bound to a
// single transaction, committing on nil and rolling back on error.
type RepositoryManager interface {
	Files(db dbx.DBTX) files.Repository
	RunInTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, repo files.Repository) error) error
	RunMigrations(ctx context.Context, db *sql.DB) error
}
