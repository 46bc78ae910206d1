// Package services contains the storage coordinator: the one component that
// sees the cipher engine, the key wrapper, both object stores, the
// integrity verifier and the metadata ledger, and sequences them into the
// public vault operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/cryptovault/internal/blobstore"
	"github.com/dmitrijs2005/cryptovault/internal/common"
	"github.com/dmitrijs2005/cryptovault/internal/cryptox"
	"github.com/dmitrijs2005/cryptovault/internal/integrity"
	"github.com/dmitrijs2005/cryptovault/internal/keywrap"
	"github.com/dmitrijs2005/cryptovault/internal/logging"
	sc "github.com/dmitrijs2005/cryptovault/internal/server/config"
	"github.com/dmitrijs2005/cryptovault/internal/server/models"
	"github.com/dmitrijs2005/cryptovault/internal/server/repositories/files"
	"github.com/dmitrijs2005/cryptovault/internal/server/repositories/repomanager"
)

const (
	blobPrefix       = "uploads/"
	wrappedKeyPrefix = "encrypted-keys/"
	wrappedKeySuffix = ".key.enc"
)

// BlobKey returns the object-store path of a file's encrypted blob.
func BlobKey(filename string) string {
	return blobPrefix + filename
}

// WrappedKeyPath returns the key-store path of a file's wrapped DEK.
func WrappedKeyPath(filename string) string {
	return wrappedKeyPrefix + filename + wrappedKeySuffix
}

// VaultService orchestrates upload, download, verify, delete, list and
// reconciliation across the blob store, the key store, the key wrapper and
// the ledger. There is no cross-store transaction: upload runs as a saga
// whose compensating deletes undo partial writes, and the ledger's unique
// constraint on filename is the single point of serialization between
// concurrent uploads.
type VaultService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	blobs    blobstore.Store
	keys     blobstore.Store
	wrapper  keywrap.Wrapper
	verifier *integrity.Verifier
	logger   logging.Logger
	config   *sc.Config
}

func NewVaultService(
	db *sql.DB,
	repos repomanager.RepositoryManager,
	blobs blobstore.Store,
	keys blobstore.Store,
	wrapper keywrap.Wrapper,
	verifier *integrity.Verifier,
	logger logging.Logger,
	config *sc.Config,
) *VaultService {
	return &VaultService{
		db:       db,
		repos:    repos,
		blobs:    blobs,
		keys:     keys,
		wrapper:  wrapper,
		verifier: verifier,
		logger:   logger,
		config:   config,
	}
}

// withRetry runs op under the configured per-call timeout and retries
// transient store/key-service failures with fibonacci backoff. Everything
// else fails immediately; the ledger is never touched through this path.
func (s *VaultService) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.config.RemoteCallRetries, retry.NewFibonacci(100*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.config.RemoteCallTimeout)
		defer cancel()

		err := op(callCtx)
		if errors.Is(err, common.ErrStoreUnavailable) || errors.Is(err, common.ErrKeyServiceUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// ledgerCall runs a ledger operation under the configured per-call
// timeout. Ledger calls fail fast and are never retried; in particular a
// timed-out insert must not be resubmitted.
func (s *VaultService) ledgerCall(ctx context.Context, op func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.config.RemoteCallTimeout)
	defer cancel()
	return op(callCtx)
}

// storageURL builds the locator recorded in the ledger for a blob path.
func (s *VaultService) storageURL(path string) string {
	if s.config.S3Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.config.S3Endpoint, "/"), s.config.S3Bucket, path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.S3Region, path)
}

// Upload encrypts content under a fresh DEK, wraps the DEK, stores the
// wrapped key and the encrypted blob, and records the metadata. Steps after
// the first store write are compensated on failure so no orphaned objects
// are left behind. The DEK exists only for the duration of this call.
func (s *VaultService) Upload(ctx context.Context, filename string, content []byte) (*models.UploadResult, error) {
	repo := s.repos.Files(s.db)

	// Cheap early rejection; the unique constraint still decides a race
	// between two concurrent uploads of the same filename.
	err := s.ledgerCall(ctx, func(ctx context.Context) error {
		_, err := repo.GetByFilename(ctx, filename)
		return err
	})
	if err == nil {
		return nil, common.ErrDuplicateFile
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}

	blob, dek, err := cryptox.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	defer cryptox.Wipe(dek)

	var wrapped []byte
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var werr error
		wrapped, werr = s.wrapper.Wrap(ctx, dek)
		return werr
	})
	if err != nil {
		return nil, fmt.Errorf("wrap dek: %w", err)
	}

	keyPath := WrappedKeyPath(filename)
	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.keys.Put(ctx, keyPath, wrapped)
	}); err != nil {
		return nil, fmt.Errorf("store wrapped key: %w", err)
	}

	blobPath := BlobKey(filename)
	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.blobs.Put(ctx, blobPath, blob)
	}); err != nil {
		s.compensateUpload(ctx, filename, false)
		return nil, fmt.Errorf("store blob: %w", err)
	}

	record := &models.FileMetadata{
		ID:         uuid.NewString(),
		Filename:   filename,
		Filesize:   int64(len(content)),
		UploadTime: time.Now().UTC(),
		Checksum:   s.verifier.Checksum(blob),
		StorageURL: s.storageURL(blobPath),
	}

	if err := s.ledgerCall(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, record)
	}); err != nil {
		s.compensateUpload(ctx, filename, true)
		if errors.Is(err, common.ErrDuplicateFile) {
			return nil, common.ErrDuplicateFile
		}
		return nil, fmt.Errorf("ledger insert: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "filename", filename, "filesize", record.Filesize)

	return &models.UploadResult{
		Filename:   record.Filename,
		Filesize:   record.Filesize,
		Checksum:   record.Checksum,
		StorageURL: record.StorageURL,
	}, nil
}

// compensateUpload undoes partial upload writes after a failed step.
// Failures here are logged, not surfaced: the reconciliation pass picks up
// anything left behind.
func (s *VaultService) compensateUpload(ctx context.Context, filename string, removeBlob bool) {
	if removeBlob {
		if err := s.blobs.Delete(ctx, BlobKey(filename)); err != nil {
			s.logger.Warn(ctx, "upload compensation: blob delete failed", "filename", filename, "error", err)
		}
	}
	if err := s.keys.Delete(ctx, WrappedKeyPath(filename)); err != nil {
		s.logger.Warn(ctx, "upload compensation: wrapped key delete failed", "filename", filename, "error", err)
	}
}

// Download fetches the blob and its wrapped key, unwraps the DEK and
// decrypts. The content type is inferred from the filename extension.
func (s *VaultService) Download(ctx context.Context, filename string) (*models.DownloadResult, error) {
	var blob []byte
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var gerr error
		blob, gerr = s.blobs.Get(ctx, BlobKey(filename))
		return gerr
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetch blob: %w", err)
	}

	var wrapped []byte
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var gerr error
		wrapped, gerr = s.keys.Get(ctx, WrappedKeyPath(filename))
		return gerr
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetch wrapped key: %w", err)
	}

	var dek []byte
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var uerr error
		dek, uerr = s.wrapper.Unwrap(ctx, wrapped)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("unwrap dek: %w", err)
	}
	defer cryptox.Wipe(dek)

	plaintext, err := cryptox.Decrypt(blob, dek)
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &models.DownloadResult{Content: plaintext, ContentType: contentType}, nil
}

// Verify recomputes the checksum of the stored blob and compares it to the
// ledger record. A mismatch is reported in the result, never as an error.
func (s *VaultService) Verify(ctx context.Context, filename string) (*models.VerificationResult, error) {
	var record *models.FileMetadata
	err := s.ledgerCall(ctx, func(ctx context.Context) error {
		var gerr error
		record, gerr = s.repos.Files(s.db).GetByFilename(ctx, filename)
		return gerr
	})
	if err != nil {
		return nil, err
	}

	var blob []byte
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var gerr error
		blob, gerr = s.blobs.Get(ctx, BlobKey(filename))
		return gerr
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetch blob: %w", err)
	}

	return &models.VerificationResult{
		Filename:     filename,
		Stored:       record.Checksum,
		Recalculated: s.verifier.Checksum(blob),
		Valid:        s.verifier.Verify(blob, record.Checksum),
	}, nil
}

// Delete removes the blob, the wrapped key and the ledger record. Each
// target is attempted regardless of earlier failures; the report carries
// partial outcomes instead of masking them as total success or failure.
// A second Delete of the same filename succeeds with nothing left to do.
func (s *VaultService) Delete(ctx context.Context, filename string) (*models.DeleteReport, error) {
	report := &models.DeleteReport{Filename: filename}

	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, BlobKey(filename))
	}); err != nil {
		s.logger.Error(ctx, "blob delete failed", "filename", filename, "error", err)
		report.Errors = append(report.Errors, fmt.Sprintf("blob: %v", err))
	} else {
		report.BlobDeleted = true
	}

	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.keys.Delete(ctx, WrappedKeyPath(filename))
	}); err != nil {
		s.logger.Error(ctx, "wrapped key delete failed", "filename", filename, "error", err)
		report.Errors = append(report.Errors, fmt.Sprintf("key: %v", err))
	} else {
		report.KeyDeleted = true
	}

	var removed bool
	err := s.ledgerCall(ctx, func(ctx context.Context) error {
		var derr error
		removed, derr = s.repos.Files(s.db).Delete(ctx, filename)
		return derr
	})
	if err != nil {
		s.logger.Error(ctx, "ledger delete failed", "filename", filename, "error", err)
		report.Errors = append(report.Errors, fmt.Sprintf("ledger: %v", err))
	} else {
		report.RecordDeleted = removed
	}

	return report, nil
}

// List returns all ledger records. Listing is read-only; orphan cleanup
// lives in Reconcile so reads stay free of side effects.
func (s *VaultService) List(ctx context.Context) ([]*models.FileMetadata, error) {
	var records []*models.FileMetadata
	err := s.ledgerCall(ctx, func(ctx context.Context) error {
		var lerr error
		records, lerr = s.repos.Files(s.db).List(ctx)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Reconcile probes the blob store for every ledger record and removes
// records whose backing blob is gone, together with the now-orphaned
// wrapped key. Record removal happens in one transaction so a partial
// sweep never commits. It heals one direction only: a blob or wrapped key
// without a ledger record is not detected here. Returns the removed
// filenames.
func (s *VaultService) Reconcile(ctx context.Context) ([]string, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	var orphans []string
	for _, record := range records {
		var exists bool
		err := s.withRetry(ctx, func(ctx context.Context) error {
			var perr error
			exists, perr = s.blobs.Exists(ctx, BlobKey(record.Filename))
			return perr
		})
		if err != nil {
			// An unreachable store must not wipe the ledger.
			s.logger.Warn(ctx, "reconcile: existence probe failed", "filename", record.Filename, "error", err)
			continue
		}
		if !exists {
			orphans = append(orphans, record.Filename)
		}
	}

	if len(orphans) == 0 {
		return nil, nil
	}

	err = s.ledgerCall(ctx, func(ctx context.Context) error {
		return s.repos.RunInTx(ctx, s.db, func(ctx context.Context, repo files.Repository) error {
			for _, filename := range orphans {
				if _, err := repo.Delete(ctx, filename); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("remove orphaned records: %w", err)
	}

	for _, filename := range orphans {
		if err := s.keys.Delete(ctx, WrappedKeyPath(filename)); err != nil {
			s.logger.Warn(ctx, "reconcile: wrapped key delete failed", "filename", filename, "error", err)
		}
		s.logger.Info(ctx, "reconcile: removed orphaned record", "filename", filename)
	}

	return orphans, nil
}

// PresignDownload returns a time-limited URL for fetching the encrypted
// blob directly from the object store. The object served through it is the
// ciphertext envelope, not plaintext.
func (s *VaultService) PresignDownload(ctx context.Context, filename string) (string, error) {
	if err := s.ledgerCall(ctx, func(ctx context.Context) error {
		_, err := s.repos.Files(s.db).GetByFilename(ctx, filename)
		return err
	}); err != nil {
		return "", err
	}

	var url string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var perr error
		url, perr = s.blobs.PresignGet(ctx, BlobKey(filename), s.config.PresignValidity)
		return perr
	})
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return url, nil
}
