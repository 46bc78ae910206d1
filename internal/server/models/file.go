// Package models defines server-side data models persisted in the database
// and the result values returned by the vault operations.
package models

import "time"

// FileMetadata is the ledger row describing one encrypted file. A row
// exists only while the coordinator believes both the encrypted blob and
// its wrapped key exist in their stores; rows are never mutated after
// creation, only created and deleted.
type FileMetadata struct {
	// ID is the row's surrogate key.
	ID string
	// Filename is the natural key shared by the blob path, the wrapped
	// key path and this row. Unique at the database level.
	Filename string
	// Filesize is the plaintext length in bytes. The checksum, in
	// contrast, covers the stored ciphertext; the asymmetry is
	// deliberate (size is what the user uploaded, the checksum guards
	// the bytes at rest).
	Filesize int64
	// UploadTime is when the upload completed.
	UploadTime time.Time
	// Checksum is the hex HMAC-SHA256 digest over the encrypted blob.
	Checksum string
	// StorageURL locates the encrypted blob in the object store.
	StorageURL string
}

// UploadResult is returned by a successful upload.
type UploadResult struct {
	Filename   string `json:"filename"`
	Filesize   int64  `json:"filesize"`
	Checksum   string `json:"checksum"`
	StorageURL string `json:"storage_url"`
}

// DownloadResult carries decrypted content and its inferred media type.
type DownloadResult struct {
	Content     []byte
	ContentType string
}

// VerificationResult reports a checksum comparison. A mismatch is a
// reportable result, not an error.
type VerificationResult struct {
	Filename     string `json:"filename"`
	Stored       string `json:"stored_checksum"`
	Recalculated string `json:"recalculated_checksum"`
	Valid        bool   `json:"is_valid"`
}

// DeleteReport describes the outcome of a best-effort delete. Each target
// is attempted independently; Errors lists the ones that failed.
type DeleteReport struct {
	Filename      string   `json:"filename"`
	BlobDeleted   bool     `json:"blob_deleted"`
	KeyDeleted    bool     `json:"key_deleted"`
	RecordDeleted bool     `json:"record_deleted"`
	Errors        []string `json:"errors,omitempty"`
}
