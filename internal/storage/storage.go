package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package storage holds the artifact store abstraction for raw invoice
// archives. The store is append-mostly: writes to distinct keys never
// conflict, and a write to an already-populated key is a successful no-op.

// ErrNotFound is returned by Read when no object exists at the given path.
var ErrNotFound = errors.New("artifact not found")

// Storage is the artifact store consumed by the sync pipeline.
type Storage interface {
	// Save stores the artifact under key and returns the stored path.
	// Saving to an already-populated key succeeds without rewriting.
	Save(ctx context.Context, key string, data []byte) (string, error)
	// Read returns the artifact bytes at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	// Exists reports whether an artifact is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// ArchiveKey builds the canonical artifact key for an invoice archive:
// {companyID}/{YYYY}/{MM}/invoice_{externalID}.zip. The invoice date decides
// the year/month folder; when unknown, the sync time is used instead.
func ArchiveKey(companyID int64, externalID string, invoiceDate *time.Time, syncedAt time.Time) string {
	at := syncedAt
	if invoiceDate != nil {
		at = *invoiceDate
	}
	safeID := strings.NewReplacer("/", "_", "\\", "_").Replace(externalID)
	return fmt.Sprintf("%d/%04d/%02d/invoice_%s.zip", companyID, at.Year(), int(at.Month()), safeID)
}
