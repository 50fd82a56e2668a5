package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"efactura/internal/anaf"
	"efactura/internal/model"
	"efactura/internal/storage"
)

// ErrArtifactNotFound is returned when every rung of the retrieval ladder
// fails to produce the invoice's archive.
var ErrArtifactNotFound = errors.New("artifact not found")

// Retriever re-obtains an invoice's binary artifact through a three-tier
// ladder: live provider fetch, cached archive in object storage, archive
// synthesized from the persisted document text.
type Retriever struct {
	client anaf.Client
	store  storage.Storage
	log    *zap.Logger
}

func NewRetriever(client anaf.Client, store storage.Storage, log *zap.Logger) *Retriever {
	return &Retriever{client: client, store: store, log: log}
}

// Fetch returns the invoice's archive bytes, trying each rung in order.
func (r *Retriever) Fetch(ctx context.Context, userID int64, inv *model.Invoice) ([]byte, error) {
	if blob, err := r.client.DownloadArtifact(ctx, userID, inv.ExternalID); err == nil && len(blob) > 0 {
		return blob, nil
	} else if err != nil {
		r.log.Warn("live artifact fetch failed, falling back to cache",
			zap.String("external_id", inv.ExternalID), zap.Error(err))
	}

	if inv.ArchivePath != "" {
		blob, err := r.store.Read(ctx, inv.ArchivePath)
		if err == nil && len(blob) > 0 {
			return blob, nil
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn("cached artifact read failed",
				zap.String("path", inv.ArchivePath), zap.Error(err))
		}
	}

	if inv.XMLContent != "" {
		return SynthesizeArchive(inv.ExternalID, []byte(inv.XMLContent))
	}

	return nil, ErrArtifactNotFound
}

// SynthesizeArchive builds a minimal single-member archive around the
// persisted document text so a download request can still be served when both
// the provider and the cache fail.
func SynthesizeArchive(externalID string, document []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	member, err := w.Create(externalID + ".xml")
	if err != nil {
		return nil, fmt.Errorf("synthesize archive: %w", err)
	}
	if _, err := member.Write(document); err != nil {
		return nil, fmt.Errorf("synthesize archive: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("synthesize archive: %w", err)
	}
	return buf.Bytes(), nil
}
