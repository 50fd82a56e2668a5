package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"efactura/internal/anaf"
	"efactura/internal/artifact"
)

const reparseBatchSize = 200

// ReparseIncomplete rescans records whose enrichment fields are still
// sentinel/missing and retries extraction from the stored document text or,
// failing that, the cached archive. Returns the number of records updated.
func (s *SyncService) ReparseIncomplete(ctx context.Context) (int, error) {
	incomplete, err := s.invoices.ListIncomplete(ctx, reparseBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list incomplete invoices: %w", err)
	}

	updated := 0
	for i := range incomplete {
		inv := &incomplete[i]

		document := inv.XMLContent
		if document == "" && inv.ArchivePath != "" {
			blob, err := s.store.Read(ctx, inv.ArchivePath)
			if err != nil {
				s.log.Warn("cached archive read failed",
					zap.Int64("invoice_id", inv.ID), zap.Error(err))
				continue
			}
			content, _, err := artifact.DataDocument(blob)
			if err != nil {
				s.log.Warn("no usable document in cached archive",
					zap.Int64("invoice_id", inv.ID), zap.Error(err))
				continue
			}
			document = string(content)
		}
		if document == "" {
			continue
		}

		fresh := s.buildInvoice(inv.CompanyID, anaf.Message{ID: inv.ExternalID, Type: inv.MessageType}, document)
		if !backfill(inv, fresh) {
			continue
		}
		if err := s.invoices.Update(ctx, inv); err != nil {
			s.log.Warn("reparse update failed",
				zap.Int64("invoice_id", inv.ID), zap.Error(err))
			continue
		}
		updated++
	}

	if updated > 0 {
		s.log.Info("reparse pass finished",
			zap.Int("candidates", len(incomplete)), zap.Int("updated", updated))
	}
	return updated, nil
}
