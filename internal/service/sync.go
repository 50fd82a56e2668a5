package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"efactura/internal/anaf"
	"efactura/internal/artifact"
	"efactura/internal/config"
	"efactura/internal/extract"
	"efactura/internal/model"
	"efactura/internal/repository"
	"efactura/internal/storage"
)

var (
	// ErrCompanyNotFound is returned when the requested company does not exist.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrSyncDisabled is returned when automatic sync is off for the company
	// and the caller did not force the pass.
	ErrSyncDisabled = errors.New("automatic sync is disabled for this company")
)

var syncMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sync_messages_total",
	Help: "Provider messages processed during sync passes, by outcome.",
}, []string{"outcome"})

// SyncCounts summarizes one company pass.
type SyncCounts struct {
	Discovered int `json:"discovered"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// SyncService drives incremental invoice synchronization: it sizes the
// lookback window from the company's checkpoint, pages through the provider's
// listing, and runs each message through retrieve → disambiguate → extract →
// idempotent upsert. One message failing never stops the pass; one company
// failing never affects another.
type SyncService struct {
	companies   repository.CompanyRepository
	invoices    repository.InvoiceRepository
	checkpoints repository.CheckpointRepository
	client      anaf.Client
	store       storage.Storage
	cfg         config.SyncConfig
	maxPages    int
	log         *zap.Logger
	now         func() time.Time
}

func NewSyncService(
	companies repository.CompanyRepository,
	invoices repository.InvoiceRepository,
	checkpoints repository.CheckpointRepository,
	client anaf.Client,
	store storage.Storage,
	cfg config.SyncConfig,
	maxPages int,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		companies:   companies,
		invoices:    invoices,
		checkpoints: checkpoints,
		client:      client,
		store:       store,
		cfg:         cfg,
		maxPages:    maxPages,
		log:         log,
		now:         time.Now,
	}
}

// SyncCompany runs one synchronization pass for a company. A listing failure
// aborts the pass with the counts accumulated so far; prior commits stand.
func (s *SyncService) SyncCompany(ctx context.Context, companyID int64, force bool) (*SyncCounts, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("load company %d: %w", companyID, err)
	}
	if !company.AutoSyncEnabled && !force {
		return nil, ErrSyncDisabled
	}

	lookback := s.lookbackDays(ctx, company.ID)
	passStart := s.now()
	counts := &SyncCounts{}

	s.log.Info("sync pass started",
		zap.Int64("company_id", company.ID),
		zap.String("tax_id", company.TaxID),
		zap.Int("lookback_days", lookback))

	for page := 1; page <= s.maxPages; page++ {
		listing, err := s.client.ListMessages(ctx, company.UserID, company.TaxID, lookback, page)
		if err != nil {
			return counts, fmt.Errorf("list messages page %d: %w", page, err)
		}
		if listing.EndOfPages || len(listing.Messages) == 0 {
			break
		}
		for _, msg := range listing.Messages {
			s.processMessage(ctx, company, msg, counts)
		}
	}

	if err := s.checkpoints.Record(ctx, company.ID, passStart); err != nil {
		return counts, fmt.Errorf("record checkpoint: %w", err)
	}

	s.log.Info("sync pass finished",
		zap.Int64("company_id", company.ID),
		zap.Int("discovered", counts.Discovered),
		zap.Int("created", counts.Created),
		zap.Int("updated", counts.Updated),
		zap.Int("skipped", counts.Skipped),
		zap.Int("errors", counts.Errors))

	return counts, nil
}

// SyncAll runs a pass for every auto-sync company that is due, each company as
// its own concurrent unit of work. Per-company failures are logged, never
// propagated across companies.
func (s *SyncService) SyncAll(ctx context.Context) {
	companies, err := s.companies.ListAutoSync(ctx)
	if err != nil {
		s.log.Error("list auto-sync companies", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, company := range companies {
		if !s.due(ctx, company) {
			continue
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := s.SyncCompany(ctx, id, false); err != nil {
				s.log.Error("company sync failed", zap.Int64("company_id", id), zap.Error(err))
			}
		}(company.ID)
	}
	wg.Wait()
}

// due reports whether the company's sync interval has elapsed since its
// checkpoint. No checkpoint means the company has never synced.
func (s *SyncService) due(ctx context.Context, company model.Company) bool {
	cp, err := s.checkpoints.Find(ctx, company.ID)
	if err != nil || cp == nil {
		return true
	}
	interval := time.Duration(company.SyncIntervalHours) * time.Hour
	if interval <= 0 {
		interval = time.Hour
	}
	return s.now().Sub(cp.LastSyncedAt) >= interval
}

// lookbackDays sizes the listing window: the wide default on first sync,
// otherwise the elapsed whole days since the checkpoint plus one (so the
// current day is always covered), clamped to the configured maximum.
func (s *SyncService) lookbackDays(ctx context.Context, companyID int64) int {
	cp, err := s.checkpoints.Find(ctx, companyID)
	if err != nil || cp == nil {
		return s.cfg.DefaultWindowDays
	}
	elapsed := int(s.now().Sub(cp.LastSyncedAt).Hours() / 24)
	days := elapsed + 1
	if days < 1 {
		days = 1
	}
	if days > s.cfg.MaxWindowDays {
		days = s.cfg.MaxWindowDays
	}
	return days
}

func (s *SyncService) processMessage(ctx context.Context, company *model.Company, msg anaf.Message, counts *SyncCounts) {
	counts.Discovered++

	existing, err := s.invoices.FindByExternalID(ctx, company.ID, msg.ID)
	switch {
	case err == nil:
		s.updateExisting(ctx, company, msg, existing, counts)
	case errors.Is(err, sql.ErrNoRows):
		s.createNew(ctx, company, msg, counts)
	default:
		s.fail(counts, msg.ID, "lookup failed", err)
	}
}

// createNew retrieves, disambiguates and extracts a newly discovered message,
// then persists a full record. The archive upload is best effort.
func (s *SyncService) createNew(ctx context.Context, company *model.Company, msg anaf.Message, counts *SyncCounts) {
	blob, err := s.client.DownloadArtifact(ctx, company.UserID, msg.ID)
	if err != nil {
		s.fail(counts, msg.ID, "download failed", err)
		return
	}

	document, _, err := artifact.DataDocument(blob)
	if err != nil {
		s.fail(counts, msg.ID, "no usable document", err)
		return
	}

	inv := s.buildInvoice(company.ID, msg, string(document))

	key := storage.ArchiveKey(company.ID, msg.ID, inv.InvoiceDate, inv.SyncedAt)
	if path, err := s.store.Save(ctx, key, blob); err != nil {
		s.log.Warn("archive upload failed", zap.String("external_id", msg.ID), zap.Error(err))
	} else {
		inv.ArchivePath = path
	}

	if _, err := s.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// concurrent upsert on the same identity: take the update path
			current, findErr := s.invoices.FindByExternalID(ctx, company.ID, msg.ID)
			if findErr != nil {
				s.fail(counts, msg.ID, "post-collision lookup failed", findErr)
				return
			}
			s.updateExisting(ctx, company, msg, current, counts)
			return
		}
		s.fail(counts, msg.ID, "create failed", err)
		return
	}

	counts.Created++
	syncMessages.WithLabelValues("created").Inc()
}

// updateExisting back-fills sentinel/missing fields on a known record using
// freshly retrieved data. Populated fields are never touched.
func (s *SyncService) updateExisting(ctx context.Context, company *model.Company, msg anaf.Message, existing *model.Invoice, counts *SyncCounts) {
	if !existing.IsIncomplete() {
		counts.Skipped++
		syncMessages.WithLabelValues("skipped").Inc()
		return
	}

	document := existing.XMLContent
	if document == "" {
		blob, err := s.client.DownloadArtifact(ctx, company.UserID, msg.ID)
		if err != nil {
			s.fail(counts, msg.ID, "download failed", err)
			return
		}
		content, _, err := artifact.DataDocument(blob)
		if err != nil {
			s.fail(counts, msg.ID, "no usable document", err)
			return
		}
		document = string(content)
	}

	fresh := s.buildInvoice(company.ID, msg, document)
	if !backfill(existing, fresh) {
		counts.Skipped++
		syncMessages.WithLabelValues("skipped").Inc()
		return
	}

	if err := s.invoices.Update(ctx, existing); err != nil {
		s.fail(counts, msg.ID, "update failed", err)
		return
	}
	counts.Updated++
	syncMessages.WithLabelValues("updated").Inc()
}

// buildInvoice fuses extraction output with the listing metadata. Extraction
// failing to parse the markup still yields a record carrying the raw text, so
// a later reparse can pick it up. VAT ids prefer the document over the details
// pattern; the invoice date prefers the listing's creation date over the
// document's issue date.
func (s *SyncService) buildInvoice(companyID int64, msg anaf.Message, document string) *model.Invoice {
	inv := &model.Invoice{
		CompanyID:   companyID,
		ExternalID:  msg.ID,
		MessageType: msg.Type,
		XMLContent:  document,
		SyncedAt:    s.now(),
	}

	parsed, err := extract.Parse(document)
	if err != nil {
		s.log.Warn("document extraction failed, keeping raw text",
			zap.String("external_id", msg.ID), zap.Error(err))
		parsed = &model.ParsedInvoice{}
	} else if projection, err := json.Marshal(parsed); err == nil {
		inv.Projection = projection
	}

	inv.IssuerName = parsed.IssuerName
	inv.RecipientName = parsed.RecipientName
	inv.IssuerVATID = firstNonEmpty(parsed.IssuerVATID, msg.IssuerTaxID())
	inv.RecipientVATID = firstNonEmpty(parsed.RecipientVATID, msg.RecipientTaxID())
	inv.Currency = parsed.Currency

	if date := msg.CreationDate(); date != nil {
		inv.InvoiceDate = date
	} else {
		inv.InvoiceDate = parsed.IssueDate
	}
	if parsed.Total != nil {
		inv.TotalAmount = decimal.NullDecimal{Decimal: *parsed.Total, Valid: true}
	}

	return inv
}

// backfill copies fresh values into sentinel/missing fields only, reporting
// whether anything changed.
func backfill(inv, fresh *model.Invoice) bool {
	changed := false
	fill := func(dst *string, src string) {
		if model.IsMissing(*dst) && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&inv.MessageType, fresh.MessageType)
	fill(&inv.IssuerName, fresh.IssuerName)
	fill(&inv.IssuerVATID, fresh.IssuerVATID)
	fill(&inv.RecipientName, fresh.RecipientName)
	fill(&inv.RecipientVATID, fresh.RecipientVATID)
	fill(&inv.Currency, fresh.Currency)
	fill(&inv.XMLContent, fresh.XMLContent)

	if inv.InvoiceDate == nil && fresh.InvoiceDate != nil {
		inv.InvoiceDate = fresh.InvoiceDate
		changed = true
	}
	if !inv.TotalAmount.Valid && fresh.TotalAmount.Valid {
		inv.TotalAmount = fresh.TotalAmount
		changed = true
	}
	if len(inv.Projection) == 0 && len(fresh.Projection) > 0 {
		inv.Projection = fresh.Projection
		changed = true
	}
	if inv.ArchivePath == "" && fresh.ArchivePath != "" {
		inv.ArchivePath = fresh.ArchivePath
		changed = true
	}
	return changed
}

func (s *SyncService) fail(counts *SyncCounts, externalID, msg string, err error) {
	counts.Errors++
	syncMessages.WithLabelValues("error").Inc()
	s.log.Warn(msg, zap.String("external_id", externalID), zap.Error(err))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
