package entries

import (
	"context"
	"fmt"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/security"
	"leadtrack/internal/core/tx"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/posting"
	"leadtrack/internal/domain/registers/stock"
	"leadtrack/internal/domain/settings"
	"leadtrack/pkg/logger"
)

func parseKg(s, field string) (types.Kg, error) {
	kg, err := types.NewKgFromString(s)
	if err != nil {
		return 0, apperror.NewValidation("invalid weight").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return kg, nil
}

// Service is the ledger: it appends, reads and (for the admin) deletes
// entries, keeping the stock register in step with every mutation.
type Service struct {
	repo        Repository
	engine      *posting.Engine
	stockSvc    *stock.Service
	settingsSvc *settings.Service
	guard       *security.Guard
	auditor     audit.Recorder
	txManager   tx.Manager
}

// NewService creates the ledger service.
func NewService(
	repo Repository,
	engine *posting.Engine,
	stockSvc *stock.Service,
	settingsSvc *settings.Service,
	guard *security.Guard,
	auditor audit.Recorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		engine:      engine,
		stockSvc:    stockSvc,
		settingsSvc: settingsSvc,
		guard:       guard,
		auditor:     auditor,
		txManager:   txManager,
	}
}

// SettingsSnapshot returns the recovery settings to freeze onto a new
// recycling entry. Captured once per append so all batches in one entry
// see the same rates.
func (s *Service) SettingsSnapshot(ctx context.Context) (settings.RecoverySettings, error) {
	return s.settingsSvc.Get(ctx)
}

// appendEntry persists and posts an entry in one transaction. A failed
// sufficiency check rolls back the write, so a rejected entry leaves no
// trace in the ledger or the register.
func (s *Service) appendEntry(ctx context.Context, doc posting.Postable, create, update func(ctx context.Context) error) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := create(ctx); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		return s.engine.Post(ctx, doc, update)
	})
	if err != nil {
		return err
	}

	_ = s.auditor.LogChange(ctx, string(doc.GetEntryType()), doc.GetID(), audit.ActionCreate, nil)

	logger.Info(ctx, "entry appended",
		"id", doc.GetID(),
		"type", doc.GetEntryType(),
	)
	return nil
}

// AppendRefining validates and appends a refining entry. Batches that
// draw from SANTOSH or an RML lot debit those buckets atomically with
// the append.
func (s *Service) AppendRefining(ctx context.Context, e *RefiningEntry) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	return s.appendEntry(ctx, e,
		func(ctx context.Context) error { return s.repo.CreateRefining(ctx, e) },
		func(ctx context.Context) error { return s.repo.UpdateHeader(ctx, &e.Entry) },
	)
}

// AppendRecycling validates and appends a recycling entry. Receivable
// yields must already be frozen onto the batches via AddBatch.
func (s *Service) AppendRecycling(ctx context.Context, e *RecyclingEntry) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	return s.appendEntry(ctx, e,
		func(ctx context.Context) error { return s.repo.CreateRecycling(ctx, e) },
		func(ctx context.Context) error { return s.repo.UpdateHeader(ctx, &e.Entry) },
	)
}

// AppendDross validates and appends a dross entry. Entries whose
// recovered weight is still pending post no movements yet.
func (s *Service) AppendDross(ctx context.Context, e *DrossEntry) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	return s.appendEntry(ctx, e,
		func(ctx context.Context) error { return s.repo.CreateDross(ctx, e) },
		func(ctx context.Context) error { return s.repo.UpdateHeader(ctx, &e.Entry) },
	)
}

// RecordDrossRecovery fills in the recovered high-lead weight for one
// batch of an existing dross entry and reposts it, replacing the
// previous posting version's movements.
func (s *Service) RecordDrossRecovery(ctx context.Context, entryID, batchID id.ID, recoveredKg string) error {
	e, err := s.repo.GetDross(ctx, entryID)
	if err != nil {
		return err
	}

	kg, err := parseKg(recoveredKg, "highLeadRecoveredKg")
	if err != nil {
		return err
	}
	if err := e.RecordRecovery(batchID, kg); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateDross(ctx, e); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		return s.engine.Post(ctx, e, func(ctx context.Context) error {
			return s.repo.UpdateHeader(ctx, &e.Entry)
		})
	})
	if err != nil {
		return err
	}

	_ = s.auditor.LogChange(ctx, string(e.EntryType), e.ID, audit.ActionRepost, map[string]any{
		"batch_id":     batchID,
		"recovered_kg": kg.String(),
	})
	return nil
}

// AppendRMLPurchase validates and appends a purchase entry.
func (s *Service) AppendRMLPurchase(ctx context.Context, e *RMLPurchaseEntry) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	return s.appendEntry(ctx, e,
		func(ctx context.Context) error { return s.repo.CreateRMLPurchase(ctx, e) },
		func(ctx context.Context) error { return s.repo.UpdateHeader(ctx, &e.Entry) },
	)
}

// AppendRMLReceived validates and appends a received entry. The
// receivable debit is checked atomically with the append.
func (s *Service) AppendRMLReceived(ctx context.Context, e *RMLReceivedEntry) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	return s.appendEntry(ctx, e,
		func(ctx context.Context) error { return s.repo.CreateRMLReceived(ctx, e) },
		func(ctx context.Context) error { return s.repo.UpdateHeader(ctx, &e.Entry) },
	)
}

// AppendSale validates and appends a sale. The stock debit is checked
// atomically with the append.
func (s *Service) AppendSale(ctx context.Context, e *SaleEntry) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	return s.appendEntry(ctx, e,
		func(ctx context.Context) error { return s.repo.CreateSale(ctx, e) },
		func(ctx context.Context) error { return s.repo.UpdateHeader(ctx, &e.Entry) },
	)
}

// Get loads one entry with its batches, whatever its type.
func (s *Service) Get(ctx context.Context, entryID id.ID) (any, error) {
	header, err := s.repo.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch header.EntryType {
	case entity.EntryTypeRefining:
		return s.repo.GetRefining(ctx, entryID)
	case entity.EntryTypeRecycling:
		return s.repo.GetRecycling(ctx, entryID)
	case entity.EntryTypeDross:
		return s.repo.GetDross(ctx, entryID)
	case entity.EntryTypeRMLPurchase:
		return s.repo.GetRMLPurchase(ctx, entryID)
	case entity.EntryTypeRMLReceived:
		return s.repo.GetRMLReceived(ctx, entryID)
	case entity.EntryTypeSale:
		return s.repo.GetSale(ctx, entryID)
	}
	return nil, apperror.NewConsistency("entry has unknown type").
		WithDetail("id", entryID)
}

// List returns entry headers, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]entity.Entry, error) {
	return s.repo.ListHeaders(ctx, filter)
}

// ListRefining returns refining entries with batches, for journals.
func (s *Service) ListRefining(ctx context.Context, filter ListFilter) ([]RefiningEntry, error) {
	return s.repo.ListRefining(ctx, filter)
}

// ListRecycling returns recycling entries with batches.
func (s *Service) ListRecycling(ctx context.Context, filter ListFilter) ([]RecyclingEntry, error) {
	return s.repo.ListRecycling(ctx, filter)
}

// ListDross returns dross entries with batches.
func (s *Service) ListDross(ctx context.Context, filter ListFilter) ([]DrossEntry, error) {
	return s.repo.ListDross(ctx, filter)
}

// ListRMLPurchase returns purchase entries with batches.
func (s *Service) ListRMLPurchase(ctx context.Context, filter ListFilter) ([]RMLPurchaseEntry, error) {
	return s.repo.ListRMLPurchase(ctx, filter)
}

// ListRMLReceived returns received entries with batches.
func (s *Service) ListRMLReceived(ctx context.Context, filter ListFilter) ([]RMLReceivedEntry, error) {
	return s.repo.ListRMLReceived(ctx, filter)
}

// ListSale returns sale records.
func (s *Service) ListSale(ctx context.Context, filter ListFilter) ([]SaleEntry, error) {
	return s.repo.ListSale(ctx, filter)
}

// BatteryTotals returns cumulative battery weight per type.
func (s *Service) BatteryTotals(ctx context.Context) ([]BatteryTotal, error) {
	return s.repo.BatteryTotals(ctx)
}

// Delete hard-deletes an entry. Admin only. The entry's movements are
// reversed in the same transaction; if downstream entries already
// consumed its output the delete is rejected whole.
func (s *Service) Delete(ctx context.Context, entryID id.ID) error {
	if err := s.guard.Require(ctx, security.CapDeleteEntry); err != nil {
		return err
	}

	doc, err := s.Get(ctx, entryID)
	if err != nil {
		return err
	}
	postable, ok := doc.(posting.Postable)
	if !ok {
		return apperror.NewConsistency("entry is not postable").
			WithDetail("id", entryID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.engine.Unpost(ctx, postable, func(ctx context.Context) error {
			return nil // header is deleted below, no point persisting the flag
		}); err != nil {
			return err
		}
		return s.repo.DeleteEntry(ctx, entryID)
	})
	if err != nil {
		return err
	}

	_ = s.auditor.LogChange(ctx, string(postable.GetEntryType()), entryID, audit.ActionDelete, nil)

	logger.Info(ctx, "entry deleted",
		"id", entryID,
		"type", postable.GetEntryType(),
	)
	return nil
}

// ClearAll wipes every entry and every register row. Users and
// recovery settings survive. Admin only.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.guard.Require(ctx, security.CapClearAllData); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.TruncateAll(ctx); err != nil {
			return fmt.Errorf("truncate entries: %w", err)
		}
		return s.stockSvc.TruncateAll(ctx)
	})
	if err != nil {
		return err
	}

	_ = s.auditor.LogChange(ctx, "ledger", id.Nil(), audit.ActionClearAll, nil)

	logger.Warn(ctx, "all ledger data cleared")
	return nil
}
