package google

import (
	"context"
	"fmt"

	"postavka/internal/domain"
	"postavka/internal/models"
)

// SettlementSyncer rebuilds a vendor's sheet from the current monthly summary.
// It is driven by outbox sheet_sync tasks, so transient failures are retried.
type SettlementSyncer struct {
	settlement domain.SettlementService
	sheets     domain.SheetsWriter
}

func NewSettlementSyncer(settlement domain.SettlementService, sheets domain.SheetsWriter) *SettlementSyncer {
	return &SettlementSyncer{settlement: settlement, sheets: sheets}
}

func (s *SettlementSyncer) SyncVendor(ctx context.Context, vendorID int64) error {
	summary, err := s.settlement.ComputeSummary(ctx, vendorID, models.PeriodMonthly, true)
	if err != nil {
		return fmt.Errorf("compute summary for vendor %d: %w", vendorID, err)
	}
	return s.sheets.ReplaceSettlementSheet(ctx, summary)
}
