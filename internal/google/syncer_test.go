package google

import (
	"context"
	"errors"
	"testing"

	"postavka/internal/models"
)

type fakeSettlementService struct {
	summary *models.SettlementSummary
	err     error

	gotVendorID int64
	gotPeriod   string
}

func (f *fakeSettlementService) ComputeSummary(_ context.Context, vendorID int64, period string, _ bool) (*models.SettlementSummary, error) {
	f.gotVendorID = vendorID
	f.gotPeriod = period
	return f.summary, f.err
}

func (f *fakeSettlementService) MarkSettled(context.Context, int64) (*models.SettlementEntry, error) {
	panic("not used")
}

type fakeSheetsWriter struct {
	replaced []*models.SettlementSummary
	err      error
}

func (f *fakeSheetsWriter) ReplaceSettlementSheet(_ context.Context, summary *models.SettlementSummary) error {
	f.replaced = append(f.replaced, summary)
	return f.err
}

func (f *fakeSheetsWriter) AppendSettlementRow(context.Context, *models.Vendor, *models.SettlementRow) error {
	return nil
}

func TestSettlementSyncer_SyncVendor(t *testing.T) {
	summary := &models.SettlementSummary{VendorID: 7}
	settlement := &fakeSettlementService{summary: summary}
	writer := &fakeSheetsWriter{}

	syncer := NewSettlementSyncer(settlement, writer)
	if err := syncer.SyncVendor(context.Background(), 7); err != nil {
		t.Fatalf("SyncVendor: %v", err)
	}

	if settlement.gotVendorID != 7 {
		t.Errorf("expected vendor 7, got %d", settlement.gotVendorID)
	}
	if settlement.gotPeriod != models.PeriodMonthly {
		t.Errorf("expected monthly period, got %s", settlement.gotPeriod)
	}
	if len(writer.replaced) != 1 || writer.replaced[0] != summary {
		t.Errorf("expected sheet replaced with computed summary")
	}
}

func TestSettlementSyncer_SummaryError(t *testing.T) {
	settlement := &fakeSettlementService{err: errors.New("no such vendor")}
	writer := &fakeSheetsWriter{}

	syncer := NewSettlementSyncer(settlement, writer)
	if err := syncer.SyncVendor(context.Background(), 99); err == nil {
		t.Fatalf("expected error")
	}
	if len(writer.replaced) != 0 {
		t.Errorf("sheet must not be touched when summary fails")
	}
}
