package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"postavka/internal/database"
	"postavka/internal/domain"
	"postavka/internal/events"
	"postavka/internal/metrics"
	"postavka/internal/models"

	"github.com/rs/zerolog"
)

// SettlementService builds vendor settlement summaries and records payouts.
type SettlementService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	worker   domain.OutboxWorker
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewSettlementService(repo domain.Repository, eventBus domain.EventPublisher, worker domain.OutboxWorker, logger *zerolog.Logger) *SettlementService {
	return &SettlementService{
		repo:     repo,
		eventBus: eventBus,
		worker:   worker,
		logger:   logger,
		now:      time.Now,
	}
}

// periodWindow anchors the reporting window at ref:
// weekly covers the trailing seven calendar dates ending at ref inclusive,
// monthly and yearly are calendar-to-date buckets. The store compares at
// date granularity, so a six-day offset yields exactly seven dates.
func periodWindow(period string, ref time.Time) (time.Time, time.Time, error) {
	switch period {
	case models.PeriodWeekly:
		return ref.AddDate(0, 0, -6), ref, nil
	case models.PeriodMonthly:
		from := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return from, ref, nil
	case models.PeriodYearly:
		from := time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, ref.Location())
		return from, ref, nil
	}
	return time.Time{}, time.Time{}, database.ErrInvalidPeriod
}

func (s *SettlementService) ComputeSummary(ctx context.Context, vendorID int64, period string, includeUnverified bool) (*models.SettlementSummary, error) {
	if _, err := s.repo.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}

	from, to, err := periodWindow(period, s.now())
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.GetSettlementRows(ctx, vendorID, from, to, includeUnverified)
	if err != nil {
		return nil, err
	}

	summary := &models.SettlementSummary{
		VendorID:          vendorID,
		Period:            period,
		From:              from,
		To:                to,
		IncludeUnverified: includeUnverified,
	}

	var settled, unsettled []*models.SettlementRow
	for _, row := range rows {
		if row.Settled {
			settled = append(settled, row)
		} else {
			unsettled = append(unsettled, row)
		}
	}

	summary.Settled, summary.SettledTotalCents = groupByBooking(settled)
	summary.Unsettled, summary.UnsettledTotalCents = groupByBooking(unsettled)
	summary.GrandTotalCents = summary.SettledTotalCents + summary.UnsettledTotalCents

	return summary, nil
}

// groupByBooking collapses rows into per-booking groups ordered by booking id.
// A booking with both settled and unsettled items shows up in both halves of
// the summary.
func groupByBooking(rows []*models.SettlementRow) ([]models.BookingGroup, int64) {
	byBooking := make(map[int64]*models.BookingGroup)
	for _, row := range rows {
		group, ok := byBooking[row.Item.BookingID]
		if !ok {
			group = &models.BookingGroup{BookingID: row.Item.BookingID}
			byBooking[row.Item.BookingID] = group
		}
		group.Rows = append(group.Rows, *row)
		group.TotalCents += row.Item.TotalPriceCents
	}

	ids := make([]int64, 0, len(byBooking))
	for id := range byBooking {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var total int64
	groups := make([]models.BookingGroup, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, *byBooking[id])
		total += byBooking[id].TotalCents
	}
	return groups, total
}

// MarkSettled records the payout for an accepted item. Repeated calls are
// treated as a successful no-op so operators can safely retry.
func (s *SettlementService) MarkSettled(ctx context.Context, bookingItemID int64) (*models.SettlementEntry, error) {
	entry, err := s.repo.MarkSettled(ctx, bookingItemID)
	if errors.Is(err, database.ErrAlreadySettled) {
		return s.repo.GetSettlementEntry(ctx, bookingItemID)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncSettled()

	payload := events.AssignmentEventPayload{
		BookingItemID: bookingItemID,
		VendorID:      entry.VendorID,
		Status:        models.StatusAccepted,
	}
	if item, err := s.repo.GetBookingItem(ctx, bookingItemID); err == nil {
		payload.BookingID = item.BookingID
		payload.ItemName = item.ItemName
		payload.EventDate = item.EventDate
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventItemSettled, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_item_id", bookingItemID).Msg("publish event error")
		}
	}

	if s.worker != nil {
		if err := s.worker.EnqueueSheetSync(ctx, entry.VendorID, bookingItemID); err != nil {
			s.logger.Error().Err(err).Int64("booking_item_id", bookingItemID).Msg("sheet sync enqueue error")
		}
	}

	return entry, nil
}
