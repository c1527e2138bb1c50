package service

import (
	"context"

	"postavka/internal/domain"
	"postavka/internal/events"
	"postavka/internal/models"

	"github.com/rs/zerolog"
)

// FulfillmentService tracks the physical side of an item: whether it was
// supplied and whether the supply was verified on site. Supply facts are
// deliberately independent of the assignment state machine.
type FulfillmentService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	worker   domain.OutboxWorker
	logger   *zerolog.Logger
}

func NewFulfillmentService(repo domain.Repository, eventBus domain.EventPublisher, worker domain.OutboxWorker, logger *zerolog.Logger) *FulfillmentService {
	return &FulfillmentService{
		repo:     repo,
		eventBus: eventBus,
		worker:   worker,
		logger:   logger,
	}
}

func (s *FulfillmentService) SetSupplied(ctx context.Context, bookingItemID int64, supplied bool) (*models.SupplyRecord, error) {
	if _, err := s.repo.GetBookingItem(ctx, bookingItemID); err != nil {
		return nil, err
	}

	rec, err := s.repo.SetSupplied(ctx, bookingItemID, supplied)
	if err != nil {
		return nil, err
	}

	if supplied {
		s.publishSupplied(ctx, bookingItemID, rec)
	}

	return rec, nil
}

func (s *FulfillmentService) MarkVerified(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error) {
	if _, err := s.repo.GetBookingItem(ctx, bookingItemID); err != nil {
		return nil, err
	}
	return s.repo.MarkVerified(ctx, bookingItemID)
}

func (s *FulfillmentService) GetSupplyRecord(ctx context.Context, bookingItemID int64) (*models.SupplyRecord, error) {
	return s.repo.GetSupplyRecord(ctx, bookingItemID)
}

func (s *FulfillmentService) publishSupplied(ctx context.Context, bookingItemID int64, rec *models.SupplyRecord) {
	payload := events.AssignmentEventPayload{
		BookingItemID: bookingItemID,
		Status:        models.StatusAccepted,
	}
	if item, err := s.repo.GetBookingItem(ctx, bookingItemID); err == nil {
		payload.BookingID = item.BookingID
		payload.ItemName = item.ItemName
		payload.EventDate = item.EventDate
	}
	if a, err := s.repo.GetAssignment(ctx, bookingItemID); err == nil {
		payload.Status = a.Status
		if a.VendorID != nil {
			payload.VendorID = *a.VendorID
		}
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventItemSupplied, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_item_id", bookingItemID).Msg("publish event error")
		}
	}

	if s.worker != nil {
		if err := s.worker.EnqueueNotify(ctx, events.EventItemSupplied, bookingItemID, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_item_id", bookingItemID).Msg("notify enqueue error")
		}
	}
}
