package service

import (
	"context"
	"strings"

	"postavka/internal/database"
	"postavka/internal/domain"
	"postavka/internal/events"
	"postavka/internal/metrics"
	"postavka/internal/models"

	"github.com/rs/zerolog"
)

type AssignmentService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	worker   domain.OutboxWorker
	logger   *zerolog.Logger
}

func NewAssignmentService(repo domain.Repository, eventBus domain.EventPublisher, worker domain.OutboxWorker, logger *zerolog.Logger) *AssignmentService {
	return &AssignmentService{
		repo:     repo,
		eventBus: eventBus,
		worker:   worker,
		logger:   logger,
	}
}

func (s *AssignmentService) GetAssignment(ctx context.Context, bookingItemID int64) (*models.Assignment, error) {
	return s.repo.GetAssignment(ctx, bookingItemID)
}

// ListCandidates returns vendors currently allowed for the item: not disabled
// and without a rejection on record for this item.
func (s *AssignmentService) ListCandidates(ctx context.Context, bookingItemID int64) ([]*models.Vendor, error) {
	if _, err := s.repo.GetBookingItem(ctx, bookingItemID); err != nil {
		return nil, err
	}
	return s.repo.ListEligibleVendors(ctx, bookingItemID)
}

// Assign attaches a vendor to a fresh, never-assigned item. Items whose prior
// assignment fell through go back through Reassign.
func (s *AssignmentService) Assign(ctx context.Context, bookingItemID, vendorID int64) (*models.Assignment, error) {
	a, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	if a.Status != models.StatusUnassigned {
		return nil, database.ErrInvalidTransition
	}

	return s.applyAssign(ctx, bookingItemID, a.Version, vendorID)
}

// Reassign re-attaches a vendor after a rejection or cancellation. The same
// candidate rules apply, so a vendor who rejected this item stays excluded
// while a merely cancelled one may come back. Active assignments must be
// cancelled or rejected first.
func (s *AssignmentService) Reassign(ctx context.Context, bookingItemID, vendorID int64) (*models.Assignment, error) {
	a, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	switch a.Status {
	case models.StatusRejected, models.StatusCancelled:
	default:
		return nil, database.ErrInvalidTransition
	}

	return s.applyAssign(ctx, bookingItemID, a.Version, vendorID)
}

func (s *AssignmentService) applyAssign(ctx context.Context, bookingItemID, version, vendorID int64) (*models.Assignment, error) {
	if err := s.repo.AssignVendorWithVersion(ctx, bookingItemID, version, vendorID); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventAssignmentAssigned, updated, "", "")
	return updated, nil
}

// Accept fixes the vendor's commitment to supply the item.
func (s *AssignmentService) Accept(ctx context.Context, bookingItemID int64) (*models.Assignment, error) {
	a, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	if a.Status != models.StatusAssigned {
		return nil, database.ErrInvalidTransition
	}

	if err := s.repo.AcceptAssignmentWithVersion(ctx, bookingItemID, a.Version); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventAssignmentAccepted, updated, "", "")
	return updated, nil
}

// Reject records the vendor's refusal. The note is mandatory and the vendor is
// permanently excluded from this item's candidates.
func (s *AssignmentService) Reject(ctx context.Context, bookingItemID int64, note string) (*models.Assignment, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, database.ErrEmptyNote
	}

	a, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	if a.Status != models.StatusAssigned {
		return nil, database.ErrInvalidTransition
	}

	if err := s.repo.RejectAssignmentWithVersion(ctx, bookingItemID, a.Version, note); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventAssignmentRejected, updated, note, "")
	return updated, nil
}

// Cancel detaches the vendor by operator decision. Unlike Reject it leaves the
// vendor eligible for future assignment to the same item.
func (s *AssignmentService) Cancel(ctx context.Context, bookingItemID int64, note, reason string) (*models.Assignment, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, database.ErrEmptyNote
	}
	if !models.ValidCancelReason(reason) {
		return nil, database.ErrInvalidReason
	}

	a, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	if !a.Active() {
		return nil, database.ErrInvalidTransition
	}

	if err := s.repo.CancelAssignmentWithVersion(ctx, bookingItemID, a.Version, note, reason); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetAssignment(ctx, bookingItemID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventAssignmentCancelled, updated, note, reason)
	return updated, nil
}

// CancelBooking cancels every active assignment of the booking in one shot,
// for the case when the customer cancels the whole order.
func (s *AssignmentService) CancelBooking(ctx context.Context, bookingID int64, note, reason string) ([]int64, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, database.ErrEmptyNote
	}
	if !models.ValidCancelReason(reason) {
		return nil, database.ErrInvalidReason
	}

	ids, err := s.repo.CancelActiveAssignmentsForBooking(ctx, bookingID, note, reason)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		a, err := s.repo.GetAssignment(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Int64("booking_item_id", id).Msg("read cancelled assignment error")
			continue
		}
		s.publishEvent(ctx, events.EventAssignmentCancelled, a, note, reason)
	}

	return ids, nil
}

func (s *AssignmentService) publishEvent(ctx context.Context, eventType string, a *models.Assignment, note, reason string) {
	metrics.IncTransition(a.Status)

	payload := events.AssignmentEventPayload{
		BookingItemID: a.BookingItemID,
		Status:        a.Status,
		Note:          note,
		Reason:        reason,
	}
	if a.VendorID != nil {
		payload.VendorID = *a.VendorID
		if vendor, err := s.repo.GetVendor(ctx, *a.VendorID); err == nil {
			payload.VendorName = vendor.Name
		}
	}
	if item, err := s.repo.GetBookingItem(ctx, a.BookingItemID); err == nil {
		payload.BookingID = item.BookingID
		payload.ItemName = item.ItemName
		payload.EventDate = item.EventDate
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
			s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_item_id", a.BookingItemID).Msg("publish event error")
		}
	}

	if s.worker != nil {
		if err := s.worker.EnqueueNotify(ctx, eventType, a.BookingItemID, payload); err != nil {
			s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_item_id", a.BookingItemID).Msg("notify enqueue error")
		}
	}
}
