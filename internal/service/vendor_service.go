package service

import (
	"context"
	"sync"

	"postavka/internal/database"
	"postavka/internal/domain"
	"postavka/internal/models"

	"github.com/rs/zerolog"
)

// VendorService keeps an in-memory snapshot of the vendor roster on top of the
// repository. The roster is small and read on every candidate lookup, so it is
// cached and refreshed after each mutation.
type VendorService struct {
	repo       domain.Repository
	logger     *zerolog.Logger
	vendors    []*models.Vendor
	vendorsMap map[int64]*models.Vendor
	mu         sync.RWMutex
}

func NewVendorService(repo domain.Repository, vendors []*models.Vendor, logger *zerolog.Logger) *VendorService {
	vendorsMap := make(map[int64]*models.Vendor)
	for _, v := range vendors {
		vendorsMap[v.ID] = v
	}

	return &VendorService{
		repo:       repo,
		logger:     logger,
		vendors:    vendors,
		vendorsMap: vendorsMap,
	}
}

func (s *VendorService) GetAllVendors(ctx context.Context) ([]*models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vendors, nil
}

func (s *VendorService) GetVendor(ctx context.Context, id int64) (*models.Vendor, error) {
	s.mu.RLock()
	v, ok := s.vendorsMap[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}
	return nil, database.ErrNotFound
}

func (s *VendorService) SaveVendor(ctx context.Context, vendor *models.Vendor) error {
	if err := s.repo.CreateOrUpdateVendor(ctx, vendor); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *VendorService) SetVendorDisabled(ctx context.Context, id int64, disabled bool) error {
	if err := s.repo.SetVendorDisabled(ctx, id, disabled); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *VendorService) Refresh(ctx context.Context) error {
	vendors, err := s.repo.GetAllVendors(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors = vendors
	s.vendorsMap = make(map[int64]*models.Vendor)
	for _, v := range vendors {
		s.vendorsMap[v.ID] = v
	}
	return nil
}
