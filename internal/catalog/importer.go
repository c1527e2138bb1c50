package catalog

import (
	"context"
	"time"

	"postavka/internal/domain"

	"github.com/rs/zerolog"
)

// Importer pulls catalog lines into the local store. CreateBookingItem is a
// no-op for existing ids, so a full re-import is always safe.
type Importer struct {
	client *Client
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewImporter(client *Client, repo domain.Repository, logger *zerolog.Logger) *Importer {
	return &Importer{client: client, repo: repo, logger: logger}
}

// ImportOnce fetches the catalog and stores new items. Returns how many items
// were processed.
func (i *Importer) ImportOnce(ctx context.Context) (int, error) {
	items, err := i.client.FetchBookingItems(ctx)
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		if err := i.repo.CreateBookingItem(ctx, item); err != nil {
			return 0, err
		}
	}

	i.logger.Debug().Int("count", len(items)).Msg("catalog import finished")
	return len(items), nil
}

// Run re-imports on the given interval until ctx is cancelled. Import errors
// are logged and the loop keeps going.
func (i *Importer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := i.ImportOnce(ctx); err != nil {
				i.logger.Error().Err(err).Msg("catalog import error")
			}
		}
	}
}
