package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"postavka/internal/models"

	"github.com/redis/go-redis/v9"
)

// Client is a simple HTTP client for the booking catalog that feeds items
// needing vendor assignment.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// item is the wire form of a catalog line. Dates come as YYYY-MM-DD.
type item struct {
	ID              int64  `json:"id"`
	BookingID       int64  `json:"booking_id"`
	ItemID          int64  `json:"item_id"`
	ItemName        string `json:"item_name"`
	Quantity        int64  `json:"quantity"`
	UnitPriceCents  int64  `json:"unit_price_cents"`
	TotalPriceCents int64  `json:"total_price_cents"`
	EventDate       string `json:"event_date"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for catalog reads.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// FetchBookingItems returns all pending catalog lines as booking items.
func (c *Client) FetchBookingItems(ctx context.Context) ([]*models.BookingItem, error) {
	endpoint := fmt.Sprintf("%s/api/v1/booking-items", c.baseURL)
	cacheKey := "catalog:booking_items"

	var raw json.RawMessage
	if !c.readCache(ctx, cacheKey, &raw) {
		if err := c.doGet(ctx, endpoint, &raw); err != nil {
			return nil, err
		}
		c.writeCache(ctx, cacheKey, raw)
	}

	wire, err := normalizeItems(raw)
	if err != nil {
		return nil, err
	}

	items := make([]*models.BookingItem, 0, len(wire))
	for _, it := range wire {
		converted, err := it.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, converted)
	}
	return items, nil
}

// normalizeItems accepts the three payload shapes the catalog endpoints are
// known to return, {"items": [...]}, {"data": [...]} and a bare array, so the
// rest of the code only ever sees one strict type.
func normalizeItems(raw json.RawMessage) ([]item, error) {
	var bare []item
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Items []item `json:"items"`
		Data  []item `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected catalog payload: %w", err)
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return nil, fmt.Errorf("catalog payload has neither items nor data")
}

func (it item) toModel() (*models.BookingItem, error) {
	if it.ID <= 0 {
		return nil, fmt.Errorf("catalog item without id")
	}
	eventDate, err := time.Parse("2006-01-02", it.EventDate)
	if err != nil {
		return nil, fmt.Errorf("bad event date %q for item %d: %w", it.EventDate, it.ID, err)
	}
	total := it.TotalPriceCents
	if total == 0 {
		total = it.UnitPriceCents * it.Quantity
	}
	return &models.BookingItem{
		ID:              it.ID,
		BookingID:       it.BookingID,
		ItemID:          it.ItemID,
		ItemName:        it.ItemName,
		Quantity:        it.Quantity,
		UnitPriceCents:  it.UnitPriceCents,
		TotalPriceCents: total,
		EventDate:       eventDate,
	}, nil
}

func (c *Client) readCache(ctx context.Context, key string, out *json.RawMessage) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	*out = val
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val json.RawMessage) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	_ = c.redis.Set(ctx, key, []byte(val), c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out *json.RawMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("catalog http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
