package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"postavka/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const ledgerSheet = "Settlements"

var errRowNotFound = errors.New("settlement row not found")

// SheetsService зеркалирует расчёты с поставщиками в Google таблицу.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = service.WarmUpCache(ctx)
	}()

	return service, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ledgerSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache by reading the item id column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ledgerSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id := cellID(row[0]); id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendSettlementRow upserts one booking item row keyed by item id in column A.
func (s *SheetsService) AppendSettlementRow(ctx context.Context, vendor *models.Vendor, row *models.SettlementRow) error {
	if row == nil {
		return fmt.Errorf("settlement row is nil")
	}

	rowIdx, err := s.findItemRow(ctx, row.Item.ID)
	if errors.Is(err, errRowNotFound) {
		return s.appendRow(ctx, vendor, row)
	}
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:K%d", ledgerSheet, rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{settlementRowValues(vendor, row)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *SheetsService) appendRow(ctx context.Context, vendor *models.Vendor, row *models.SettlementRow) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{settlementRowValues(vendor, row)},
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, ledgerSheet+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		var col string
		var rowIdx int
		if _, scanErr := fmt.Sscanf(resp.Updates.UpdatedRange, ledgerSheet+"!%1s%d", &col, &rowIdx); scanErr == nil && rowIdx > 0 {
			s.setCachedRow(row.Item.ID, rowIdx)
		}
	}
	return nil
}

// ReplaceSettlementSheet полностью перезаписывает вкладку поставщика.
func (s *SheetsService) ReplaceSettlementSheet(ctx context.Context, summary *models.SettlementSummary) error {
	if summary == nil {
		return fmt.Errorf("summary is nil")
	}

	sheetName := fmt.Sprintf("Vendor %d", summary.VendorID)
	if err := s.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	clearRange := sheetName + "!A:Z"
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear vendor sheet: %v", err)
	}

	values := [][]interface{}{
		{fmt.Sprintf("Период: %s - %s", summary.From.Format("02.01.2006"), summary.To.Format("02.01.2006"))},
		{"Item ID", "Booking ID", "Item", "Qty", "Amount", "Event Date", "Supplied", "Verified", "Settled", "Settled At", "Vendor"},
	}
	values = appendGroupValues(values, summary.Unsettled)
	values = appendGroupValues(values, summary.Settled)
	values = append(values, []interface{}{
		"", "", "Итого", "", formatAmount(summary.GrandTotalCents), "", "", "", "", "", "",
	})

	valueRange := &sheets.ValueRange{Values: values}
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, sheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update vendor sheet: %v", err)
	}
	return nil
}

// ensureSheet создаёт вкладку, если её ещё нет.
func (s *SheetsService) ensureSheet(ctx context.Context, sheetName string) error {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to get spreadsheet: %v", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
		},
	}
	if _, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to add sheet %q: %v", sheetName, err)
	}
	return nil
}

// findItemRow locates the 1-based row index for a booking item id in column A.
func (s *SheetsService) findItemRow(ctx context.Context, itemID int64) (int, error) {
	if itemID == 0 {
		return 0, fmt.Errorf("item id is required")
	}

	if row, ok := s.getCachedRow(itemID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ledgerSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if cellID(row[0]) == itemID {
			rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
			s.setCachedRow(itemID, rowIdx)
			return rowIdx, nil
		}
	}
	return 0, errRowNotFound
}

func cellID(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		var id int64
		_, _ = fmt.Sscanf(val, "%d", &id)
		return id
	}
	return 0
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
}

func appendGroupValues(values [][]interface{}, groups []models.BookingGroup) [][]interface{} {
	for _, group := range groups {
		for i := range group.Rows {
			values = append(values, settlementRowValues(nil, &group.Rows[i]))
		}
	}
	return values
}

func settlementRowValues(vendor *models.Vendor, row *models.SettlementRow) []interface{} {
	vendorName := ""
	if vendor != nil {
		vendorName = vendor.Name
	}
	return []interface{}{
		row.Item.ID,
		row.Item.BookingID,
		row.Item.ItemName,
		row.Item.Quantity,
		formatAmount(row.Item.TotalPriceCents),
		row.Item.EventDate.Format("2006-01-02"),
		row.Supplied,
		row.VerifiedAt != nil,
		row.Settled,
		formatOptionalTime(row.SettledAt),
		vendorName,
	}
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
