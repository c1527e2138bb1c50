package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"postavka/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Расчёты"

// Exporter строит Excel отчёт по расчётам с поставщиком.
type Exporter struct {
	exportsPath string
	logger      *zerolog.Logger
}

func NewExporter(exportsPath string, logger *zerolog.Logger) *Exporter {
	return &Exporter{exportsPath: exportsPath, logger: logger}
}

// WriteSummary renders the summary workbook into w.
func (e *Exporter) WriteSummary(w io.Writer, summary *models.SettlementSummary) error {
	f, err := buildWorkbook(summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}

// SaveSummary сохраняет отчёт в папку экспорта и возвращает путь к файлу.
func (e *Exporter) SaveSummary(summary *models.SettlementSummary) (string, error) {
	if err := os.MkdirAll(e.exportsPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := buildWorkbook(summary)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("settlement_%d_%s_%s.xlsx",
		summary.VendorID, summary.Period, time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.exportsPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Settlement Excel file created")
	return filePath, nil
}

func buildWorkbook(summary *models.SettlementSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Поставщик %d, период: %s - %s",
		summary.VendorID,
		summary.From.Format("02.01.2006"), summary.To.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "F1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	row := 3
	row = writeSection(f, row, "Не оплачено", summary.Unsettled, summary.UnsettledTotalCents, "#FFEB9C")
	row++
	row = writeSection(f, row, "Оплачено", summary.Settled, summary.SettledTotalCents, "#C6EFCE")
	row++

	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Итого")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), formatCents(summary.GrandTotalCents))
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), totalStyle)

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "B", 30)
	for _, col := range []string{"C", "D", "E", "F"} {
		_ = f.SetColWidth(sheetName, col, col, 16)
	}

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// writeSection выводит одну секцию отчёта и возвращает следующую строку.
func writeSection(f *excelize.File, row int, title string, groups []models.BookingGroup, totalCents int64, color string) int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), title)
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), headerStyle)
	row++

	headers := []string{"Заказ", "Позиция", "Кол-во", "Дата мероприятия", "Поставка", "Сумма"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheetName, cell, header)
	}
	row++

	for _, group := range groups {
		for _, r := range group.Rows {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), group.BookingID)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.Item.ItemName)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Item.Quantity)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.Item.EventDate.Format("02.01.2006"))
			_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), suppliedLabel(r))
			_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), formatCents(r.Item.TotalPriceCents))
			row++
		}
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("Итого по заказу %d", group.BookingID))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), formatCents(group.TotalCents))
		row++
	}

	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("Итого: %s", title))
	_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), formatCents(totalCents))
	return row + 1
}

func suppliedLabel(r models.SettlementRow) string {
	switch {
	case r.VerifiedAt != nil:
		return "Проверено"
	case r.Supplied:
		return "Поставлено"
	default:
		return "Нет"
	}
}

// formatCents преобразует копейки в строку с рублями.
func formatCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
