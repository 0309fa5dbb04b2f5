// export.go — выгрузка каталога дашборда в XLSX (xuri/excelize).
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportSheet — имя листа выгрузки.
const ExportSheet = "Documents"

// exportHeaders — заголовки колонок выгрузки.
var exportHeaders = []string{
	"Category",
	"File Name",
	"Financial Year",
	"Client",
	"Email",
	"Uploaded",
	"URL",
}

// ExportService формирует XLSX из сгруппированного каталога.
type ExportService struct {
	logger *slog.Logger
}

// NewExportService создаёт сервис выгрузки.
func NewExportService(logger *slog.Logger) *ExportService {
	return &ExportService{
		logger: logger.With(slog.String("component", "export_service")),
	}
}

// Workbook возвращает XLSX (байты) с документами дашборда,
// отфильтрованными по году (nil — активный фильтр).
// Строки идут по категориям в каноническом порядке.
func (s *ExportService) Workbook(v *View, year *string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Переименовываем лист по умолчанию вместо создания нового
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return nil, fmt.Errorf("лист %s: %w", ExportSheet, err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ExportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("заголовок %s: %w", h, err)
		}
	}

	row := 2
	for _, g := range v.Groups(year) {
		for _, d := range g.Documents {
			uploaded := ""
			if !d.CreatedAt.IsZero() {
				uploaded = d.CreatedAt.UTC().Format("2006-01-02")
			}

			client := d.Owner.Name
			if d.OwnerOrphaned {
				client = "(удалён)"
			}

			values := []any{
				string(g.Type),
				d.FileName,
				d.FinancialYear,
				client,
				d.Owner.Email,
				uploaded,
				d.FileURL,
			}
			for col, val := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(ExportSheet, cell, val); err != nil {
					return nil, fmt.Errorf("ячейка %s: %w", cell, err)
				}
			}
			row++
		}
	}

	_ = f.SetColWidth(ExportSheet, "A", "A", 28) // категория
	_ = f.SetColWidth(ExportSheet, "B", "B", 36) // имя файла
	_ = f.SetColWidth(ExportSheet, "C", "C", 14) // год
	_ = f.SetColWidth(ExportSheet, "D", "E", 26) // клиент
	_ = f.SetColWidth(ExportSheet, "F", "F", 12) // дата
	_ = f.SetColWidth(ExportSheet, "G", "G", 60) // URL

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("запись xlsx: %w", err)
	}

	s.logger.Info("Выгрузка сформирована",
		slog.String("view_id", v.ID()),
		slog.Int("rows", row-2),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}
