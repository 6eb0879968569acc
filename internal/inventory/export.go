package inventory

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"stockgate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Inventory"

var exportHeader = []any{"ID", "Name", "SKU", "RFID Tag", "Quantity", "Minimum Stock", "Status"}

// ExportXLSX renders items as a single-sheet workbook.
func ExportXLSX(items []models.InventoryItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		tag := ""
		if item.Tag != nil {
			tag = *item.Tag
		}
		status := "OK"
		if item.LowStock() {
			status = "LOW STOCK"
		}
		row := []any{item.ID, item.Name, item.SKU, tag, item.Quantity, item.MinimumStock, status}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) Export(ctx context.Context) ([]byte, error) {
	items, err := s.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	data, err := ExportXLSX(items)
	if err != nil {
		return nil, s.internal("export items", err)
	}
	return data, nil
}

// GET /api/inventory/export
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := svc.Export(c.UserContext())
		if err != nil {
			return err
		}
		filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
		c.Attachment(filename)
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return c.Send(data)
	}
}
