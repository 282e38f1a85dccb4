package invoice

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mmeshcher/novastore/internal/model"
)

const sheetName = "Invoice"

// WriteXLSX выгружает счёт в книгу XLSX с одним листом.
func WriteXLSX(w io.Writer, inv Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	created := ""
	if !inv.CreatedAt.IsZero() {
		created = inv.CreatedAt.Format("2006-01-02 15:04")
	}

	rows := [][]any{
		{inv.Company.Name},
		{inv.Company.Address, inv.Company.Phone, inv.Company.Email},
		{},
		{"Invoice", "#" + inv.OrderID},
		{"Date", created},
		{"Status", string(inv.Status)},
		{"Payment", inv.Payment},
		{},
		{"Bill to", inv.BillTo.Name},
		{"", inv.BillTo.Email},
		{"", inv.BillTo.Address},
		{},
		{"Item", "Qty", "Price", "Subtotal"},
	}
	headerRow := len(rows)

	for _, l := range inv.Lines {
		rows = append(rows, []any{l.Title, l.Qty, model.FormatMoney(l.Price), model.FormatMoney(l.Subtotal)})
	}
	rows = append(rows, []any{}, []any{"Total", "", "", model.FormatMoney(inv.Total)})

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
		return fmt.Errorf("style company: %w", err)
	}
	headerStart, _ := excelize.CoordinatesToCellName(1, headerRow)
	headerEnd, _ := excelize.CoordinatesToCellName(4, headerRow)
	if err := f.SetCellStyle(sheetName, headerStart, headerEnd, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, len(rows))
	if err := f.SetCellStyle(sheetName, totalCell, totalCell, bold); err != nil {
		return fmt.Errorf("style total: %w", err)
	}

	if err := f.SetColWidth(sheetName, "A", "A", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
