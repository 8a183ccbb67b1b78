package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// ExpensesPDF renders the expense list for a period as a PDF document.
func ExpensesPDF(expenses []core.Expense, from, to time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Reporte de gastos", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Reporte de gastos")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Período: %s a %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	pdf.Ln(12)

	header := []struct {
		label string
		width float64
	}{
		{"Fecha", 25},
		{"Tipo", 30},
		{"Categoría", 35},
		{"Descripción", 60},
		{"Monto", 40},
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range header {
		pdf.CellFormat(h.width, 8, h.label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	totals := Totals{}
	for _, e := range expenses {
		pdf.CellFormat(25, 7, e.Date.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, string(e.Kind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, e.Category, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, e.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%s %s", e.Amount.StringFixed(2), e.Currency), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		totals.add(e.Currency, e.Amount)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	for _, c := range []core.Currency{core.ARS, core.USD} {
		if v, ok := totals[c]; ok {
			pdf.Cell(0, 7, fmt.Sprintf("Total %s: %s", c, v.StringFixed(2)))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ExpensesExcel renders the expense list for a period as an xlsx workbook.
func ExpensesExcel(expenses []core.Expense, from, to time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Gastos"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetSheetRow(sheet, "A1", &[]any{
		fmt.Sprintf("Gastos %s a %s", from.Format("2006-01-02"), to.Format("2006-01-02")),
	}); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A3", &[]any{"Fecha", "Tipo", "Categoría", "Descripción", "Monto", "Moneda"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	totals := Totals{}
	for i, e := range expenses {
		cell := fmt.Sprintf("A%d", i+4)
		amount, _ := e.Amount.Float64()
		if err := f.SetSheetRow(sheet, cell, &[]any{
			e.Date.String(), string(e.Kind), e.Category, e.Description, amount, string(e.Currency),
		}); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
		totals.add(e.Currency, e.Amount)
	}

	row := len(expenses) + 5
	for _, c := range []core.Currency{core.ARS, core.USD} {
		if v, ok := totals[c]; ok {
			total, _ := v.Float64()
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(sheet, cell, &[]any{fmt.Sprintf("Total %s", c), total}); err != nil {
				return nil, fmt.Errorf("write total: %w", err)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
