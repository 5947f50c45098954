package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ExportService renders a contract's ledger as a downloadable file.
type ExportService struct {
	ledgerSvc *LedgerService
}

// NewExportService creates a new export service
func NewExportService(ledgerSvc *LedgerService) *ExportService {
	return &ExportService{ledgerSvc: ledgerSvc}
}

// ExportCSV renders the ledger as CSV
func (s *ExportService) ExportCSV(ctx context.Context, contractID uint) ([]byte, string, error) {
	view, err := s.ledgerSvc.View(ctx, contractID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	c := view.Contract
	_ = writer.Write([]string{"Payment Ledger", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Client", c.ClientName})
	_ = writer.Write([]string{"Project", c.Project})
	_ = writer.Write([]string{"Unit", c.UnitNumber})
	_ = writer.Write([]string{"Total Amount", fmt.Sprintf("%.0f", c.TotalAmount)})
	_ = writer.Write([]string{"Down Payment", fmt.Sprintf("%.0f", c.Terms.DownPayment)})
	_ = writer.Write([]string{"Monthly Installment", fmt.Sprintf("%.0f", c.Terms.MonthlyInstallment)})
	_ = writer.Write([]string{"Total Payable", fmt.Sprintf("%.0f", c.Terms.TotalPayable)})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Sr", "Description", "Due Date", "Installment", "Paid", "Balance", "Payment Date", "Late Days", "Surcharge"})
	for _, row := range view.Rows {
		_ = writer.Write([]string{
			fmt.Sprintf("%d", row.SrNo),
			row.Description,
			row.DueDate,
			fmt.Sprintf("%.0f", row.InstallmentAmount),
			fmt.Sprintf("%.0f", row.EffectivePaid),
			fmt.Sprintf("%.0f", row.Balance),
			row.EffectivePaymentDate,
			fmt.Sprintf("%d", row.LateDays),
			fmt.Sprintf("%.0f", row.LatePaymentSurcharge),
		})
	}
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Total Paid", fmt.Sprintf("%.0f", view.Totals.TotalPaid)})
	_ = writer.Write([]string{"Total Receivable", fmt.Sprintf("%.0f", view.Totals.TotalReceivable)})
	_ = writer.Write([]string{"Total Surcharge", fmt.Sprintf("%.0f", view.Totals.TotalSurcharge)})

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ledger_%d_%s.csv", contractID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportXLSX renders the ledger as an Excel workbook
func (s *ExportService) ExportXLSX(ctx context.Context, contractID uint) ([]byte, string, error) {
	view, err := s.ledgerSvc.View(ctx, contractID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F0F0F0"}, Pattern: 1},
	})

	c := view.Contract
	_ = f.SetCellValue(sheet, "A1", "Payment Ledger")
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	_ = f.SetCellValue(sheet, "A3", "Client")
	_ = f.SetCellValue(sheet, "B3", c.ClientName)
	_ = f.SetCellValue(sheet, "A4", "Project")
	_ = f.SetCellValue(sheet, "B4", c.Project)
	_ = f.SetCellValue(sheet, "A5", "Unit")
	_ = f.SetCellValue(sheet, "B5", c.UnitNumber)
	_ = f.SetCellValue(sheet, "A6", "Total Amount")
	_ = f.SetCellValue(sheet, "B6", c.TotalAmount)
	_ = f.SetCellValue(sheet, "A7", "Total Payable")
	_ = f.SetCellValue(sheet, "B7", c.Terms.TotalPayable)

	headers := []string{"Sr", "Description", "Due Date", "Installment", "Paid", "Balance", "Payment Date", "Late Days", "Surcharge"}
	headerRow := 9
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, row := range view.Rows {
		r := headerRow + 1 + i
		values := []interface{}{
			row.SrNo, row.Description, row.DueDate, row.InstallmentAmount,
			row.EffectivePaid, row.Balance, row.EffectivePaymentDate,
			row.LateDays, row.LatePaymentSurcharge,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, r)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	totalsRow := headerRow + len(view.Rows) + 2
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow), "Total Paid")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow), view.Totals.TotalPaid)
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow+1), "Total Receivable")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow+1), view.Totals.TotalReceivable)
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow+2), "Total Surcharge")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow+2), view.Totals.TotalSurcharge)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ledger_%d_%s.xlsx", contractID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportPDF renders the ledger as a PDF
func (s *ExportService) ExportPDF(ctx context.Context, contractID uint) ([]byte, string, error) {
	view, err := s.ledgerSvc.View(ctx, contractID)
	if err != nil {
		return nil, "", err
	}
	data, err := renderLedgerPDF(view)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ledger_%d_%s.pdf", contractID, time.Now().Format("2006-01-02"))
	return data, filename, nil
}

// ExportPDFForClient renders the client's own ledger as a PDF
func (s *ExportService) ExportPDFForClient(ctx context.Context, clientID uint) ([]byte, string, error) {
	view, err := s.ledgerSvc.ViewForClient(ctx, clientID)
	if err != nil {
		return nil, "", err
	}
	data, err := renderLedgerPDF(view)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ledger_%s.pdf", time.Now().Format("2006-01-02"))
	return data, filename, nil
}

func renderLedgerPDF(view *LedgerView) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	c := view.Contract

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Ledger")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 6, "Client: "+c.ClientName)
	pdf.Cell(60, 6, "Project: "+c.Project)
	pdf.Cell(60, 6, "Unit: "+c.UnitNumber)
	pdf.Ln(6)
	pdf.Cell(60, 6, fmt.Sprintf("Total Amount: %.0f", c.TotalAmount))
	pdf.Cell(60, 6, fmt.Sprintf("Total Payable: %.0f", c.Terms.TotalPayable))
	pdf.Cell(60, 6, fmt.Sprintf("Monthly Installment: %.0f", c.Terms.MonthlyInstallment))
	pdf.Ln(10)

	widths := []float64{12, 60, 26, 30, 30, 30, 26, 20, 26}
	headers := []string{"Sr", "Description", "Due Date", "Installment", "Paid", "Balance", "Paid On", "Late", "Surcharge"}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range view.Rows {
		cells := []string{
			fmt.Sprintf("%d", row.SrNo),
			row.Description,
			row.DueDate,
			fmt.Sprintf("%.0f", row.InstallmentAmount),
			fmt.Sprintf("%.0f", row.EffectivePaid),
			fmt.Sprintf("%.0f", row.Balance),
			row.EffectivePaymentDate,
			fmt.Sprintf("%d", row.LateDays),
			fmt.Sprintf("%.0f", row.LatePaymentSurcharge),
		}
		for i, cell := range cells {
			align := "R"
			if i == 1 || i == 2 || i == 6 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(70, 6, fmt.Sprintf("Total Paid: %.0f", view.Totals.TotalPaid))
	pdf.Cell(70, 6, fmt.Sprintf("Total Receivable: %.0f", view.Totals.TotalReceivable))
	pdf.Cell(70, 6, fmt.Sprintf("Total Surcharge: %.0f", view.Totals.TotalSurcharge))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(70, 6, fmt.Sprintf("Progress: %d%% (%d of %d paid)",
		view.Progress.Percent, view.Progress.PaidCount, view.Progress.TotalCount))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
