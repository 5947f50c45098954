package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// ReportService renders HTML-templated statement documents to PDF. Unlike the
// table exports this produces the letterhead statement handed to clients.
type ReportService struct {
	ledgerSvc *LedgerService
}

// NewReportService creates a new report service
func NewReportService(ledgerSvc *LedgerService) *ReportService {
	return &ReportService{ledgerSvc: ledgerSvc}
}

// GenerateStatementPDF renders the account statement for a contract
func (s *ReportService) GenerateStatementPDF(ctx context.Context, contractID uint) (*bytes.Buffer, error) {
	view, err := s.ledgerSvc.View(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.renderStatement(view)
}

// GenerateStatementPDFForClient renders the statement for the client's own contract
func (s *ReportService) GenerateStatementPDFForClient(ctx context.Context, clientID uint) (*bytes.Buffer, error) {
	view, err := s.ledgerSvc.ViewForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.renderStatement(view)
}

func (s *ReportService) renderStatement(view *LedgerView) (*bytes.Buffer, error) {
	type rowData struct {
		SrNo        int
		Description string
		DueDate     string
		Installment string
		Paid        string
		Balance     string
		PaymentDate string
		LateDays    int
		Surcharge   string
	}

	c := view.Contract
	data := map[string]interface{}{
		"ClientName":         c.ClientName,
		"ClientEmail":        c.ClientEmail,
		"ClientPhone":        c.ClientPhone,
		"ClientCNIC":         c.ClientCNIC,
		"Project":            c.Project,
		"UnitNumber":         c.UnitNumber,
		"UnitType":           c.UnitType,
		"TotalAmount":        formatAmount(c.TotalAmount),
		"DownPayment":        formatAmount(c.Terms.DownPayment),
		"PossessionAmount":   formatAmount(c.Terms.PossessionAmount),
		"MonthlyInstallment": formatAmount(c.Terms.MonthlyInstallment),
		"TotalPayable":       formatAmount(c.Terms.TotalPayable),
		"TotalPaid":          formatAmount(view.Totals.TotalPaid),
		"TotalReceivable":    formatAmount(view.Totals.TotalReceivable),
		"TotalSurcharge":     formatAmount(view.Totals.TotalSurcharge),
		"ProgressPercent":    view.Progress.Percent,
		"GeneratedDate":      time.Now().Format("02/01/2006"),
	}

	var rows []rowData
	for _, row := range view.Rows {
		rows = append(rows, rowData{
			SrNo:        row.SrNo,
			Description: row.Description,
			DueDate:     row.DueDate,
			Installment: formatAmount(row.InstallmentAmount),
			Paid:        formatAmount(row.EffectivePaid),
			Balance:     formatAmount(row.Balance),
			PaymentDate: row.EffectivePaymentDate,
			LateDays:    row.LateDays,
			Surcharge:   formatAmount(row.LatePaymentSurcharge),
		})
	}
	data["Rows"] = rows

	return s.generatePDF("statement.html", data)
}

// generatePDF parses an HTML template and converts it with wkhtmltopdf
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
