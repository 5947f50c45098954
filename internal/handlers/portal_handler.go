package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkaan/avenue-api/internal/middleware"
	"github.com/makkaan/avenue-api/internal/services"
)

// PortalHandler serves the client-facing read-only endpoints. A client sees
// only their own contract's ledger; nothing here mutates the ledger.
type PortalHandler struct {
	ledgerService *services.LedgerService
	exportService *services.ExportService
	reportService *services.ReportService
}

func NewPortalHandler(ledgerService *services.LedgerService, exportService *services.ExportService, reportService *services.ReportService) *PortalHandler {
	return &PortalHandler{
		ledgerService: ledgerService,
		exportService: exportService,
		reportService: reportService,
	}
}

// @Summary My Ledger
// @Description Get the reconciled ledger for the authenticated client's contract
// @Tags Portal
// @Produce json
// @Success 200 {object} services.LedgerView
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /client/ledger [get]
func (h *PortalHandler) Ledger(c *gin.Context) {
	clientID := middleware.GetUserID(c)

	view, err := h.ledgerService.ViewForClient(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No contract found for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Export My Ledger PDF
// @Description Downloads the client's own ledger as a PDF table
// @Tags Portal
// @Produce application/pdf
// @Success 200 {file} file "pdf"
// @Security BearerAuth
// @Router /client/ledger/export/pdf [get]
func (h *PortalHandler) ExportPDF(c *gin.Context) {
	clientID := middleware.GetUserID(c)

	data, filename, err := h.exportService.ExportPDFForClient(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No contract found for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary My Statement PDF
// @Description Downloads the letterhead account statement for the client's contract
// @Tags Portal
// @Produce application/pdf
// @Success 200 {file} file "pdf"
// @Security BearerAuth
// @Router /client/ledger/statement_pdf [get]
func (h *PortalHandler) StatementPDF(c *gin.Context) {
	clientID := middleware.GetUserID(c)

	buf, err := h.reportService.GenerateStatementPDFForClient(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No contract found for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%s.pdf", time.Now().Format("2006-01-02")))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
