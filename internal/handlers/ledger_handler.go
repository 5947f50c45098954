package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/makkaan/avenue-api/internal/jobs"
	"github.com/makkaan/avenue-api/internal/middleware"
	"github.com/makkaan/avenue-api/internal/services"
	"github.com/makkaan/avenue-api/internal/storage"
)

// LedgerHandler serves the acquisition-side ledger endpoints: the reconciled
// view, row and child payment CRUD, proof uploads and exports.
type LedgerHandler struct {
	ledgerService *services.LedgerService
	exportService *services.ExportService
	reportService *services.ReportService
	auditService  *services.AuditService
	worker        *jobs.Worker
}

func NewLedgerHandler(
	ledgerService *services.LedgerService,
	exportService *services.ExportService,
	reportService *services.ReportService,
	auditService *services.AuditService,
	worker *jobs.Worker,
) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		exportService: exportService,
		reportService: reportService,
		auditService:  auditService,
		worker:        worker,
	}
}

// @Summary Show Ledger
// @Description Get the reconciled payment ledger for a contract
// @Tags Ledger
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} services.LedgerView
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/ledger/{contract_id} [get]
func (h *LedgerHandler) Show(c *gin.Context) {
	contractID, ok := paramID(c, "contract_id")
	if !ok {
		return
	}

	view, err := h.ledgerService.View(c.Request.Context(), contractID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Create Ledger Row
// @Description Appends a new installment row to the contract's schedule
// @Tags Ledger
// @Accept json
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Param request body services.RowInput true "Row data"
// @Success 201 {object} models.InstallmentRowResponse
// @Security BearerAuth
// @Router /admin/ledger/{contract_id}/rows [post]
func (h *LedgerHandler) CreateRow(c *gin.Context) {
	contractID, ok := paramID(c, "contract_id")
	if !ok {
		return
	}

	var input services.RowInput
	if err := BindNestedOrFlat(c, "row", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	row, err := h.ledgerService.CreateRow(c.Request.Context(), contractID, &input)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "CREATE", "InstallmentRow", row.ID, fmt.Sprintf("Added row %d to contract %d", row.SrNo, contractID))
	c.JSON(http.StatusCreated, row.ToResponse())
}

// @Summary Update Ledger Row
// @Description Edits an installment row
// @Tags Ledger
// @Accept json
// @Produce json
// @Param row_id path int true "Row ID"
// @Param request body services.RowInput true "Row data"
// @Success 200 {object} models.InstallmentRowResponse
// @Security BearerAuth
// @Router /admin/ledger/rows/{row_id} [put]
func (h *LedgerHandler) UpdateRow(c *gin.Context) {
	rowID, ok := paramID(c, "row_id")
	if !ok {
		return
	}

	var input services.RowInput
	if err := BindNestedOrFlat(c, "row", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	row, err := h.ledgerService.UpdateRow(c.Request.Context(), rowID, &input)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "UPDATE", "InstallmentRow", rowID, "Updated ledger row")
	c.JSON(http.StatusOK, row.ToResponse())
}

// @Summary Delete Ledger Row
// @Description Deletes a row and its child payments
// @Tags Ledger
// @Produce json
// @Param row_id path int true "Row ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /admin/ledger/rows/{row_id} [delete]
func (h *LedgerHandler) DeleteRow(c *gin.Context) {
	rowID, ok := paramID(c, "row_id")
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteRow(c.Request.Context(), rowID); err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "DELETE", "InstallmentRow", rowID, "Deleted ledger row")
	c.JSON(http.StatusOK, gin.H{"message": "Row deleted successfully"})
}

// @Summary Create Child Payment
// @Description Records a partial payment under an installment row
// @Tags Ledger
// @Accept json
// @Produce json
// @Param row_id path int true "Row ID"
// @Param request body services.ChildInput true "Payment data"
// @Success 201 {object} models.ChildPaymentResponse
// @Security BearerAuth
// @Router /admin/ledger/rows/{row_id}/children [post]
func (h *LedgerHandler) CreateChild(c *gin.Context) {
	rowID, ok := paramID(c, "row_id")
	if !ok {
		return
	}

	var input services.ChildInput
	if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	child, err := h.ledgerService.CreateChild(c.Request.Context(), rowID, &input)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "CREATE", "ChildPayment", child.ID, fmt.Sprintf("Recorded partial payment on row %d", rowID))
	c.JSON(http.StatusCreated, child.ToResponse())
}

// @Summary Update Child Payment
// @Description Edits a partial payment
// @Tags Ledger
// @Accept json
// @Produce json
// @Param child_id path int true "Child Payment ID"
// @Param request body services.ChildInput true "Payment data"
// @Success 200 {object} models.ChildPaymentResponse
// @Security BearerAuth
// @Router /admin/ledger/children/{child_id} [put]
func (h *LedgerHandler) UpdateChild(c *gin.Context) {
	childID, ok := paramID(c, "child_id")
	if !ok {
		return
	}

	var input services.ChildInput
	if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	child, err := h.ledgerService.UpdateChild(c.Request.Context(), childID, &input)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "UPDATE", "ChildPayment", childID, "Updated partial payment")
	c.JSON(http.StatusOK, child.ToResponse())
}

// @Summary Delete Child Payment
// @Description Deletes a partial payment
// @Tags Ledger
// @Produce json
// @Param child_id path int true "Child Payment ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /admin/ledger/children/{child_id} [delete]
func (h *LedgerHandler) DeleteChild(c *gin.Context) {
	childID, ok := paramID(c, "child_id")
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteChild(c.Request.Context(), childID); err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "DELETE", "ChildPayment", childID, "Deleted partial payment")
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

// @Summary Upload Payment Proof
// @Description Attaches a proof file (PDF or image) to an installment row
// @Tags Ledger
// @Accept multipart/form-data
// @Produce json
// @Param row_id path int true "Row ID"
// @Param proof formData file true "Proof file"
// @Success 200 {object} models.InstallmentRowResponse
// @Security BearerAuth
// @Router /admin/ledger/rows/{row_id}/proof [post]
func (h *LedgerHandler) UploadProof(c *gin.Context) {
	rowID, ok := paramID(c, "row_id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proof file is required"})
		return
	}
	defer file.Close()

	if c.Request.ContentLength > 0 && c.Request.ContentLength > storage.MaxFileSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large"})
		return
	}

	row, err := h.ledgerService.AttachProof(c.Request.Context(), rowID, file, header)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	h.audit(c, "UPDATE", "InstallmentRow", rowID, "Uploaded payment proof")
	c.JSON(http.StatusOK, row.ToResponse())
}

// @Summary Download Payment Proof
// @Description Downloads the proof file attached to a row
// @Tags Ledger
// @Produce application/octet-stream
// @Param row_id path int true "Row ID"
// @Success 200 {file} file "proof"
// @Security BearerAuth
// @Router /admin/ledger/rows/{row_id}/proof [get]
func (h *LedgerHandler) DownloadProof(c *gin.Context) {
	rowID, ok := paramID(c, "row_id")
	if !ok {
		return
	}

	path, err := h.ledgerService.ProofPath(c.Request.Context(), rowID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proof not found"})
		return
	}

	c.File(path)
}

// @Summary Export Ledger PDF
// @Description Downloads the ledger as a PDF table
// @Tags Ledger
// @Produce application/pdf
// @Param contract_id path int true "Contract ID"
// @Success 200 {file} file "pdf"
// @Security BearerAuth
// @Router /admin/ledger/{contract_id}/export/pdf [get]
func (h *LedgerHandler) ExportPDF(c *gin.Context) {
	contractID, ok := paramID(c, "contract_id")
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportPDF(c.Request.Context(), contractID)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Export Ledger XLSX
// @Description Downloads the ledger as an Excel workbook
// @Tags Ledger
// @Produce application/octet-stream
// @Param contract_id path int true "Contract ID"
// @Success 200 {file} file "xlsx"
// @Security BearerAuth
// @Router /admin/ledger/{contract_id}/export/xlsx [get]
func (h *LedgerHandler) ExportXLSX(c *gin.Context) {
	contractID, ok := paramID(c, "contract_id")
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportXLSX(c.Request.Context(), contractID)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// @Summary Export Ledger CSV
// @Description Downloads the ledger as CSV
// @Tags Ledger
// @Produce text/csv
// @Param contract_id path int true "Contract ID"
// @Success 200 {file} file "csv"
// @Security BearerAuth
// @Router /admin/ledger/{contract_id}/export/csv [get]
func (h *LedgerHandler) ExportCSV(c *gin.Context) {
	contractID, ok := paramID(c, "contract_id")
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportCSV(c.Request.Context(), contractID)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Statement PDF
// @Description Downloads the letterhead account statement for a contract
// @Tags Ledger
// @Produce application/pdf
// @Param contract_id path int true "Contract ID"
// @Success 200 {file} file "pdf"
// @Security BearerAuth
// @Router /admin/ledger/{contract_id}/statement_pdf [get]
func (h *LedgerHandler) StatementPDF(c *gin.Context) {
	contractID, ok := paramID(c, "contract_id")
	if !ok {
		return
	}

	buf, err := h.reportService.GenerateStatementPDF(c.Request.Context(), contractID)
	if err != nil {
		h.renderLedgerError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%d.pdf", contractID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *LedgerHandler) renderLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *LedgerHandler) audit(c *gin.Context, action, entity string, entityID uint, details string) {
	userID := middleware.GetUserID(c)
	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()

	h.worker.EnqueueAsync(func(ctx context.Context) error {
		return h.auditService.Log(ctx, userID, action, entity, entityID, details, ip, userAgent)
	})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
