package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkaan/avenue-api/internal/jobs"
	"github.com/makkaan/avenue-api/internal/middleware"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/makkaan/avenue-api/internal/services"
)

// ClientHandler serves the acquisition-side client contract endpoints
type ClientHandler struct {
	clientService *services.ClientService
	auditService  *services.AuditService
	worker        *jobs.Worker
}

func NewClientHandler(clientService *services.ClientService, auditService *services.AuditService, worker *jobs.Worker) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		auditService:  auditService,
		worker:        worker,
	}
}

// @Summary List Clients
// @Description Get a paginated list of client contracts
// @Tags Clients
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Search by name, email, CNIC or unit number"
// @Param status query string false "Filter by contract status"
// @Param project query string false "Filter by project"
// @Param unit_type query string false "Filter by unit type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/clients [get]
func (h *ClientHandler) Index(c *gin.Context) {
	listQuery := repository.NewListQuery()
	listQuery.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	listQuery.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	listQuery.Search = c.Query("search")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		listQuery.SortBy = parts[0]
		if len(parts) > 1 {
			listQuery.SortDir = parts[1]
		}
	}

	query := &repository.ContractQuery{
		ListQuery: listQuery,
		Status:    c.Query("status"),
		Project:   c.Query("project"),
		UnitType:  c.Query("unit_type"),
	}

	clients, total, err := h.clientService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"pagination": gin.H{
			"page":        listQuery.Page,
			"per_page":    listQuery.PerPage,
			"total":       total,
			"total_pages": (total + int64(listQuery.PerPage) - 1) / int64(listQuery.PerPage),
		},
	})
}

// @Summary Create Client
// @Description Creates a client account with its unit, contract and installment schedule
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body services.CreateClientInput true "Client data"
// @Success 201 {object} models.ContractResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /admin/clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var input services.CreateClientInput
	if err := BindNestedOrFlat(c, "client", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	creatorID := middleware.GetUserID(c)
	resp, err := h.clientService.Create(c.Request.Context(), &input, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrDuplicate):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.audit(c, "CREATE", "Contract", resp.ID, fmt.Sprintf("Created contract for %s, unit %s", resp.ClientName, resp.UnitNumber))
	c.JSON(http.StatusCreated, resp)
}

// @Summary Show Client
// @Description Get a client contract with its schedule and progress
// @Tags Clients
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/clients/{contract_id} [get]
func (h *ClientHandler) Show(c *gin.Context) {
	contractID, ok := h.contractID(c)
	if !ok {
		return
	}

	resp, err := h.clientService.Show(c.Request.Context(), contractID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update Client
// @Description Partially update the client, unit or contract dates
// @Tags Clients
// @Accept json
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Param request body services.UpdateClientInput true "Fields to update"
// @Success 200 {object} models.ContractResponse
// @Security BearerAuth
// @Router /admin/clients/{contract_id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	contractID, ok := h.contractID(c)
	if !ok {
		return
	}

	var input services.UpdateClientInput
	if err := BindNestedOrFlat(c, "client", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.clientService.Update(c.Request.Context(), contractID, &input)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "UPDATE", "Contract", contractID, "Updated contract details")
	c.JSON(http.StatusOK, resp)
}

// @Summary Delete Client
// @Description Deletes the contract, its unit, ledger and the client account
// @Tags Clients
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /admin/clients/{contract_id} [delete]
func (h *ClientHandler) Destroy(c *gin.Context) {
	contractID, ok := h.contractID(c)
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), contractID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "DELETE", "Contract", contractID, "Deleted contract and client account")
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// @Summary Client Stats
// @Description Contract counts by status
// @Tags Clients
// @Produce json
// @Success 200 {object} repository.ContractStats
// @Security BearerAuth
// @Router /admin/clients/stats [get]
func (h *ClientHandler) Stats(c *gin.Context) {
	stats, err := h.clientService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type StatusRequest struct {
	Event string `json:"event" binding:"required"`
}

// @Summary Update Contract Status
// @Description Drives the contract state machine (activate, deactivate, close, reopen)
// @Tags Clients
// @Accept json
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Param request body StatusRequest true "Status event"
// @Success 200 {object} models.ContractResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /admin/clients/{contract_id}/status [patch]
func (h *ClientHandler) UpdateStatus(c *gin.Context) {
	contractID, ok := h.contractID(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status event is required"})
		return
	}

	resp, err := h.clientService.UpdateStatus(c.Request.Context(), contractID, req.Event)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidState):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.audit(c, "UPDATE", "Contract", contractID, fmt.Sprintf("Status event %q applied, now %s", req.Event, resp.Status))
	c.JSON(http.StatusOK, resp)
}

func (h *ClientHandler) contractID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("contract_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract ID"})
		return 0, false
	}
	return uint(id), true
}

// audit records the admin action without blocking the response
func (h *ClientHandler) audit(c *gin.Context, action, entity string, entityID uint, details string) {
	userID := middleware.GetUserID(c)
	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()

	h.worker.EnqueueAsync(func(ctx context.Context) error {
		return h.auditService.Log(ctx, userID, action, entity, entityID, details, ip, userAgent)
	})
}
