package handlers

import (
	"github.com/makkaan/avenue-api/internal/jobs"
	"github.com/makkaan/avenue-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	Client *ClientHandler
	Ledger *LedgerHandler
	Portal *PortalHandler
	Audit  *AuditHandler
	Job    *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(),
		Auth:   NewAuthHandler(svcs.Auth),
		Client: NewClientHandler(svcs.Client, svcs.Audit, worker),
		Ledger: NewLedgerHandler(svcs.Ledger, svcs.Export, svcs.Report, svcs.Audit, worker),
		Portal: NewPortalHandler(svcs.Ledger, svcs.Export, svcs.Report),
		Audit:  NewAuditHandler(svcs.Audit),
		Job:    NewJobHandler(svcs.Job),
	}
}
