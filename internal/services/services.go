package services

import (
	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/jobs"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/makkaan/avenue-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth      *AuthService
	Client    *ClientService
	Ledger    *LedgerService
	Surcharge *SurchargeService
	Export    *ExportService
	Report    *ReportService
	Audit     *AuditService
	Job       *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	scheduleSvc := NewScheduleService()
	ledgerSvc := NewLedgerService(repos.Contract, repos.Ledger, store)

	return &Services{
		Auth:      NewAuthService(repos.User, repos.RefreshToken, cfg),
		Client:    NewClientService(repos.Contract, repos.User, repos.Unit, repos.Ledger, scheduleSvc, cfg),
		Ledger:    ledgerSvc,
		Surcharge: NewSurchargeService(repos.Ledger, cfg),
		Export:    NewExportService(ledgerSvc),
		Report:    NewReportService(ledgerSvc),
		Audit:     auditSvc,
		Job:       NewJobService(worker),
	}
}
