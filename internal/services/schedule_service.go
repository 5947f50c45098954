package services

import (
	"fmt"
	"time"

	"github.com/makkaan/avenue-api/internal/ledger"
	"github.com/makkaan/avenue-api/internal/models"
)

// ScheduleService builds a contract's initial installment rows from its
// resolved terms.
type ScheduleService struct{}

// NewScheduleService creates a new schedule service
func NewScheduleService() *ScheduleService {
	return &ScheduleService{}
}

// GenerateRows creates the ledger rows for a newly created contract: a down
// payment row, one row per month and, when a possession percentage is set, a
// possession row at the end of the schedule.
func (s *ScheduleService) GenerateRows(contract *models.Contract) []models.InstallmentRow {
	terms := ledger.ResolveTerms(contract.Terms())

	start := time.Now()
	if contract.StartDate != nil {
		start = *contract.StartDate
	} else if contract.BookingDate != nil {
		start = *contract.BookingDate
	}

	var rows []models.InstallmentRow
	srNo := 1

	if terms.DownPayment > 0 {
		due := start
		rows = append(rows, models.InstallmentRow{
			SrNo:              srNo,
			Description:       "Down Payment",
			InstallmentAmount: terms.DownPayment,
			DueDate:           &due,
		})
		srNo++
	}

	if terms.MonthlyPool > 0 && contract.Months > 0 {
		// Every installment carries the nominal amount except the last,
		// which absorbs the rounding remainder so the schedule sums to the
		// monthly pool exactly.
		for i := 0; i < contract.Months; i++ {
			amount := terms.MonthlyInstallment
			if i == contract.Months-1 {
				amount = terms.MonthlyPool - terms.MonthlyInstallment*float64(contract.Months-1)
			}

			due := start.AddDate(0, i+1, 0)
			rows = append(rows, models.InstallmentRow{
				SrNo:              srNo,
				Description:       fmt.Sprintf("Installment %d of %d", i+1, contract.Months),
				InstallmentAmount: amount,
				DueDate:           &due,
			})
			srNo++
		}
	}

	if terms.PossessionAmount > 0 {
		due := start.AddDate(0, contract.Months+1, 0)
		rows = append(rows, models.InstallmentRow{
			SrNo:              srNo,
			Description:       "On Possession",
			InstallmentAmount: terms.PossessionAmount,
			DueDate:           &due,
		})
	}

	return rows
}
