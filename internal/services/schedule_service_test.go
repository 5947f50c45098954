package services

import (
	"testing"
	"time"

	"github.com/makkaan/avenue-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGenerateRows_FullSchedule(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	contract := &models.Contract{
		TotalAmount:   1000000,
		DownPayment:   200000,
		PossessionPct: 10,
		Months:        36,
		StartDate:     &start,
	}

	svc := NewScheduleService()
	rows := svc.GenerateRows(contract)

	// down payment + 36 installments + possession
	assert.Len(t, rows, 38)

	assert.Equal(t, "Down Payment", rows[0].Description)
	assert.Equal(t, 200000.0, rows[0].InstallmentAmount)
	assert.Equal(t, start, *rows[0].DueDate)

	assert.Equal(t, "Installment 1 of 36", rows[1].Description)
	assert.Equal(t, 19444.0, rows[1].InstallmentAmount)
	assert.Equal(t, start.AddDate(0, 1, 0), *rows[1].DueDate)

	// The last installment absorbs the rounding remainder so the schedule
	// sums to the monthly pool.
	last := rows[36]
	assert.Equal(t, "Installment 36 of 36", last.Description)
	assert.Equal(t, 700000.0-19444.0*35, last.InstallmentAmount)

	sum := 0.0
	for _, row := range rows[1:37] {
		sum += row.InstallmentAmount
	}
	assert.Equal(t, 700000.0, sum)

	possession := rows[37]
	assert.Equal(t, "On Possession", possession.Description)
	assert.Equal(t, 100000.0, possession.InstallmentAmount)
	assert.Equal(t, start.AddDate(0, 37, 0), *possession.DueDate)

	// Serial numbers are contiguous from 1
	for i, row := range rows {
		assert.Equal(t, i+1, row.SrNo)
	}
}

func TestGenerateRows_NoDownPaymentNoPossession(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	contract := &models.Contract{
		TotalAmount: 600000,
		Months:      12,
		StartDate:   &start,
	}

	rows := NewScheduleService().GenerateRows(contract)

	assert.Len(t, rows, 12)
	assert.Equal(t, "Installment 1 of 12", rows[0].Description)
	assert.Equal(t, 50000.0, rows[0].InstallmentAmount)
}

func TestGenerateRows_BookingDateFallback(t *testing.T) {
	booking := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	contract := &models.Contract{
		TotalAmount: 120000,
		DownPayment: 20000,
		Months:      10,
		BookingDate: &booking,
	}

	rows := NewScheduleService().GenerateRows(contract)

	assert.Equal(t, booking, *rows[0].DueDate)
	assert.Equal(t, booking.AddDate(0, 1, 0), *rows[1].DueDate)
}

func TestGenerateRows_DownPaymentConsumesEverything(t *testing.T) {
	contract := &models.Contract{
		TotalAmount: 100000,
		DownPayment: 100000,
		Months:      12,
	}

	rows := NewScheduleService().GenerateRows(contract)

	// Monthly pool is zero, so only the down payment row remains
	assert.Len(t, rows, 1)
	assert.Equal(t, "Down Payment", rows[0].Description)
}
