package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressByRowCount(t *testing.T) {
	rows := []Row{
		{InstallmentAmount: 10000, AmountPaid: 10000},
		{InstallmentAmount: 10000, Children: []Child{{AmountPaid: 6000}, {AmountPaid: 4000}}},
		{InstallmentAmount: 10000, AmountPaid: 2500},
		{InstallmentAmount: 10000},
	}

	p := Progress(rows, 4, 40000)

	assert.Equal(t, 2, p.PaidCount)
	assert.Equal(t, float64(22500), p.PaidAmount)
	assert.Equal(t, 50, p.Percent)
}

func TestProgressFallsBackToAmount(t *testing.T) {
	rows := []Row{
		{InstallmentAmount: 10000, AmountPaid: 7500},
	}

	p := Progress(rows, 0, 30000)

	assert.Equal(t, 0, p.PaidCount)
	assert.Equal(t, 25, p.Percent)
}

func TestProgressClampsTo100(t *testing.T) {
	rows := []Row{
		{InstallmentAmount: 10000, AmountPaid: 50000},
	}

	p := Progress(rows, 0, 30000)
	assert.Equal(t, 100, p.Percent)

	// Rows with zero installment amount never count as paid.
	p = Progress([]Row{{InstallmentAmount: 0, AmountPaid: 5000}}, 1, 0)
	assert.Equal(t, 0, p.PaidCount)
}
