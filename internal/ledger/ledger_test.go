package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestResolveTerms(t *testing.T) {
	terms := ResolveTerms(ContractTerms{
		TotalAmount:   1000000,
		DownPayment:   200000,
		PossessionPct: 10,
		Months:        36,
	})

	assert.Equal(t, float64(100000), terms.PossessionAmount)
	assert.Equal(t, float64(700000), terms.MonthlyPool)
	assert.Equal(t, float64(800000), terms.TotalPayable)
	assert.Equal(t, float64(19444), terms.MonthlyInstallment)
}

func TestResolveTermsDownPaymentPctFallback(t *testing.T) {
	// No stored amount: the percentage fills it in.
	terms := ResolveTerms(ContractTerms{
		TotalAmount:    500000,
		DownPaymentPct: 20,
		PossessionPct:  10,
		Months:         12,
	})
	assert.Equal(t, float64(100000), terms.DownPayment)
	assert.Equal(t, float64(50000), terms.PossessionAmount)
	assert.Equal(t, float64(350000), terms.MonthlyPool)

	// A stored amount wins over the percentage.
	terms = ResolveTerms(ContractTerms{
		TotalAmount:    500000,
		DownPayment:    75000,
		DownPaymentPct: 20,
		Months:         12,
	})
	assert.Equal(t, float64(75000), terms.DownPayment)
}

func TestResolveTermsClampsNegativePool(t *testing.T) {
	terms := ResolveTerms(ContractTerms{
		TotalAmount:   100000,
		DownPayment:   95000,
		PossessionPct: 10,
		Months:        12,
	})

	assert.Equal(t, float64(0), terms.MonthlyPool)
	assert.Equal(t, float64(0), terms.MonthlyInstallment)
	// possession + pool never exceeds the total when the pool is clamped
	assert.LessOrEqual(t, terms.PossessionAmount+terms.MonthlyPool, 100000.0)
}

func TestResolveTermsCoercesMalformedInput(t *testing.T) {
	terms := ResolveTerms(ContractTerms{
		TotalAmount:   math.NaN(),
		DownPayment:   math.Inf(1),
		PossessionPct: -5,
		Months:        0,
	})

	assert.Equal(t, float64(0), terms.PossessionAmount)
	assert.Equal(t, float64(0), terms.MonthlyPool)
	assert.Equal(t, float64(0), terms.TotalPayable)
}

func TestReconcileUnpaidRowShowsZeroBalance(t *testing.T) {
	terms := ResolveTerms(ContractTerms{TotalAmount: 100000, Months: 10})
	rows := []Row{
		{InstallmentAmount: 10000, DueDate: "2024-01-01"},
	}

	res := Reconcile(terms, rows, date("2024-03-01"))

	assert.Equal(t, float64(0), res.Rows[0].EffectivePaid)
	assert.Equal(t, float64(0), res.Rows[0].Balance)
	assert.Equal(t, "", res.Rows[0].EffectivePaymentDate)
}

func TestReconcileChildPaymentsCountTowardEffectivePaid(t *testing.T) {
	rows := []Row{
		{
			InstallmentAmount: 19444,
			Children:          []Child{{AmountPaid: 10000, PaymentDate: "2024-01-15"}},
		},
	}

	res := Reconcile(Terms{TotalPayable: 19444}, rows, date("2024-02-01"))

	assert.Equal(t, float64(10000), res.Rows[0].EffectivePaid)
	assert.Equal(t, float64(9444), res.Rows[0].Balance)
	assert.Equal(t, "2024-01-15", res.Rows[0].EffectivePaymentDate)
}

func TestReconcileEffectivePaymentDateIsLatest(t *testing.T) {
	row := Row{
		InstallmentAmount: 5000,
		AmountPaid:        1000,
		PaymentDate:       "2024-01-10",
		Children: []Child{
			{AmountPaid: 2000, PaymentDate: "2024-03-05"},
			{AmountPaid: 500, PaymentDate: "2024-02-01"},
		},
	}

	assert.Equal(t, "2024-03-05", EffectivePaymentDate(row))
	assert.Equal(t, float64(3500), EffectivePaid(row))
}

func TestLateDays(t *testing.T) {
	// Unpaid row measured against the reference date.
	assert.Equal(t, 31, LateDays("2024-01-01", "", "2024-02-01"))

	// Paid on time.
	assert.Equal(t, 0, LateDays("2024-01-01", "2023-12-28", "2024-06-01"))

	// Paid late: days between payment and due date, not today.
	assert.Equal(t, 14, LateDays("2024-01-01", "2024-01-15", "2024-06-01"))

	// Missing due date.
	assert.Equal(t, 0, LateDays("", "", "2024-02-01"))
}

func TestLateDaysMonotonicAsTimeAdvances(t *testing.T) {
	prev := 0
	for _, today := range []string{"2024-01-01", "2024-01-15", "2024-02-29", "2024-06-01"} {
		days := LateDays("2024-01-05", "", today)
		assert.GreaterOrEqual(t, days, prev)
		prev = days
	}
}

func TestReconcileTotalsExcludeSurchargeFromDue(t *testing.T) {
	rows := []Row{
		{InstallmentAmount: 10000, AmountPaid: 10000, Surcharge: 500},
		{InstallmentAmount: 10000, Surcharge: 0},
	}

	res := Reconcile(Terms{TotalPayable: 20000}, rows, date("2024-02-01"))

	assert.Equal(t, float64(500), res.Totals.TotalSurcharge)
	assert.Equal(t, float64(10000), res.Totals.TotalReceivable)
	// The due total deliberately tracks receivable only; the surcharge is a
	// separate figure.
	assert.Equal(t, res.Totals.TotalReceivable, res.Totals.TotalDue)
}

func TestReconcileReceivableClampedAtZero(t *testing.T) {
	rows := []Row{{InstallmentAmount: 10000, AmountPaid: 15000}}
	res := Reconcile(Terms{TotalPayable: 10000}, rows, date("2024-02-01"))

	assert.Equal(t, float64(15000), res.Totals.TotalPaid)
	assert.Equal(t, float64(0), res.Totals.TotalReceivable)
}

func TestReconcileIsIdempotent(t *testing.T) {
	terms := ResolveTerms(ContractTerms{TotalAmount: 1000000, DownPayment: 200000, PossessionPct: 10, Months: 36})
	rows := []Row{
		{InstallmentAmount: 19444, DueDate: "2024-01-01", AmountPaid: 19444, PaymentDate: "2024-01-03"},
		{InstallmentAmount: 19444, DueDate: "2024-02-01", Children: []Child{{AmountPaid: 5000, PaymentDate: "2024-02-10"}}},
		{InstallmentAmount: 19444, DueDate: "2024-03-01", Surcharge: 972},
	}
	asOf := date("2024-04-01")

	first := Reconcile(terms, rows, asOf)
	second := Reconcile(terms, rows, asOf)

	assert.Equal(t, first, second)
}

func TestDateInUsesKarachiCalendarDay(t *testing.T) {
	// 21:00 UTC is already the next day in UTC+5.
	utc := time.Date(2024, 3, 31, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-04-01", DateIn(utc))
}
