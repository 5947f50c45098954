// Package ledger contains the installment ledger computations: resolving a
// contract's payable terms and reconciling installment rows against recorded
// payments. Everything here is a pure function of its inputs; persistence and
// presentation live elsewhere.
package ledger

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Karachi is the reference timezone for "today" in late-day calculations.
// Due dates are calendar dates; comparing them against a server-local "now"
// shifts results by a day depending on where the process runs.
var Karachi = time.FixedZone("PKT", 5*60*60)

// ContractTerms is the raw contract input for ResolveTerms.
type ContractTerms struct {
	TotalAmount    float64
	DownPayment    float64
	DownPaymentPct float64
	PossessionPct  float64
	Months         int
}

// Terms is the resolved payable schedule for a contract.
type Terms struct {
	PossessionAmount   float64 `json:"possession_amount"`
	DownPayment        float64 `json:"down_payment"`
	MonthlyPool        float64 `json:"monthly_pool"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	TotalPayable       float64 `json:"total_payable"`
}

// ResolveTerms derives the payable schedule from contract terms.
//
// The down payment amount wins over the percentage; the percentage is used
// only when no amount was stored. The monthly pool is clamped at zero so a
// down payment exceeding the remaining value (a data-entry error) degrades to
// an empty schedule instead of a negative one. Malformed numerics coerce to
// zero rather than failing: the ledger favors degraded display over errors.
func ResolveTerms(in ContractTerms) Terms {
	total := money(in.TotalAmount)
	hundred := decimal.NewFromInt(100)

	possession := total.Mul(money(clampPct(in.PossessionPct))).Div(hundred).Round(0)

	down := money(in.DownPayment)
	if down.IsZero() && in.DownPaymentPct > 0 {
		down = total.Mul(money(clampPct(in.DownPaymentPct))).Div(hundred).Round(0)
	}

	pool := total.Sub(down).Sub(possession)
	if pool.IsNegative() {
		pool = decimal.Zero
	}

	monthly := decimal.Zero
	if in.Months > 0 {
		monthly = pool.Div(decimal.NewFromInt(int64(in.Months))).Round(0)
	}

	return Terms{
		PossessionAmount:   f64(possession),
		DownPayment:        f64(down),
		MonthlyPool:        f64(pool),
		MonthlyInstallment: f64(monthly),
		TotalPayable:       f64(possession.Add(pool).Round(0)),
	}
}

// Child is a partial payment applied against a parent row.
type Child struct {
	AmountPaid  float64
	PaymentDate string // YYYY-MM-DD, empty when unknown
}

// Row is one scheduled due item with its recorded payments.
type Row struct {
	InstallmentAmount float64
	DueDate           string // YYYY-MM-DD, empty when unknown
	AmountPaid        float64
	PaymentDate       string // YYYY-MM-DD, empty when unknown
	Surcharge         float64
	Children          []Child
}

// RowResult is the reconciled view of a single row.
type RowResult struct {
	EffectivePaid        float64 `json:"effective_paid"`
	Balance              float64 `json:"balance"`
	EffectivePaymentDate string  `json:"effective_payment_date"`
	LateDays             int     `json:"late_days"`
	Surcharge            float64 `json:"surcharge"`
}

// Totals aggregates the reconciled rows.
type Totals struct {
	TotalPaid       float64 `json:"total_paid"`
	TotalReceivable float64 `json:"total_receivable"`
	TotalSurcharge  float64 `json:"total_surcharge"`
	// TotalDue equals TotalReceivable: the surcharge sum is shown as a
	// separate figure and is not folded into the due total.
	TotalDue float64 `json:"total_due"`
}

// Result is the output of Reconcile.
type Result struct {
	Rows   []RowResult `json:"rows"`
	Totals Totals      `json:"totals"`
}

// Reconcile computes the due/paid/balance/surcharge view for a contract's
// rows. asOf is the reference instant used as "today" (converted to a PKT
// calendar date) for rows that have no payment yet. The function is pure:
// identical inputs yield identical output.
func Reconcile(terms Terms, rows []Row, asOf time.Time) Result {
	res := Result{Rows: make([]RowResult, 0, len(rows))}
	today := DateIn(asOf)

	totalPaid := decimal.Zero
	totalSurcharge := decimal.Zero

	for _, row := range rows {
		paid := effectivePaidDec(row)
		paidDate := EffectivePaymentDate(row)

		// Balance stays zero until any payment exists. Unpaid rows show
		// no outstanding figure; naive subtraction would display the full
		// installment for rows that were never touched.
		balance := decimal.Zero
		if paid.IsPositive() {
			balance = money(row.InstallmentAmount).Sub(paid)
			if balance.IsNegative() {
				balance = decimal.Zero
			}
		}

		surcharge := money(row.Surcharge)

		res.Rows = append(res.Rows, RowResult{
			EffectivePaid:        f64(paid),
			Balance:              f64(balance),
			EffectivePaymentDate: paidDate,
			LateDays:             LateDays(row.DueDate, paidDate, today),
			Surcharge:            f64(surcharge),
		})

		totalPaid = totalPaid.Add(paid)
		totalSurcharge = totalSurcharge.Add(surcharge)
	}

	receivable := money(terms.TotalPayable).Sub(totalPaid)
	if receivable.IsNegative() {
		receivable = decimal.Zero
	}

	res.Totals = Totals{
		TotalPaid:       f64(totalPaid),
		TotalReceivable: f64(receivable),
		TotalSurcharge:  f64(totalSurcharge),
		TotalDue:        f64(receivable),
	}
	return res
}

// EffectivePaid returns the row's direct payment plus all child payments.
func EffectivePaid(row Row) float64 {
	return f64(effectivePaidDec(row))
}

func effectivePaidDec(row Row) decimal.Decimal {
	paid := money(row.AmountPaid)
	for _, child := range row.Children {
		paid = paid.Add(money(child.AmountPaid))
	}
	return paid
}

// EffectivePaymentDate returns the lexicographically latest ISO date among
// the row's own payment date and its child payment dates, or "" when no
// payment date was recorded. Lexicographic max is correct for YYYY-MM-DD.
func EffectivePaymentDate(row Row) string {
	latest := ""
	if row.AmountPaid > 0 || row.PaymentDate != "" {
		latest = row.PaymentDate
	}
	for _, child := range row.Children {
		if child.PaymentDate > latest {
			latest = child.PaymentDate
		}
	}
	return latest
}

// LateDays counts whole days between the payment date (or today when the row
// is unpaid) and the due date, clamped at zero. A missing or malformed due
// date yields zero.
func LateDays(dueDate, paymentDate, today string) int {
	due, ok := parseDate(dueDate)
	if !ok {
		return 0
	}

	end, ok := parseDate(paymentDate)
	if !ok {
		if end, ok = parseDate(today); !ok {
			return 0
		}
	}

	days := int(math.Floor(end.Sub(due).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// DateIn formats an instant as a calendar date in the reference timezone.
func DateIn(t time.Time) string {
	return t.In(Karachi).Format("2006-01-02")
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// money converts a float into a decimal, coercing NaN/Inf to zero.
func money(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func f64(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
