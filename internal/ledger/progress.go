package ledger

import "github.com/shopspring/decimal"

// ProgressSummary describes how far along a contract's schedule is.
type ProgressSummary struct {
	PaidCount  int     `json:"paid_count"`
	TotalCount int     `json:"total_count"`
	PaidAmount float64 `json:"paid_amount"`
	Percent    int     `json:"percent"`
}

// Progress counts fully paid rows and derives a display percentage.
// A row counts as paid when it has a positive installment amount covered by
// its effective paid sum. When the expected row count is known the percentage
// is paid/total rows; otherwise it falls back to paid amount over the
// contract total. Both branches clamp to [0,100].
func Progress(rows []Row, totalCount int, totalAmount float64) ProgressSummary {
	paidCount := 0
	paidAmount := decimal.Zero

	for _, row := range rows {
		paid := effectivePaidDec(row)
		paidAmount = paidAmount.Add(paid)
		if row.InstallmentAmount > 0 && !paid.LessThan(money(row.InstallmentAmount)) {
			paidCount++
		}
	}

	percent := 0
	if totalCount > 0 {
		percent = roundPct(float64(paidCount) / float64(totalCount) * 100)
	} else if totalAmount > 0 {
		percent = roundPct(f64(paidAmount) / totalAmount * 100)
	}

	return ProgressSummary{
		PaidCount:  paidCount,
		TotalCount: totalCount,
		PaidAmount: f64(paidAmount),
		Percent:    percent,
	}
}

func roundPct(v float64) int {
	pct := int(f64(money(v).Round(0)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
