package models

import (
	"time"

	"github.com/makkaan/avenue-api/internal/ledger"
)

// InstallmentRow is one scheduled due item on a contract's ledger: a monthly
// installment, the down payment, or the possession amount.
type InstallmentRow struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	ContractID           uint       `gorm:"not null;index" json:"contract_id"`
	SrNo                 int        `gorm:"not null" json:"sr_no"`
	Description          string     `json:"description"`
	InstallmentAmount    float64    `gorm:"type:decimal" json:"installment_amount"`
	DueDate              *time.Time `gorm:"type:date;index" json:"due_date"`
	AmountPaid           float64    `gorm:"type:decimal" json:"amount_paid"`
	PaymentDate          *time.Time `gorm:"type:date" json:"payment_date"`
	InstrumentType       *string    `json:"instrument_type"`
	InstrumentNo         *string    `json:"instrument_no"`
	PaymentProof         *string    `json:"payment_proof"`
	LatePaymentSurcharge float64    `gorm:"type:decimal" json:"late_payment_surcharge"`
	SurchargeLockedAt    *time.Time `json:"surcharge_locked_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Associations
	Contract Contract       `gorm:"foreignKey:ContractID" json:"-"`
	Children []ChildPayment `gorm:"foreignKey:RowID" json:"children,omitempty"`
}

// TableName specifies the table name for InstallmentRow
func (InstallmentRow) TableName() string {
	return "installment_rows"
}

// SurchargeLocked reports whether the external billing pass already fixed
// this row's surcharge. A locked value is never recomputed.
func (r *InstallmentRow) SurchargeLocked() bool {
	return r.SurchargeLockedAt != nil
}

// ToLedgerRow maps the stored row onto the reconciliation input
func (r *InstallmentRow) ToLedgerRow() ledger.Row {
	row := ledger.Row{
		InstallmentAmount: r.InstallmentAmount,
		DueDate:           isoDate(r.DueDate),
		AmountPaid:        r.AmountPaid,
		PaymentDate:       isoDate(r.PaymentDate),
		Surcharge:         r.LatePaymentSurcharge,
	}
	for _, child := range r.Children {
		row.Children = append(row.Children, ledger.Child{
			AmountPaid:  child.AmountPaid,
			PaymentDate: isoDate(child.PaymentDate),
		})
	}
	return row
}

// ChildPayment is a partial payment recorded against a parent row. It has no
// lifecycle of its own; deleting the row deletes its children.
type ChildPayment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	RowID          uint       `gorm:"not null;index" json:"row_id"`
	LineNo         int        `gorm:"not null" json:"line_no"`
	Description    string     `json:"description"`
	AmountPaid     float64    `gorm:"type:decimal" json:"amount_paid"`
	PaymentDate    *time.Time `gorm:"type:date" json:"payment_date"`
	InstrumentType *string    `json:"instrument_type"`
	InstrumentNo   *string    `json:"instrument_no"`
	PaymentProof   *string    `json:"payment_proof"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Associations
	Row InstallmentRow `gorm:"foreignKey:RowID" json:"-"`
}

// TableName specifies the table name for ChildPayment
func (ChildPayment) TableName() string {
	return "child_payments"
}

// Instrument type constants
const (
	InstrumentCash     = "Cash"
	InstrumentCheque   = "Cheque"
	InstrumentPayOrder = "Pay Order"
	InstrumentOnline   = "Online Transfer"
)

// InstallmentRowResponse is the JSON response format for ledger rows,
// merged with the reconciled figures.
type InstallmentRowResponse struct {
	ID                   uint                   `json:"id"`
	SrNo                 int                    `json:"sr_no"`
	Description          string                 `json:"description"`
	InstallmentAmount    float64                `json:"installment_amount"`
	DueDate              string                 `json:"due_date"`
	AmountPaid           float64                `json:"amount_paid"`
	PaymentDate          string                 `json:"payment_date"`
	InstrumentType       *string                `json:"instrument_type"`
	InstrumentNo         *string                `json:"instrument_no"`
	PaymentProof         *string                `json:"payment_proof"`
	LatePaymentSurcharge float64                `json:"late_payment_surcharge"`
	Children             []ChildPaymentResponse `json:"children,omitempty"`

	EffectivePaid        float64 `json:"effective_paid"`
	Balance              float64 `json:"balance"`
	EffectivePaymentDate string  `json:"effective_payment_date"`
	LateDays             int     `json:"late_days"`
}

// ToResponse converts InstallmentRow to InstallmentRowResponse without the
// reconciled figures; the ledger service fills those in.
func (r *InstallmentRow) ToResponse() InstallmentRowResponse {
	resp := InstallmentRowResponse{
		ID:                   r.ID,
		SrNo:                 r.SrNo,
		Description:          r.Description,
		InstallmentAmount:    r.InstallmentAmount,
		DueDate:              isoDate(r.DueDate),
		AmountPaid:           r.AmountPaid,
		PaymentDate:          isoDate(r.PaymentDate),
		InstrumentType:       r.InstrumentType,
		InstrumentNo:         r.InstrumentNo,
		PaymentProof:         r.PaymentProof,
		LatePaymentSurcharge: r.LatePaymentSurcharge,
	}
	for _, child := range r.Children {
		resp.Children = append(resp.Children, child.ToResponse())
	}
	return resp
}

// ChildPaymentResponse is the JSON response format for child payments
type ChildPaymentResponse struct {
	ID             uint    `json:"id"`
	LineNo         int     `json:"line_no"`
	Description    string  `json:"description"`
	AmountPaid     float64 `json:"amount_paid"`
	PaymentDate    string  `json:"payment_date"`
	InstrumentType *string `json:"instrument_type"`
	InstrumentNo   *string `json:"instrument_no"`
	PaymentProof   *string `json:"payment_proof"`
}

// ToResponse converts ChildPayment to ChildPaymentResponse
func (c *ChildPayment) ToResponse() ChildPaymentResponse {
	return ChildPaymentResponse{
		ID:             c.ID,
		LineNo:         c.LineNo,
		Description:    c.Description,
		AmountPaid:     c.AmountPaid,
		PaymentDate:    isoDate(c.PaymentDate),
		InstrumentType: c.InstrumentType,
		InstrumentNo:   c.InstrumentNo,
		PaymentProof:   c.PaymentProof,
	}
}

// isoDate formats a nullable date as YYYY-MM-DD, empty when unset
func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
