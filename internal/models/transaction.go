package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCard      PaymentMethod = "card"
	MethodCrypto    PaymentMethod = "crypto"
	MethodPromptPay PaymentMethod = "promptpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodCrypto, MethodPromptPay:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type RelatedType string

const (
	RelatedMarketplace RelatedType = "marketplace"
	RelatedFreelance   RelatedType = "freelance"
	RelatedReservation RelatedType = "reservation"
)

func (t RelatedType) Valid() bool {
	switch t {
	case RelatedMarketplace, RelatedFreelance, RelatedReservation:
		return true
	}
	return false
}

// RefundStatus moves to "requested" through the refund flow; approval or
// rejection is written by the back office, never by this service.
type RefundStatus string

const (
	RefundRequested RefundStatus = "requested"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
)

// Transaction is the record of one payment attempt. UserID is the buyer who
// initiated it; every query against the store is scoped by it.
type Transaction struct {
	ID             uuid.UUID              `json:"id" db:"id"`
	UserID         string                 `json:"-" db:"user_id"`
	Amount         decimal.Decimal        `json:"amount" db:"amount"`
	Currency       string                 `json:"currency" db:"currency"`
	PaymentMethod  PaymentMethod          `json:"payment_method" db:"payment_method"`
	PaymentStatus  PaymentStatus          `json:"payment_status" db:"payment_status"`
	RelatedType    RelatedType            `json:"related_type" db:"related_type"`
	RelatedID      string                 `json:"related_id" db:"related_id"`
	RefundStatus   *RefundStatus          `json:"refund_status,omitempty" db:"refund_status"`
	RefundedAmount *decimal.Decimal       `json:"refunded_amount,omitempty" db:"refunded_amount"`
	ReceiptURL     *string                `json:"receipt_url,omitempty" db:"receipt_url"`
	Details        map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" db:"updated_at"`
	Escrow         *EscrowDetails         `json:"escrow,omitempty" db:"-"`
}
