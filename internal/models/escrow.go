package models

import (
	"time"

	"github.com/google/uuid"
)

type EscrowStatus string

const (
	EscrowInitiated EscrowStatus = "initiated"
	EscrowReleased  EscrowStatus = "released"
	EscrowDisputed  EscrowStatus = "disputed"
	EscrowRefunded  EscrowStatus = "refunded"
)

// EscrowDetails exists only for payments that opted into escrow at creation
// time. Entry state is "initiated"; "released" and "refunded" are terminal.
// "disputed" is reserved for the out-of-band dispute process: rows may carry
// it but no operation here transitions into or out of it.
type EscrowDetails struct {
	ID                uuid.UUID              `json:"id" db:"id"`
	PaymentID         uuid.UUID              `json:"paymentId" db:"payment_id"`
	BuyerID           string                 `json:"buyerId" db:"buyer_id"`
	SellerID          string                 `json:"sellerId" db:"seller_id"`
	Status            EscrowStatus           `json:"status" db:"escrow_status"`
	ContractDetails   map[string]interface{} `json:"contractDetails,omitempty" db:"contract_details"`
	ReleaseConditions string                 `json:"releaseConditions" db:"release_conditions"`
	ReleaseDate       *time.Time             `json:"releaseDate,omitempty" db:"release_date"`
	CreatedAt         time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at" db:"updated_at"`
}
