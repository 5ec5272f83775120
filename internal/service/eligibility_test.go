package service

import (
	"testing"

	"escrowpay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func makeTransaction(status models.PaymentStatus) *models.Transaction {
	return &models.Transaction{
		ID:            uuid.New(),
		UserID:        "buyer-1",
		Amount:        decimal.NewFromInt(1500),
		Currency:      "THB",
		PaymentMethod: models.MethodCard,
		PaymentStatus: status,
		RelatedType:   models.RelatedMarketplace,
		RelatedID:     "item-42",
	}
}

func attachEscrow(t *models.Transaction, status models.EscrowStatus) {
	t.Escrow = &models.EscrowDetails{
		ID:        uuid.New(),
		PaymentID: t.ID,
		BuyerID:   "buyer-1",
		SellerID:  "seller-1",
		Status:    status,
	}
}

func TestCanRequestRefund(t *testing.T) {
	t.Run("completed payment without escrow or refund is refundable", func(t *testing.T) {
		tx := makeTransaction(models.PaymentCompleted)
		if !CanRequestRefund(tx) {
			t.Error("expected refund to be allowed")
		}
	})

	t.Run("non-completed statuses are not refundable", func(t *testing.T) {
		for _, status := range []models.PaymentStatus{
			models.PaymentPending,
			models.PaymentFailed,
			models.PaymentRefunded,
			models.PaymentPartiallyRefunded,
		} {
			if CanRequestRefund(makeTransaction(status)) {
				t.Errorf("status %q: expected refund to be denied", status)
			}
		}
	})

	t.Run("existing refund status blocks a new request", func(t *testing.T) {
		tx := makeTransaction(models.PaymentCompleted)
		for _, rs := range []models.RefundStatus{
			models.RefundRequested,
			models.RefundApproved,
			models.RefundRejected,
		} {
			status := rs
			tx.RefundStatus = &status
			if CanRequestRefund(tx) {
				t.Errorf("refund status %q: expected refund to be denied", rs)
			}
		}
	})

	t.Run("escrow presence blocks refund regardless of other fields", func(t *testing.T) {
		for _, escrowStatus := range []models.EscrowStatus{
			models.EscrowInitiated,
			models.EscrowReleased,
			models.EscrowDisputed,
			models.EscrowRefunded,
		} {
			tx := makeTransaction(models.PaymentCompleted)
			attachEscrow(tx, escrowStatus)
			if CanRequestRefund(tx) {
				t.Errorf("escrow status %q: expected refund to be denied", escrowStatus)
			}
		}
	})

	t.Run("nil transaction", func(t *testing.T) {
		if CanRequestRefund(nil) {
			t.Error("expected refund to be denied for nil transaction")
		}
	})
}

func TestCanReleaseEscrow(t *testing.T) {
	t.Run("buyer can release an initiated escrow", func(t *testing.T) {
		tx := makeTransaction(models.PaymentCompleted)
		attachEscrow(tx, models.EscrowInitiated)
		if !CanReleaseEscrow(tx, "buyer-1") {
			t.Error("expected release to be allowed for the buyer")
		}
	})

	t.Run("anyone but the buyer is denied", func(t *testing.T) {
		tx := makeTransaction(models.PaymentCompleted)
		attachEscrow(tx, models.EscrowInitiated)
		for _, caller := range []string{"seller-1", "someone-else", ""} {
			if CanReleaseEscrow(tx, caller) {
				t.Errorf("caller %q: expected release to be denied", caller)
			}
		}
	})

	t.Run("non-initiated escrow states are not releasable", func(t *testing.T) {
		for _, escrowStatus := range []models.EscrowStatus{
			models.EscrowReleased,
			models.EscrowDisputed,
			models.EscrowRefunded,
		} {
			tx := makeTransaction(models.PaymentCompleted)
			attachEscrow(tx, escrowStatus)
			if CanReleaseEscrow(tx, "buyer-1") {
				t.Errorf("escrow status %q: expected release to be denied", escrowStatus)
			}
		}
	})

	t.Run("transaction without escrow is never releasable", func(t *testing.T) {
		tx := makeTransaction(models.PaymentCompleted)
		if CanReleaseEscrow(tx, "buyer-1") {
			t.Error("expected release to be denied without an escrow record")
		}
	})

	t.Run("the two predicates are mutually exclusive", func(t *testing.T) {
		withEscrow := makeTransaction(models.PaymentCompleted)
		attachEscrow(withEscrow, models.EscrowInitiated)
		withoutEscrow := makeTransaction(models.PaymentCompleted)

		for _, tx := range []*models.Transaction{withEscrow, withoutEscrow} {
			if CanRequestRefund(tx) && CanReleaseEscrow(tx, "buyer-1") {
				t.Error("refund and release must never both be allowed")
			}
		}
	})
}
