package service

import "escrowpay/internal/models"

// Eligibility predicates. Pure, side-effect free; the UI uses them to decide
// which actions to offer, and every mutating operation re-verifies the same
// condition against the store before writing.

// CanRequestRefund reports whether a direct refund can be requested: the
// payment completed, no refund is in flight, and the payment never entered
// escrow. Escrowed funds go through the release/dispute path instead.
func CanRequestRefund(t *models.Transaction) bool {
	if t == nil {
		return false
	}
	return t.PaymentStatus == models.PaymentCompleted &&
		t.RefundStatus == nil &&
		t.Escrow == nil
}

// CanReleaseEscrow reports whether callerID may release the escrowed funds:
// only the buyer, and only while the escrow is still initiated.
func CanReleaseEscrow(t *models.Transaction, callerID string) bool {
	if callerID == "" || t == nil {
		return false
	}
	return t.Escrow != nil &&
		t.Escrow.Status == models.EscrowInitiated &&
		t.Escrow.BuyerID == callerID
}
