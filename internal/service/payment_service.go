package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escrowpay/internal/gateway"
	"escrowpay/internal/models"
	"escrowpay/internal/repository"
	"escrowpay/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultListLimit = 100

type ProcessPaymentParams struct {
	Amount            decimal.Decimal
	Currency          string
	Method            models.PaymentMethod
	PaymentType       models.RelatedType
	RelatedID         string
	UseEscrow         bool
	SellerID          string
	ReleaseConditions string
	ContractDetails   map[string]interface{}
}

type ProcessPaymentResult struct {
	PaymentID  uuid.UUID
	ReceiptURL string
}

type ListParams struct {
	RelatedType *models.RelatedType
	EscrowOnly  bool
	Limit       int
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, callerID string, params ProcessPaymentParams) (*ProcessPaymentResult, error)
	RequestRefund(ctx context.Context, callerID string, transactionID uuid.UUID) error
	ReleaseEscrow(ctx context.Context, callerID string, transactionID uuid.UUID) error
	GetTransaction(ctx context.Context, callerID string, transactionID uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, callerID string, params ListParams) ([]models.Transaction, error)
}

// listingCache is what the service needs from the cache layer; satisfied by
// cache.ListingCache.
type listingCache interface {
	Get(ctx context.Context, userID string) ([]models.Transaction, bool)
	Set(ctx context.Context, userID string, transactions []models.Transaction)
	Invalidate(ctx context.Context, userID string)
}

type paymentService struct {
	txRepo          repository.TransactionRepository
	escrowRepo      repository.EscrowRepository
	gw              gateway.Gateway
	cache           listingCache
	log             *zap.Logger
	defaultCurrency string
	receiptBaseURL  string
	settleTimeout   time.Duration
	now             func() time.Time
}

func NewPaymentService(
	txRepo repository.TransactionRepository,
	escrowRepo repository.EscrowRepository,
	gw gateway.Gateway,
	cache listingCache,
	log *zap.Logger,
	defaultCurrency string,
	receiptBaseURL string,
	settleTimeout time.Duration,
) PaymentService {
	return &paymentService{
		txRepo:          txRepo,
		escrowRepo:      escrowRepo,
		gw:              gw,
		cache:           cache,
		log:             log,
		defaultCurrency: defaultCurrency,
		receiptBaseURL:  receiptBaseURL,
		settleTimeout:   settleTimeout,
		now:             time.Now,
	}
}

func (s *paymentService) ProcessPayment(ctx context.Context, callerID string, params ProcessPaymentParams) (*ProcessPaymentResult, error) {
	if callerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	if err := validateProcessParams(params); err != nil {
		return nil, err
	}

	currency := params.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	settleCtx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	settlement, err := s.gw.Settle(settleCtx, params.Method, params.Amount, currency)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Timeout("payment processor timed out", err)
		}
		return nil, apperr.Processing("payment settlement failed", err)
	}

	receiptURL := fmt.Sprintf("%s/receipts/receipt-%d.pdf", s.receiptBaseURL, s.now().UnixMilli())
	transaction := &models.Transaction{
		ID:            uuid.New(),
		UserID:        callerID,
		Amount:        params.Amount,
		Currency:      currency,
		PaymentMethod: params.Method,
		PaymentStatus: models.PaymentCompleted,
		RelatedType:   params.PaymentType,
		RelatedID:     params.RelatedID,
		ReceiptURL:    &receiptURL,
		Details: map[string]interface{}{
			"provider":     settlement.Provider,
			"provider_ref": settlement.ProviderRef,
		},
	}

	if err := s.txRepo.Create(ctx, transaction); err != nil {
		return nil, apperr.Processing("failed to record payment", err)
	}

	if params.UseEscrow {
		escrow := &models.EscrowDetails{
			ID:                uuid.New(),
			PaymentID:         transaction.ID,
			BuyerID:           callerID,
			SellerID:          params.SellerID,
			Status:            models.EscrowInitiated,
			ContractDetails:   params.ContractDetails,
			ReleaseConditions: params.ReleaseConditions,
		}
		if escrow.ContractDetails == nil {
			escrow.ContractDetails = map[string]interface{}{
				"item": "Purchase through " + string(params.PaymentType),
			}
		}
		if escrow.ReleaseConditions == "" {
			escrow.ReleaseConditions = "Buyer confirmation required"
		}
		if err := s.escrowRepo.Create(ctx, escrow); err != nil {
			// The payment row stays; rolling it back would hide a settled
			// payment from the buyer.
			s.log.Error("escrow record creation failed after payment was persisted",
				zap.String("payment_id", transaction.ID.String()),
				zap.String("buyer_id", callerID),
				zap.Error(err))
			s.cache.Invalidate(ctx, callerID)
			return nil, apperr.PartialFailure(
				fmt.Sprintf("payment %s succeeded but the escrow record could not be created", transaction.ID), err)
		}
		transaction.Escrow = escrow
	}

	s.cache.Invalidate(ctx, callerID)
	s.log.Info("payment processed",
		zap.String("payment_id", transaction.ID.String()),
		zap.String("user_id", callerID),
		zap.String("method", string(params.Method)),
		zap.Bool("escrow", params.UseEscrow))

	return &ProcessPaymentResult{PaymentID: transaction.ID, ReceiptURL: receiptURL}, nil
}

func validateProcessParams(params ProcessPaymentParams) error {
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return apperr.Validation("amount must be a positive number")
	}
	if params.Method == "" {
		return apperr.Validation("payment method is required")
	}
	if !params.Method.Valid() {
		return apperr.Validation("unsupported payment method")
	}
	if params.PaymentType == "" {
		return apperr.Validation("payment type is required")
	}
	if !params.PaymentType.Valid() {
		return apperr.Validation("unsupported payment type")
	}
	if params.RelatedID == "" {
		return apperr.Validation("related id is required")
	}
	if params.UseEscrow && params.SellerID == "" {
		return apperr.Validation("seller id is required for escrow transactions")
	}
	return nil
}

func (s *paymentService) RequestRefund(ctx context.Context, callerID string, transactionID uuid.UUID) error {
	if callerID == "" {
		return apperr.Unauthorized("authentication required")
	}

	updated, err := s.txRepo.MarkRefundRequested(ctx, transactionID, callerID)
	if err != nil {
		return apperr.Processing("failed to request refund", err)
	}
	if !updated {
		return s.classifyRefundFailure(ctx, callerID, transactionID)
	}

	s.cache.Invalidate(ctx, callerID)
	s.log.Info("refund requested",
		zap.String("payment_id", transactionID.String()),
		zap.String("user_id", callerID))
	return nil
}

// classifyRefundFailure only explains why the conditional update matched no
// row; the update itself already decided the outcome.
func (s *paymentService) classifyRefundFailure(ctx context.Context, callerID string, transactionID uuid.UUID) error {
	t, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return apperr.Processing("failed to request refund", err)
	}
	switch {
	case t == nil:
		return apperr.NotFound("transaction not found")
	case t.UserID != callerID:
		return apperr.Precondition("transaction does not belong to the caller")
	case t.Escrow != nil:
		return apperr.Precondition("escrowed payments cannot be refunded directly")
	case t.RefundStatus != nil:
		return apperr.Precondition("a refund has already been requested for this payment")
	default:
		return apperr.Precondition("only completed payments are refundable")
	}
}

func (s *paymentService) ReleaseEscrow(ctx context.Context, callerID string, transactionID uuid.UUID) error {
	if callerID == "" {
		return apperr.Unauthorized("authentication required")
	}

	released, err := s.escrowRepo.Release(ctx, transactionID, callerID, s.now())
	if err != nil {
		return apperr.Processing("failed to release escrow", err)
	}
	if !released {
		return s.classifyReleaseFailure(ctx, callerID, transactionID)
	}

	s.cache.Invalidate(ctx, callerID)
	s.log.Info("escrow released",
		zap.String("payment_id", transactionID.String()),
		zap.String("buyer_id", callerID))
	return nil
}

func (s *paymentService) classifyReleaseFailure(ctx context.Context, callerID string, transactionID uuid.UUID) error {
	e, err := s.escrowRepo.GetByPaymentID(ctx, transactionID)
	if err != nil {
		return apperr.Processing("failed to release escrow", err)
	}
	switch {
	case e == nil:
		return apperr.NotFound("no escrow record for this transaction")
	case e.BuyerID != callerID:
		return apperr.Precondition("only the buyer can release escrow")
	case e.Status == models.EscrowReleased:
		return apperr.Precondition("escrow has already been released")
	default:
		return apperr.Precondition("escrow is not in a releasable state")
	}
}

func (s *paymentService) GetTransaction(ctx context.Context, callerID string, transactionID uuid.UUID) (*models.Transaction, error) {
	if callerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	t, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperr.Processing("failed to fetch transaction", err)
	}
	if t == nil || t.UserID != callerID {
		return nil, apperr.NotFound("transaction not found")
	}
	return t, nil
}

func (s *paymentService) ListTransactions(ctx context.Context, callerID string, params ListParams) ([]models.Transaction, error) {
	if callerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	defaultListing := params.RelatedType == nil && !params.EscrowOnly && limit == defaultListLimit

	if defaultListing {
		if cached, ok := s.cache.Get(ctx, callerID); ok {
			return cached, nil
		}
	}

	transactions, err := s.txRepo.List(ctx, callerID, repository.ListFilter{
		RelatedType: params.RelatedType,
		EscrowOnly:  params.EscrowOnly,
		Limit:       limit,
	})
	if err != nil {
		return nil, apperr.Processing("failed to list transactions", err)
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	if defaultListing {
		s.cache.Set(ctx, callerID, transactions)
	}
	return transactions, nil
}
