package repository

import (
	"context"
	"fmt"
	"time"

	"escrowpay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ListFilter struct {
	RelatedType *models.RelatedType
	EscrowOnly  bool
	Limit       int
}

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	// GetByID is not owner-scoped; callers use it to classify a failed
	// conditional update, never to gate a write.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]models.Transaction, error)
	// MarkRefundRequested performs the refund precondition check and the
	// mutation as one conditional statement. Returns false when no row
	// matched, for any reason.
	MarkRefundRequested(ctx context.Context, id uuid.UUID, userID string) (bool, error)
}

type pgTransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &pgTransactionRepository{db: db}
}

const transactionColumns = `
	t.id, t.user_id, t.amount, t.currency, t.payment_method, t.payment_status,
	t.related_type, t.related_id, t.refund_status, t.refunded_amount,
	t.receipt_url, t.details, t.created_at, t.updated_at,
	e.id, e.payment_id, e.buyer_id, e.seller_id, e.escrow_status,
	e.contract_details, e.release_conditions, e.release_date, e.created_at, e.updated_at`

func (r *pgTransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions
			(id, user_id, amount, currency, payment_method, payment_status,
			 related_type, related_id, receipt_url, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Amount, t.Currency, t.PaymentMethod, t.PaymentStatus,
		t.RelatedType, t.RelatedID, t.ReceiptURL, t.Details,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error executing insert transaction query: %w", err)
	}
	return nil
}

func (r *pgTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN escrow_transactions e ON e.payment_id = t.id
		WHERE t.id = $1
	`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning transaction row: %w", err)
	}
	return t, nil
}

func (r *pgTransactionRepository) List(ctx context.Context, userID string, filter ListFilter) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN escrow_transactions e ON e.payment_id = t.id
		WHERE t.user_id = $1
	`
	args := []interface{}{userID}
	if filter.RelatedType != nil {
		args = append(args, *filter.RelatedType)
		query += fmt.Sprintf(" AND t.related_type = $%d", len(args))
	}
	if filter.EscrowOnly {
		query += " AND e.id IS NOT NULL"
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating over transaction rows: %w", err)
	}
	return transactions, nil
}

func (r *pgTransactionRepository) MarkRefundRequested(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	query := `
		UPDATE transactions t
		SET refund_status = 'requested', updated_at = NOW()
		WHERE t.id = $1
		  AND t.user_id = $2
		  AND t.payment_status = 'completed'
		  AND t.refund_status IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM escrow_transactions e WHERE e.payment_id = t.id
		  )
	`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("error executing refund request update: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		t              models.Transaction
		refundStatus   *string
		refundedAmount decimal.NullDecimal

		escrowID      *uuid.UUID
		paymentID     *uuid.UUID
		buyerID       *string
		sellerID      *string
		escrowStatus  *string
		contract      map[string]interface{}
		releaseCond   *string
		releaseDate   *time.Time
		escrowCreated *time.Time
		escrowUpdated *time.Time
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.PaymentMethod, &t.PaymentStatus,
		&t.RelatedType, &t.RelatedID, &refundStatus, &refundedAmount,
		&t.ReceiptURL, &t.Details, &t.CreatedAt, &t.UpdatedAt,
		&escrowID, &paymentID, &buyerID, &sellerID, &escrowStatus,
		&contract, &releaseCond, &releaseDate, &escrowCreated, &escrowUpdated,
	)
	if err != nil {
		return nil, err
	}

	if refundStatus != nil {
		rs := models.RefundStatus(*refundStatus)
		t.RefundStatus = &rs
	}
	if refundedAmount.Valid {
		t.RefundedAmount = &refundedAmount.Decimal
	}
	if escrowID != nil {
		t.Escrow = &models.EscrowDetails{
			ID:              *escrowID,
			PaymentID:       *paymentID,
			BuyerID:         *buyerID,
			SellerID:        *sellerID,
			Status:          models.EscrowStatus(*escrowStatus),
			ContractDetails: contract,
			ReleaseDate:     releaseDate,
			CreatedAt:       *escrowCreated,
			UpdatedAt:       *escrowUpdated,
		}
		if releaseCond != nil {
			t.Escrow.ReleaseConditions = *releaseCond
		}
	}
	return &t, nil
}
