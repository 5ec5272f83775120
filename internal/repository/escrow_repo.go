package repository

import (
	"context"
	"fmt"
	"time"

	"escrowpay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EscrowRepository interface {
	Create(ctx context.Context, e *models.EscrowDetails) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.EscrowDetails, error)
	// Release moves an initiated escrow to released. The buyer check and the
	// state check live in the WHERE clause so two racing calls can never
	// both succeed. Returns false when no row matched.
	Release(ctx context.Context, paymentID uuid.UUID, buyerID string, releaseDate time.Time) (bool, error)
}

type pgEscrowRepository struct {
	db *pgxpool.Pool
}

func NewEscrowRepository(db *pgxpool.Pool) EscrowRepository {
	return &pgEscrowRepository{db: db}
}

func (r *pgEscrowRepository) Create(ctx context.Context, e *models.EscrowDetails) error {
	query := `
		INSERT INTO escrow_transactions
			(id, payment_id, buyer_id, seller_id, escrow_status,
			 contract_details, release_conditions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		e.ID, e.PaymentID, e.BuyerID, e.SellerID, e.Status,
		e.ContractDetails, e.ReleaseConditions,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error executing insert escrow query: %w", err)
	}
	return nil
}

func (r *pgEscrowRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.EscrowDetails, error) {
	query := `
		SELECT id, payment_id, buyer_id, seller_id, escrow_status,
		       contract_details, release_conditions, release_date, created_at, updated_at
		FROM escrow_transactions
		WHERE payment_id = $1
	`
	var (
		e           models.EscrowDetails
		releaseCond *string
	)
	err := r.db.QueryRow(ctx, query, paymentID).Scan(
		&e.ID, &e.PaymentID, &e.BuyerID, &e.SellerID, &e.Status,
		&e.ContractDetails, &releaseCond, &e.ReleaseDate, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning escrow row: %w", err)
	}
	if releaseCond != nil {
		e.ReleaseConditions = *releaseCond
	}
	return &e, nil
}

func (r *pgEscrowRepository) Release(ctx context.Context, paymentID uuid.UUID, buyerID string, releaseDate time.Time) (bool, error) {
	query := `
		UPDATE escrow_transactions
		SET escrow_status = 'released', release_date = $3, updated_at = NOW()
		WHERE payment_id = $1
		  AND buyer_id = $2
		  AND escrow_status = 'initiated'
	`
	tag, err := r.db.Exec(ctx, query, paymentID, buyerID, releaseDate)
	if err != nil {
		return false, fmt.Errorf("error executing escrow release update: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
