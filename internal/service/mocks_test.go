package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"escrowpay/internal/gateway"
	"escrowpay/internal/models"
	"escrowpay/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errMockStore    = errors.New("mock store error")
	errMockGateway  = errors.New("mock gateway error")
	errMockConflict = errors.New("duplicate escrow record")
)

// mockStore implements TransactionRepository and EscrowRepository over maps.
// All operations run under one mutex so the conditional updates keep their
// check-and-mutate atomicity, which the concurrency tests rely on.
type mockStore struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*models.Transaction
	escrows      map[uuid.UUID]*models.EscrowDetails // keyed by payment id

	createTxErr     error
	createEscrowErr error
	listErr         error
	listCalls       int
	clock           time.Time
}

func newMockStore() *mockStore {
	return &mockStore{
		transactions: make(map[uuid.UUID]*models.Transaction),
		escrows:      make(map[uuid.UUID]*models.EscrowDetails),
		clock:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so listing order is stable.
func (m *mockStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockStore) Create(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createTxErr != nil {
		return m.createTxErr
	}
	now := m.tick()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	return m.snapshot(t), nil
}

func (m *mockStore) List(_ context.Context, userID string, filter repository.ListFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.RelatedType != nil && t.RelatedType != *filter.RelatedType {
			continue
		}
		if filter.EscrowOnly {
			if _, ok := m.escrows[t.ID]; !ok {
				continue
			}
		}
		out = append(out, *m.snapshot(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockStore) MarkRefundRequested(_ context.Context, id uuid.UUID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	if t.PaymentStatus != models.PaymentCompleted || t.RefundStatus != nil {
		return false, nil
	}
	if _, hasEscrow := m.escrows[id]; hasEscrow {
		return false, nil
	}
	rs := models.RefundRequested
	t.RefundStatus = &rs
	t.UpdatedAt = m.tick()
	return true, nil
}

func (m *mockStore) CreateEscrow(_ context.Context, e *models.EscrowDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createEscrowErr != nil {
		return m.createEscrowErr
	}
	if _, exists := m.escrows[e.PaymentID]; exists {
		return errMockConflict
	}
	now := m.tick()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	m.escrows[e.PaymentID] = &cp
	return nil
}

func (m *mockStore) GetByPaymentID(_ context.Context, paymentID uuid.UUID) (*models.EscrowDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escrows[paymentID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) Release(_ context.Context, paymentID uuid.UUID, buyerID string, releaseDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escrows[paymentID]
	if !ok || e.BuyerID != buyerID || e.Status != models.EscrowInitiated {
		return false, nil
	}
	e.Status = models.EscrowReleased
	e.ReleaseDate = &releaseDate
	e.UpdatedAt = m.tick()
	return true, nil
}

func (m *mockStore) snapshot(t *models.Transaction) *models.Transaction {
	cp := *t
	if e, ok := m.escrows[t.ID]; ok {
		ecp := *e
		cp.Escrow = &ecp
	}
	return &cp
}

// escrowRepoView adapts mockStore to the EscrowRepository method set, whose
// Create signature collides with TransactionRepository's.
type escrowRepoView struct{ *mockStore }

func (v escrowRepoView) Create(ctx context.Context, e *models.EscrowDetails) error {
	return v.CreateEscrow(ctx, e)
}

// mockGateway settles instantly unless a delay or error is configured.
type mockGateway struct {
	mu         sync.Mutex
	delay      time.Duration
	settleErr  error
	calls      int
	lastMethod models.PaymentMethod
}

func (g *mockGateway) Settle(ctx context.Context, method models.PaymentMethod, _ decimal.Decimal, _ string) (*gateway.Result, error) {
	g.mu.Lock()
	g.calls++
	g.lastMethod = method
	delay, settleErr := g.delay, g.settleErr
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if settleErr != nil {
		return nil, settleErr
	}
	return &gateway.Result{
		Provider:    string(method),
		ProviderRef: fmt.Sprintf("%s_%s", method, uuid.NewString()),
	}, nil
}

// mockCache records invalidations and serves primed listings.
type mockCache struct {
	mu            sync.Mutex
	entries       map[string][]models.Transaction
	invalidations []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]models.Transaction)}
}

func (c *mockCache) Get(_ context.Context, userID string) ([]models.Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	return entry, ok
}

func (c *mockCache) Set(_ context.Context, userID string, transactions []models.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = transactions
}

func (c *mockCache) Invalidate(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.invalidations = append(c.invalidations, userID)
}
