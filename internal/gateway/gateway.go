// Package gateway holds the settlement strategies. Each payment method is a
// separate arm so a real provider integration can replace one arm without
// touching the others.
package gateway

import (
	"context"
	"fmt"

	"escrowpay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Result carries the provider reference for a confirmed transfer.
type Result struct {
	Provider    string
	ProviderRef string
}

type Gateway interface {
	Settle(ctx context.Context, method models.PaymentMethod, amount decimal.Decimal, currency string) (*Result, error)
}

// SimulatedGateway settles every request locally. No real provider is called;
// each arm still produces its own provider reference.
type SimulatedGateway struct {
	log *zap.Logger
}

func NewSimulatedGateway(log *zap.Logger) *SimulatedGateway {
	return &SimulatedGateway{log: log}
}

func (g *SimulatedGateway) Settle(ctx context.Context, method models.PaymentMethod, amount decimal.Decimal, currency string) (*Result, error) {
	switch method {
	case models.MethodCard:
		return g.settleCard(ctx, amount, currency)
	case models.MethodCrypto:
		return g.settleCrypto(ctx, amount, currency)
	case models.MethodPromptPay:
		return g.settlePromptPay(ctx, amount, currency)
	default:
		return nil, fmt.Errorf("unsupported payment method: %s", method)
	}
}

func (g *SimulatedGateway) settleCard(ctx context.Context, amount decimal.Decimal, currency string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := "card_" + uuid.NewString()
	g.log.Info("card settlement confirmed",
		zap.String("provider_ref", ref),
		zap.String("amount", amount.String()),
		zap.String("currency", currency))
	return &Result{Provider: "card", ProviderRef: ref}, nil
}

func (g *SimulatedGateway) settleCrypto(ctx context.Context, amount decimal.Decimal, currency string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := "crypto_" + uuid.NewString()
	g.log.Info("crypto settlement confirmed",
		zap.String("provider_ref", ref),
		zap.String("amount", amount.String()),
		zap.String("currency", currency))
	return &Result{Provider: "crypto", ProviderRef: ref}, nil
}

func (g *SimulatedGateway) settlePromptPay(ctx context.Context, amount decimal.Decimal, currency string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := "promptpay_" + uuid.NewString()
	g.log.Info("promptpay settlement confirmed",
		zap.String("provider_ref", ref),
		zap.String("amount", amount.String()),
		zap.String("currency", currency))
	return &Result{Provider: "promptpay", ProviderRef: ref}, nil
}
