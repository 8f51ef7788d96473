package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/lending"
)

type scriptedBackend struct {
	portfolio map[string]any
	register  map[string]any
	tokenize  map[string]any
	err       error
}

func (b *scriptedBackend) RegisterUser(ctx context.Context, accountID, topicID string) (map[string]any, error) {
	return b.register, b.err
}

func (b *scriptedBackend) GetPortfolio(ctx context.Context, accountID string) (map[string]any, error) {
	return b.portfolio, b.err
}

func (b *scriptedBackend) GetTokenizedAssets(ctx context.Context, accountID string) ([]map[string]any, error) {
	return nil, b.err
}

func (b *scriptedBackend) TokenizePortfolio(ctx context.Context, accountID string) (map[string]any, error) {
	return b.tokenize, b.err
}

func (b *scriptedBackend) CheckTopicExists(ctx context.Context, accountID string) (map[string]any, error) {
	return nil, b.err
}

func loanRegistry(backend lending.Backend) *Registry {
	portfolio := lending.NewPortfolioService(backend, zap.NewNop())
	r := NewRegistry(nil, nil, zap.NewNop())
	r.Register(LoanTools(portfolio, zap.NewNop())...)
	return r
}

func TestGetUserPortfolioTool(t *testing.T) {
	r := loanRegistry(&scriptedBackend{
		portfolio: map[string]any{
			"portfolio": map[string]any{"portfolioValueUSD": 1000.0},
		},
	})

	result := r.Dispatch(context.Background(), ToolGetUserPortfolio, json.RawMessage(`{"accountId":"0.0.1234"}`))
	assert.Contains(t, result, "Portfolio for 0.0.1234")
	assert.Contains(t, result, "Total: $1000.00")
	assert.Contains(t, result, "Available Collateral: $400.00")
	assert.Contains(t, result, "Tokenized assets: 0")
}

func TestCalculateBorrowingPowerTool(t *testing.T) {
	r := loanRegistry(&scriptedBackend{
		portfolio: map[string]any{
			"portfolio": map[string]any{"portfolioValueUSD": 2500.0},
		},
	})

	result := r.Dispatch(context.Background(), ToolCalculateBorrowingPower, json.RawMessage(`{"accountId":"0.0.1234"}`))
	assert.Contains(t, result, "Borrowing Power")
	assert.Contains(t, result, "50% LTV: $500.00")
	assert.Contains(t, result, "60% LTV: $600.00")
	assert.Contains(t, result, "67% LTV: $670.00")
}

func TestRegisterUserTool(t *testing.T) {
	r := loanRegistry(&scriptedBackend{register: map[string]any{"success": true}})
	result := r.Dispatch(context.Background(), ToolRegisterUser,
		json.RawMessage(`{"accountId":"0.0.1234","email":"a@b.c","topicId":"0.0.9999"}`))
	assert.Equal(t, "✅ Registration successful", result)

	r = loanRegistry(&scriptedBackend{err: errors.New("down")})
	result = r.Dispatch(context.Background(), ToolRegisterUser,
		json.RawMessage(`{"accountId":"0.0.1234","email":"a@b.c","topicId":"0.0.9999"}`))
	assert.Equal(t, "❌ Registration failed", result)
}

func TestGetUserLoansTool(t *testing.T) {
	r := loanRegistry(&scriptedBackend{})
	result := r.Dispatch(context.Background(), ToolGetUserLoans, json.RawMessage(`{"accountId":"0.0.1234"}`))
	assert.Equal(t, "No active loans found for 0.0.1234.", result)
}

func TestTokenizePortfolioTool(t *testing.T) {
	r := loanRegistry(&scriptedBackend{tokenize: map[string]any{"success": true}})
	result := r.Dispatch(context.Background(), ToolTokenizePortfolio, json.RawMessage(`{"accountId":"0.0.1234"}`))
	assert.Equal(t, "✅ Tokenization started", result)

	r = loanRegistry(&scriptedBackend{tokenize: map[string]any{"success": false}})
	result = r.Dispatch(context.Background(), ToolTokenizePortfolio, json.RawMessage(`{"accountId":"0.0.1234"}`))
	assert.Equal(t, "❌ Tokenization failed", result)
}
