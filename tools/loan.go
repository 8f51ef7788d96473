package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/lending"
)

// Backend-backed tool names.
const (
	ToolRegisterUser            = "registerUser"
	ToolGetUserPortfolio        = "getUserPortfolio"
	ToolCalculateBorrowingPower = "calculateBorrowingPower"
	ToolGetUserLoans            = "getUserLoans"
	ToolTokenizePortfolio       = "tokenizePortfolio"
)

// LoanToolNames is the catalog subset attached in lending chat mode.
var LoanToolNames = []string{
	ToolRegisterUser,
	ToolGetUserPortfolio,
	ToolCalculateBorrowingPower,
	ToolGetUserLoans,
	ToolTokenizePortfolio,
}

type accountArgs struct {
	AccountID string `json:"accountId"`
}

type registerArgs struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	TopicID   string `json:"topicId"`
}

// LoanTools builds the lending-backend tool catalog entries.
func LoanTools(portfolio *lending.PortfolioService, logger *zap.Logger) []Tool {
	return []Tool{
		{
			Name:        ToolRegisterUser,
			Description: "Register user by Hedera account and HCS topic (calls the lending backend)",
			Parameters: objectSchema(map[string]any{
				"accountId": stringParam("Hedera account ID"),
				"email":     stringParam("User email"),
				"topicId":   stringParam("HCS topic ID"),
			}, "accountId", "email", "topicId"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req registerArgs
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Registration failed"
				}
				if portfolio.RegisterUser(ctx, req.AccountID, req.TopicID) {
					return "✅ Registration successful"
				}
				return "❌ Registration failed"
			},
		},
		{
			Name:        ToolGetUserPortfolio,
			Description: "Get user's portfolio via the lending backend",
			Parameters: objectSchema(map[string]any{
				"accountId": stringParam("Hedera account ID"),
			}, "accountId"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req accountArgs
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Failed to fetch portfolio: " + err.Error()
				}
				p := portfolio.GetUserPortfolio(ctx, req.AccountID)
				return fmt.Sprintf("Portfolio for %s\nTotal: $%.2f\nAvailable Collateral: $%.2f\nTokenized assets: %d",
					req.AccountID, p.TotalValue, p.AvailableCollateral, len(p.TokenizedAssets))
			},
		},
		{
			Name:        ToolCalculateBorrowingPower,
			Description: "Calculate borrowing power using available collateral",
			Parameters: objectSchema(map[string]any{
				"accountId": stringParam("Hedera account ID"),
			}, "accountId"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req accountArgs
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Failed to calculate borrowing power: " + err.Error()
				}
				return portfolio.BorrowingPowerReport(ctx, req.AccountID)
			},
		},
		{
			Name:        ToolGetUserLoans,
			Description: "Get user's active loans and their current status",
			Parameters: objectSchema(map[string]any{
				"accountId": stringParam("Hedera account ID"),
			}, "accountId"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req accountArgs
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Failed to fetch loans: " + err.Error()
				}
				// The lending backend has no loan storage yet; report a
				// helpful default instead of guessing.
				logger.Debug("loan lookup", zap.String("account_id", req.AccountID))
				return fmt.Sprintf("No active loans found for %s.", req.AccountID)
			},
		},
		{
			Name:        ToolTokenizePortfolio,
			Description: "Tokenize eligible assets via the lending backend",
			Parameters: objectSchema(map[string]any{
				"accountId": stringParam("Hedera account ID"),
			}, "accountId"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req accountArgs
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Tokenization failed"
				}
				if portfolio.TokenizePortfolio(ctx, req.AccountID) {
					return "✅ Tokenization started"
				}
				return "❌ Tokenization failed"
			},
		},
	}
}
