package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
	"github.com/divin3circle/hashrexa/hedera"
)

// Ledger-backed tool names.
const (
	ToolCreateToken    = "createToken"
	ToolTransferTokens = "transferTokens"
	ToolCheckBalance   = "checkBalance"
	ToolCreateAccount  = "createAccount"
)

// BlockchainToolNames is the catalog subset attached in blockchain chat mode.
var BlockchainToolNames = []string{ToolCreateToken, ToolTransferTokens, ToolCheckBalance, ToolCreateAccount}

// BlockchainTools builds the ledger-backed tool catalog entries.
func BlockchainTools(gateway hedera.Gateway, logger *zap.Logger) []Tool {
	return []Tool{
		{
			Name:        ToolCreateToken,
			Description: "Create a new token on Hedera network. Requires token name, symbol, initial supply, and optional decimals.",
			Parameters: objectSchema(map[string]any{
				"name":          stringParam("The name of the token"),
				"symbol":        stringParam("The symbol/ticker of the token"),
				"initialSupply": integerParam("Initial supply of tokens to create"),
				"decimals":      integerParam("Number of decimal places (default 2)"),
			}, "name", "symbol", "initialSupply"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req domain.TokenCreateRequest
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Error creating token: " + err.Error()
				}
				logger.Debug("creating token", zap.String("name", req.Name), zap.String("symbol", req.Symbol))
				result := gateway.CreateToken(req)
				if !result.Success {
					logger.Error("token creation failed", zap.String("error", result.Error))
					return "❌ Failed to create token: " + result.Error
				}
				return fmt.Sprintf("✅ Token created successfully!\n"+
					"Message: %s\n"+
					"Transaction ID: %s\n"+
					"You can verify this transaction on HashScan: https://hashscan.io/testnet/transaction/%s",
					result.Message, result.TransactionID, result.TransactionID)
			},
		},
		{
			Name:        ToolTransferTokens,
			Description: "Transfer tokens from the operator account to another account. Requires token ID, recipient account ID, and amount.",
			Parameters: objectSchema(map[string]any{
				"tokenId":     stringParam("The ID of the token to transfer (format: 0.0.XXXXXX)"),
				"toAccountId": stringParam("The account ID to transfer tokens to (format: 0.0.XXXXXX)"),
				"amount":      integerParam("Amount of tokens to transfer"),
			}, "tokenId", "toAccountId", "amount"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var req domain.TransferRequest
				if err := json.Unmarshal(args, &req); err != nil {
					return "❌ Error transferring tokens: " + err.Error()
				}
				logger.Debug("transferring tokens",
					zap.Int64("amount", req.Amount),
					zap.String("token_id", req.TokenID),
					zap.String("to", req.ToAccountID))
				result := gateway.TransferTokens(req)
				if !result.Success {
					logger.Error("token transfer failed", zap.String("error", result.Error))
					return "❌ Transfer failed: " + result.Error
				}
				return fmt.Sprintf("✅ Transfer completed!\n"+
					"Message: %s\n"+
					"Transaction ID: %s\n"+
					"View on HashScan: https://hashscan.io/testnet/transaction/%s",
					result.Message, result.TransactionID, result.TransactionID)
			},
		},
		{
			Name:        ToolCheckBalance,
			Description: "Check HBAR and token balance for any Hedera account",
			Parameters: objectSchema(map[string]any{
				"accountId": stringParam("The account ID to check balance for (format: 0.0.XXXXXX)"),
			}, "accountId"),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				var query domain.BalanceQuery
				if err := json.Unmarshal(args, &query); err != nil {
					return "❌ Error checking balance: " + err.Error()
				}
				logger.Debug("checking balance", zap.String("account_id", query.AccountID))
				result := gateway.GetAccountBalance(query)
				if !result.Success {
					logger.Error("balance check failed",
						zap.String("account_id", query.AccountID),
						zap.String("error", result.Error))
					return fmt.Sprintf("❌ Failed to get balance for account %s: %s", query.AccountID, result.Error)
				}
				return fmt.Sprintf("✅ Balance retrieved for account %s:\n%s\n"+
					"View account details: https://hashscan.io/testnet/account/%s",
					query.AccountID, result.Message, query.AccountID)
			},
		},
		{
			Name:        ToolCreateAccount,
			Description: "Create a new Hedera account with a small initial balance",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args json.RawMessage) string {
				logger.Debug("creating new account")
				result := gateway.CreateAccount()
				if !result.Success {
					logger.Error("account creation failed", zap.String("error", result.Error))
					return "❌ Failed to create account: " + result.Error
				}
				if info, ok := result.Data.(domain.AccountInfo); ok {
					return fmt.Sprintf("✅ New account created!\n"+
						"Account ID: %s\n"+
						"Transaction ID: %s\n"+
						"⚠️ IMPORTANT: Save the private key securely!\n"+
						"Private Key: %s\n"+
						"View account: https://hashscan.io/testnet/account/%s",
						info.AccountID, result.TransactionID, info.PrivateKey, info.AccountID)
				}
				return "✅ " + result.Message + "\nTransaction ID: " + result.TransactionID
			},
		},
	}
}
