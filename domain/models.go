// Package domain defines the core models shared across the assistant.
package domain

import (
	"errors"
	"time"
)

// ErrorKind classifies failed operations so callers can branch on the
// failure class instead of parsing message text.
type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindTransport     ErrorKind = "transport"
	ErrorKindPolicyRefusal ErrorKind = "policy_refusal"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// OperationResult is the uniform envelope returned by every ledger and
// backend operation. Exactly one of the success fields or Error is set.
type OperationResult struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Data          any       `json:"data,omitempty"`
	Error         string    `json:"error,omitempty"`
	Kind          ErrorKind `json:"-"`
}

// SuccessResult builds a success envelope carrying a transaction reference.
func SuccessResult(message, transactionID string) OperationResult {
	return OperationResult{Success: true, Message: message, TransactionID: transactionID}
}

// SuccessWithData builds a success envelope carrying a typed payload.
func SuccessWithData(message string, data any) OperationResult {
	return OperationResult{Success: true, Message: message, Data: data}
}

// ErrorResult builds a failure envelope.
func ErrorResult(kind ErrorKind, message string) OperationResult {
	return OperationResult{Success: false, Error: message, Kind: kind}
}

// TokenCreateRequest describes a new fungible token to mint on the ledger.
type TokenCreateRequest struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	InitialSupply int64  `json:"initialSupply"`
	// Decimals is optional; nil means the ledger default of 2.
	Decimals *int `json:"decimals,omitempty"`
}

func (r TokenCreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("token name must not be empty")
	}
	if r.Symbol == "" {
		return errors.New("token symbol must not be empty")
	}
	if r.InitialSupply <= 0 {
		return errors.New("initial supply must be positive")
	}
	if r.Decimals != nil && *r.Decimals < 0 {
		return errors.New("decimals must not be negative")
	}
	return nil
}

// TransferRequest describes a token transfer from the operator account.
type TransferRequest struct {
	TokenID     string `json:"tokenId"`
	ToAccountID string `json:"toAccountId"`
	Amount      int64  `json:"amount"`
}

func (r TransferRequest) Validate() error {
	if r.TokenID == "" {
		return errors.New("token id must not be empty")
	}
	if r.ToAccountID == "" {
		return errors.New("destination account id must not be empty")
	}
	if r.Amount <= 0 {
		return errors.New("transfer amount must be positive")
	}
	return nil
}

// BalanceQuery identifies the account whose balance is requested.
type BalanceQuery struct {
	AccountID string `json:"accountId"`
}

func (q BalanceQuery) Validate() error {
	if q.AccountID == "" {
		return errors.New("account id must not be empty")
	}
	return nil
}

// BalanceInfo is the payload attached to a successful balance query.
type BalanceInfo struct {
	HbarBalance string `json:"hbarBalance"`
}

// AccountInfo is the payload attached to a successful account creation.
// The private key appears here once and is never persisted.
type AccountInfo struct {
	AccountID  string `json:"accountId"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// ChatResponse is the reply from the loan assistant.
type ChatResponse struct {
	Message string `json:"message"`
	Intent  Intent `json:"intent"`
}

// ChatReply is the envelope returned by the unified chat endpoint.
type ChatReply struct {
	Reply  string `json:"reply"`
	Intent Intent `json:"intent,omitempty"`
	OK     bool   `json:"ok"`
	Mode   string `json:"mode"`
}

// Intent is a coarse classification of a loan query, used for routing
// and analytics.
type Intent string

const (
	IntentCollateral Intent = "COLLATERAL_INQUIRY"
	IntentRate       Intent = "RATE_INQUIRY"
	IntentRepayment  Intent = "REPAYMENT_INQUIRY"
	IntentRisk       Intent = "RISK_INQUIRY"
	IntentGeneral    Intent = "GENERAL_INQUIRY"
)

// Loan is one active loan in a user's snapshot.
type Loan struct {
	LoanID           string  `json:"loanId"`
	Amount           float64 `json:"amount"`
	CollateralAmount float64 `json:"collateralAmount"`
	CollateralToken  string  `json:"collateralToken"`
	CollateralValue  float64 `json:"collateralValue"`
	APY              float64 `json:"apy"`
	DueDate          string  `json:"dueDate"`
	Status           string  `json:"status"`
}

// UserLoanData is the per-user loan snapshot. It is replaced wholesale
// on update, never merged.
type UserLoanData struct {
	ActiveLoans     []Loan   `json:"activeLoans"`
	TotalBorrowed   float64  `json:"totalBorrowed"`
	AverageAPY      float64  `json:"averageAPY"`
	CollateralTypes []string `json:"collateralTypes"`
	RiskProfile     string   `json:"riskProfile"`
}

// Asset is a position held in a user's portfolio.
type Asset struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"currentPrice"`
	TotalValue   float64 `json:"totalValue"`
}

// TokenizedAsset is a ledger token backed by a brokerage position.
type TokenizedAsset struct {
	TokenID                   string    `json:"tokenId"`
	OriginalAssetSymbol       string    `json:"originalAssetSymbol"`
	TokenizedAmount           float64   `json:"tokenizedAmount"`
	BackingValue              float64   `json:"backingValue"`
	TokenizationDate          time.Time `json:"tokenizationDate"`
	TokenizationTransactionID string    `json:"tokenizationTransactionId,omitempty"`
}

// Portfolio is the aggregated view of a user's holdings.
type Portfolio struct {
	AccountID           string           `json:"accountId"`
	TotalValue          float64          `json:"totalValue"`
	AvailableCollateral float64          `json:"availableCollateral"`
	LockedCollateral    float64          `json:"lockedCollateral"`
	Assets              []Asset          `json:"assets"`
	TokenizedAssets     []TokenizedAsset `json:"tokenizedAssets"`
	LastUpdated         time.Time        `json:"lastUpdated"`
}

// ToolCallRecord is one audited tool invocation.
type ToolCallRecord struct {
	ID            string    `json:"tool_call_id"`
	Tool          string    `json:"tool"`
	Args          string    `json:"args,omitempty"`
	Status        string    `json:"status"` // succeeded, failed
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
