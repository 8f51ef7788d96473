// Package hedera executes ledger operations against the Hedera network
// and normalizes every outcome into an OperationResult. Nothing in this
// package panics or returns a raw SDK error past its boundary.
package hedera

import (
	"fmt"

	hiero "github.com/hiero-ledger/hiero-sdk-go/v2/sdk"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
)

const (
	defaultDecimals = 2
	// Opening balance for newly created accounts, in tinybar.
	newAccountBalanceTinybar = 1000
)

// Gateway is the ledger operation contract consumed by the tool layer.
type Gateway interface {
	CreateToken(req domain.TokenCreateRequest) domain.OperationResult
	TransferTokens(req domain.TransferRequest) domain.OperationResult
	GetAccountBalance(query domain.BalanceQuery) domain.OperationResult
	CreateAccount() domain.OperationResult
	CreateTopic(memo string) domain.OperationResult
}

// Service is the gateway implementation bound to an operator identity.
// The operator account acts as treasury, admin and supply authority for
// tokens it creates, and as the debit side of every transfer.
type Service struct {
	client *hiero.Client
	logger *zap.Logger
}

// NewService creates a gateway around a configured ledger client.
func NewService(client *hiero.Client, logger *zap.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// NewTestnetClient builds a testnet ledger client with the operator set.
func NewTestnetClient(operatorID, operatorKey string) (*hiero.Client, error) {
	accountID, err := hiero.AccountIDFromString(operatorID)
	if err != nil {
		return nil, fmt.Errorf("invalid operator account id: %w", err)
	}
	privateKey, err := hiero.PrivateKeyFromStringEd25519(operatorKey)
	if err != nil {
		return nil, fmt.Errorf("invalid operator private key: %w", err)
	}

	client := hiero.ClientForTestnet()
	client.SetOperator(accountID, privateKey)
	return client, nil
}

// CreateToken mints a new fungible token with the operator as treasury.
func (s *Service) CreateToken(req domain.TokenCreateRequest) domain.OperationResult {
	if err := req.Validate(); err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to create token: "+err.Error())
	}

	s.logger.Info("creating token", zap.String("name", req.Name), zap.String("symbol", req.Symbol))

	decimals := defaultDecimals
	if req.Decimals != nil {
		decimals = *req.Decimals
	}

	tx, err := hiero.NewTokenCreateTransaction().
		SetTokenType(hiero.TokenTypeFungibleCommon).
		SetTokenName(req.Name).
		SetTokenSymbol(req.Symbol).
		SetDecimals(uint(decimals)).
		SetInitialSupply(uint64(req.InitialSupply)).
		SetTreasuryAccountID(s.client.GetOperatorAccountID()).
		SetAdminKey(s.client.GetOperatorPublicKey()).
		SetSupplyKey(s.client.GetOperatorPublicKey()).
		SetFreezeDefault(false).
		FreezeWith(s.client)
	if err != nil {
		s.logger.Error("token create freeze failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create token: "+err.Error())
	}

	resp, err := tx.Execute(s.client)
	if err != nil {
		s.logger.Error("token create failed", zap.String("name", req.Name), zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create token: "+err.Error())
	}

	receipt, err := resp.GetReceipt(s.client)
	if err != nil {
		s.logger.Error("token create receipt failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create token: "+err.Error())
	}

	tokenID := receipt.TokenID.String()
	transactionID := resp.TransactionID.String()
	s.logger.Info("token created", zap.String("token_id", tokenID), zap.String("transaction_id", transactionID))

	return domain.SuccessResult(
		fmt.Sprintf("Token '%s' created successfully with id: %s", req.Name, tokenID),
		transactionID,
	)
}

// TransferTokens moves tokens from the operator account to the
// destination in a single atomic transaction. A debit and a credit leg
// are balanced by construction, so no partial transfer can occur.
func (s *Service) TransferTokens(req domain.TransferRequest) domain.OperationResult {
	if err := req.Validate(); err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to transfer tokens: "+err.Error())
	}

	s.logger.Info("transferring tokens",
		zap.Int64("amount", req.Amount),
		zap.String("token_id", req.TokenID),
		zap.String("to", req.ToAccountID))

	tokenID, err := hiero.TokenIDFromString(req.TokenID)
	if err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to transfer tokens: "+err.Error())
	}
	toAccount, err := hiero.AccountIDFromString(req.ToAccountID)
	if err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to transfer tokens: "+err.Error())
	}
	fromAccount := s.client.GetOperatorAccountID()

	tx, err := hiero.NewTransferTransaction().
		AddTokenTransfer(tokenID, fromAccount, -req.Amount).
		AddTokenTransfer(tokenID, toAccount, req.Amount).
		FreezeWith(s.client)
	if err != nil {
		s.logger.Error("transfer freeze failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to transfer tokens: "+err.Error())
	}

	resp, err := tx.Execute(s.client)
	if err != nil {
		s.logger.Error("transfer failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to transfer tokens: "+err.Error())
	}

	if _, err := resp.GetReceipt(s.client); err != nil {
		s.logger.Error("transfer receipt failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to transfer tokens: "+err.Error())
	}

	transactionID := resp.TransactionID.String()
	s.logger.Info("transfer completed", zap.String("transaction_id", transactionID))

	return domain.SuccessResult(
		fmt.Sprintf("Successfully transferred %d tokens to %s", req.Amount, req.ToAccountID),
		transactionID,
	)
}

// GetAccountBalance is a read-only HBAR balance query. It is safe to
// retry; no ledger state changes.
func (s *Service) GetAccountBalance(query domain.BalanceQuery) domain.OperationResult {
	if err := query.Validate(); err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to get balance: "+err.Error())
	}

	s.logger.Info("checking balance", zap.String("account_id", query.AccountID))

	accountID, err := hiero.AccountIDFromString(query.AccountID)
	if err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to get balance: "+err.Error())
	}

	balance, err := hiero.NewAccountBalanceQuery().
		SetAccountID(accountID).
		Execute(s.client)
	if err != nil {
		s.logger.Error("balance query failed", zap.String("account_id", query.AccountID), zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to get balance: "+err.Error())
	}

	hbars := balance.Hbars.String()
	s.logger.Info("balance retrieved", zap.String("account_id", query.AccountID), zap.String("hbar", hbars))

	return domain.SuccessWithData(
		fmt.Sprintf("Account %s has %s", query.AccountID, hbars),
		domain.BalanceInfo{HbarBalance: hbars},
	)
}

// CreateAccount generates a fresh Ed25519 key pair and creates an
// account with a small opening balance. The result payload is the only
// place the private key ever appears; it is not persisted anywhere.
func (s *Service) CreateAccount() domain.OperationResult {
	s.logger.Info("creating new account")

	privateKey, err := hiero.PrivateKeyGenerateEd25519()
	if err != nil {
		s.logger.Error("key generation failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindUnknown, "Failed to create account: "+err.Error())
	}
	publicKey := privateKey.PublicKey()

	resp, err := hiero.NewAccountCreateTransaction().
		SetKey(publicKey).
		SetInitialBalance(hiero.HbarFromTinybar(newAccountBalanceTinybar)).
		Execute(s.client)
	if err != nil {
		s.logger.Error("account create failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create account: "+err.Error())
	}

	receipt, err := resp.GetReceipt(s.client)
	if err != nil {
		s.logger.Error("account create receipt failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create account: "+err.Error())
	}

	newAccountID := receipt.AccountID.String()
	transactionID := resp.TransactionID.String()
	s.logger.Info("account created", zap.String("account_id", newAccountID))

	result := domain.SuccessWithData(
		fmt.Sprintf("Account created successfully: %s", newAccountID),
		domain.AccountInfo{
			AccountID:  newAccountID,
			PublicKey:  publicKey.String(),
			PrivateKey: privateKey.String(),
		},
	)
	result.TransactionID = transactionID
	return result
}

// CreateTopic creates a consensus topic used for user registration and
// loan event streams.
func (s *Service) CreateTopic(memo string) domain.OperationResult {
	s.logger.Info("creating topic", zap.String("memo", memo))

	resp, err := hiero.NewTopicCreateTransaction().
		SetTopicMemo(memo).
		Execute(s.client)
	if err != nil {
		s.logger.Error("topic create failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create topic: "+err.Error())
	}

	receipt, err := resp.GetReceipt(s.client)
	if err != nil {
		s.logger.Error("topic create receipt failed", zap.Error(err))
		return domain.ErrorResult(domain.ErrorKindTransport, "Failed to create topic: "+err.Error())
	}

	topicID := receipt.TopicID.String()
	s.logger.Info("topic created", zap.String("topic_id", topicID))

	return domain.SuccessResult(
		fmt.Sprintf("Topic created successfully: %s", topicID),
		resp.TransactionID.String(),
	)
}
