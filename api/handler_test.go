package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/api"
	"github.com/divin3circle/hashrexa/chat"
	"github.com/divin3circle/hashrexa/domain"
	"github.com/divin3circle/hashrexa/lending"
	"github.com/divin3circle/hashrexa/llm"
	"github.com/divin3circle/hashrexa/store"
	"github.com/divin3circle/hashrexa/tools"
)

type stubEngine struct {
	content string
}

func (s *stubEngine) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: s.content}}},
	}, nil
}

func (s *stubEngine) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) error {
	return callback(&llm.StreamChunk{
		Choices: []llm.Choice{{Delta: &llm.ChatMessage{Content: s.content}}},
	})
}

type stubGateway struct {
	balance domain.OperationResult
	token   domain.OperationResult
}

func (g *stubGateway) CreateToken(req domain.TokenCreateRequest) domain.OperationResult {
	if err := req.Validate(); err != nil {
		return domain.ErrorResult(domain.ErrorKindValidation, "Failed to create token: "+err.Error())
	}
	return g.token
}

func (g *stubGateway) TransferTokens(req domain.TransferRequest) domain.OperationResult {
	return domain.SuccessResult("ok", "0.0.5@1.2")
}

func (g *stubGateway) GetAccountBalance(query domain.BalanceQuery) domain.OperationResult {
	return g.balance
}

func (g *stubGateway) CreateAccount() domain.OperationResult {
	return domain.SuccessWithData("created", domain.AccountInfo{AccountID: "0.0.9999"})
}

func (g *stubGateway) CreateTopic(memo string) domain.OperationResult {
	return domain.SuccessResult("Topic created successfully: 0.0.7777", "0.0.5@9.9")
}

type stubBackend struct{}

func (stubBackend) RegisterUser(ctx context.Context, accountID, topicID string) (map[string]any, error) {
	return map[string]any{"success": true}, nil
}

func (stubBackend) GetPortfolio(ctx context.Context, accountID string) (map[string]any, error) {
	return map[string]any{"portfolio": map[string]any{"portfolioValueUSD": 1000.0}}, nil
}

func (stubBackend) GetTokenizedAssets(ctx context.Context, accountID string) ([]map[string]any, error) {
	return nil, nil
}

func (stubBackend) TokenizePortfolio(ctx context.Context, accountID string) (map[string]any, error) {
	return map[string]any{"success": true}, nil
}

func (stubBackend) CheckTopicExists(ctx context.Context, accountID string) (map[string]any, error) {
	return map[string]any{"exists": true}, nil
}

func newTestServer(t *testing.T, audit *store.AuditStore) *echo.Echo {
	t.Helper()
	logger := zap.NewNop()

	gateway := &stubGateway{
		balance: domain.SuccessWithData("Account 0.0.1234 has 42 ℏ", domain.BalanceInfo{HbarBalance: "42 ℏ"}),
		token:   domain.SuccessResult("Token 'Demo' created successfully with id: 0.0.4242", "0.0.5@1.2"),
	}
	portfolio := lending.NewPortfolioService(stubBackend{}, logger)

	registry := tools.NewRegistry(nil, nil, logger)
	registry.Register(tools.BlockchainTools(gateway, logger)...)
	registry.Register(tools.LoanTools(portfolio, logger)...)

	engine := &stubEngine{content: "model reply"}
	history := chat.NewMemoryStore()
	assistant := chat.NewLoanAssistant(engine, history, "test-model", logger)
	orchestrator := chat.NewOrchestrator(engine, registry, assistant, "test-model", logger)

	h := api.NewHandler(orchestrator, assistant, gateway, portfolio, audit, logger)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestChatSendRequiresMessage(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/chat/send", `{"mode":"loan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSendLoanShortcut(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/chat/send",
		`{"mode":"loan","userId":"0.0.1234","message":"show my portfolio"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply domain.ChatReply
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.True(t, reply.OK)
	assert.Contains(t, reply.Reply, "Portfolio for 0.0.1234")
	assert.Contains(t, reply.Reply, "Available Collateral: $400.00")
}

func TestChatSendDefaultsToLoanMode(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/chat/send", `{"message":"how does lending work?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply domain.ChatReply
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "loan", reply.Mode)
	assert.Equal(t, "model reply", reply.Reply)
}

func TestBlockchainChatRequiresMessage(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoanChatReturnsIntent(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/chat/loan/alice", `{"query":"what is my apy?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "model reply", resp.Message)
	assert.Equal(t, domain.IntentRate, resp.Intent)
}

func TestLoanChatStream(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/api/chat/loan/alice/stream?query=hello", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/event-stream")
	assert.Contains(t, rec.Body.String(), "data: model reply")
	assert.Contains(t, rec.Body.String(), "data: [DONE]")
}

func TestLoanChatStreamRequiresQuery(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/api/chat/loan/alice/stream", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLoanData(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPut, "/api/chat/loan/alice/loans",
		`{"activeLoans":[],"totalBorrowed":500,"riskProfile":"moderate"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "true")
}

func TestDirectBalance(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/api/direct/balance/0.0.1234", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var result domain.OperationResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "42 ℏ")
}

func TestDirectCreateTokenValidationFailure(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/direct/token", `{"symbol":"DMO","initialSupply":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result domain.OperationResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "token name must not be empty")
}

func TestDirectCreateTokenSuccess(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodPost, "/api/direct/token",
		`{"name":"Demo","symbol":"DMO","initialSupply":100}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result domain.OperationResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "0.0.5@1.2", result.TransactionID)
}

func TestDirectPortfolio(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/api/direct/portfolio/0.0.1234", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var p domain.Portfolio
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.InDelta(t, 1000.0, p.TotalValue, 0.001)
	assert.InDelta(t, 400.0, p.AvailableCollateral, 0.001)
}

func TestDirectTopicExists(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/api/direct/topics/0.0.1234/exists", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"exists":true`)
}

func TestListToolCallsWithoutAuditStore(t *testing.T) {
	e := newTestServer(t, nil)
	rec := doJSON(e, http.MethodGet, "/api/tools/calls", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListToolCalls(t *testing.T) {
	audit, err := store.NewAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	assert.NoError(t, err)
	defer audit.Close()

	err = audit.RecordToolCall(context.Background(), domain.ToolCallRecord{
		ID: "tc_1", Tool: "checkBalance", Status: "succeeded",
	})
	assert.NoError(t, err)

	e := newTestServer(t, audit)
	rec := doJSON(e, http.MethodGet, "/api/tools/calls?limit=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tc_1")
}
