// Package api provides the HTTP surface of the assistant.
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/chat"
	"github.com/divin3circle/hashrexa/domain"
	"github.com/divin3circle/hashrexa/hedera"
	"github.com/divin3circle/hashrexa/lending"
	"github.com/divin3circle/hashrexa/store"
)

// Handler handles HTTP requests.
type Handler struct {
	orchestrator *chat.Orchestrator
	assistant    *chat.LoanAssistant
	gateway      hedera.Gateway
	portfolio    *lending.PortfolioService
	audit        *store.AuditStore
	logger       *zap.Logger
}

// NewHandler creates a new handler. audit may be nil, in which case the
// tool-call listing endpoint reports unavailability.
func NewHandler(orchestrator *chat.Orchestrator, assistant *chat.LoanAssistant, gateway hedera.Gateway, portfolio *lending.PortfolioService, audit *store.AuditStore, logger *zap.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		assistant:    assistant,
		gateway:      gateway,
		portfolio:    portfolio,
		audit:        audit,
		logger:       logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Conversational API
	e.POST("/api/chat", h.BlockchainChat)
	e.POST("/api/chat/send", h.ChatSend)
	e.POST("/api/chat/loan/:userId", h.LoanChat)
	e.GET("/api/chat/loan/:userId/stream", h.LoanChatStream)
	e.PUT("/api/chat/loan/:userId/loans", h.UpdateLoanData)
	e.POST("/api/ai/lending", h.LendingChat)

	// Direct ledger and backend operations (no model involved)
	e.POST("/api/direct/token", h.DirectCreateToken)
	e.POST("/api/direct/transfer", h.DirectTransfer)
	e.GET("/api/direct/balance/:accountId", h.DirectBalance)
	e.POST("/api/direct/account", h.DirectCreateAccount)
	e.POST("/api/direct/topic", h.DirectCreateTopic)
	e.GET("/api/direct/portfolio/:accountId", h.DirectPortfolio)
	e.GET("/api/direct/topics/:accountId/exists", h.DirectTopicExists)

	// Audit trail
	e.GET("/api/tools/calls", h.ListToolCalls)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// ChatMessageRequest carries one user message.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatSendRequest is the unified chat request routed by mode.
type ChatSendRequest struct {
	Mode    string `json:"mode"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// LoanQueryRequest carries one loan query.
type LoanQueryRequest struct {
	Query string `json:"query"`
}

// BlockchainChat answers a blockchain question, calling ledger tools as
// the model requests them.
// POST /api/chat
func (h *Handler) BlockchainChat(c echo.Context) error {
	var req ChatMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	reply := h.orchestrator.Send(c.Request().Context(), "blockchain", "", req.Message)
	return c.JSON(http.StatusOK, reply)
}

// ChatSend routes a chat message by mode (blockchain or loan).
// POST /api/chat/send
func (h *Handler) ChatSend(c echo.Context) error {
	var req ChatSendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}
	if req.Mode == "" {
		req.Mode = "loan"
	}

	reply := h.orchestrator.Send(c.Request().Context(), req.Mode, req.UserID, req.Message)
	return c.JSON(http.StatusOK, reply)
}

// LoanChat answers a loan question with the user's history and loan
// context folded into the prompt.
// POST /api/chat/loan/:userId
func (h *Handler) LoanChat(c echo.Context) error {
	userID := c.Param("userId")

	var req LoanQueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	resp, err := h.assistant.HandleQuery(c.Request().Context(), userID, req.Query)
	if err != nil {
		h.logger.Error("loan chat failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "completion engine unavailable"})
	}
	return c.JSON(http.StatusOK, resp)
}

// LoanChatStream streams the loan reply as server-sent events, one
// `data:` line per text fragment, terminated by `data: [DONE]`.
// GET /api/chat/loan/:userId/stream?query=...
func (h *Handler) LoanChatStream(c echo.Context) error {
	userID := c.Param("userId")
	query := c.QueryParam("query")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	err := h.assistant.StreamQuery(c.Request().Context(), userID, query, func(fragment string) error {
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", fragment); err != nil {
			return err
		}
		resp.Flush()
		return nil
	})
	if err != nil {
		h.logger.Error("loan chat stream failed", zap.String("user_id", userID), zap.Error(err))
		fmt.Fprintf(resp, "data: [ERROR] %s\n\n", err.Error())
		resp.Flush()
		return nil
	}

	fmt.Fprint(resp, "data: [DONE]\n\n")
	resp.Flush()
	return nil
}

// UpdateLoanData replaces the user's loan snapshot used for prompt
// context.
// PUT /api/chat/loan/:userId/loans
func (h *Handler) UpdateLoanData(c echo.Context) error {
	userID := c.Param("userId")

	var data domain.UserLoanData
	if err := c.Bind(&data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	h.assistant.UpdateLoanData(userID, data)
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// LendingChat answers a lending question, calling backend tools as the
// model requests them.
// POST /api/ai/lending
func (h *Handler) LendingChat(c echo.Context) error {
	var req ChatMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	content, err := h.orchestrator.LendingChat(c.Request().Context(), req.Message)
	if err != nil {
		h.logger.Error("lending chat failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "completion engine unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"reply": content})
}

// DirectCreateToken creates a fungible token without model involvement.
// POST /api/direct/token
func (h *Handler) DirectCreateToken(c echo.Context) error {
	var req domain.TokenCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	return h.operationResponse(c, h.gateway.CreateToken(req))
}

// DirectTransfer transfers tokens from the operator account.
// POST /api/direct/transfer
func (h *Handler) DirectTransfer(c echo.Context) error {
	var req domain.TransferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	return h.operationResponse(c, h.gateway.TransferTokens(req))
}

// DirectBalance queries the HBAR balance of an account.
// GET /api/direct/balance/:accountId
func (h *Handler) DirectBalance(c echo.Context) error {
	query := domain.BalanceQuery{AccountID: c.Param("accountId")}
	return h.operationResponse(c, h.gateway.GetAccountBalance(query))
}

// DirectCreateAccount creates a new ledger account. The response is the
// only place the generated private key appears.
// POST /api/direct/account
func (h *Handler) DirectCreateAccount(c echo.Context) error {
	return h.operationResponse(c, h.gateway.CreateAccount())
}

// TopicCreateRequest carries the memo for a new consensus topic.
type TopicCreateRequest struct {
	Memo string `json:"memo"`
}

// DirectCreateTopic creates a consensus topic.
// POST /api/direct/topic
func (h *Handler) DirectCreateTopic(c echo.Context) error {
	var req TopicCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	return h.operationResponse(c, h.gateway.CreateTopic(req.Memo))
}

// DirectPortfolio returns the aggregated portfolio view for an account.
// GET /api/direct/portfolio/:accountId
func (h *Handler) DirectPortfolio(c echo.Context) error {
	accountID := c.Param("accountId")
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "accountId is required"})
	}
	return c.JSON(http.StatusOK, h.portfolio.GetUserPortfolio(c.Request().Context(), accountID))
}

// DirectTopicExists reports whether the account already has a
// consensus topic registered with the lending backend.
// GET /api/direct/topics/:accountId/exists
func (h *Handler) DirectTopicExists(c echo.Context) error {
	accountID := c.Param("accountId")
	exists := h.portfolio.TopicExists(c.Request().Context(), accountID)
	return c.JSON(http.StatusOK, map[string]any{"accountId": accountID, "exists": exists})
}

// ListToolCalls returns the most recent audited tool invocations.
// GET /api/tools/calls?limit=50
func (h *Handler) ListToolCalls(c echo.Context) error {
	if h.audit == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "audit store not configured"})
	}

	limit := 0
	echo.QueryParamsBinder(c).Int("limit", &limit)

	calls, err := h.audit.ListToolCalls(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("failed to list tool calls", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list tool calls"})
	}
	if calls == nil {
		calls = []domain.ToolCallRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"tool_calls": calls})
}

func (h *Handler) operationResponse(c echo.Context, result domain.OperationResult) error {
	status := http.StatusOK
	if !result.Success {
		switch result.Kind {
		case domain.ErrorKindValidation:
			status = http.StatusBadRequest
		case domain.ErrorKindPolicyRefusal:
			status = http.StatusForbidden
		default:
			status = http.StatusBadGateway
		}
	}
	return c.JSON(status, result)
}
