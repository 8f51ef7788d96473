package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
	"github.com/divin3circle/hashrexa/llm"
	"github.com/divin3circle/hashrexa/tools"
)

const blockchainSystemPrompt = `You are a Hedera blockchain assistant. You MUST use the available functions for ALL blockchain operations.

IMPORTANT: When users ask about blockchain operations, you MUST call the appropriate function:

1. For balance checking: ALWAYS call checkBalance function with the account ID
2. For token creation: ALWAYS call createToken function
3. For token transfers: ALWAYS call transferTokens function
4. For account creation: ALWAYS call createAccount function

DO NOT provide generic responses. ALWAYS use the functions to get real data.
If a function returns an error, please show the user the exact error message.`

const lendingSystemPrompt = `You are HashRexa AI. Always use functions to fetch real data:
- getUserPortfolio
- calculateBorrowingPower
- registerUser
- tokenizePortfolio`

// maxToolRounds bounds the completion/tool round trips per request.
const maxToolRounds = 4

// Orchestrator composes system prompt, tool catalog and conversation
// state into completion requests, executes any tool calls the model
// emits, and renders all failures as user-facing strings.
type Orchestrator struct {
	engine    llm.Engine
	registry  *tools.Registry
	assistant *LoanAssistant
	model     string
	logger    *zap.Logger
}

// NewOrchestrator creates the orchestrator.
func NewOrchestrator(engine llm.Engine, registry *tools.Registry, assistant *LoanAssistant, model string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		engine:    engine,
		registry:  registry,
		assistant: assistant,
		model:     model,
		logger:    logger,
	}
}

// BlockchainChat answers a blockchain request with the ledger tool
// catalog attached.
func (o *Orchestrator) BlockchainChat(ctx context.Context, message string) (string, error) {
	return o.runToolLoop(ctx, blockchainSystemPrompt, message, o.registry.Catalog(tools.BlockchainToolNames...))
}

// LendingChat answers a lending request with the backend tool catalog
// attached.
func (o *Orchestrator) LendingChat(ctx context.Context, message string) (string, error) {
	return o.runToolLoop(ctx, lendingSystemPrompt, message, o.registry.Catalog(tools.LoanToolNames...))
}

// Send routes a chat message by mode. Loan mode applies a tool-first
// shortcut for the common portfolio and loan-status questions so those
// answers are deterministic and tool-grounded regardless of model
// tool-selection reliability.
func (o *Orchestrator) Send(ctx context.Context, mode, userID, message string) domain.ChatReply {
	switch strings.ToLower(mode) {
	case "blockchain":
		content, err := o.BlockchainChat(ctx, message)
		if err != nil {
			return o.renderError(mode, err)
		}
		if strings.TrimSpace(content) == "" {
			content = "(no content returned by model)"
		}
		return domain.ChatReply{Reply: content, OK: true, Mode: "blockchain"}

	case "loan":
		uid := userID
		if strings.TrimSpace(uid) == "" {
			uid = "guest"
		}

		if reply, ok := o.loanShortcut(ctx, uid, message); ok {
			return domain.ChatReply{Reply: reply, OK: true, Mode: "loan"}
		}

		resp, err := o.assistant.HandleQuery(ctx, uid, message)
		if err != nil {
			return o.renderError(mode, err)
		}
		reply := resp.Message
		if strings.TrimSpace(reply) == "" {
			reply = "(no content returned by model)"
		}
		return domain.ChatReply{Reply: reply, Intent: resp.Intent, OK: true, Mode: "loan"}
	}

	return domain.ChatReply{Reply: "Unsupported mode: " + mode, OK: false, Mode: mode}
}

// loanShortcut bypasses the model for queries the tools answer directly.
func (o *Orchestrator) loanShortcut(ctx context.Context, userID, message string) (string, bool) {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "portfolio") || strings.Contains(lower, "collateral") || strings.Contains(lower, "borrowing") {
		name := tools.ToolGetUserPortfolio
		if strings.Contains(lower, "borrowing") {
			name = tools.ToolCalculateBorrowingPower
		}
		return o.registry.Dispatch(ctx, name, accountArgs(userID)), true
	}

	if strings.Contains(lower, "loan") && (strings.Contains(lower, "status") || strings.Contains(lower, "any")) {
		return o.registry.Dispatch(ctx, tools.ToolGetUserLoans, accountArgs(userID)), true
	}

	return "", false
}

// runToolLoop drives the completion/tool cycle: the model either
// answers in text or emits tool calls, whose rendered results are fed
// back until it produces a final answer.
func (o *Orchestrator) runToolLoop(ctx context.Context, systemPrompt, message string, catalog []llm.Tool) (string, error) {
	messages := []llm.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: message},
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := o.engine.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
			Model:    o.model,
			Messages: messages,
			Tools:    catalog,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			return "", errors.New("no completion choices returned")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			o.logger.Info("executing tool call",
				zap.String("tool", call.Function.Name),
				zap.String("tool_call_id", call.ID))
			result := o.registry.Dispatch(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
			messages = append(messages, llm.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("model did not produce a final answer within %d tool rounds", maxToolRounds)
}

func (o *Orchestrator) renderError(mode string, err error) domain.ChatReply {
	o.logger.Error("chat request failed", zap.String("mode", mode), zap.Error(err))
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "The model blocked this request. Please rephrase."
	}
	return domain.ChatReply{Reply: "Error: " + msg, OK: false, Mode: mode}
}

func accountArgs(accountID string) json.RawMessage {
	args, _ := json.Marshal(map[string]string{"accountId": accountID})
	return args
}
