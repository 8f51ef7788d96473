package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/llm"
	"github.com/divin3circle/hashrexa/tools"
)

func echoTool(name, reply string) tools.Tool {
	return tools.Tool{
		Name:        name,
		Description: name,
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) string {
			return reply
		},
	}
}

func argTool(name string, captured *string) tools.Tool {
	return tools.Tool{
		Name:        name,
		Description: name,
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) string {
			*captured = string(args)
			return "result from " + name
		},
	}
}

func newTestOrchestrator(engine llm.Engine, registry *tools.Registry) *Orchestrator {
	store := NewMemoryStore()
	assistant := NewLoanAssistant(engine, store, "test-model", zap.NewNop())
	return NewOrchestrator(engine, registry, assistant, "test-model", zap.NewNop())
}

func TestBlockchainChatRunsToolLoop(t *testing.T) {
	engine := &mockEngine{responses: []*llm.ChatCompletionResponse{
		toolCallResponse("call_1", "checkBalance", `{"accountId":"0.0.1234"}`),
		textResponse("The balance is 10 HBAR."),
	}}
	registry := tools.NewRegistry(nil, nil, zap.NewNop())
	registry.Register(echoTool("checkBalance", "✅ Balance retrieved"))

	o := newTestOrchestrator(engine, registry)
	content, err := o.BlockchainChat(context.Background(), "check balance of 0.0.1234")
	assert.NoError(t, err)
	assert.Equal(t, "The balance is 10 HBAR.", content)

	// Second request must carry the assistant tool-call turn and the
	// tool result turn.
	second := engine.requests[1]
	assert.Len(t, second.Messages, 4)
	assert.Equal(t, "tool", second.Messages[3].Role)
	assert.Equal(t, "call_1", second.Messages[3].ToolCallID)
	assert.Equal(t, "✅ Balance retrieved", second.Messages[3].Content)
}

func TestRunToolLoopGivesUpAfterMaxRounds(t *testing.T) {
	responses := make([]*llm.ChatCompletionResponse, maxToolRounds)
	for i := range responses {
		responses[i] = toolCallResponse("call", "loop", `{}`)
	}
	engine := &mockEngine{responses: responses}
	registry := tools.NewRegistry(nil, nil, zap.NewNop())
	registry.Register(echoTool("loop", "again"))

	o := newTestOrchestrator(engine, registry)
	_, err := o.BlockchainChat(context.Background(), "loop forever")
	assert.Error(t, err)
	assert.Equal(t, maxToolRounds, engine.calls)
}

func TestSendUnsupportedMode(t *testing.T) {
	o := newTestOrchestrator(&mockEngine{}, tools.NewRegistry(nil, nil, zap.NewNop()))

	reply := o.Send(context.Background(), "poetry", "alice", "write me a poem")
	assert.False(t, reply.OK)
	assert.Equal(t, "Unsupported mode: poetry", reply.Reply)
}

func TestSendBlockchainRendersEngineError(t *testing.T) {
	engine := &mockEngine{err: errors.New("engine down")}
	o := newTestOrchestrator(engine, tools.NewRegistry(nil, nil, zap.NewNop()))

	reply := o.Send(context.Background(), "blockchain", "", "create a token")
	assert.False(t, reply.OK)
	assert.Equal(t, "Error: engine down", reply.Reply)
}

func TestLoanShortcutSkipsModelForPortfolioQueries(t *testing.T) {
	engine := &mockEngine{} // any completion call would panic on empty responses
	registry := tools.NewRegistry(nil, nil, zap.NewNop())

	var gotArgs string
	registry.Register(argTool(tools.ToolGetUserPortfolio, &gotArgs))

	o := newTestOrchestrator(engine, registry)
	reply := o.Send(context.Background(), "loan", "0.0.1234", "show my portfolio")
	assert.True(t, reply.OK)
	assert.Equal(t, "result from getUserPortfolio", reply.Reply)
	assert.JSONEq(t, `{"accountId":"0.0.1234"}`, gotArgs)
	assert.Zero(t, engine.calls)
}

func TestLoanShortcutPrefersBorrowingPower(t *testing.T) {
	registry := tools.NewRegistry(nil, nil, zap.NewNop())
	var gotArgs string
	registry.Register(argTool(tools.ToolCalculateBorrowingPower, &gotArgs))

	o := newTestOrchestrator(&mockEngine{}, registry)
	reply := o.Send(context.Background(), "loan", "0.0.1234", "what is my borrowing power?")
	assert.True(t, reply.OK)
	assert.Equal(t, "result from calculateBorrowingPower", reply.Reply)
}

func TestLoanShortcutLoanStatus(t *testing.T) {
	registry := tools.NewRegistry(nil, nil, zap.NewNop())
	var gotArgs string
	registry.Register(argTool(tools.ToolGetUserLoans, &gotArgs))

	o := newTestOrchestrator(&mockEngine{}, registry)
	reply := o.Send(context.Background(), "loan", "", "do I have any loans?")
	assert.True(t, reply.OK)
	assert.Equal(t, "result from getUserLoans", reply.Reply)
	// Missing user falls back to guest.
	assert.JSONEq(t, `{"accountId":"guest"}`, gotArgs)
}

func TestSendLoanFallsBackToAssistant(t *testing.T) {
	engine := &mockEngine{responses: []*llm.ChatCompletionResponse{textResponse("Loans let you borrow against assets.")}}
	o := newTestOrchestrator(engine, tools.NewRegistry(nil, nil, zap.NewNop()))

	reply := o.Send(context.Background(), "loan", "alice", "how does lending work?")
	assert.True(t, reply.OK)
	assert.Equal(t, "Loans let you borrow against assets.", reply.Reply)
	assert.NotEmpty(t, reply.Intent)
}

func TestSendBlockchainEmptyContentPlaceholder(t *testing.T) {
	engine := &mockEngine{responses: []*llm.ChatCompletionResponse{textResponse("")}}
	o := newTestOrchestrator(engine, tools.NewRegistry(nil, nil, zap.NewNop()))

	reply := o.Send(context.Background(), "blockchain", "", "hello")
	assert.True(t, reply.OK)
	assert.Equal(t, "(no content returned by model)", reply.Reply)
}
