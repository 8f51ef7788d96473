package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
	"github.com/divin3circle/hashrexa/llm"
)

const loanSystemPrompt = `You are a Hedera DeFi loan assistant. Only assist with:
- Explaining loan terms, collateral requirements, APY calculations, repayment schedules, risk management
- Summarizing user loan context when provided
If a request is outside these tasks, reply: I cannot perform that.
Avoid unsafe or policy-violating content.
Be clear, concise, and professional.`

// LoanAssistant answers lending questions with the user's loan context
// and recent conversation folded into the prompt. This path is advisory
// only: no tool catalog is attached.
type LoanAssistant struct {
	engine llm.Engine
	store  HistoryStore
	model  string
	logger *zap.Logger
}

// NewLoanAssistant creates the assistant.
func NewLoanAssistant(engine llm.Engine, store HistoryStore, model string, logger *zap.Logger) *LoanAssistant {
	return &LoanAssistant{engine: engine, store: store, model: model, logger: logger}
}

// HandleQuery answers one loan query. On success the user and assistant
// turns are appended to the bounded history and the loan snapshot is
// re-stored; the returned intent comes from the deterministic classifier,
// not the model.
func (a *LoanAssistant) HandleQuery(ctx context.Context, userID, query string) (domain.ChatResponse, error) {
	a.logger.Info("processing loan query", zap.String("user_id", userID))

	prompt := a.buildPrompt(userID, query, "Provide a helpful, personalized response. If discussing specific loans, reference the user's loan data if available.\nBe conversational but professional.")

	resp, err := a.engine.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: a.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: loanSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return domain.ChatResponse{}, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return domain.ChatResponse{}, errors.New("no completion choices returned")
	}
	reply := resp.Choices[0].Message.Content

	a.store.Append(userID,
		domain.ChatMessage{Role: "user", Content: query},
		domain.ChatMessage{Role: "assistant", Content: reply},
	)
	if loanData, ok := a.store.LoanData(userID); ok {
		a.store.PutLoanData(userID, loanData)
	}

	return domain.ChatResponse{Message: reply, Intent: ClassifyIntent(query)}, nil
}

// StreamQuery streams the reply as text fragments through emit. Only
// the user turn is appended on completion: fragments are accumulated by
// the consumer, not here, so the assistant turn is absent from history
// on this path. The append fires exactly once even when the consumer
// stops early or the stream fails.
func (a *LoanAssistant) StreamQuery(ctx context.Context, userID, query string, emit func(fragment string) error) error {
	prompt := a.buildPrompt(userID, query, `Provide a helpful, personalized response. If a request is outside the allowed tasks, reply exactly: "I cannot perform that."`)

	defer a.store.Append(userID, domain.ChatMessage{Role: "user", Content: query})

	return a.engine.CreateChatCompletionStream(ctx, &llm.ChatCompletionRequest{
		Model: a.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: loanSystemPrompt},
			{Role: "user", Content: prompt},
		},
	}, func(chunk *llm.StreamChunk) error {
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
			return nil
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return emit(content)
		}
		return nil
	})
}

// UpdateLoanData replaces the user's loan snapshot.
func (a *LoanAssistant) UpdateLoanData(userID string, data domain.UserLoanData) {
	a.store.PutLoanData(userID, data)
}

func (a *LoanAssistant) buildPrompt(userID, query, instructions string) string {
	var context strings.Builder
	if loanData, ok := a.store.LoanData(userID); ok {
		context.WriteString("User's current loans:\n")
		for _, loan := range loanData.ActiveLoans {
			fmt.Fprintf(&context, "- Loan ID: %s\n  Amount: $%.2f\n  Collateral: %.2f %s\n  APY: %.2f%%\n  Due: %s\n  Status: %s\n",
				loan.LoanID, loan.Amount, loan.CollateralAmount, loan.CollateralToken, loan.APY, loan.DueDate, loan.Status)
		}
	}

	var conversation strings.Builder
	for _, msg := range a.store.Recent(userID, promptWindow) {
		conversation.WriteString(msg.Role)
		conversation.WriteString(": ")
		conversation.WriteString(msg.Content)
		conversation.WriteString("\n")
	}

	return fmt.Sprintf("User context:\n%s\n\nRecent conversation:\n%s\n\nCurrent query: %s\n\n%s\n",
		context.String(), conversation.String(), query, instructions)
}
