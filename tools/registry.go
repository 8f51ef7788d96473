// Package tools exposes the fixed catalog of named, typed operations
// the completion engine can invoke instead of answering directly. Each
// tool wraps a gateway or aggregator call and renders a human-readable
// status string; no exception or panic ever escapes the tool boundary.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
	"github.com/divin3circle/hashrexa/llm"
	"github.com/divin3circle/hashrexa/policy"
)

// Handler executes a tool against raw JSON arguments and returns the
// rendered status string.
type Handler func(ctx context.Context, args json.RawMessage) string

// Tool is one catalog entry: a descriptor the model sees plus the
// typed handler behind it.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// AuditLog records dispatched tool invocations.
type AuditLog interface {
	RecordToolCall(ctx context.Context, rec domain.ToolCallRecord) error
}

// Registry is the static tool registry. Dispatch looks tools up by
// name; no reflection is involved.
type Registry struct {
	tools  map[string]Tool
	order  []string
	policy *policy.Engine
	audit  AuditLog
	logger *zap.Logger
}

// NewRegistry creates an empty registry. policyEngine and audit may be
// nil, in which case those steps are skipped.
func NewRegistry(policyEngine *policy.Engine, audit AuditLog, logger *zap.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		policy: policyEngine,
		audit:  audit,
		logger: logger,
	}
}

// Register adds tools to the catalog. Re-registering a name replaces it.
func (r *Registry) Register(ts ...Tool) {
	for _, t := range ts {
		if _, exists := r.tools[t.Name]; !exists {
			r.order = append(r.order, t.Name)
		}
		r.tools[t.Name] = t
	}
}

// Dispatch runs the named tool. Unknown tools, policy blocks, handler
// panics and handler failures all come back as ❌ strings.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", zap.String("tool", name), zap.Any("panic", rec))
			result = fmt.Sprintf("❌ Error running %s: %v", name, rec)
		}
		r.record(ctx, name, args, result)
	}()

	tool, ok := r.tools[name]
	if !ok {
		return "❌ Unknown tool: " + name
	}

	if r.policy != nil {
		decision, err := r.policy.Evaluate(ctx, policyInput(name, args))
		if err != nil {
			r.logger.Error("policy evaluation failed", zap.String("tool", name), zap.Error(err))
		} else if decision == "block" {
			r.logger.Warn("tool blocked by policy", zap.String("tool", name))
			return fmt.Sprintf("❌ Operation %s was blocked by policy", name)
		}
	}

	return tool.Handler(ctx, args)
}

// Catalog renders the named subset of tools (all of them when no names
// are given) as completion-engine tool specs.
func (r *Registry) Catalog(names ...string) []llm.Tool {
	if len(names) == 0 {
		names = r.order
	}
	out := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		tool, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}

func (r *Registry) record(ctx context.Context, name string, args json.RawMessage, result string) {
	if r.audit == nil {
		return
	}
	status := "succeeded"
	if strings.HasPrefix(result, "❌") {
		status = "failed"
	}
	rec := domain.ToolCallRecord{
		ID:            "tc_" + uuid.New().String(),
		Tool:          name,
		Args:          string(args),
		Status:        status,
		TransactionID: extractTransactionID(result),
	}
	if err := r.audit.RecordToolCall(ctx, rec); err != nil {
		r.logger.Warn("failed to audit tool call", zap.String("tool", name), zap.Error(err))
	}
}

func policyInput(name string, args json.RawMessage) map[string]any {
	input := map[string]any{"tool_name": name, "args": map[string]any{}}
	var parsed map[string]any
	if len(args) > 0 && json.Unmarshal(args, &parsed) == nil {
		input["args"] = parsed
	}
	return input
}

// extractTransactionID pulls the transaction reference out of a rendered
// status string, if present.
func extractTransactionID(result string) string {
	for _, line := range strings.Split(result, "\n") {
		if rest, ok := strings.CutPrefix(line, "Transaction ID: "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integerParam(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}
