package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-agent/internal/application/port/output"
	"sql-agent/internal/application/service"
	"sql-agent/internal/domain/entity"
	"sql-agent/internal/infrastructure/logger"
)

type fakeLLM struct {
	responses []*output.ChatResponse
	errs      []error
	requests  []output.ChatRequest
}

func (f *fakeLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return f.responses[len(f.responses)-1], nil
	}
	return f.responses[i], nil
}

type fakeTool struct {
	name   entity.ToolName
	result string
	err    error
	calls  []string
}

func (t *fakeTool) Name() entity.ToolName { return t.name }
func (t *fakeTool) Description() string   { return "fake" }
func (t *fakeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (t *fakeTool) Execute(ctx context.Context, args string) (string, error) {
	t.calls = append(t.calls, args)
	return t.result, t.err
}

func assistantResponse(content string, toolCalls ...entity.ToolCall) *output.ChatResponse {
	return &output.ChatResponse{
		Message: entity.Message{
			Role:      entity.RoleAssistant,
			Content:   content,
			ToolCalls: toolCalls,
		},
	}
}

func newUseCase(t *testing.T, llm output.LLMPort, cfg Config, tools ...output.ToolPort) *GenerateSQLUseCase {
	t.Helper()
	registry := service.NewToolRegistry()
	for _, tool := range tools {
		require.NoError(t, registry.Register(tool))
	}
	return NewGenerateSQLUseCase(llm, registry, logger.NewNop(), cfg)
}

func TestRun_NoToolCalls_ReturnsConversation(t *testing.T) {
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("SELECT name FROM doctors"),
	}}
	uc := newUseCase(t, llm, Config{SystemPrompt: "be helpful"})

	messages, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "list doctors"},
	})
	require.NoError(t, err)

	// The system prompt goes out with the request but is never persisted.
	require.Len(t, llm.requests, 1)
	require.NotEmpty(t, llm.requests[0].Messages)
	assert.Equal(t, entity.RoleSystem, llm.requests[0].Messages[0].Role)
	assert.Equal(t, "be helpful", llm.requests[0].Messages[0].Content)

	require.Len(t, messages, 2)
	assert.Equal(t, entity.RoleUser, messages[0].Role)
	assert.Equal(t, entity.RoleAssistant, messages[1].Role)
	assert.Equal(t, "SELECT name FROM doctors", messages[1].Content)
}

func TestRun_ToolCallFanOut(t *testing.T) {
	tool := &fakeTool{name: "sql_query", result: "name\nAlice\n(1 rows)"}
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("",
			entity.ToolCall{ID: "call_1", Name: "sql_query", Arguments: `{"query":"SELECT 1"}`},
			entity.ToolCall{ID: "call_2", Name: "sql_query", Arguments: `{"query":"SELECT 2"}`},
		),
		assistantResponse("SELECT name FROM doctors"),
	}}
	uc := newUseCase(t, llm, Config{}, tool)

	messages, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "list doctors"},
	})
	require.NoError(t, err)

	// user, assistant(2 calls), tool result x2, assistant
	require.Len(t, messages, 5)
	assert.Equal(t, entity.RoleTool, messages[2].Role)
	assert.Equal(t, "call_1", messages[2].ToolCallID)
	assert.Equal(t, "sql_query", messages[2].Name)
	assert.Equal(t, entity.RoleTool, messages[3].Role)
	assert.Equal(t, "call_2", messages[3].ToolCallID)
	assert.Equal(t, entity.RoleAssistant, messages[4].Role)

	require.Len(t, tool.calls, 2)
	assert.Equal(t, `{"query":"SELECT 1"}`, tool.calls[0])
	assert.Equal(t, `{"query":"SELECT 2"}`, tool.calls[1])
}

func TestRun_UnknownTool_SynthesizesErrorObservation(t *testing.T) {
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("", entity.ToolCall{ID: "call_1", Name: "nope", Arguments: "{}"}),
		assistantResponse("done"),
	}}
	uc := newUseCase(t, llm, Config{})

	messages, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	require.Len(t, messages, 4)
	assert.Equal(t, entity.RoleTool, messages[2].Role)
	assert.Equal(t, "Error: unknown tool 'nope'", messages[2].Content)
}

func TestRun_ToolError_FedBackAsObservation(t *testing.T) {
	tool := &fakeTool{name: "sql_query", err: errors.New("no such table: ducks")}
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("", entity.ToolCall{ID: "call_1", Name: "sql_query", Arguments: `{"query":"SELECT * FROM ducks"}`}),
		assistantResponse("done"),
	}}
	uc := newUseCase(t, llm, Config{}, tool)

	messages, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Error: no such table: ducks", messages[2].Content)
}

func TestRun_LongObservationTruncated(t *testing.T) {
	tool := &fakeTool{name: "sql_query", result: strings.Repeat("x", maxObservationLen+100)}
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("", entity.ToolCall{ID: "call_1", Name: "sql_query", Arguments: `{"query":"SELECT 1"}`}),
		assistantResponse("done"),
	}}
	uc := newUseCase(t, llm, Config{}, tool)

	messages, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Len(t, messages[2].Content, maxObservationLen+len("\n... (truncated)"))
	assert.True(t, strings.HasSuffix(messages[2].Content, "... (truncated)"))
}

func TestRun_MaxIterationsExceeded(t *testing.T) {
	tool := &fakeTool{name: "sql_query", result: "ok"}
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("", entity.ToolCall{ID: "call_1", Name: "sql_query", Arguments: `{"query":"SELECT 1"}`}),
	}}
	uc := newUseCase(t, llm, Config{MaxIterations: 3}, tool)

	_, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max iterations (3) exceeded")
	assert.Len(t, llm.requests, 3)
}

func TestRun_TerminalConversationAppendsExactlyOneMessage(t *testing.T) {
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse("still done"),
	}}
	uc := newUseCase(t, llm, Config{})

	terminal := []entity.Message{
		{Role: entity.RoleUser, Content: "list doctors"},
		{Role: entity.RoleAssistant, Content: "SELECT name FROM doctors"},
	}

	messages, err := uc.Run(context.Background(), terminal)
	require.NoError(t, err)
	assert.Len(t, llm.requests, 1)
	assert.Len(t, messages, len(terminal)+1)
	assert.Equal(t, terminal, messages[:len(terminal)])
}

func TestRun_LLMError_Propagates(t *testing.T) {
	llm := &fakeLLM{errs: []error{errors.New("rate limited")}}
	uc := newUseCase(t, llm, Config{})

	_, err := uc.Run(context.Background(), []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGetSQL_StripsCodeFence(t *testing.T) {
	raw := "```sql\nSELECT name FROM doctors;\n```"
	llm := &fakeLLM{responses: []*output.ChatResponse{
		assistantResponse(raw),
	}}
	uc := newUseCase(t, llm, Config{})

	result, err := uc.GetSQL(context.Background(), "list doctors")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "SELECT name FROM doctors;", result[0])
	assert.Equal(t, raw, result[1])
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"plain", "  SELECT 1  ", "SELECT 1"},
		{"sql fence", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"fence with prose", "Here you go:\n```sql\nSELECT 1\n```\nEnjoy.", "SELECT 1"},
		{"unclosed fence", "```sql\nSELECT 1", "SELECT 1"},
		{"no content", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSQL(tt.answer))
		})
	}
}
