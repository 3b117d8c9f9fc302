package usecase

import (
	"context"
	"fmt"
	"strings"

	"sql-agent/internal/application/port/output"
	"sql-agent/internal/domain/entity"
)

const (
	defaultMaxIterations = 50
	maxObservationLen    = 20000
)

var _ output.SQLGenerator = (*GenerateSQLUseCase)(nil)

// GenerateSQLUseCase runs the model/tool loop: invoke the model with the
// full conversation, execute any requested tool calls, feed the results
// back, and stop once the model answers without tool calls.
type GenerateSQLUseCase struct {
	llm           output.LLMPort
	tools         output.ToolRegistry
	logger        output.LoggerPort
	systemPrompt  string
	maxIterations int
}

type Config struct {
	SystemPrompt  string
	MaxIterations int
}

func NewGenerateSQLUseCase(
	llm output.LLMPort,
	tools output.ToolRegistry,
	logger output.LoggerPort,
	cfg Config,
) *GenerateSQLUseCase {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &GenerateSQLUseCase{
		llm:           llm,
		tools:         tools,
		logger:        logger,
		systemPrompt:  cfg.SystemPrompt,
		maxIterations: maxIterations,
	}
}

// Run executes the loop starting from the given conversation and returns
// the full conversation including every assistant and tool message.
// The system prompt is prepended to each outgoing batch but never stored
// in the conversation itself.
func (uc *GenerateSQLUseCase) Run(ctx context.Context, initial []entity.Message) ([]entity.Message, error) {
	messages := make([]entity.Message, len(initial))
	copy(messages, initial)

	toolDefs := uc.tools.Definitions()

	for iteration := 1; iteration <= uc.maxIterations; iteration++ {
		uc.logger.Debug("Starting iteration", "iteration", iteration)

		batch := messages
		if uc.systemPrompt != "" {
			batch = append([]entity.Message{{Role: entity.RoleSystem, Content: uc.systemPrompt}}, messages...)
		}

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    batch,
			Tools:       toolDefs,
			Temperature: 0.0,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			return messages, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			observation := uc.executeTool(ctx, tc)

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}
	}

	return nil, fmt.Errorf("max iterations (%d) exceeded", uc.maxIterations)
}

// GetSQL implements output.SQLGenerator: the generated SQL comes first,
// followed by the agent's raw final answer.
func (uc *GenerateSQLUseCase) GetSQL(ctx context.Context, question string) ([]string, error) {
	messages, err := uc.Run(ctx, []entity.Message{
		{Role: entity.RoleUser, Content: question},
	})
	if err != nil {
		return nil, err
	}

	final := messages[len(messages)-1]
	return []string{extractSQL(final.Content), final.Content}, nil
}

// Unknown tools and tool failures are fed back to the model as an
// "Error: ..." observation; they never abort the run.
func (uc *GenerateSQLUseCase) executeTool(ctx context.Context, tc entity.ToolCall) string {
	tool, ok := uc.tools.Get(entity.ToolName(tc.Name))
	if !ok {
		uc.logger.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}

	uc.logger.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		uc.logger.Error("Tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error()
	}

	if len(result) > maxObservationLen {
		result = result[:maxObservationLen] + "\n... (truncated)"
	}

	uc.logger.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result
}

// extractSQL strips a surrounding markdown code fence from the model's
// final answer. Answers without a fence are returned trimmed.
func extractSQL(answer string) string {
	s := strings.TrimSpace(answer)

	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}

	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		lang := strings.TrimSpace(rest[:nl])
		if lang == "" || strings.EqualFold(lang, "sql") || strings.EqualFold(lang, "sqlite") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
