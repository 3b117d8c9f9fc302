package evaluator

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"sql-agent/internal/application/port/output"
	"sql-agent/internal/domain/entity"
)

const judgeTemplate = `You are a SQL expert. A user asked a question, and two SQL queries were generated in response. Judge if both queries are equivalent in meaning and would produce the similar result. If there are extra columns like ID column etc. that is fine. When executed, they should produce a similar result. For instance, if the question is to fetch all doctor names, then getting doctor names with Doctor ID is fine but getting the appointments of doctors is not correct.

Respond ONLY with one of the following:
- "Equivalent"
- "Not Equivalent"

User Question: {{.question}}

Query 1:
{{.expected}}

Query 2:
{{.generated}}

Are the queries equivalent?`

var judgePrompt = prompts.PromptTemplate{
	Template:       judgeTemplate,
	InputVariables: []string{"question", "expected", "generated"},
	TemplateFormat: prompts.TemplateFormatGoTemplate,
}

// Judge asks the model whether two SQL queries answer the same question.
// It shares one long-lived LLM client across calls and never returns an
// error: every failure is captured and reported as VerdictError.
type Judge struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func NewJudge(llm output.LLMPort, logger output.LoggerPort) *Judge {
	return &Judge{
		llm:    llm,
		logger: logger,
	}
}

func (j *Judge) Judge(ctx context.Context, question, expected, generated string) entity.Verdict {
	prompt, err := judgePrompt.Format(map[string]any{
		"question":  question,
		"expected":  expected,
		"generated": generated,
	})
	if err != nil {
		j.logger.Error("Judge prompt render failed", "error", err)
		return entity.VerdictError
	}

	resp, err := j.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: 0.0,
	})
	if err != nil {
		j.logger.Error("LLM judge failed", "error", err)
		return entity.VerdictError
	}

	return entity.Verdict(strings.TrimSpace(resp.Message.Content))
}
