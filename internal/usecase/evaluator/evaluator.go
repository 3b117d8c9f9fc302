package evaluator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"sql-agent/internal/application/port/output"
	"sql-agent/internal/domain/entity"
)

// Evaluator scores a SQL generator against a reference test suite. One
// result per test case; a failing case is recorded and never aborts the
// batch.
type Evaluator struct {
	judge      *Judge
	logger     output.LoggerPort
	caseDelay  time.Duration
	retryDelay time.Duration
}

type Config struct {
	// CaseDelay is the pause before each generation request, RetryDelay
	// the pause before the single retry of a failed external call.
	CaseDelay  time.Duration
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		CaseDelay:  2 * time.Second,
		RetryDelay: 4 * time.Second,
	}
}

func New(judge *Judge, logger output.LoggerPort, cfg Config) *Evaluator {
	return &Evaluator{
		judge:      judge,
		logger:     logger,
		caseDelay:  cfg.CaseDelay,
		retryDelay: cfg.RetryDelay,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, gen output.SQLGenerator, cases []entity.TestCase) []entity.EvaluationResult {
	log := e.logger.WithField("run_id", uuid.NewString())

	results := make([]entity.EvaluationResult, 0, len(cases))
	for _, tc := range cases {
		e.wait(ctx, e.caseDelay)
		log.Info("Evaluating case", "question", tc.Question)
		results = append(results, e.evaluateCase(ctx, log, gen, tc))
	}
	return results
}

func (e *Evaluator) evaluateCase(ctx context.Context, log output.LoggerPort, gen output.SQLGenerator, tc entity.TestCase) entity.EvaluationResult {
	generated, err := e.generateWithRetry(ctx, log, gen, tc.Question)
	if err != nil {
		log.Warn("Case skipped after retry", "question", tc.Question, "error", err)
		return entity.EvaluationResult{
			Question:    tc.Question,
			ExpectedSQL: tc.ExpectedSQL,
			Error:       err.Error(),
		}
	}

	sql := generated[0]
	exactMatch := strings.EqualFold(strings.TrimSpace(sql), strings.TrimSpace(tc.ExpectedSQL))

	result := entity.EvaluationResult{
		Question:     tc.Question,
		ExpectedSQL:  tc.ExpectedSQL,
		GeneratedSQL: &sql,
		ExactMatch:   exactMatch,
	}

	if !exactMatch {
		verdict := e.judge.Judge(ctx, tc.Question, tc.ExpectedSQL, sql)
		if verdict == entity.VerdictError {
			log.Warn("Judge failed, retrying once", "question", tc.Question)
			e.wait(ctx, e.retryDelay)
			verdict = e.judge.Judge(ctx, tc.Question, tc.ExpectedSQL, sql)
		}
		result.LLMJudgedEquivalent = verdict
	}

	return result
}

func (e *Evaluator) generateWithRetry(ctx context.Context, log output.LoggerPort, gen output.SQLGenerator, question string) ([]string, error) {
	generated, err := gen.GetSQL(ctx, question)
	if err != nil {
		log.Warn("Generation failed, retrying once", "question", question, "error", err)
		e.wait(ctx, e.retryDelay)

		generated, err = gen.GetSQL(ctx, question)
		if err != nil {
			return nil, err
		}
	}

	if len(generated) == 0 || strings.TrimSpace(generated[0]) == "" {
		return nil, errors.New("Agent returned no SQL.")
	}
	return generated, nil
}

func (e *Evaluator) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
