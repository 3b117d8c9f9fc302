package entity

// Verdict is the equivalence judge's answer. The judge returns the model's
// trimmed response as-is, so values outside the known constants are possible.
type Verdict string

const (
	VerdictEquivalent    Verdict = "Equivalent"
	VerdictNotEquivalent Verdict = "Not Equivalent"
	VerdictError         Verdict = "Error"
)

type TestCase struct {
	Question    string `json:"question"`
	ExpectedSQL string `json:"actual_query"`
}

// EvaluationResult is one record per test case. GeneratedSQL is nil when
// generation failed; LLMJudgedEquivalent is empty when the exact match
// short-circuited the judge.
type EvaluationResult struct {
	Question            string  `json:"question"`
	ExpectedSQL         string  `json:"expected_sql"`
	GeneratedSQL        *string `json:"generated_sql"`
	ExactMatch          bool    `json:"exact_match"`
	LLMJudgedEquivalent Verdict `json:"llm_judged_equivalent,omitempty"`
	Error               string  `json:"error,omitempty"`
}
