package testcases

import (
	"encoding/json"
	"fmt"
	"os"

	"sql-agent/internal/domain/entity"
)

// Load reads a JSON array of {"question", "actual_query"} records.
func Load(path string) ([]entity.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test cases: %w", err)
	}

	var cases []entity.TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse test cases: %w", err)
	}
	return cases, nil
}
