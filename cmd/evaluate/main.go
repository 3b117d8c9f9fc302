package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"sql-agent/internal/di"
	"sql-agent/internal/domain/entity"
	"sql-agent/internal/infrastructure/env"
	"sql-agent/internal/infrastructure/testcases"
)

func main() {
	casesPath := flag.String("cases", "test_cases.json", "path to the JSON test suite")
	flag.Parse()

	envService := env.NewEnvService()
	ctx := context.Background()

	container, err := di.NewContainer(ctx, di.Config{
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.MustGet("OPENROUTER_MODEL_NAME"),
		DatabasePath:     envService.GetDefault("DATABASE_PATH", "hospital.db"),
		SQLDir:           envService.GetDefault("SQL_DIR", "."),
		MaxIterations:    envService.GetInt("MAX_ITERATIONS", 50),
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	if script := envService.Get("SCHEMA_SCRIPT"); script != "" {
		if err := container.Store.ExecuteScript(ctx, script); err != nil {
			log.Fatalf("Schema script failed: %v", err)
		}
	}

	cases, err := testcases.Load(*casesPath)
	if err != nil {
		log.Fatalf("Failed to load test cases: %v", err)
	}

	container.Logger.Info("Evaluation started", "cases", len(cases))

	results := container.Evaluator.Evaluate(ctx, container.Generator, cases)

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}
	fmt.Println(string(out))

	exact, equivalent, failed := summarize(results)
	fmt.Printf("\n%d/%d exact match, %d judged equivalent, %d failed\n",
		exact, len(results), equivalent, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func summarize(results []entity.EvaluationResult) (exact, equivalent, failed int) {
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
		case r.ExactMatch:
			exact++
		case r.LLMJudgedEquivalent == entity.VerdictEquivalent:
			equivalent++
		}
	}
	return exact, equivalent, failed
}
