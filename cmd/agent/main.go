package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"sql-agent/internal/di"
	"sql-agent/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

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
			container.Logger.Error("Schema script failed", "script", script, "error", err)
			log.Fatalf("Schema script failed: %v", err)
		}
	}

	fmt.Println("\nEnter a question:")
	reader := bufio.NewReader(os.Stdin)
	question, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	question = strings.TrimSpace(question)

	container.Logger.Info("Question received", "question", question)

	result, err := container.Generator.GetSQL(ctx, question)
	if err != nil {
		container.Logger.Error("Generation failed", "error", err)
		fmt.Printf("\nGeneration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGenerated SQL:")
	fmt.Println(result[0])
}
