package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/gramseva/idverify/internal/agent"
	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	_ = godotenv.Load()

	log := logger.NewAgentLogger("idverify-agent")
	cfg, err := config.GetAgentConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx := context.Background()
	app, err := agent.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init agent app error")
	}

	app.Run(ctx)
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
