// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/opine-ai/opine/lib/agent"
	"github.com/opine-ai/opine/lib/checkpoint"
	"github.com/opine-ai/opine/lib/clock"
	"github.com/opine-ai/opine/lib/config"
	"github.com/opine-ai/opine/lib/httpserver"
	"github.com/opine-ai/opine/lib/llm"
	"github.com/opine-ai/opine/lib/process"
	"github.com/opine-ai/opine/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("opine-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (overrides OPINE_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("opine-service")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	// The log pipeline is closed last during shutdown so the final
	// shutdown messages are still captured. A pipeline that fails to
	// open degrades the service to console-only logging rather than
	// preventing startup.
	logger, pipeline := setupLogging(cfg, clk)
	if pipeline != nil {
		defer pipeline.Close()
	}

	checkpoints, err := checkpoint.Open(checkpoint.Config{
		Path:   cfg.Checkpoint.DBPath,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer checkpoints.Close()

	provider := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  secrets.OpenAIAPIKey,
		BaseURL: cfg.LLM.BaseURL,
	})

	service := &Service{
		config:      cfg,
		authSecret:  secrets.AuthSecret,
		runner:      agent.NewRunner(provider, logger),
		checkpoints: checkpoints,
		pipeline:    pipeline,
		clock:       clk,
		logger:      logger,
		startedAt:   clk.Now(),
	}

	if pipeline != nil && cfg.Logging.RetentionDays > 0 {
		go service.retentionLoop(ctx)
	}

	server := httpserver.New(httpserver.Config{
		Address: cfg.ListenAddress(),
		Handler: service.routes(),
		Logger:  logger,
	})

	logger.Info("service starting",
		"address", cfg.ListenAddress(),
		"default_model", cfg.LLM.DefaultModel,
		"auth", secrets.AuthSecret != "",
		"version", version.Version,
	)

	err = server.Serve(ctx)
	logger.Info("service stopped")
	return err
}

// loadConfig resolves configuration precedence: the --config flag,
// then OPINE_CONFIG, then built-in defaults.
func loadConfig(flagPath string) (*config.Config, error) {
	if flagPath != "" {
		return config.LoadFile(flagPath)
	}
	if os.Getenv("OPINE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}
