package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoward/deck-agent/internal/config"
	"github.com/khoward/deck-agent/internal/events"
	"github.com/khoward/deck-agent/internal/pipeline"
	"github.com/khoward/deck-agent/internal/server"
)

var (
	serveConfigPath string
	servePort       int
	serveUseBrowser bool
	serveLLMCharts  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for generating research decks.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser for JS-heavy sites (requires Chrome)")
	serveCmd.Flags().BoolVar(&serveLLMCharts, "llm-charts", false, "Plan charts with the LLM instead of the deterministic heuristics")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	ctx := context.Background()
	deps, cleanup, err := buildDeps(ctx, cfg, serveUseBrowser, serveLLMCharts)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := pipeline.New(cfg, events.NewBus(), deps)
	return server.New(cfg, orch).Start()
}
