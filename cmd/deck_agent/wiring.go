package main

import (
	"context"
	"fmt"
	"os"

	"github.com/khoward/deck-agent/internal/charts"
	"github.com/khoward/deck-agent/internal/config"
	"github.com/khoward/deck-agent/internal/deck"
	"github.com/khoward/deck-agent/internal/extract"
	"github.com/khoward/deck-agent/internal/fetch"
	"github.com/khoward/deck-agent/internal/llm"
	"github.com/khoward/deck-agent/internal/pipeline"
	"github.com/khoward/deck-agent/internal/search"
	"github.com/khoward/deck-agent/internal/summarize"
)

// buildSearcher picks the search backend: Google Custom Search when
// credentials are configured, the DuckDuckGo HTML scraper otherwise.
func buildSearcher(ctx context.Context, cfg config.Config) (search.Searcher, error) {
	if cfg.SearchAPIKey != "" && cfg.SearchCX != "" {
		return search.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchCX)
	}
	return search.NewDuckDuckGoSearcher(""), nil
}

// buildDeps wires every pipeline stage from the configuration. The returned
// cleanup releases the LLM client.
func buildDeps(ctx context.Context, cfg config.Config, useBrowser, llmCharts bool) (pipeline.Deps, func(), error) {
	if cfg.APIKey == "" {
		return pipeline.Deps{}, nil, fmt.Errorf("GEMINI_API_KEY environment variable or 'api_key' config value is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return pipeline.Deps{}, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return pipeline.Deps{}, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	searcher, err := buildSearcher(ctx, cfg)
	if err != nil {
		_ = client.Close()
		return pipeline.Deps{}, nil, fmt.Errorf("failed to create search backend: %w", err)
	}

	p := cfg.Pipeline
	policy := p.RetryPolicy()

	pool := fetch.NewPool(p.FetchWorkers, &fetch.Options{
		Timeout:   p.FetchTimeout(),
		UserAgent: fetch.DefaultUserAgent,
	})
	if useBrowser {
		pool = pool.WithBrowserFallback(fetch.WithBrowser)
	}

	var planner charts.Planner = charts.NewHeuristicPlanner(p.MaxCharts)
	if llmCharts {
		planner = charts.NewLLMPlanner(client, policy, p.MaxCharts)
	}

	deps := pipeline.Deps{
		Searcher:      searcher,
		Fetcher:       pool,
		Extractor:     extract.New(p.MinTextLen, p.MaxTextLen),
		Summarizer:    summarize.NewLLMSummarizer(client, policy, p.SummaryBatchSize, p.SimilarityThreshold),
		Recommender:   summarize.NewLLMRecommender(client, policy, 4),
		Planner:       planner,
		Renderer:      charts.NewRenderer(cfg.OutputDir),
		Assembler:     deck.NewAssembler(p.MaxSlides),
		WriteArtifact: deck.WritePPTX,
	}
	cleanup := func() { _ = client.Close() }
	return deps, cleanup, nil
}
