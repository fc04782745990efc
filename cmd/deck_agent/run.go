package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khoward/deck-agent/internal/config"
	"github.com/khoward/deck-agent/internal/events"
	"github.com/khoward/deck-agent/internal/observability"
	"github.com/khoward/deck-agent/internal/pipeline"
	"github.com/khoward/deck-agent/internal/summarize"
	"github.com/khoward/deck-agent/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Generate one research deck from the command line",
	Long: `Runs the full pipeline once without starting the server: search -> fetch -> extract -> summarize -> chart -> assemble.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath string
	runTopic      string
	runMaxSources int
	runThemePath  string
	runOutputDir  string
	runUseBrowser bool
	runLLMCharts  bool
	runVerbose    bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	runCommand.Flags().StringVarP(&runTopic, "topic", "t", "", "Research topic (required)")
	runCommand.Flags().IntVar(&runMaxSources, "max-sources", 0, "Number of web sources to research")
	runCommand.Flags().StringVar(&runThemePath, "theme", "", "Path to a theme_config JSON file")
	runCommand.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Directory for the deck and chart images")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for JS-heavy sites (requires Chrome)")
	runCommand.Flags().BoolVar(&runLLMCharts, "llm-charts", false, "Plan charts with the LLM instead of the deterministic heuristics")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed stage output")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	if runTopic == "" {
		return fmt.Errorf("--topic is required")
	}

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "file://" + cfg.OutputDir
	}

	theme, err := loadTheme(runThemePath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := buildDeps(ctx, cfg, runUseBrowser, runLLMCharts)
	if err != nil {
		return err
	}
	defer cleanup()

	if runVerbose {
		printer := observability.NewPrinter(os.Stdout)
		deps.Summarizer = &verboseSummarizer{inner: deps.Summarizer, printer: printer}
		deps.Assembler = &verboseAssembler{inner: deps.Assembler, printer: printer}
		inner := deps.WriteArtifact
		deps.WriteArtifact = func(d *types.Deck, outputDir, topic string) (string, error) {
			filename, err := inner(d, outputDir, topic)
			if err == nil {
				printer.PrintDeckOutline(d)
			}
			return filename, err
		}
	}

	orch := pipeline.New(cfg, events.NewBus(), deps)
	_, ch, cancel, err := orch.StartWithEvents(runTopic, runMaxSources, theme)
	if err != nil {
		return err
	}
	defer cancel()

	for ev := range ch {
		switch ev.Kind {
		case events.KindDone:
			fmt.Printf("Deck written: %s\n", ev.PPTURL)
			return nil
		case events.KindError:
			return fmt.Errorf("%s", ev.Message)
		default:
			fmt.Println(ev.Message)
		}
	}
	return fmt.Errorf("event stream ended without a result")
}

// loadTheme reads a theme override file; an empty path yields the default
// theme.
func loadTheme(path string) (types.ThemeConfig, error) {
	if path == "" {
		return types.ThemeConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ThemeConfig{}, fmt.Errorf("failed to read theme file: %w", err)
	}
	var theme types.ThemeConfig
	if err := json.Unmarshal(data, &theme); err != nil {
		return types.ThemeConfig{}, fmt.Errorf("failed to parse theme JSON: %w", err)
	}
	return theme, nil
}

// verboseSummarizer prints the ranked insights after each summarization.
type verboseSummarizer struct {
	inner   summarize.Summarizer
	printer *observability.Printer
}

func (v *verboseSummarizer) Summarize(ctx context.Context, topic string, sources []*types.Source) ([]types.Insight, error) {
	insights, err := v.inner.Summarize(ctx, topic, sources)
	if err == nil {
		v.printer.PrintSources(sources)
		v.printer.PrintInsights(insights)
	}
	return insights, err
}

// verboseAssembler prints the chart plan before handing off to the real
// assembler.
type verboseAssembler struct {
	inner   pipeline.Assembler
	printer *observability.Printer
}

func (v *verboseAssembler) Assemble(topic string, insights []types.Insight, chartSpecs []types.ChartSpec, sources []*types.Source, theme types.ThemeConfig) (*types.Deck, error) {
	v.printer.PrintChartPlan(chartSpecs)
	return v.inner.Assemble(topic, insights, chartSpecs, sources, theme)
}
