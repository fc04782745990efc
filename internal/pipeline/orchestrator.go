// Package pipeline drives a research job through its stages: search, fetch,
// extract, summarize, chart, assemble. It owns all job state and is the only
// writer of job status and progress events.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoward/deck-agent/internal/charts"
	"github.com/khoward/deck-agent/internal/config"
	"github.com/khoward/deck-agent/internal/events"
	"github.com/khoward/deck-agent/internal/search"
	"github.com/khoward/deck-agent/internal/summarize"
	"github.com/khoward/deck-agent/internal/types"
)

// Fetcher resolves search results into sources, streaming them in completion
// order.
type Fetcher interface {
	FetchAll(ctx context.Context, results []search.Result) <-chan *types.Source
}

// Extractor converts a fetched source's raw content into usable text.
type Extractor interface {
	Extract(src *types.Source)
}

// Renderer draws one chart spec to an image file.
type Renderer interface {
	Render(spec *types.ChartSpec, theme types.ThemeConfig, baseName string) error
}

// Assembler maps job content onto a slide deck.
type Assembler interface {
	Assemble(topic string, insights []types.Insight, chartSpecs []types.ChartSpec, sources []*types.Source, theme types.ThemeConfig) (*types.Deck, error)
}

// Deps bundles the stage implementations the orchestrator drives. Every field
// is an interface seam so tests can substitute fakes.
type Deps struct {
	Searcher   search.Searcher
	Fetcher    Fetcher
	Extractor  Extractor
	Summarizer summarize.Summarizer
	// Recommender is optional; a nil value skips the recommendations
	// stage, and its failures never fail the job.
	Recommender summarize.Recommender
	Planner     charts.Planner
	Renderer    Renderer
	Assembler   Assembler
	// WriteArtifact renders the deck file and returns its filename.
	WriteArtifact func(d *types.Deck, outputDir, topic string) (string, error)
}

// errNoInsights marks a summarization that produced nothing usable, e.g.
// every claim was dropped for lacking supporting sources.
var errNoInsights = fmt.Errorf("no supported insights extracted")

// Orchestrator owns every job it has started. Jobs live in memory for their
// lifetime plus a retention window after reaching a terminal state.
type Orchestrator struct {
	cfg  config.Config
	bus  *events.Bus
	deps Deps

	mu   sync.Mutex
	jobs map[uuid.UUID]*types.Job
}

// New creates an orchestrator.
func New(cfg config.Config, bus *events.Bus, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:  cfg,
		bus:  bus,
		deps: deps,
		jobs: make(map[uuid.UUID]*types.Job),
	}
}

// Start creates a job and runs its pipeline in the background.
func (o *Orchestrator) Start(topic string, maxSources int, theme types.ThemeConfig) (uuid.UUID, error) {
	id, _, _, err := o.start(topic, maxSources, theme, false)
	return id, err
}

// StartWithEvents is Start plus a subscription opened before the first stage
// runs, so the caller observes the job's full event stream.
func (o *Orchestrator) StartWithEvents(topic string, maxSources int, theme types.ThemeConfig) (uuid.UUID, <-chan events.Event, func(), error) {
	return o.start(topic, maxSources, theme, true)
}

func (o *Orchestrator) start(topic string, maxSources int, theme types.ThemeConfig, subscribe bool) (uuid.UUID, <-chan events.Event, func(), error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return uuid.Nil, nil, nil, fmt.Errorf("topic is required")
	}
	if maxSources < 1 {
		maxSources = o.cfg.Pipeline.MaxSources
	}

	job := types.NewJob(topic, maxSources, theme)
	o.bus.Register(job.ID)

	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()

	var (
		ch     <-chan events.Event
		cancel func()
	)
	if subscribe {
		var err error
		ch, cancel, err = o.bus.Subscribe(job.ID)
		if err != nil {
			return uuid.Nil, nil, nil, err
		}
	}

	go o.run(job)
	return job.ID, ch, cancel, nil
}

// Subscribe attaches a listener to a job's event stream.
func (o *Orchestrator) Subscribe(jobID uuid.UUID) (<-chan events.Event, func(), error) {
	return o.bus.Subscribe(jobID)
}

// Snapshot is a read-only view of a job's state.
type Snapshot struct {
	ID            uuid.UUID         `json:"id"`
	Topic         string            `json:"topic"`
	Status        types.JobStatus   `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
	SourceCount   int               `json:"source_count"`
	OKSourceCount int               `json:"ok_source_count"`
	InsightCount  int               `json:"insight_count"`
	ChartCount    int               `json:"chart_count"`
	PPTFilename   string            `json:"ppt_filename,omitempty"`
	PPTURL        string            `json:"ppt_url,omitempty"`
	FailureDetail string            `json:"detail,omitempty"`
	Theme         types.ThemeConfig `json:"theme_config"`
}

// Job returns a snapshot of a job, or false if the job is unknown or already
// swept.
func (o *Orchestrator) Job(jobID uuid.UUID) (Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, ok := o.jobs[jobID]
	if !ok {
		return Snapshot{}, false
	}

	snap := Snapshot{
		ID:            job.ID,
		Topic:         job.Topic,
		Status:        job.Status,
		CreatedAt:     job.CreatedAt,
		SourceCount:   len(job.Sources),
		OKSourceCount: len(job.OKSources()),
		InsightCount:  len(job.Insights),
		ChartCount:    countRendered(job.Charts),
		PPTFilename:   job.PPTFilename,
		FailureDetail: job.FailureDetail,
		Theme:         job.Theme,
	}
	if !job.FinishedAt.IsZero() {
		t := job.FinishedAt
		snap.FinishedAt = &t
	}
	if job.PPTFilename != "" {
		snap.PPTURL = o.artifactURL(job.PPTFilename)
	}
	return snap, true
}

// run executes the full pipeline for one job. It is the only goroutine that
// mutates the job after creation.
func (o *Orchestrator) run(job *types.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Pipeline.JobDeadline())
	defer cancel()
	defer o.scheduleSweep(job.ID)

	o.update(job, func() { job.Transition(types.StatusRunning) })
	o.publish(job, events.Progress(fmt.Sprintf("Starting research on %q", job.Topic)))

	// Stage 1: search.
	results, err := o.deps.Searcher.Search(ctx, job.Topic, job.MaxSources)
	if err != nil || len(results) == 0 {
		o.fail(ctx, job, "web search returned no usable results", err)
		return
	}
	o.publish(job, events.Progress(fmt.Sprintf("Found %d sources, fetching content", len(results))))

	// Stage 2: fetch and extract, incrementally as fetches resolve.
	for src := range o.deps.Fetcher.FetchAll(ctx, results) {
		o.deps.Extractor.Extract(src)
		o.update(job, func() { job.Sources = append(job.Sources, src) })
		if src.FetchStatus == types.FetchOK {
			o.publish(job, events.Progress("Fetched "+src.URL))
		} else {
			o.publish(job, events.Progress("Skipping "+src.URL+": "+src.FailureReason))
		}
	}
	okSources := job.OKSources()
	if len(okSources) == 0 {
		o.fail(ctx, job, "all source fetches failed", nil)
		return
	}
	if len(okSources) < len(job.Sources) {
		o.publish(job, events.Progress(fmt.Sprintf("Proceeding with %d of %d sources", len(okSources), len(job.Sources))))
	}

	// Stage 3: summarize.
	o.publish(job, events.Progress(fmt.Sprintf("Summarizing %d sources", len(okSources))))
	insights, err := o.deps.Summarizer.Summarize(ctx, job.Topic, okSources)
	if err != nil {
		o.fail(ctx, job, "failed to summarize sources", err)
		return
	}
	// An empty result means every claim was dropped; later stages have
	// nothing to work with, so this is a summarize-stage failure.
	if len(insights) == 0 {
		o.fail(ctx, job, "failed to summarize sources", errNoInsights)
		return
	}
	o.publish(job, events.Progress(fmt.Sprintf("Extracted %d insights", len(insights))))

	if o.deps.Recommender != nil {
		recs, err := o.deps.Recommender.Recommend(ctx, job.Topic, insights)
		if err != nil {
			log.Printf("[pipeline] job %s: proceeding without recommendations: %v", shortID(job.ID), err)
		} else if len(recs) > 0 {
			base := len(insights)
			for i, rec := range recs {
				insights = append(insights, types.Insight{Claim: rec, Section: "Recommendations", Rank: base + i + 1})
			}
			o.publish(job, events.Progress(fmt.Sprintf("Added %d recommendations", len(recs))))
		}
	}
	o.update(job, func() { job.Insights = insights })

	// Stage 4: plan and render charts. Render failures drop the chart, they
	// never fail the job.
	specs := o.deps.Planner.Plan(ctx, insights)
	for i := range specs {
		spec := &specs[i]
		baseName := fmt.Sprintf("chart_%s_%d", shortID(job.ID), i+1)
		if err := o.deps.Renderer.Render(spec, job.Theme, baseName); err != nil {
			log.Printf("[pipeline] job %s: dropping chart %q: %v", shortID(job.ID), spec.Title, err)
			continue
		}
		o.publish(job, events.ChartGenerated(
			"/outputs/"+filepath.Base(spec.RenderedPath),
			"Generated chart: "+spec.Title,
		))
	}
	o.update(job, func() { job.Charts = specs })

	if ctx.Err() != nil {
		o.fail(ctx, job, "job cancelled", ctx.Err())
		return
	}

	// Stage 5: assemble and write the deck. Failures here are fatal and not
	// retried.
	o.publish(job, events.Progress("Assembling presentation"))
	builtDeck, err := o.deps.Assembler.Assemble(job.Topic, job.Insights, job.Charts, job.Sources, job.Theme)
	if err != nil {
		o.fail(ctx, job, "failed to assemble deck", err)
		return
	}
	filename, err := o.deps.WriteArtifact(builtDeck, o.cfg.OutputDir, job.Topic)
	if err != nil {
		o.fail(ctx, job, "failed to write presentation file", err)
		return
	}

	o.update(job, func() {
		job.PPTFilename = filename
		job.PPTPath = builtDeck.ArtifactPath
		job.Transition(types.StatusDone)
	})
	o.publish(job, events.Done(o.artifactURL(filename), job.Topic))
	log.Printf("[pipeline] job %s done: %s (%d slides)", shortID(job.ID), filename, len(builtDeck.Slides))
}

// fail moves the job to ERROR and emits the single terminal error event. A
// deadline expiry overrides the stage's own message so callers see the real
// cause.
func (o *Orchestrator) fail(ctx context.Context, job *types.Job, message string, cause error) {
	if ctx.Err() == context.DeadlineExceeded {
		message = "job deadline exceeded"
		cause = nil
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}

	o.update(job, func() {
		job.FailureDetail = message
		job.Transition(types.StatusError)
	})
	o.publish(job, events.Error(message))
	log.Printf("[pipeline] job %s failed: %s", shortID(job.ID), message)
}

func (o *Orchestrator) publish(job *types.Job, ev events.Event) {
	o.bus.Publish(job.ID, ev)
}

// update applies a job mutation under the orchestrator lock so snapshots
// never observe torn state.
func (o *Orchestrator) update(job *types.Job, fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
}

// scheduleSweep removes the job and its event stream after the retention
// window.
func (o *Orchestrator) scheduleSweep(jobID uuid.UUID) {
	time.AfterFunc(o.cfg.Pipeline.Retention(), func() {
		o.mu.Lock()
		delete(o.jobs, jobID)
		o.mu.Unlock()
		o.bus.Drop(jobID)
	})
}

// artifactURL builds the caller-facing URL for a file in the output dir.
func (o *Orchestrator) artifactURL(filename string) string {
	base := strings.TrimSuffix(o.cfg.PublicBaseURL, "/")
	return base + "/outputs/" + filename
}

func countRendered(specs []types.ChartSpec) int {
	n := 0
	for _, s := range specs {
		if s.Rendered() {
			n++
		}
	}
	return n
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
