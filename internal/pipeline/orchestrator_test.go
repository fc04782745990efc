package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoward/deck-agent/internal/config"
	"github.com/khoward/deck-agent/internal/events"
	"github.com/khoward/deck-agent/internal/search"
	"github.com/khoward/deck-agent/internal/types"
)

type fakeSearcher struct {
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]search.Result, error) {
	return f.results, f.err
}

// fakeFetcher returns pre-built sources for each requested URL.
type fakeFetcher struct {
	byURL map[string]*types.Source
}

func (f *fakeFetcher) FetchAll(_ context.Context, results []search.Result) <-chan *types.Source {
	out := make(chan *types.Source, len(results))
	for _, r := range results {
		if src, ok := f.byURL[r.URL]; ok {
			out <- src
		} else {
			out <- &types.Source{URL: r.URL, FetchStatus: types.FetchFailed, FailureReason: "connection refused"}
		}
	}
	close(out)
	return out
}

type noopExtractor struct{}

func (noopExtractor) Extract(_ *types.Source) {}

type fakeSummarizer struct {
	insights []types.Insight
	err      error
	delay    time.Duration
}

func (f *fakeSummarizer) Summarize(ctx context.Context, _ string, _ []*types.Source) ([]types.Insight, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.insights, f.err
}

type fakePlanner struct {
	specs  []types.ChartSpec
	called bool
}

func (f *fakePlanner) Plan(_ context.Context, _ []types.Insight) []types.ChartSpec {
	f.called = true
	return append([]types.ChartSpec{}, f.specs...)
}

type fakeRecommender struct {
	recs []string
	err  error
}

func (f *fakeRecommender) Recommend(_ context.Context, _ string, _ []types.Insight) ([]string, error) {
	return f.recs, f.err
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(spec *types.ChartSpec, _ types.ThemeConfig, baseName string) error {
	if f.err != nil {
		return f.err
	}
	spec.RenderedPath = "/outputs/" + baseName + ".png"
	return nil
}

type fakeAssembler struct {
	err error
}

func (f *fakeAssembler) Assemble(topic string, insights []types.Insight, chartSpecs []types.ChartSpec, _ []*types.Source, theme types.ThemeConfig) (*types.Deck, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Deck{
		Slides: []types.Slide{{Layout: types.LayoutTitle, Title: topic}},
		Theme:  theme.WithDefaults(),
	}, nil
}

func okArtifact(d *types.Deck, _ string, _ string) (string, error) {
	d.ArtifactPath = "/outputs/deck.pptx"
	return "deck.pptx", nil
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.PublicBaseURL = "http://localhost:8080"
	cfg.Pipeline.JobDeadlineSec = 5
	cfg.Pipeline.RetentionSec = 60
	return cfg
}

func testInsights() []types.Insight {
	return []types.Insight{
		{Claim: "claim one", Section: "Findings", SupportingURLs: []string{"https://a.example"}, Rank: 1},
	}
}

func fiveResults() []search.Result {
	var rs []search.Result
	for i := 0; i < 5; i++ {
		rs = append(rs, search.Result{URL: fmt.Sprintf("https://s%d.example", i)})
	}
	return rs
}

func okSourceMap(n int) map[string]*types.Source {
	m := make(map[string]*types.Source)
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("https://s%d.example", i)
		m[url] = &types.Source{URL: url, FetchStatus: types.FetchOK, ExtractedText: "text"}
	}
	return m
}

func collect(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var got []events.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatal("event stream did not terminate")
		}
	}
}

func terminalCount(evs []events.Event) (done, errs int) {
	for _, ev := range evs {
		switch ev.Kind {
		case events.KindDone:
			done++
		case events.KindError:
			errs++
		}
	}
	return
}

func newOrchestrator(deps Deps) *Orchestrator {
	return New(testConfig(), events.NewBus(), deps)
}

func happyDeps() Deps {
	return Deps{
		Searcher:      &fakeSearcher{results: fiveResults()},
		Fetcher:       &fakeFetcher{byURL: okSourceMap(5)},
		Extractor:     noopExtractor{},
		Summarizer:    &fakeSummarizer{insights: testInsights()},
		Planner:       &fakePlanner{},
		Renderer:      &fakeRenderer{},
		Assembler:     &fakeAssembler{},
		WriteArtifact: okArtifact,
	}
}

func TestRun_AllFetchesSucceed(t *testing.T) {
	deps := happyDeps()
	deps.Planner = &fakePlanner{specs: []types.ChartSpec{
		{Type: types.ChartBar, Title: "Comparison", Series: []types.SeriesPoint{{Label: "A", Value: 1}}},
	}}
	o := newOrchestrator(deps)

	id, ch, cancel, err := o.StartWithEvents("Quantum Computing", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Equal(t, 1, done)
	assert.Zero(t, errs)

	// The terminal event is last and carries the artifact URL.
	last := evs[len(evs)-1]
	assert.Equal(t, events.KindDone, last.Kind)
	assert.Equal(t, "http://localhost:8080/outputs/deck.pptx", last.PPTURL)
	assert.Equal(t, "Quantum Computing", last.Topic)

	snap, ok := o.Job(id)
	require.True(t, ok)
	assert.Equal(t, types.StatusDone, snap.Status)
	assert.Equal(t, 5, snap.OKSourceCount)
	assert.Equal(t, 1, snap.ChartCount)
	assert.NotNil(t, snap.FinishedAt)
}

func TestRun_AllFetchesFail(t *testing.T) {
	deps := happyDeps()
	deps.Fetcher = &fakeFetcher{byURL: nil}
	o := newOrchestrator(deps)

	id, ch, cancel, err := o.StartWithEvents("Quantum Computing", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Zero(t, done)
	assert.Equal(t, 1, errs)
	for _, ev := range evs {
		assert.NotEqual(t, events.KindChartGenerated, ev.Kind)
	}
	assert.Equal(t, events.KindError, evs[len(evs)-1].Kind)

	snap, ok := o.Job(id)
	require.True(t, ok)
	assert.Equal(t, types.StatusError, snap.Status)
	assert.Contains(t, snap.FailureDetail, "all source fetches failed")
}

func TestRun_PartialFetchTextOnlyDeck(t *testing.T) {
	deps := happyDeps()
	deps.Fetcher = &fakeFetcher{byURL: okSourceMap(3)} // 3 of 5 succeed
	deps.Planner = &fakePlanner{}                      // nothing chartable
	o := newOrchestrator(deps)

	_, ch, cancel, err := o.StartWithEvents("Quantum Computing", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Equal(t, 1, done)
	assert.Zero(t, errs)

	var charts int
	var degraded bool
	for _, ev := range evs {
		if ev.Kind == events.KindChartGenerated {
			charts++
		}
		if ev.Kind == events.KindProgress && ev.Message == "Proceeding with 3 of 5 sources" {
			degraded = true
		}
	}
	assert.Zero(t, charts)
	assert.True(t, degraded, "expected a degraded-progress note")
}

func TestRun_ChartRenderFailureIsDropped(t *testing.T) {
	deps := happyDeps()
	deps.Planner = &fakePlanner{specs: []types.ChartSpec{
		{Type: types.ChartBar, Title: "Doomed", Series: []types.SeriesPoint{{Label: "A", Value: 1}}},
	}}
	deps.Renderer = &fakeRenderer{err: errors.New("no font")}
	o := newOrchestrator(deps)

	_, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, _ := terminalCount(evs)
	assert.Equal(t, 1, done)
	for _, ev := range evs {
		assert.NotEqual(t, events.KindChartGenerated, ev.Kind)
	}
}

func TestRun_SummarizerFailureIsFatal(t *testing.T) {
	deps := happyDeps()
	deps.Summarizer = &fakeSummarizer{err: errors.New("all summary batches failed")}
	o := newOrchestrator(deps)

	id, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Zero(t, done)
	assert.Equal(t, 1, errs)

	snap, _ := o.Job(id)
	assert.Contains(t, snap.FailureDetail, "failed to summarize sources")
}

func TestRun_EmptyInsightsIsFatal(t *testing.T) {
	deps := happyDeps()
	deps.Summarizer = &fakeSummarizer{insights: []types.Insight{}}
	planner := &fakePlanner{}
	deps.Planner = planner
	o := newOrchestrator(deps)

	id, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Zero(t, done)
	assert.Equal(t, 1, errs)

	// Later stages never run after a summarize wipeout.
	assert.False(t, planner.called)

	snap, _ := o.Job(id)
	assert.Equal(t, types.StatusError, snap.Status)
	assert.Contains(t, snap.FailureDetail, "failed to summarize sources")
	assert.Contains(t, snap.FailureDetail, "no supported insights")
}

func TestRun_RecommendationsAppended(t *testing.T) {
	deps := happyDeps()
	deps.Recommender = &fakeRecommender{recs: []string{"Expand pilot coverage."}}
	o := newOrchestrator(deps)

	id, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, _ := terminalCount(evs)
	assert.Equal(t, 1, done)

	var noted bool
	for _, ev := range evs {
		if ev.Kind == events.KindProgress && ev.Message == "Added 1 recommendations" {
			noted = true
		}
	}
	assert.True(t, noted)

	snap, ok := o.Job(id)
	require.True(t, ok)
	assert.Equal(t, 2, snap.InsightCount)
}

func TestRun_RecommenderFailureDegrades(t *testing.T) {
	deps := happyDeps()
	deps.Recommender = &fakeRecommender{err: errors.New("quota exceeded")}
	o := newOrchestrator(deps)

	id, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Equal(t, 1, done)
	assert.Zero(t, errs)

	snap, _ := o.Job(id)
	assert.Equal(t, 1, snap.InsightCount)
}

func TestRun_AssemblyFailureIsFatal(t *testing.T) {
	deps := happyDeps()
	deps.Assembler = &fakeAssembler{err: errors.New("disk full")}
	o := newOrchestrator(deps)

	_, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Zero(t, done)
	assert.Equal(t, 1, errs)
}

func TestRun_DeadlineExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.JobDeadlineSec = 1
	deps := happyDeps()
	deps.Summarizer = &fakeSummarizer{insights: testInsights(), delay: 5 * time.Second}
	o := New(cfg, events.NewBus(), deps)

	id, ch, cancel, err := o.StartWithEvents("topic", 5, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()

	evs := collect(t, ch)
	done, errs := terminalCount(evs)
	assert.Zero(t, done)
	assert.Equal(t, 1, errs)
	assert.Equal(t, "job deadline exceeded", evs[len(evs)-1].Message)

	snap, _ := o.Job(id)
	assert.Equal(t, types.StatusError, snap.Status)
}

func TestStart_RejectsEmptyTopic(t *testing.T) {
	o := newOrchestrator(happyDeps())
	_, err := o.Start("   ", 5, types.ThemeConfig{})
	assert.Error(t, err)
}

func TestStart_DefaultsMaxSources(t *testing.T) {
	o := newOrchestrator(happyDeps())
	id, ch, cancel, err := o.StartWithEvents("topic", 0, types.ThemeConfig{})
	require.NoError(t, err)
	defer cancel()
	collect(t, ch)

	snap, ok := o.Job(id)
	require.True(t, ok)
	assert.Equal(t, 5, snap.SourceCount)
}

func TestJob_UnknownID(t *testing.T) {
	o := newOrchestrator(happyDeps())
	_, ok := o.Job(types.NewJob("x", 1, types.ThemeConfig{}).ID)
	assert.False(t, ok)
}
