package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoward/deck-agent/internal/config"
	"github.com/khoward/deck-agent/internal/events"
	"github.com/khoward/deck-agent/internal/pipeline"
	"github.com/khoward/deck-agent/internal/search"
	"github.com/khoward/deck-agent/internal/server/ratelimit"
	"github.com/khoward/deck-agent/internal/types"
)

type stubSearcher struct {
	results []search.Result
	err     error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]search.Result, error) {
	return s.results, s.err
}

type stubFetcher struct {
	fail bool
}

func (f *stubFetcher) FetchAll(_ context.Context, results []search.Result) <-chan *types.Source {
	out := make(chan *types.Source, len(results))
	for _, r := range results {
		src := &types.Source{URL: r.URL, FetchStatus: types.FetchOK, ExtractedText: "text"}
		if f.fail {
			src = &types.Source{URL: r.URL, FetchStatus: types.FetchFailed, FailureReason: "connection refused"}
		}
		out <- src
	}
	close(out)
	return out
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ *types.Source) {}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, _ string, _ []*types.Source) ([]types.Insight, error) {
	return []types.Insight{
		{Claim: "claim one", Section: "Findings", SupportingURLs: []string{"https://s0.example"}, Rank: 1},
	}, nil
}

type stubPlanner struct{}

func (stubPlanner) Plan(_ context.Context, _ []types.Insight) []types.ChartSpec { return nil }

type stubRenderer struct{}

func (stubRenderer) Render(spec *types.ChartSpec, _ types.ThemeConfig, baseName string) error {
	spec.RenderedPath = baseName + ".png"
	return nil
}

type stubAssembler struct{}

func (stubAssembler) Assemble(topic string, _ []types.Insight, _ []types.ChartSpec, _ []*types.Source, theme types.ThemeConfig) (*types.Deck, error) {
	return &types.Deck{
		Slides: []types.Slide{{Layout: types.LayoutTitle, Title: topic}},
		Theme:  theme.WithDefaults(),
	}, nil
}

func stubArtifact(d *types.Deck, outputDir, _ string) (string, error) {
	d.ArtifactPath = filepath.Join(outputDir, "deck.pptx")
	return "deck.pptx", nil
}

func stubDeps() pipeline.Deps {
	return pipeline.Deps{
		Searcher: &stubSearcher{results: []search.Result{
			{URL: "https://s0.example"}, {URL: "https://s1.example"}, {URL: "https://s2.example"},
		}},
		Fetcher:       &stubFetcher{},
		Extractor:     stubExtractor{},
		Summarizer:    stubSummarizer{},
		Planner:       stubPlanner{},
		Renderer:      stubRenderer{},
		Assembler:     stubAssembler{},
		WriteArtifact: stubArtifact,
	}
}

func newTestServer(t *testing.T, deps pipeline.Deps) (*httptest.Server, *Server) {
	t.Helper()

	cfg := config.Defaults()
	cfg.PublicBaseURL = "http://localhost:8080"
	cfg.OutputDir = t.TempDir()
	cfg.Pipeline.JobDeadlineSec = 5
	cfg.Pipeline.RetentionSec = 60

	orch := pipeline.New(cfg, events.NewBus(), deps)
	srv := New(cfg, orch)
	srv.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandleGenerate_Success(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp := postJSON(t, ts.URL+"/generate", GenerateRequest{Topic: "Quantum Computing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[GenerateResponse](t, resp)
	assert.Equal(t, "Quantum Computing", got.Topic)
	assert.Equal(t, "deck.pptx", got.PPTFilename)
	assert.Equal(t, "http://localhost:8080/outputs/deck.pptx", got.PPTURL)
	assert.Equal(t, "Pipeline completed", got.Message)
}

func TestHandleGenerate_ValidationError(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp := postJSON(t, ts.URL+"/generate", map[string]any{"max_sources": 3})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := decodeBody[map[string]string](t, resp)
	assert.Contains(t, got["detail"], "topic is required")
}

func TestHandleGenerate_MaxSourcesOutOfRange(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp := postJSON(t, ts.URL+"/generate", GenerateRequest{Topic: "ai", MaxSources: 50})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := decodeBody[map[string]string](t, resp)
	assert.Contains(t, got["detail"], "maxsources must be at most 10")
}

func TestHandleGenerate_PipelineFailure(t *testing.T) {
	deps := stubDeps()
	deps.Fetcher = &stubFetcher{fail: true}
	ts, _ := newTestServer(t, deps)

	resp := postJSON(t, ts.URL+"/generate", GenerateRequest{Topic: "Quantum Computing"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	got := decodeBody[map[string]string](t, resp)
	assert.Contains(t, got["detail"], "all source fetches failed")
}

func TestHandleCreateJob_ThenGetJob(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp := postJSON(t, ts.URL+"/jobs", GenerateRequest{Topic: "Quantum Computing"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	ack := decodeBody[CreateJobResponse](t, resp)
	assert.Equal(t, "PENDING", ack.Status)
	require.NotEmpty(t, ack.JobID)

	// Poll until the job reaches a terminal state.
	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.Snapshot
	for {
		r, err := http.Get(ts.URL + "/jobs/" + ack.JobID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, r.StatusCode)
		snap = decodeBody[pipeline.Snapshot](t, r)
		if snap.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", snap.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}

	assert.Equal(t, types.StatusDone, snap.Status)
	assert.Equal(t, "deck.pptx", snap.PPTFilename)
	assert.Equal(t, "http://localhost:8080/outputs/deck.pptx", snap.PPTURL)
}

func TestHandleGetJob_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp, err := http.Get(ts.URL + "/jobs/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHandleGetJob_InvalidID(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp, err := http.Get(ts.URL + "/jobs/not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// readSSE collects the data frames of an SSE response until it ends.
func readSSE(t *testing.T, resp *http.Response) []string {
	t.Helper()
	defer resp.Body.Close()

	var frames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	return frames
}

func TestHandleGenerateStream(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp := postJSON(t, ts.URL+"/generate/stream", GenerateRequest{Topic: "Quantum Computing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := readSSE(t, resp)
	require.NotEmpty(t, frames)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &first))
	assert.Equal(t, "progress", first["event"])

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(frames[len(frames)-1]), &last))
	assert.Equal(t, "DONE", last["status"])
	assert.Equal(t, "http://localhost:8080/outputs/deck.pptx", last["ppt_url"])
}

func TestHandleJobEvents_LateSubscriberGetsTerminal(t *testing.T) {
	ts, srv := newTestServer(t, stubDeps())

	jobID, err := srv.orch.Start("Quantum Computing", 3, types.ThemeConfig{})
	require.NoError(t, err)

	// Wait for the job to finish before attaching.
	require.Eventually(t, func() bool {
		snap, ok := srv.orch.Job(jobID)
		return ok && snap.Status.Terminal()
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(ts.URL + "/jobs/" + jobID.String() + "/events")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frames := readSSE(t, resp)
	require.Len(t, frames, 1)

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &last))
	assert.Equal(t, "DONE", last["status"])
}

func TestOutputsStaticFiles(t *testing.T) {
	ts, srv := newTestServer(t, stubDeps())

	path := filepath.Join(srv.cfg.OutputDir, "chart_1.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	resp, err := http.Get(ts.URL + "/outputs/chart_1.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", got["status"])
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, stubDeps())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/generate", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_GenerateTier(t *testing.T) {
	ts, srv := newTestServer(t, stubDeps())
	srv.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:  true,
		Generate: ratelimit.Rule{Limit: 1, Window: time.Hour, Burst: 1},
		Default:  ratelimit.Rule{Limit: 600, Window: time.Minute, Burst: 600},
	})

	resp := postJSON(t, ts.URL+"/jobs", GenerateRequest{Topic: "first"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/jobs", GenerateRequest{Topic: "second"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	got := decodeBody[map[string]string](t, resp)
	assert.Contains(t, got["detail"], "rate limit")

	// Reads stay on the cheap tier and are unaffected.
	r, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	r.Body.Close()
}

func TestValidationDetail(t *testing.T) {
	err := validate.Struct(GenerateRequest{Topic: "x", MaxSources: 99})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	detail := validationDetail(verrs)
	assert.Contains(t, detail, "topic must be at least 2 characters")
	assert.Contains(t, detail, "maxsources must be at most 10")
}
