// Package types defines the core domain model shared across the pipeline:
// jobs, sources, insights, chart specs, slides, and theme configuration.
package types

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a research job.
type JobStatus string

// Job lifecycle states. Transitions are monotonic: a job never moves
// backwards, and DONE/ERROR are terminal.
const (
	StatusPending JobStatus = "PENDING"
	StatusRunning JobStatus = "RUNNING"
	StatusDone    JobStatus = "DONE"
	StatusError   JobStatus = "ERROR"
)

// statusRank orders statuses for monotonicity checks.
var statusRank = map[JobStatus]int{
	StatusPending: 0,
	StatusRunning: 1,
	StatusDone:    2,
	StatusError:   2,
}

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Job is one end-to-end request to produce a deck from a topic.
// A Job and its children are owned exclusively by the orchestrator
// instance that created it.
type Job struct {
	ID         uuid.UUID
	Topic      string
	MaxSources int
	Theme      ThemeConfig
	Status     JobStatus
	CreatedAt  time.Time
	FinishedAt time.Time

	// Populated as stages complete.
	Sources  []*Source
	Insights []Insight
	Charts   []ChartSpec

	// Final artifact, set on DONE.
	PPTFilename string
	PPTPath     string

	// Human-readable failure cause, set on ERROR.
	FailureDetail string
}

// NewJob creates a PENDING job with a fresh id.
func NewJob(topic string, maxSources int, theme ThemeConfig) *Job {
	return &Job{
		ID:         uuid.New(),
		Topic:      topic,
		MaxSources: maxSources,
		Theme:      theme,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}
}

// Transition moves the job to a new status. Regressions and transitions out
// of a terminal state are ignored, which keeps status changes monotonic even
// if a cancelled stage reports late.
func (j *Job) Transition(next JobStatus) bool {
	if j.Status.Terminal() {
		return false
	}
	if statusRank[next] < statusRank[j.Status] {
		return false
	}
	j.Status = next
	if next.Terminal() {
		j.FinishedAt = time.Now()
	}
	return true
}

// OKSources returns the sources that fetched and extracted successfully.
func (j *Job) OKSources() []*Source {
	var ok []*Source
	for _, s := range j.Sources {
		if s.FetchStatus == FetchOK {
			ok = append(ok, s)
		}
	}
	return ok
}
