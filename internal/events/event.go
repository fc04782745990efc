// Package events implements the progress-event channel between running jobs
// and their listeners. Events are a closed tagged type internally; the
// string-keyed wire shapes consumers observe exist only at the JSON boundary.
package events

import "encoding/json"

// Kind discriminates the event variants.
type Kind int

// Event variants. Done and Error are terminal: exactly one of them ends
// every job's stream.
const (
	KindProgress Kind = iota
	KindChartGenerated
	KindDone
	KindError
)

// Event is a single progress event for one job.
type Event struct {
	Kind      Kind
	Message   string
	ChartPath string
	PPTURL    string
	Topic     string
}

// Progress returns a non-terminal progress note.
func Progress(message string) Event {
	return Event{Kind: KindProgress, Message: message}
}

// ChartGenerated announces one rendered chart image.
func ChartGenerated(chartPath, message string) Event {
	return Event{Kind: KindChartGenerated, ChartPath: chartPath, Message: message}
}

// Done is the successful terminal event.
func Done(pptURL, topic string) Event {
	return Event{Kind: KindDone, PPTURL: pptURL, Topic: topic, Message: "Pipeline completed"}
}

// Error is the failure terminal event.
func Error(message string) Event {
	return Event{Kind: KindError, Message: message}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}

type progressWire struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

type chartWire struct {
	Type      string `json:"type"`
	ChartPath string `json:"chart_path"`
	Message   string `json:"message,omitempty"`
}

type doneWire struct {
	Status  string `json:"status"`
	PPTURL  string `json:"ppt_url"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorWire struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MarshalJSON serializes the event into the wire shape consumers observe.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindChartGenerated:
		return json.Marshal(chartWire{Type: "chart_generated", ChartPath: e.ChartPath, Message: e.Message})
	case KindDone:
		return json.Marshal(doneWire{Status: "DONE", PPTURL: e.PPTURL, Topic: e.Topic, Message: e.Message})
	case KindError:
		return json.Marshal(errorWire{Status: "ERROR", Message: e.Message})
	default:
		return json.Marshal(progressWire{Event: "progress", Message: e.Message})
	}
}
