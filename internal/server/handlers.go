package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/khoward/deck-agent/internal/events"
	"github.com/khoward/deck-agent/internal/types"
)

var validate = validator.New()

// GenerateRequest is the request body for deck generation.
type GenerateRequest struct {
	Topic      string            `json:"topic" validate:"required,min=2,max=200"`
	MaxSources int               `json:"max_sources" validate:"omitempty,gte=1,lte=10"`
	Theme      types.ThemeConfig `json:"theme_config"`
}

// GenerateResponse is returned once a synchronous generation finishes.
type GenerateResponse struct {
	Topic       string `json:"topic"`
	Message     string `json:"message"`
	PPTFilename string `json:"ppt_filename"`
	PPTURL      string `json:"ppt_url"`
}

// CreateJobResponse acknowledges an asynchronous job submission.
type CreateJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// decodeGenerateRequest parses and validates the request body.
func (s *Server) decodeGenerateRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return GenerateRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return GenerateRequest{}, fmt.Errorf("validation failed: %s", validationDetail(verrs))
		}
		return GenerateRequest{}, err
	}
	return req, nil
}

func validationDetail(verrs validator.ValidationErrors) string {
	var msgs []string
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// handleGenerate runs a job to completion and answers with the finished deck.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeGenerateRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, ch, cancel, err := s.orch.StartWithEvents(req.Topic, req.MaxSources, req.Theme)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cancel()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				s.errorResponse(w, http.StatusInternalServerError, "job ended without a result")
				return
			}
			switch ev.Kind {
			case events.KindDone:
				snap, _ := s.orch.Job(jobID)
				s.jsonResponse(w, http.StatusOK, GenerateResponse{
					Topic:       ev.Topic,
					Message:     ev.Message,
					PPTFilename: snap.PPTFilename,
					PPTURL:      ev.PPTURL,
				})
				return
			case events.KindError:
				s.errorResponse(w, http.StatusInternalServerError, ev.Message)
				return
			}
		case <-r.Context().Done():
			// Client went away; the job keeps running and stays queryable.
			return
		}
	}
}

// handleGenerateStream starts a job and streams its events until the
// terminal event.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeGenerateRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	_, ch, cancel, err := s.orch.StartWithEvents(req.Topic, req.MaxSources, req.Theme)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cancel()

	s.streamEvents(w, r, ch)
}

// handleCreateJob starts a job in the background and acknowledges it.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeGenerateRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := s.orch.Start(req.Topic, req.MaxSources, req.Theme)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, CreateJobResponse{
		JobID:  jobID.String(),
		Status: string(types.StatusPending),
	})
}

// handleGetJob returns the current snapshot of a job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid job id")
		return
	}

	snap, ok := s.orch.Job(jobID)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "job not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleJobEvents streams a job's events. A listener attaching after the job
// finished still receives the terminal event.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid job id")
		return
	}

	ch, cancel, err := s.orch.Subscribe(jobID)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "job not found")
		return
	}
	defer cancel()

	s.streamEvents(w, r, ch)
}

// streamEvents forwards events over SSE until the stream closes or the
// client disconnects.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, ch <-chan events.Event) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.WriteEvent(ev); err != nil {
				log.Printf("[server] event stream write failed: %v", err)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
