// Package api exposes the experiment runners over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gocausal/adapters/model/bayes"
	"gocausal/app"
	"gocausal/domain/core"
	"gocausal/domain/experiment"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/report"
	"gocausal/ports"
)

// Server routes experiment requests to the application layer.
type Server struct {
	router  *chi.Mux
	sampler config.SamplerConfig
	repo    ports.ResultRepository
	logger  *internal.Logger
}

// NewServer creates a server. repo may be nil; results are then not
// persisted.
func NewServer(sampler config.SamplerConfig, repo ports.ResultRepository, logger *internal.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		sampler: sampler,
		repo:    repo,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/experiments/interrupted-time-series", s.handlePrePost(experiment.KindInterruptedTimeSeries))
	s.router.Post("/experiments/synthetic-control", s.handlePrePost(experiment.KindSyntheticControl))
	s.router.Post("/experiments/negd", s.handleNEGD)
	s.router.Get("/experiments", s.handleList)
	s.router.Get("/experiments/{id}", s.handleGet)
	s.router.Get("/experiments/{id}/report", s.handleReport)
}

func (s *Server) newModel() *bayes.LinearRegression {
	return bayes.NewLinearRegression(bayes.Config{
		Draws: s.sampler.Draws,
		Seed:  s.sampler.Seed,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePrePost(kind experiment.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PrePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, core.NewDataValidationError("body", "invalid JSON"))
			return
		}
		frame, err := req.Data.ToFrame()
		if err != nil {
			writeError(w, err)
			return
		}

		var exp *app.PrePostFit
		switch kind {
		case experiment.KindSyntheticControl:
			exp, err = app.NewSyntheticControl(frame, req.TreatmentTime, req.Formula, s.newModel())
		default:
			exp, err = app.NewInterruptedTimeSeries(frame, req.TreatmentTime, req.Formula, s.newModel())
		}
		if err != nil {
			writeError(w, err)
			return
		}

		rec, err := report.PrePostRecord(exp.Result())
		if err != nil {
			writeError(w, err)
			return
		}
		s.persist(r.Context(), rec)
		writeJSON(w, http.StatusCreated, responseFromRecord(rec))
	}
}

func (s *Server) handleNEGD(w http.ResponseWriter, r *http.Request) {
	var req NEGDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.NewDataValidationError("body", "invalid JSON"))
		return
	}
	frame, err := req.Data.ToFrame()
	if err != nil {
		writeError(w, err)
		return
	}

	exp, err := app.NewPrePostNEGD(frame, req.Formula, req.GroupVariable, req.PretreatmentVariable, s.newModel())
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := report.NEGDRecord(exp.Result())
	if err != nil {
		writeError(w, err)
		return
	}
	s.persist(r.Context(), rec)
	writeJSON(w, http.StatusCreated, responseFromRecord(rec))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, core.NewConfigurationError("result persistence is not configured"))
		return
	}
	records, err := s.repo.List(r.Context(), 50, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]*ExperimentResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, responseFromRecord(rec))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responseFromRecord(rec))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.ToHTML(rec.Summary))
}

func (s *Server) lookup(r *http.Request) (*ports.ResultRecord, error) {
	if s.repo == nil {
		return nil, core.NewConfigurationError("result persistence is not configured")
	}
	id := core.ExperimentID(chi.URLParam(r, "id"))
	return s.repo.GetByID(r.Context(), id)
}

func (s *Server) persist(ctx context.Context, rec *ports.ResultRecord) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Error("failed to persist experiment result %s: %v", rec.ID, err)
	}
}

func responseFromRecord(rec *ports.ResultRecord) *ExperimentResponse {
	return &ExperimentResponse{
		ID:           string(rec.ID),
		Kind:         rec.Kind,
		Formula:      rec.Formula,
		ScoreName:    rec.ScoreName,
		ScoreValue:   rec.ScoreValue,
		CausalImpact: rec.CausalImpact,
		ImpactLower:  rec.ImpactLower,
		ImpactUpper:  rec.ImpactUpper,
		Summary:      rec.Summary,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsDataValidationError(err), errors.Is(err, core.ErrFormula), errors.Is(err, core.ErrColumn):
		status = http.StatusBadRequest
	case core.IsMissingCapabilityError(err), core.IsConfigurationError(err), core.IsCoefficientLookupError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
