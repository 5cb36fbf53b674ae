package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"housepricing/area"
	"housepricing/db"
	"housepricing/ml"
	"housepricing/pricing"
)

// ModelDescriber reports what model the server is holding.
type ModelDescriber interface {
	Describe() ml.ModelInfo
}

// TrainingLog is the read side of the training registry.
type TrainingLog interface {
	LatestTrainingRun(ctx context.Context) (*db.TrainingRun, error)
	LoadTrainingLog(ctx context.Context, limit int) ([]db.TrainingRun, error)
}

// API wires the services behind the HTTP routes. Everything it holds is
// built once at startup and only read afterwards.
type API struct {
	predictor *pricing.Service
	areas     *area.Service
	model     ModelDescriber
	registry  TrainingLog
	logger    *zap.Logger
}

// NewAPI builds the route set. registry may be nil.
func NewAPI(predictor *pricing.Service, areas *area.Service, model ModelDescriber, registry TrainingLog, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		predictor: predictor,
		areas:     areas,
		model:     model,
		registry:  registry,
		logger:    logger,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /predict", restHandler(a.logger, a.handlePredict))
	mux.HandleFunc("GET /areas", restHandler(a.logger, a.handleAreas))
	mux.HandleFunc("GET /area/{rad}", restHandler(a.logger, a.handleArea))
	mux.HandleFunc("GET /model", restHandler(a.logger, a.handleModel))
	mux.HandleFunc("GET /training/log", restHandler(a.logger, a.handleTrainingLog))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handlePredict(r *http.Request) (any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("unable to read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, CodedError(http.StatusBadRequest, pricing.ErrNoInput)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("unable to parse request body: %w", err)
	}
	if err := decoder.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("unable to parse request body: unexpected data after JSON value")
	}

	prediction, err := a.predictor.Predict(r.Context(), payload)
	if errors.Is(err, pricing.ErrNoInput) {
		return nil, CodedError(http.StatusBadRequest, err)
	}
	if err != nil {
		return nil, err
	}
	return prediction, nil
}

func (a *API) handleAreas(r *http.Request) (any, error) {
	rads, err := a.areas.ListAreas(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string][]int{"rads": rads}, nil
}

func (a *API) handleArea(r *http.Request) (any, error) {
	raw := r.PathValue("rad")
	if !isDigits(raw) {
		return nil, CodedErrorf(http.StatusNotFound, "area %q not found", raw)
	}
	rad, err := strconv.Atoi(raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusNotFound, "area %q not found", r.PathValue("rad"))
	}

	stats, err := a.areas.AreaStats(r.Context(), rad)
	if errors.Is(err, area.ErrAreaNotFound) {
		return nil, CodedError(http.StatusNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// isDigits reports whether s is a non-empty run of ASCII digits, the only
// form an area path segment may take.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type modelResponse struct {
	Model       ml.ModelInfo    `json:"model"`
	LatestTrain *db.TrainingRun `json:"latest_training_run,omitempty"`
}

func (a *API) handleModel(r *http.Request) (any, error) {
	resp := modelResponse{Model: a.model.Describe()}
	if a.registry != nil {
		run, err := a.registry.LatestTrainingRun(r.Context())
		if err != nil {
			return nil, err
		}
		resp.LatestTrain = run
	}
	return resp, nil
}

func (a *API) handleTrainingLog(r *http.Request) (any, error) {
	if a.registry == nil {
		return nil, CodedErrorf(http.StatusNotFound, "training registry not configured")
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid limit %q", v)
		}
		limit = parsed
	}
	runs, err := a.registry.LoadTrainingLog(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	return map[string][]db.TrainingRun{"runs": runs}, nil
}
