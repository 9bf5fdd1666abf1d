package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/snowpit-service/internal/cache"
	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/observability"
)

const maxBodyBytes = 1 << 20

// API serves the snow pit routes.
type API struct {
	store    domain.Store
	geocoder domain.Geocoder
	diagrams *cache.LRU[string, []byte]
	metrics  *observability.Metrics
	dpi      int
	logger   *slog.Logger
}

// APIConfig configures NewAPI. Geocoder may be nil.
type APIConfig struct {
	Store     domain.Store
	Geocoder  domain.Geocoder
	Metrics   *observability.Metrics
	CacheSize int
	DPI       int
}

// NewAPI creates the API handlers.
func NewAPI(cfg APIConfig, logger *slog.Logger) *API {
	return &API{
		store:    cfg.Store,
		geocoder: cfg.Geocoder,
		diagrams: cache.New[string, []byte](cfg.CacheSize),
		metrics:  cfg.Metrics,
		dpi:      cfg.DPI,
		logger:   logger,
	}
}

// Register adds the /v1 routes to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/sites/{site}/pits/{date}", a.handleList)
	mux.HandleFunc("PUT /v1/sites/{site}/pits/{date}", a.handleUpsert)
	mux.HandleFunc("DELETE /v1/sites/{site}/pits/{date}/{id}", a.handleDelete)
	mux.HandleFunc("GET /v1/sites/{site}/pits/{date}/{id}/diagram/{format}", a.handleDiagram)
	mux.HandleFunc("POST /v1/validate", a.handleValidate)
	mux.HandleFunc("GET /v1/profiles/grid", a.handleGrid)
}

type pitListResponse struct {
	Collection domain.Collection `json:"collection"`
	Labels     []string          `json:"labels"`
	Pits       []domain.SnowPit  `json:"pits"`
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCollection(r.PathValue("site"), r.PathValue("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	pits, err := a.store.Load(r.Context(), c)
	if err != nil {
		a.logger.Error("load collection failed", "collection", c.String(), "error", err)
		writeError(w, r, http.StatusInternalServerError, errors.New("load collection failed"))
		return
	}
	labels := make([]string, len(pits))
	for i, p := range pits {
		labels[i] = domain.PitLabel(i, p)
	}
	writeResponse(w, r, http.StatusOK, pitListResponse{Collection: c, Labels: labels, Pits: pits})
}

// handleUpsert validates a submission and stores it. The path names the
// collection; site and date in the body are ignored.
func (a *API) handleUpsert(w http.ResponseWriter, r *http.Request) {
	sub, ok := a.readSubmission(w, r)
	if !ok {
		return
	}
	sub.Site = r.PathValue("site")
	sub.Date = r.PathValue("date")

	outcome := domain.Accept(sub)
	if !outcome.Accepted() {
		a.metrics.ObserveOutcome(outcome)
		writeResponse(w, r, rejectionStatus(outcome), domain.NewResult(outcome, sub.ID))
		return
	}

	action, err := a.store.Upsert(r.Context(), outcome.Collection, outcome.Pit)
	if err != nil {
		a.logger.Error("store snow pit failed", "collection", outcome.Collection.String(),
			"pit_id", outcome.Pit.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, errors.New("store snow pit failed"))
		return
	}
	outcome.Action = action
	a.logger.Info("snow pit stored", "collection", outcome.Collection.String(),
		"pit_id", outcome.Pit.ID, "action", action)
	writeResponse(w, r, http.StatusOK, domain.NewResult(outcome, sub.ID))
}

type deleteResponse struct {
	ID                string            `json:"id"`
	Collection        domain.Collection `json:"collection"`
	CollectionRemoved bool              `json:"collection_removed"`
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCollection(r.PathValue("site"), r.PathValue("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	id := r.PathValue("id")
	emptied, err := a.store.Delete(r.Context(), c, id)
	switch {
	case errors.Is(err, domain.ErrPitNotFound):
		writeError(w, r, http.StatusNotFound, err)
		return
	case err != nil:
		a.logger.Error("delete snow pit failed", "collection", c.String(), "pit_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, errors.New("delete snow pit failed"))
		return
	}
	a.logger.Info("snow pit deleted", "collection", c.String(), "pit_id", id, "collection_removed", emptied)
	writeResponse(w, r, http.StatusOK, deleteResponse{ID: id, Collection: c, CollectionRemoved: emptied})
}

type validateResponse struct {
	Valid      bool              `json:"valid"`
	Collection domain.Collection `json:"collection"`
	Violations domain.Violations `json:"violations,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}

// handleValidate checks a submission without storing it.
func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	sub, ok := a.readSubmission(w, r)
	if !ok {
		return
	}
	outcome := domain.Accept(sub)
	resp := validateResponse{
		Valid:      outcome.Accepted(),
		Collection: outcome.Collection,
		Violations: outcome.Violations,
	}
	if len(outcome.Violations) > 0 {
		resp.Errors = outcome.Violations.Messages()
	} else if outcome.Rejection != nil {
		resp.Errors = []string{outcome.Rejection.Error()}
	}
	writeResponse(w, r, http.StatusOK, resp)
}

type gridResponse struct {
	Depth   float64         `json:"depth"`
	Step    *float64        `json:"step"`
	Samples []domain.Sample `json:"samples"`
}

// handleGrid returns an empty profile template. An absent or non-positive
// step yields no samples rather than an error; a grid larger than
// domain.MaxProfileSamples is a bad request.
func (a *API) handleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	depth, err := parseFinite(q.Get("depth"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid depth %q", q.Get("depth")))
		return
	}
	var step *float64
	if s := q.Get("step"); s != "" {
		v, err := parseFinite(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid step %q", s))
			return
		}
		if domain.ProfileSize(depth, v) > domain.MaxProfileSamples {
			writeError(w, r, http.StatusBadRequest,
				fmt.Errorf("grid of depth %v and step %v exceeds %d samples", depth, v, domain.MaxProfileSamples))
			return
		}
		step = &v
	}
	samples := domain.GenerateProfile(depth, step)
	if samples == nil {
		samples = []domain.Sample{}
	}
	writeResponse(w, r, http.StatusOK, gridResponse{Depth: depth, Step: step, Samples: samples})
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func (a *API) readSubmission(w http.ResponseWriter, r *http.Request) (domain.Submission, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err))
		return domain.Submission{}, false
	}
	sub, err := domain.ParseSubmission(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return domain.Submission{}, false
	}
	return sub, true
}

// rejectionStatus maps a rejected outcome to a status code: unusable
// collection keys and inputs are 400, pits that break a rule are 422.
func rejectionStatus(o domain.Outcome) int {
	if errors.Is(o.Rejection, domain.ErrInvalidCollection) || errors.Is(o.Rejection, domain.ErrInvalidSubmission) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
