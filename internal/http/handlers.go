// Package httpapi serves drills over HTTP with a server-sent event stream
// for the countdown.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hperssn/divdrill/internal/domain"
	"github.com/hperssn/divdrill/internal/runner"
	"github.com/hperssn/divdrill/internal/storage"
)

type Handler struct {
	drills    *runner.DrillManager
	repo      storage.Repository
	ranges    domain.Ranges
	timeLimit int
	origins   []string
	log       *zap.Logger
	validate  *validator.Validate

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Options struct {
	Ranges      domain.Ranges
	TimeLimit   int
	CORSOrigins []string
	Logger      *zap.Logger
}

func NewHandler(drills *runner.DrillManager, repo storage.Repository, opts Options) *Handler {
	if len(opts.Ranges.DividendRanges) == 0 {
		opts.Ranges = domain.DefaultRanges
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Handler{
		drills:    drills,
		repo:      repo,
		ranges:    opts.Ranges,
		timeLimit: domain.ClampTimeLimit(opts.TimeLimit),
		origins:   opts.CORSOrigins,
		log:       opts.Logger,
		validate:  validator.New(),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewRouter mounts the drill API.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	if len(h.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Auth-User"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(ExtractUserMiddleware(h.log))

	r.Get("/problems/new", h.newProblem)

	r.Post("/drills", h.startDrill)
	r.Get("/drills/{id}", h.getDrill)
	r.Delete("/drills/{id}", h.stopDrill)
	r.Post("/drills/{id}/answers", h.submitAnswer)
	r.Post("/drills/{id}/skip", h.skipProblem)
	r.Post("/drills/{id}/continue", h.continueDrill)
	r.Put("/drills/{id}/settings", h.updateSettings)
	r.Get("/drills/{id}/events", h.streamDrillEvents)

	r.Get("/stats", h.getStats)
	r.Get("/history", h.getHistory)

	return r
}

type startDrillRequest struct {
	TimeLimit *int `json:"timeLimit" validate:"omitempty,gte=1"`
}

type answerRequest struct {
	Digit string `json:"digit" validate:"max=16"`
}

type answerResponse struct {
	Correct   bool              `json:"correct"`
	Completed bool              `json:"completed"`
	State     runner.DrillState `json:"state"`
}

type settingsRequest struct {
	TimeLimit string `json:"timeLimit" validate:"required,max=16"`
}

func (h *Handler) newProblem(w http.ResponseWriter, r *http.Request) {
	h.rndMu.Lock()
	p := domain.GenerateProblemIn(h.rnd, h.ranges)
	h.rndMu.Unlock()

	h.respondJSON(w, p, http.StatusOK)
}

func (h *Handler) startDrill(w http.ResponseWriter, r *http.Request) {
	var req startDrillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, "timeLimit must be at least 1", http.StatusBadRequest)
		return
	}

	limit := h.timeLimit
	if req.TimeLimit != nil {
		limit = *req.TimeLimit
	}

	state, err := h.drills.StartDrill(r.Context(), GetUserID(r), limit)
	if err != nil {
		h.log.Error("failed to start drill", zap.String("user", GetUserID(r)), zap.Error(err))
		h.respondError(w, "could not start drill", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, state, http.StatusCreated)
}

func (h *Handler) getDrill(w http.ResponseWriter, r *http.Request) {
	state, ok := h.ownedDrill(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, state, http.StatusOK)
}

func (h *Handler) stopDrill(w http.ResponseWriter, r *http.Request) {
	state, ok := h.ownedDrill(w, r)
	if !ok {
		return
	}

	if err := h.drills.StopDrill(state.ID); err != nil {
		h.respondDrillError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	state, ok := h.ownedDrill(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, "digit too long", http.StatusBadRequest)
		return
	}

	res, next, err := h.drills.Submit(state.ID, req.Digit)
	if err != nil {
		h.respondDrillError(w, err)
		return
	}

	h.respondJSON(w, answerResponse{
		Correct:   res.Correct,
		Completed: res.Completed,
		State:     next,
	}, http.StatusOK)
}

func (h *Handler) skipProblem(w http.ResponseWriter, r *http.Request) {
	state, ok := h.ownedDrill(w, r)
	if !ok {
		return
	}

	next, err := h.drills.Skip(state.ID)
	if err != nil {
		h.respondDrillError(w, err)
		return
	}
	h.respondJSON(w, next, http.StatusOK)
}

func (h *Handler) continueDrill(w http.ResponseWriter, r *http.Request) {
	state, ok := h.ownedDrill(w, r)
	if !ok {
		return
	}

	next, err := h.drills.Continue(state.ID)
	if err != nil {
		h.respondDrillError(w, err)
		return
	}
	h.respondJSON(w, next, http.StatusOK)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	state, ok := h.ownedDrill(w, r)
	if !ok {
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, "timeLimit is required", http.StatusBadRequest)
		return
	}

	next, err := h.drills.SetTimeLimit(state.ID, req.TimeLimit)
	if err != nil {
		h.respondDrillError(w, err)
		return
	}
	h.respondJSON(w, next, http.StatusOK)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetUserStats(r.Context(), GetUserID(r))
	if err != nil {
		h.log.Error("failed to load stats", zap.Error(err))
		h.respondError(w, "could not load stats", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, stats, http.StatusOK)
}

// getHistory lists the user's problems, newest first. An RFC 3339 since
// parameter limits it to problems finished at or after that time.
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	var (
		records []storage.ProblemRecord
		err     error
	)
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			h.respondError(w, "since must be an RFC 3339 timestamp", http.StatusBadRequest)
			return
		}
		records, err = h.repo.GetRecentProblems(r.Context(), userID, since)
	} else {
		records, err = h.repo.GetProblemsByUser(r.Context(), userID)
	}
	if err != nil {
		h.log.Error("failed to load history", zap.Error(err))
		h.respondError(w, "could not load history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []storage.ProblemRecord{}
	}
	h.respondJSON(w, records, http.StatusOK)
}

// ownedDrill looks up the drill in the URL and hides drills of other users.
func (h *Handler) ownedDrill(w http.ResponseWriter, r *http.Request) (runner.DrillState, bool) {
	state, ok := h.drills.GetDrill(chi.URLParam(r, "id"))
	if !ok || state.UserID != GetUserID(r) {
		h.respondError(w, "drill not found", http.StatusNotFound)
		return runner.DrillState{}, false
	}
	return state, true
}

func (h *Handler) respondDrillError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, runner.ErrDrillNotFound):
		h.respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, runner.ErrDrillPaused):
		h.respondError(w, err.Error(), http.StatusLocked)
	case errors.Is(err, runner.ErrDrillNotPaused), errors.Is(err, domain.ErrSessionComplete):
		h.respondError(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error("drill request failed", zap.Error(err))
		h.respondError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, map[string]string{"error": message}, status)
}
