package stats

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/jurisdiction"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
)

// Handler provides HTTP handlers for the dashboard
type Handler struct {
	repo     *Repository
	policies *jurisdiction.Policies
}

// NewHandler creates a new stats handler
func NewHandler(repo *Repository, policies *jurisdiction.Policies) *Handler {
	return &Handler{repo: repo, policies: policies}
}

// Routes registers the dashboard routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/overview", h.Overview)
	r.Get("/recent", h.Recent)
	r.Get("/employees", h.Employees)
	r.Get("/my-queue", h.MyQueue)
	return r
}

// Overview returns the dashboard headline for the caller's jurisdiction
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	scope, err := h.callerScope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	overview, err := h.repo.Overview(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Recent returns the newest complaints in the caller's jurisdiction
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	scope, err := h.callerScope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recent, err := h.repo.Recent(r.Context(), scope, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": recent})
}

// Employees returns per-employee workload in the caller's jurisdiction
func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	scope, err := h.callerScope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := h.repo.Employees(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": stats})
}

// MyQueue returns the caller's own assignment counts
func (h *Handler) MyQueue(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	mine, err := h.repo.Mine(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

func (h *Handler) callerScope(r *http.Request) (domain.ScopeFilter, error) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		return domain.ScopeFilter{}, errors.Unauthorized("authentication required")
	}

	policy, ok := h.policies.For(identity.RoleName)
	if !ok {
		return domain.ScopeFilter{}, errors.PermissionDenied("unrecognized role " + identity.RoleName)
	}
	return policy.Scope(identity)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
