package role

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Handler provides HTTP handlers for the role module
type Handler struct {
	repo     *Repository
	registry *Registry
}

// NewHandler creates a new role handler
func NewHandler(repo *Repository, registry *Registry) *Handler {
	return &Handler{repo: repo, registry: registry}
}

// Routes registers the role routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{roleID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})

	return r
}

// List lists all roles
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.repo.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  roles,
		"total": len(roles),
	})
}

// Get gets a role by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid role ID"))
		return
	}

	role, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// Create creates a new role
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name": "name is required",
		}))
		return
	}

	role := &Role{
		ID:   types.NewID(),
		Name: strings.ToUpper(name),
	}

	if err := h.repo.Create(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}

	h.registry.Invalidate()

	writeJSON(w, http.StatusCreated, role)
}

// Update renames a role
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid role ID"))
		return
	}

	role, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name": "name is required",
		}))
		return
	}

	role.Name = strings.ToUpper(name)
	if err := h.repo.Update(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}

	h.registry.Invalidate()

	writeJSON(w, http.StatusOK, role)
}

// Delete deactivates an unused role
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid role ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.registry.Invalidate()

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

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
