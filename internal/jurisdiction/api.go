package jurisdiction

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Handler provides HTTP handlers for the jurisdiction module
type Handler struct {
	repo *Repository
}

// NewHandler creates a new jurisdiction handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the jurisdiction routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/zilas", func(r chi.Router) {
		r.Get("/", h.ListZilas)
		r.Post("/", h.CreateZila)
		r.Get("/{zilaID}", h.GetZila)
		r.Get("/{zilaID}/council", h.GetCouncil)
	})

	r.Route("/tehsils", func(r chi.Router) {
		r.Get("/", h.ListTehsils)
		r.Post("/", h.CreateTehsil)
		r.Get("/{tehsilID}", h.GetTehsil)
	})

	r.Route("/committees", func(r chi.Router) {
		r.Get("/", h.ListCommittees)
		r.Post("/", h.CreateCommittee)
		r.Get("/{committeeID}", h.GetCommittee)
	})

	r.Route("/councils", func(r chi.Router) {
		r.Get("/", h.ListCouncils)
		r.Post("/", h.CreateCouncil)
	})

	return r
}

// ListZilas lists all zilas
func (h *Handler) ListZilas(w http.ResponseWriter, r *http.Request) {
	zilas, err := h.repo.ListZilas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": zilas, "total": len(zilas)})
}

// GetZila gets a zila by ID
func (h *Handler) GetZila(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "zilaID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid zila ID"))
		return
	}

	zila, err := h.repo.GetZila(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zila)
}

// CreateZila creates a new zila
func (h *Handler) CreateZila(w http.ResponseWriter, r *http.Request) {
	var req CreateZilaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name": "name is required",
		}))
		return
	}

	zila := &Zila{ID: types.NewID(), Name: strings.TrimSpace(req.Name)}
	if err := h.repo.CreateZila(r.Context(), zila); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, zila)
}

// GetCouncil gets the district council of a zila
func (h *Handler) GetCouncil(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "zilaID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid zila ID"))
		return
	}

	council, err := h.repo.GetCouncilByZila(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, council)
}

// ListTehsils lists tehsils, optionally by zila
func (h *Handler) ListTehsils(w http.ResponseWriter, r *http.Request) {
	var zilaID *types.ID
	if z := r.URL.Query().Get("zila_id"); z != "" {
		id, err := types.ParseID(z)
		if err != nil {
			writeError(w, errors.BadRequest("invalid zila ID"))
			return
		}
		zilaID = &id
	}

	tehsils, err := h.repo.ListTehsils(r.Context(), zilaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": tehsils, "total": len(tehsils)})
}

// GetTehsil gets a tehsil by ID
func (h *Handler) GetTehsil(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "tehsilID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid tehsil ID"))
		return
	}

	tehsil, err := h.repo.GetTehsil(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tehsil)
}

// CreateTehsil creates a new tehsil
func (h *Handler) CreateTehsil(w http.ResponseWriter, r *http.Request) {
	var req CreateTehsilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.ZilaID.IsZero() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name":    "name is required",
			"zila_id": "zila_id is required",
		}))
		return
	}

	tehsil := &Tehsil{ID: types.NewID(), Name: strings.TrimSpace(req.Name), ZilaID: req.ZilaID}
	if err := h.repo.CreateTehsil(r.Context(), tehsil); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tehsil)
}

// ListCommittees lists municipal committees, optionally by tehsil
func (h *Handler) ListCommittees(w http.ResponseWriter, r *http.Request) {
	var tehsilID *types.ID
	if t := r.URL.Query().Get("tehsil_id"); t != "" {
		id, err := types.ParseID(t)
		if err != nil {
			writeError(w, errors.BadRequest("invalid tehsil ID"))
			return
		}
		tehsilID = &id
	}

	committees, err := h.repo.ListCommittees(r.Context(), tehsilID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": committees, "total": len(committees)})
}

// GetCommittee gets a municipal committee by ID
func (h *Handler) GetCommittee(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "committeeID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid committee ID"))
		return
	}

	mc, err := h.repo.GetCommittee(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

// CreateCommittee creates a new municipal committee
func (h *Handler) CreateCommittee(w http.ResponseWriter, r *http.Request) {
	var req CreateCommitteeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.ZilaID.IsZero() || req.TehsilID.IsZero() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name":      "name is required",
			"zila_id":   "zila_id is required",
			"tehsil_id": "tehsil_id is required",
		}))
		return
	}

	mc := &MunicipalCommittee{
		ID:       types.NewID(),
		Name:     strings.TrimSpace(req.Name),
		ZilaID:   req.ZilaID,
		TehsilID: req.TehsilID,
	}
	if err := h.repo.CreateCommittee(r.Context(), mc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mc)
}

// ListCouncils lists all district councils
func (h *Handler) ListCouncils(w http.ResponseWriter, r *http.Request) {
	councils, err := h.repo.ListCouncils(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": councils, "total": len(councils)})
}

// CreateCouncil creates the district council for a zila
func (h *Handler) CreateCouncil(w http.ResponseWriter, r *http.Request) {
	var req CreateCouncilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.ZilaID.IsZero() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name":    "name is required",
			"zila_id": "zila_id is required",
		}))
		return
	}

	council := &DistrictCouncil{ID: types.NewID(), Name: strings.TrimSpace(req.Name), ZilaID: req.ZilaID}
	if err := h.repo.CreateCouncil(r.Context(), council); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, council)
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
