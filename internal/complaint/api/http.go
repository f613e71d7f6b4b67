package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/complaint/service"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Handler provides HTTP handlers for the complaint module
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new complaint handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the complaint routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/my-area", h.ListMyArea)
	r.Post("/assign", h.Assign)

	r.Route("/{complaintID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)

		r.Post("/resolution", h.SubmitResolution)

		r.Patch("/approve", h.Approve)
		r.Patch("/reject", h.Reject)
		r.Patch("/complete", h.Complete)
		r.Patch("/close", h.Close)
		r.Patch("/status", h.OverrideStatus)
	})

	return r
}

// --- Request types ---

type CreateComplaintRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CategoryID   *types.ID       `json:"category_id,omitempty"`
	Image        string          `json:"image,omitempty"`
	Location     *types.Point    `json:"location,omitempty"`
	LocationName string          `json:"location_name,omitempty"`
	AreaType     domain.AreaType `json:"area_type"`
	ZilaID       types.ID        `json:"zila_id"`
	TehsilID     types.ID        `json:"tehsil_id"`
	MCID         *types.ID       `json:"mc_id,omitempty"`
}

type AssignRequest struct {
	ComplaintID types.ID `json:"complaint_id"`
	EmployeeID  types.ID `json:"employee_id"`
}

type ResolutionRequest struct {
	Note     string       `json:"note"`
	Image    string       `json:"image"`
	Location *types.Point `json:"location"`
}

type RemarkRequest struct {
	Remark string `json:"remark"`
}

type StatusRequest struct {
	Status domain.Status `json:"status"`
}

// --- Handlers ---

// Create files a new complaint
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.svc.Create(r.Context(), identity, service.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		Image:        req.Image,
		Location:     req.Location,
		LocationName: req.LocationName,
		AreaType:     req.AreaType,
		ZilaID:       req.ZilaID,
		TehsilID:     req.TehsilID,
		MCID:         req.MCID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// ListMyArea lists complaints inside the caller's jurisdiction
func (h *Handler) ListMyArea(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	complaints, total, err := h.svc.ListMyArea(r.Context(), identity, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  complaints,
		"total": total,
	})
}

// Get retrieves one complaint visible to the caller
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	c, err := h.svc.Get(r.Context(), identity, types.ID(chi.URLParam(r, "complaintID")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Assign hands a complaint to a field employee
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.ComplaintID.IsZero() || req.EmployeeID.IsZero() {
		writeError(w, errors.Validation("complaint_id and employee_id are required", nil))
		return
	}

	c, err := h.svc.Assign(r.Context(), identity, req.ComplaintID, req.EmployeeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// SubmitResolution records field evidence from the assigned employee
func (h *Handler) SubmitResolution(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req ResolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.svc.SubmitResolution(r.Context(), identity, types.ID(chi.URLParam(r, "complaintID")), service.ResolutionInput{
		Note:     req.Note,
		Image:    req.Image,
		Location: req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Approve accepts a field resolution
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(identity *auth.Identity, id types.ID) (*domain.Complaint, error) {
		return h.svc.Approve(r.Context(), identity, id)
	})
}

// Reject sends a resolution back with a remark
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req RemarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.svc.Reject(r.Context(), identity, types.ID(chi.URLParam(r, "complaintID")), req.Remark)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Complete marks a resolved complaint completed
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	// remark is optional here
	var req RemarkRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("invalid request body"))
			return
		}
	}

	c, err := h.svc.Complete(r.Context(), identity, types.ID(chi.URLParam(r, "complaintID")), req.Remark)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Close closes a resolved complaint
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(identity *auth.Identity, id types.ID) (*domain.Complaint, error) {
		return h.svc.Close(r.Context(), identity, id)
	})
}

// OverrideStatus sets any valid status directly
func (h *Handler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.svc.OverrideStatus(r.Context(), identity, types.ID(chi.URLParam(r, "complaintID")), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Delete removes a complaint inside the caller's scope
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	if err := h.svc.Delete(r.Context(), identity, types.ID(chi.URLParam(r, "complaintID"))); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, op func(*auth.Identity, types.ID) (*domain.Complaint, error)) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	c, err := op(identity, types.ID(chi.URLParam(r, "complaintID")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func parseListFilter(r *http.Request) (domain.ListFilter, error) {
	var filter domain.ListFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := domain.Status(s)
		if !domain.ValidStatus(status) {
			return filter, errors.BadRequest("unknown status: " + s)
		}
		filter.Status = &status
	}
	if c := q.Get("category_id"); c != "" {
		id, err := types.ParseID(c)
		if err != nil {
			return filter, errors.BadRequest("invalid category_id")
		}
		filter.CategoryID = &id
	}
	filter.Search = q.Get("search")

	if f := q.Get("from"); f != "" {
		t, err := time.Parse(time.RFC3339, f)
		if err != nil {
			return filter, errors.BadRequest("from must be RFC 3339")
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, errors.BadRequest("to must be RFC 3339")
		}
		filter.To = &t
	}

	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	return filter, nil
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
