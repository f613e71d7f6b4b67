package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lodhran-gov/complaints/internal/jurisdiction"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// RoleResolver resolves role names and IDs through the registry
type RoleResolver interface {
	RoleID(ctx context.Context, name string) (types.ID, error)
	RoleName(ctx context.Context, id types.ID) (string, error)
}

// Recorder appends entries to the activity log
type Recorder interface {
	Record(ctx context.Context, action string, performedBy types.ID, targetID types.ID, targetType string, meta map[string]any)
}

// Handler provides HTTP handlers for accounts and authentication
type Handler struct {
	repo     *Repository
	roles    RoleResolver
	policies *jurisdiction.Policies
	cfg      config.AuthConfig
	recorder Recorder
}

// NewHandler creates a new user handler
func NewHandler(repo *Repository, roles RoleResolver, policies *jurisdiction.Policies, cfg config.AuthConfig, recorder Recorder) *Handler {
	return &Handler{repo: repo, roles: roles, policies: policies, cfg: cfg, recorder: recorder}
}

// AuthRoutes registers the unauthenticated routes
func (h *Handler) AuthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	return r
}

// Routes registers the authenticated account routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListManaged)
	r.Post("/", h.Create)
	r.Get("/me", h.Me)

	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})

	return r
}

// Login authenticates credentials and issues a token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	u, err := h.repo.GetByUsername(r.Context(), req.Username)
	if err != nil || !u.Active {
		writeError(w, errors.Unauthorized("invalid credentials"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, errors.Unauthorized("invalid credentials"))
		return
	}

	identity := identityFor(u)
	token, err := auth.SignToken(h.cfg, identity)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

// Register creates a citizen account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := validateCredentials(req.Username, req.Password, req.FullName); details != nil {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	roleID, err := h.roles.RoleID(r.Context(), role.Citizen)
	if err != nil {
		writeError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cfg.BcryptCost)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	u := &User{
		ID:           types.NewID(),
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		RoleID:       roleID,
		RoleName:     role.Citizen,
		Active:       true,
	}

	if err := h.repo.Create(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// Me returns the caller's own account
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetIdentity(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	u, err := h.repo.Get(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListManaged lists the accounts the caller's role manages
func (h *Handler) ListManaged(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetIdentity(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	policy, ok := h.policies.For(caller.RoleName)
	if !ok {
		writeError(w, errors.PermissionDenied("unknown role"))
		return
	}

	filter, err := managedFilter(r.Context(), policy, caller, h.roles)
	if err != nil {
		writeError(w, err)
		return
	}

	filter.Search = r.URL.Query().Get("search")

	users, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  users,
		"total": total,
	})
}

// Get gets an account the caller may see
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetIdentity(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if caller.UserID != u.ID {
		if err := h.requireManages(r.Context(), caller, u); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, u)
}

// Create creates a subordinate account
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetIdentity(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	policy, ok := h.policies.For(caller.RoleName)
	if !ok {
		writeError(w, errors.PermissionDenied("unknown role"))
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := validateCredentials(req.Username, req.Password, req.FullName); details != nil {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	if !containsRole(policy.ManagedRoles(), req.Role) {
		writeError(w, errors.PermissionDenied("cannot create accounts with this role"))
		return
	}

	roleID, err := h.roles.RoleID(r.Context(), req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	targetPolicy, ok := h.policies.For(req.Role)
	if !ok {
		writeError(w, errors.BadRequest("role has no jurisdiction policy"))
		return
	}

	u := &User{
		ID:                types.NewID(),
		Username:          strings.TrimSpace(req.Username),
		Email:             req.Email,
		FullName:          strings.TrimSpace(req.FullName),
		Phone:             req.Phone,
		RoleID:            roleID,
		RoleName:          req.Role,
		ZilaID:            req.ZilaID,
		TehsilID:          req.TehsilID,
		MCID:              req.MCID,
		DistrictCouncilID: req.DistrictCouncilID,
		Active:            true,
	}

	// New accounts inherit the creator's jurisdiction when the request
	// leaves it out.
	if u.ZilaID == nil {
		u.ZilaID = caller.ZilaID
	}
	if u.TehsilID == nil {
		u.TehsilID = caller.TehsilID
	}

	switch targetPolicy.RequiredAttribute() {
	case "zila":
		if u.ZilaID == nil {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"zila_id": "zila_id is required for this role",
			}))
			return
		}
	case "tehsil":
		if u.TehsilID == nil {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"tehsil_id": "tehsil_id is required for this role",
			}))
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cfg.BcryptCost)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}
	u.PasswordHash = string(hash)

	if err := h.repo.Create(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.Record(r.Context(), "user.created", caller.UserID, u.ID, "user", map[string]any{
			"role": u.RoleName,
		})
	}

	writeJSON(w, http.StatusCreated, u)
}

// Update updates an account. Callers update themselves; managers update
// subordinates.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetIdentity(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if caller.UserID != u.ID {
		if err := h.requireManages(r.Context(), caller, u); err != nil {
			writeError(w, err)
			return
		}
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"password": "password must be at least 8 characters",
			}))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), h.cfg.BcryptCost)
		if err != nil {
			writeError(w, errors.Internal(err))
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := h.repo.Update(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// Delete deactivates a subordinate account
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetIdentity(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.requireManages(r.Context(), caller, u); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.Record(r.Context(), "user.deactivated", caller.UserID, u.ID, "user", nil)
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireManages fails unless the caller's role manages the target's role
func (h *Handler) requireManages(ctx context.Context, caller *auth.Identity, target *User) error {
	policy, ok := h.policies.For(caller.RoleName)
	if !ok {
		return errors.PermissionDenied("unknown role")
	}

	targetRole := target.RoleName
	if targetRole == "" {
		name, err := h.roles.RoleName(ctx, target.RoleID)
		if err != nil {
			return err
		}
		targetRole = name
	}

	if !containsRole(policy.ManagedRoles(), targetRole) {
		return errors.PermissionDenied("account is outside your authority")
	}
	return nil
}

// managedFilter builds the listing filter for a manager's subordinates
func managedFilter(ctx context.Context, policy jurisdiction.Policy, caller *auth.Identity, roles RoleResolver) (ListFilter, error) {
	managed := policy.ManagedRoles()
	if len(managed) == 0 {
		return ListFilter{}, errors.PermissionDenied("role does not manage users")
	}

	var roleIDs []types.ID
	for _, name := range managed {
		id, err := roles.RoleID(ctx, name)
		if err != nil {
			return ListFilter{}, err
		}
		roleIDs = append(roleIDs, id)
	}

	filter := ListFilter{
		RoleIDs:       roleIDs,
		ExcludeUserID: &caller.UserID,
		ActiveOnly:    true,
	}

	switch policy.RequiredAttribute() {
	case "zila":
		if caller.ZilaID == nil {
			return ListFilter{}, errors.JurisdictionNotAssigned("zila")
		}
		filter.ZilaID = caller.ZilaID
	case "tehsil":
		if caller.TehsilID == nil {
			return ListFilter{}, errors.JurisdictionNotAssigned("tehsil")
		}
		filter.TehsilID = caller.TehsilID
	}

	return filter, nil
}

func identityFor(u *User) *auth.Identity {
	return &auth.Identity{
		UserID:            u.ID,
		Username:          u.Username,
		RoleID:            u.RoleID,
		RoleName:          u.RoleName,
		ZilaID:            u.ZilaID,
		TehsilID:          u.TehsilID,
		MCID:              u.MCID,
		DistrictCouncilID: u.DistrictCouncilID,
	}
}

func validateCredentials(username, password, fullName string) map[string]string {
	details := make(map[string]string)
	if strings.TrimSpace(username) == "" {
		details["username"] = "username is required"
	}
	if len(password) < 8 {
		details["password"] = "password must be at least 8 characters"
	}
	if strings.TrimSpace(fullName) == "" {
		details["full_name"] = "full_name is required"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

func containsRole(roles []string, name string) bool {
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
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
