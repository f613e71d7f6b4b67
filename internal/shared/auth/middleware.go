package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
)

// Identity represents the authenticated caller from JWT claims.
// Jurisdiction fields are nil when the role does not carry them.
type Identity struct {
	UserID            types.ID  `json:"sub"`
	Username          string    `json:"username"`
	RoleID            types.ID  `json:"role_id"`
	RoleName          string    `json:"role"`
	ZilaID            *types.ID `json:"zila_id,omitempty"`
	TehsilID          *types.ID `json:"tehsil_id,omitempty"`
	MCID              *types.ID `json:"mc_id,omitempty"`
	DistrictCouncilID *types.ID `json:"district_council_id,omitempty"`
}

// Claims extends JWT claims with platform-specific data
type Claims struct {
	jwt.RegisteredClaims
	Username          string `json:"username"`
	RoleID            string `json:"role_id"`
	RoleName          string `json:"role"`
	ZilaID            string `json:"zila_id,omitempty"`
	TehsilID          string `json:"tehsil_id,omitempty"`
	MCID              string `json:"mc_id,omitempty"`
	DistrictCouncilID string `json:"district_council_id,omitempty"`
}

// SignToken issues a signed access token for the identity
func SignToken(cfg config.AuthConfig, identity *Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
		Username: identity.Username,
		RoleID:   identity.RoleID.String(),
		RoleName: identity.RoleName,
	}
	if identity.ZilaID != nil {
		claims.ZilaID = identity.ZilaID.String()
	}
	if identity.TehsilID != nil {
		claims.TehsilID = identity.TehsilID.String()
	}
	if identity.MCID != nil {
		claims.MCID = identity.MCID.String()
	}
	if identity.DistrictCouncilID != nil {
		claims.DistrictCouncilID = identity.DistrictCouncilID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// Middleware creates JWT authentication middleware
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := parts[1]

			token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			identity := &Identity{
				UserID:            types.ID(claims.Subject),
				Username:          claims.Username,
				RoleID:            types.ID(claims.RoleID),
				RoleName:          claims.RoleName,
				ZilaID:            optionalID(claims.ZilaID),
				TehsilID:          optionalID(claims.TehsilID),
				MCID:              optionalID(claims.MCID),
				DistrictCouncilID: optionalID(claims.DistrictCouncilID),
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the caller identity from request context
func GetIdentity(ctx context.Context) *Identity {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// WithIdentity returns a context carrying the identity. Used by tests.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// RequireRoles creates middleware that requires one of the given role names
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !hasAnyRole(identity.RoleName, roles) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasRole checks if the caller holds a specific role
func (i *Identity) HasRole(role string) bool {
	return i.RoleName == role
}

func hasAnyRole(role string, requiredRoles []string) bool {
	for _, required := range requiredRoles {
		if role == required {
			return true
		}
	}
	return false
}

func optionalID(s string) *types.ID {
	if s == "" {
		return nil
	}
	id := types.ID(s)
	return &id
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
