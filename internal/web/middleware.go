package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/services"
	"github.com/terra-clan/approved-premises/internal/session"
)

// failFunc writes an error response in the format the route expects
type failFunc func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// AuthMiddleware authenticates requests forwarded by the auth proxy
type AuthMiddleware struct {
	users *services.UserService
	fail  failFunc
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(users *services.UserService, fail failFunc) *AuthMiddleware {
	return &AuthMiddleware{users: users, fail: fail}
}

// Authenticate reads the access token set by the auth proxy and resolves the
// user it belongs to. The profile is cached in the session against the token.
// Supports "Authorization: Bearer <token>" and "X-Forwarded-Access-Token".
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			m.fail(w, r, http.StatusUnauthorized, "unauthenticated", "You must sign in to use this service")
			return
		}

		ctx := apiclient.ContextWithToken(r.Context(), token)
		ctx = apiclient.ContextWithRequestID(ctx, middleware.GetReqID(ctx))

		sess := session.FromContext(ctx)
		var user *models.User
		if sess != nil {
			user = sess.UserFor(token)
		}
		if user == nil {
			profile, err := m.users.Profile(ctx)
			if err != nil {
				if errors.Is(err, apiclient.ErrUnauthorized) {
					slog.Warn("invalid access token", "token_prefix", apiclient.MaskToken(token), "remote_addr", r.RemoteAddr)
					m.fail(w, r, http.StatusUnauthorized, "unauthenticated", "Your session has expired. Sign in again.")
					return
				}
				slog.Error("failed to fetch user profile", "error", err, "token_prefix", apiclient.MaskToken(token))
				m.fail(w, r, http.StatusBadGateway, "upstream_error", "The service is unavailable. Try again later.")
				return
			}
			if sess != nil {
				sess.SetUser(profile, token)
			}
			user = profile
			slog.Debug("fetched user profile", "user", user.DeliusUsername, "token_prefix", apiclient.MaskToken(token))
		}

		if !user.IsActive {
			slog.Warn("inactive user attempt", "user", user.DeliusUsername)
			m.fail(w, r, http.StatusForbidden, "user_inactive", "Your account has been deactivated")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(ctx, user)))
	})
}

// RequirePermission returns middleware that checks for specific permission
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				m.fail(w, r, http.StatusUnauthorized, "unauthenticated", "You must sign in to use this service")
				return
			}

			if !user.HasPermission(permission) {
				slog.Warn("permission denied",
					"user", user.DeliusUsername,
					"required", permission,
					"has", user.Permissions,
				)
				m.fail(w, r, http.StatusForbidden, "permission_denied", "You do not have permission to do this")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the access token from request headers
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get("X-Forwarded-Access-Token"))
}
