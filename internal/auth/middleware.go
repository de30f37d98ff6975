package auth

import (
	"context"
	"net/http"

	"intelhub/internal/users"
)

type contextKey string

const principalContextKey contextKey = "intelhub_principal"

// Principal is the caller authenticated for the current request.
type Principal struct {
	Username string
	Role     users.Role
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}

// BasicAuthMiddleware checks HTTP Basic credentials through Service.Login on
// every request. No session or token is issued.
func BasicAuthMiddleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="intelhub"`)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			role, err := svc.Login(r.Context(), username, password)
			if err != nil {
				if Classify(err) == KindFailure {
					svc.logger.Error("basic auth", "err", err)
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="intelhub"`)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := WithPrincipal(r.Context(), &Principal{Username: username, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is the page-access gate: the authenticated role must be one of
// roles.
func RequireRole(next http.HandlerFunc, roles ...users.Role) http.HandlerFunc {
	allowed := make(map[users.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
