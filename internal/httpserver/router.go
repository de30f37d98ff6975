package httpserver

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"intelhub/internal/auth"
	"intelhub/internal/users"
)

func NewRouter(logger *slog.Logger, authSvc *auth.Service, admin *auth.Admin) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.Handle("POST /api/v1/auth/register", &RegisterHandler{Service: authSvc})
	mux.Handle("POST /api/v1/auth/login", &LoginHandler{Service: authSvc})

	// User administration, admin role only.
	if admin != nil {
		secured := auth.BasicAuthMiddleware(authSvc)
		uh := &UsersHandler{Admin: admin, Logger: logger}
		mux.Handle("GET /api/v1/users", secured(adminOnly(uh.List)))
		mux.Handle("PATCH /api/v1/users/{username}/role", secured(adminOnly(uh.UpdateRole)))
		mux.Handle("DELETE /api/v1/users/{username}", secured(adminOnly(uh.Delete)))
	}

	return withCORS(mux)
}

func adminOnly(h http.HandlerFunc) http.HandlerFunc {
	return auth.RequireRole(h, users.RoleAdmin)
}

// withCORS allows browser dashboards served from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
