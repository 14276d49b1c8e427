package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jvidmar/kljucar/internal/custody"
	"github.com/jvidmar/kljucar/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(service *custody.Service, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	resources := &ResourcesHandler{Service: service}
	transfers := &TransfersHandler{Service: service}
	actors := &ActorsHandler{Service: service}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)

	// 30 mutations per minute per IP, burst 10.
	limiter := newIPRateLimiter(rate.Limit(30.0/60.0), 10)
	limited := func(h http.HandlerFunc) http.Handler {
		return authMW(limiter.Middleware(h))
	}
	limitedAdmin := func(h http.HandlerFunc) http.Handler {
		return authMW(requireAdmin(limiter.Middleware(h)))
	}

	// Resources: reads (any authenticated actor), registry writes (admin).
	mux.Handle("GET /api/resources", authMW(http.HandlerFunc(resources.List)))
	mux.Handle("POST /api/resources", limitedAdmin(resources.Create))
	mux.Handle("GET /api/resources/{id}", authMW(http.HandlerFunc(resources.Get)))
	mux.Handle("DELETE /api/resources/{id}", limitedAdmin(resources.Delete))
	mux.Handle("POST /api/resources/{id}/assign", limited(resources.Assign))
	mux.Handle("POST /api/resources/{id}/unassign", limited(resources.Unassign))
	mux.Handle("PUT /api/resources/{id}/photo", limitedAdmin(resources.UploadPhoto))
	mux.Handle("GET /api/resources/{id}/photo", authMW(http.HandlerFunc(resources.GetPhoto)))
	mux.Handle("GET /api/resources/{id}/history", authMW(http.HandlerFunc(resources.History)))
	mux.Handle("GET /api/resources/{id}/verify", authMW(http.HandlerFunc(resources.Verify)))

	// Actors.
	mux.Handle("GET /api/actors/{id}/history", authMW(http.HandlerFunc(actors.History)))
	mux.Handle("GET /api/actors/{id}/resources", authMW(http.HandlerFunc(actors.Resources)))

	// Transfer requests.
	mux.Handle("POST /api/transfers", limited(transfers.Create))
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfers.List)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfers.Get)))
	mux.Handle("POST /api/transfers/{id}/approve", limited(transfers.Approve))
	mux.Handle("POST /api/transfers/{id}/reject", limited(transfers.Reject))
	mux.Handle("POST /api/transfers/{id}/cancel", limited(transfers.Cancel))

	// Operational endpoints, unauthenticated.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return MetricsMiddleware(mux)
}
