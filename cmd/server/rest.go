package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"nebulachat/config"
	"nebulachat/internal/api"
	"nebulachat/internal/auth"
	"nebulachat/internal/chat"
	"nebulachat/internal/presence"
	"nebulachat/internal/room"
	"nebulachat/internal/sessions"
	"nebulachat/internal/stream"
	"nebulachat/internal/user"
)

// App holds everything the HTTP and gRPC servers are built from.
type App struct {
	Sessions *sessions.Manager
	Auth     *auth.JSONHandler
	Users    *user.JSONHandler
	Rooms    *room.JSONHandler
	Chat     *chat.JSONHandler
	Presence *presence.JSONHandler
	Stream   *stream.Gateway
	Janitor  *presence.Janitor
}

func newRouter(cfg *config.Config, app *App, healthServer *health.Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(api.Recover, api.Logger, api.NewRateLimiter(cfg.RateLimitRPS).Middleware)

	r.HandleFunc("/health", healthHandler(healthServer)).Methods(http.MethodGet)

	private := r.NewRoute().Subrouter()
	private.Use(api.Authenticate(app.Sessions))

	auth.SetupJSONAuthRoutes(r, private, app.Auth)
	user.SetupJSONRoutes(private, app.Users)
	room.SetupJSONRoutes(private, app.Rooms)
	chat.SetupJSONRoutes(private, app.Chat)
	presence.SetupJSONRoutes(private, app.Presence)
	stream.SetupRoutes(private, app.Stream)

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

// healthHandler reports the same status the gRPC health service does.
func healthHandler(healthServer *health.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := healthServer.Check(r.Context(), &grpc_health_v1.HealthCheckRequest{})
		if err != nil || resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			api.WriteData(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		api.WriteData(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
