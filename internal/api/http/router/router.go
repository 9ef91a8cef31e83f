package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/identity/internal/api/http/handler"
	"example.com/identity/internal/api/http/middleware"
	"example.com/identity/internal/logger"
	"example.com/identity/internal/model"
	"example.com/identity/internal/ratelimit"
	"example.com/identity/internal/service"
)

// Flood gate budget per client IP, in front of the per-operation quotas.
const (
	floodRatePerSecond = 50
	floodBurst         = 100
)

// Router wires identity endpoints, middleware and operational routes.
type Router struct {
	identityService *service.Identity
	issuer          model.CredentialIssuer
	limiter         ratelimit.Limiter
	logger          *logger.Logger
}

// New creates a new HTTP Router instance.
func New(
	identityService *service.Identity,
	issuer model.CredentialIssuer,
	limiter ratelimit.Limiter,
	logger *logger.Logger,
) *Router {
	return &Router{
		identityService: identityService,
		issuer:          issuer,
		limiter:         limiter,
		logger:          logger,
	}
}

// Register builds the route table with request logging, metrics and the
// per-client flood gate applied to every route.
func (r *Router) Register() *mux.Router {
	logging := middleware.NewLogging(r.logger)
	floodGate := middleware.NewFloodGate(floodRatePerSecond, floodBurst, r.logger)

	m := mux.NewRouter()
	m.Use(logging.Handle)
	m.Use(middleware.Metrics)
	m.Use(floodGate.Handle)

	m.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	m.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	identityHandler := handler.NewIdentity(r.identityService, r.issuer, r.limiter, r.logger)

	v1 := m.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/accounts", identityHandler.CreateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{account_id}", identityHandler.GetAccount).Methods(http.MethodGet)
	v1.HandleFunc("/token", identityHandler.IssueToken).Methods(http.MethodPost)
	v1.HandleFunc("/token/refresh", identityHandler.RefreshToken).Methods(http.MethodPost)
	v1.HandleFunc("/token/revoke", identityHandler.RevokeToken).Methods(http.MethodPost)
	v1.HandleFunc("/token/introspect", identityHandler.IntrospectToken).Methods(http.MethodPost)
	v1.HandleFunc("/audit/logs", identityHandler.ListAuditLogs).Methods(http.MethodGet)

	return m
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
