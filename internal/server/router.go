package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/chain"
	"chain-calculator/internal/config"
	"chain-calculator/internal/db"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/metrics"
	"chain-calculator/internal/posts"
	"chain-calculator/internal/respond"
)

const RequestIDHeader = "X-Request-ID"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewRouter assembles the REST API on top of store using config.AppConfig.
func NewRouter(store db.Store) http.Handler {
	cfg := config.AppConfig

	r := mux.NewRouter()
	r.Use(requestLogger, metrics.Middleware)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r
	if cfg.APIPrefix != "" {
		api = r.PathPrefix(cfg.APIPrefix).Subrouter()
	}

	authHandlers := auth.NewHandlers(store)
	postHandlers := posts.NewHandler(chain.NewEngine(store))
	requireUser := auth.NewMiddleware(store)

	api.HandleFunc("/", handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/signup", authHandlers.Signup).Methods(http.MethodPost)
	api.HandleFunc("/login", authHandlers.Login).Methods(http.MethodPost)

	api.HandleFunc("/post", postHandlers.HandleListNodes).Methods(http.MethodGet)
	api.Handle("/post", requireUser(http.HandlerFunc(postHandlers.HandleCreateRoot))).Methods(http.MethodPost)
	api.Handle("/post/reply", requireUser(http.HandlerFunc(postHandlers.HandleReply))).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(cors(r))
}

// recoveryLogger routes recovered panics into the zerolog output.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	logger.Log.Error().Msg(fmt.Sprint(v...))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Message: "Server connected"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		rec := metrics.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		event := logger.Log.Info()
		if rec.Status >= http.StatusInternalServerError {
			event = logger.Log.Error()
		}
		event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("route", metrics.RouteName(r)).
			Int("status", rec.Status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
