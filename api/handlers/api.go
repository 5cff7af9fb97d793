package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/api"
	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/config"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/logging"
	"github.com/linesmerrill/uptime-api/models"
	"github.com/linesmerrill/uptime-api/resources"
)

// maxTraces is how many recent request traces the metrics endpoint keeps
const maxTraces = 1000

// App stores the router and the shared services, so they can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Store    databases.DocumentStore
	Manager  *resources.Manager
	Metrics  *api.MetricsCollector
	Limiter  *api.RateLimiter
	LogFiles *logging.Files
	Redis    *redis.Client

	closers []func()
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = api.Serve(api.HandlerFunc(notFound))

	u := User{Users: a.Manager.Users}
	t := Token{Tokens: a.Manager.Tokens}
	c := Check{Checks: a.Manager.Checks}
	m := MetricsHandler{Metrics: a.Metrics}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/ping", api.Serve(api.HandlerFunc(ping)))

	apiCreate := r.PathPrefix("/api").Subrouter()
	apiCreate.Handle("/users", api.Serve(u))
	apiCreate.Handle("/tokens", a.Limiter.Middleware(api.Serve(t)))
	apiCreate.Handle("/checks/all", api.Serve(api.HandlerFunc(c.List)))
	apiCreate.Handle("/checks", api.Serve(c))
	apiCreate.Handle("/metrics", api.Serve(m))

	r.Use(api.Recover, api.MetricsMiddleware(a.Metrics), api.TimeoutMiddleware(a.Config.RequestTimeout))
	return r
}

// Initialize is invoked by main to open the data store, wire the resources and create a router
func (a *App) Initialize() error {
	if a.Config.LogDir != "" {
		files, err := logging.NewFiles(a.Config.LogDir)
		if err != nil {
			zap.S().With(err).Error("failed to open log directory")
			return err
		}
		closeLog, err := logging.Attach(files, a.Config.LogName)
		if err != nil {
			zap.S().With(err).Error("failed to open log file")
			return err
		}
		a.LogFiles = files
		a.closers = append(a.closers, closeLog)
	}

	store, err := databases.NewStore(&a.Config)
	if err != nil {
		// if we cannot use the data directory, then kill the pod
		zap.S().With(err).Error("failed to open data store")
		return err
	}
	a.Store = api.TraceStore(store)
	zap.S().Infow("uptime-api has opened the data store", "dir", a.Config.DataDir)

	authority := auth.NewAuthority(
		databases.NewTokenDatabase(a.Store),
		a.Config.HashingSecret,
		auth.WithLifetime(a.Config.TokenLifetime),
	)
	a.Manager = resources.NewManager(
		databases.NewUserDatabase(a.Store),
		databases.NewCheckDatabase(a.Store),
		authority,
		a.Config.MaxChecks,
	)
	a.Metrics = api.NewMetricsCollector(maxTraces)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := api.NewRedisClient(ctx, a.Config.RedisAddr)
	switch {
	case err != nil:
		// the limiter is an optional guard, serve without it
		zap.S().Warnw("failed to connect to redis, login rate limiting is off", "addr", a.Config.RedisAddr, "error", err)
	case client != nil:
		a.Redis = client
		a.Limiter = api.NewRateLimiter(client, a.Config.RateLimit, a.Config.RateWindow)
		a.closers = append(a.closers, func() { _ = client.Close() })
		zap.S().Infow("login rate limiting is on", "limit", a.Config.RateLimit, "window", a.Config.RateWindow)
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close releases the redis connection and the log file, in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

func ping(ctx context.Context, req models.Request) models.Response {
	return api.OK(nil)
}

func notFound(ctx context.Context, req models.Request) models.Response {
	return models.Response{
		Status:      http.StatusNotFound,
		Body:        models.ErrorMessageResponse{Error: "not found"},
		ContentType: models.ContentTypeJSON,
	}
}
