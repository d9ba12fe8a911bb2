package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-kasir/internal/app"
	"github.com/noah-isme/toko-kasir/internal/audit"
	"github.com/noah-isme/toko-kasir/internal/auth"
	"github.com/noah-isme/toko-kasir/internal/billing"
	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/config"
	"github.com/noah-isme/toko-kasir/internal/events"
	"github.com/noah-isme/toko-kasir/internal/health"
	"github.com/noah-isme/toko-kasir/internal/ledger"
	"github.com/noah-isme/toko-kasir/internal/lock"
	"github.com/noah-isme/toko-kasir/internal/notify"
	"github.com/noah-isme/toko-kasir/internal/obs"
	"github.com/noah-isme/toko-kasir/internal/purchase"
	"github.com/noah-isme/toko-kasir/internal/ratelimit"
	"github.com/noah-isme/toko-kasir/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "kasir")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "toko-kasir-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	infra, err := app.Open(startCtx, cfg, app.Options{ApplicationName: "toko-kasir-api", RedisMetrics: metricsEnabled})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open infrastructure")
	}
	defer infra.Close()
	if infra.Redis == nil {
		logger.Warn().Msg("REDIS_URL not set: catalog cache, idempotency and shared rate limits are off")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries: infra.Store,
		Cache:   catalog.NewCache(infra.Redis, cfg.CatalogCacheTTL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	if err := app.Bootstrap(startCtx, cfg, infra.Store, catalogService, logger); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap store")
	}

	notifiers := []events.Notifier{notify.LogNotifier{Logger: logger.With().Str("component", "events").Logger()}}
	if cfg.ReceiptEmailEnabled {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url for receipt jobs")
		}
		taskClient := asynq.NewClient(redisOpt)
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
		notifiers = append(notifiers, notify.ReceiptEnqueuer{Client: taskClient, Enabled: true})
	}
	bus := &events.Bus{Store: infra.Store, Notifiers: notifiers}

	billingConfig := billing.ServiceConfig{
		Store:             infra.Store,
		Catalog:           catalogService,
		Events:            bus,
		LowCountThreshold: cfg.Till.LowCountThreshold,
		OnError: func(err error) {
			logger.Error().Err(err).Msg("post-commit")
		},
	}
	if cfg.Till.LockEnabled {
		billingConfig.Lock = lock.Locker{R: infra.Redis, RetryBackoff: 25 * time.Millisecond, AcquireTimeout: cfg.Till.LockTTL}
		billingConfig.LockTTL = cfg.Till.LockTTL
	}
	billingService, err := billing.NewService(billingConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise billing service")
	}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})
	billingHandler := &billing.Handler{Service: billingService}
	purchaseHandler := &purchase.Handler{Store: &purchase.Store{Q: infra.Store}}
	tillHandler := &ledger.Handler{Drawer: &ledger.Drawer{Q: infra.Store}}

	var authHandler *auth.Handler
	var operatorOnly func(http.Handler) http.Handler
	if cfg.OperatorPasswordHash != "" {
		authService, err := auth.NewService(auth.Config{
			Username:       cfg.OperatorUsername,
			PasswordHash:   cfg.OperatorPasswordHash,
			Secret:         cfg.JWTSecret,
			AccessTokenTTL: cfg.AccessTokenTTL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise auth service")
		}
		authHandler = &auth.Handler{Service: authService}
		operatorOnly = auth.Middleware{Tokens: authService}.RequireOperator
	} else {
		logger.Warn().Msg("OPERATOR_PASSWORD_HASH not set: login and catalog management are disabled")
	}

	billLimiter, err := ratelimit.NewUlule(cfg.RateLimitBills, infra.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise bill rate limiter")
	}
	billLimit := ratelimit.Handler{
		Limiter: billLimiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("bills")},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	idem := common.Idem{R: infra.Redis, TTL: cfg.IdempotencyTTL}
	auditRec := audit.HTTPRecorder{
		Events: bus,
		OnError: func(err error) {
			logger.Error().Err(err).Msg("record catalog change")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.Tracing)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{
		NoStore:    true,
		HSTSMaxAge: time.Duration(envInt("SECURE_HSTS_MAX_AGE_SECONDS", 0)) * time.Second,
	}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      infra,
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: int64(envInt("SECURE_MAX_BODY_BYTES", int(security.DefaultMaxBody)))}.Middleware)

		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{sku}", catalogHandler.Product)
		v.Get("/till/denominations", tillHandler.Denominations)

		v.Route("/bills", func(b chi.Router) {
			b.Use(billLimit.Middleware)
			b.Post("/quote", billingHandler.Quote)
			b.With(idem.Middleware).Post("/", billingHandler.Commit)
		})

		v.Get("/purchases/{id}", purchaseHandler.Get)
		v.Get("/purchases/{id}/items", purchaseHandler.Items)
		v.Get("/customers/{customerId}/purchases", purchaseHandler.ListByCustomer)

		if authHandler != nil {
			v.Post("/auth/login", authHandler.Login)
			v.Route("/admin/products", func(admin chi.Router) {
				admin.Use(operatorOnly)
				admin.With(auditRec.Middleware(audit.HTTPConfig{Action: audit.ActionProductCreate})).Post("/", catalogHandler.Create)
				admin.With(auditRec.Middleware(audit.HTTPConfig{Action: audit.ActionProductUpdate, SKUParam: "sku"})).Put("/{sku}", catalogHandler.Update)
				admin.With(auditRec.Middleware(audit.HTTPConfig{Action: audit.ActionProductDelete, SKUParam: "sku"})).Delete("/{sku}", catalogHandler.Delete)
			})
		}
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("driver", cfg.StoreDriver).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		drain(srv, logger, envDurationMillis("SHUTDOWN_TIMEOUT_MS", 15000))
	}
}

// drain flips readiness off so load balancers stop routing, then lets
// in-flight bills finish.
func drain(srv *http.Server, logger zerolog.Logger, timeout time.Duration) {
	health.SetReady(false)
	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
		return
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
