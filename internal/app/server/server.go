package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal/scoring"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/audit"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/diagnostics"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/notify"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/cache"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/config"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/crypto"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/db"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/events"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/logger"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/metrics"
	appraisalhandler "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/handlers/appraisal"
	audithandler "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/handlers/audit"
	diagnosticshandler "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/handlers/diagnostics"
	noticeshandler "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/handlers/notices"
	orghandler "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/handlers/org"
	policyhandler "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/handlers/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
)

const serviceName = "appraisal-workflow"

type App struct {
	Config  config.Config
	Log     zerolog.Logger
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
	Router  http.Handler

	closers []func()
}

// Services is what the router serves. New builds it over Postgres; tests
// build it over the in-memory stores.
type Services struct {
	Directory   org.Directory
	Policies    policy.StoreAPI
	Chains      *approval.Service
	Appraisals  *appraisal.Service
	Diagnostics *diagnostics.Service
	Notices     *notify.Dispatcher
	Audit       *audit.Recorder
	Counter     cache.Counter
	Ready       func(ctx context.Context) error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: serviceName,
	})
	app := &App{Config: cfg, Log: log}
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app.DB = pool
	app.closers = append(app.closers, pool.Close)

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, db.Migrations(), log); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, log); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, err
	}
	if !sealer.Configured() {
		log.Warn().Msg("DATA_ENCRYPTION_KEY not set, appraisal answers are stored unsealed")
	}

	policyCache, counter, err := app.connectCache(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	transitions, notices, err := app.connectEvents()
	if err != nil {
		app.Close()
		return nil, err
	}

	directory := org.NewStore(pool)
	policies := policy.NewCachedSource(policy.NewStore(pool), policyCache, cfg.PolicyCacheTTL, log, app.Metrics)
	chains := approval.NewService(directory, policies, log, app.Metrics)

	dispatcher := notify.NewDispatcher(directory, notify.NewStore(pool), notices, log, app.Metrics)
	bus := events.NewBus[appraisal.Transition]()
	recorder := audit.NewRecorder(audit.NewStore(pool), log)
	bus.Subscribe(recorder.Handle)
	bus.Subscribe(dispatcher.Handle)
	var publisher appraisal.Publisher = bus
	if transitions != nil {
		publisher = events.Fanout[appraisal.Transition]{bus, transitions}
	}

	appraisals := appraisal.NewService(
		appraisal.NewStore(pool, sealer),
		chains,
		scoring.Percent{},
		publisher,
		log,
		appraisal.WithRetryLimit(cfg.WriteRetryLimit),
		appraisal.WithMetrics(app.Metrics),
	)

	app.Router = NewRouter(cfg, log, app.Metrics, Services{
		Directory:   directory,
		Policies:    policies,
		Chains:      chains,
		Appraisals:  appraisals,
		Diagnostics: diagnostics.NewService(directory, log),
		Notices:     dispatcher,
		Audit:       recorder,
		Counter:     counter,
		Ready:       pool.Ping,
	})
	return app, nil
}

// connectCache picks Redis when REDIS_ADDR is set and in-process
// structures otherwise. The rate limit counter follows the same choice.
func (a *App) connectCache(ctx context.Context) (cache.Cache, cache.Counter, error) {
	if a.Config.RedisAddr == "" {
		a.Log.Info().Msg("redis not configured, using in-process policy cache")
		return cache.NewMemory(), cache.NewMemoryCounter(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	c := cache.NewRedis(client, serviceName+":")
	return c, c, nil
}

// connectEvents returns NATS publishers for transitions and notices, or
// nils when NATS_URL is unset.
func (a *App) connectEvents() (*events.NATSPublisher[appraisal.Transition], events.Publisher[notify.Notice], error) {
	if a.Config.NATSURL == "" {
		a.Log.Info().Msg("nats not configured, transition events stay in process")
		return nil, nil, nil
	}
	conn, err := events.Connect(a.Config.NATSURL, serviceName, a.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	a.closers = append(a.closers, conn.Close)
	prefix := a.Config.NATSSubjectPrefix
	return events.NewNATSPublisher(conn, appraisal.Subject(prefix)),
		events.NewNATSPublisher(conn, notify.Subject(prefix)),
		nil
}

func NewRouter(cfg config.Config, log zerolog.Logger, m *metrics.Collector, svc Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log, m))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, log))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := svc.Ready(ctx); err != nil {
				log.Warn().Err(err).Msg("readiness check failed")
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if m != nil {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerMin > 0 && svc.Counter != nil {
			r.Use(middleware.MutationRateLimit(cfg.RateLimitPerMin, time.Minute, svc.Counter, log))
		}

		appraisalhandler.NewHandler(svc.Appraisals, svc.Directory, log).RegisterRoutes(r)
		orghandler.NewHandler(svc.Chains, svc.Directory, log).RegisterRoutes(r)
		policyhandler.NewHandler(svc.Policies, log).RegisterRoutes(r)
		diagnosticshandler.NewHandler(svc.Diagnostics, log).RegisterRoutes(r)
		noticeshandler.NewHandler(svc.Notices, log).RegisterRoutes(r)
		audithandler.NewHandler(svc.Audit, log).RegisterRoutes(r)
	})

	return router
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Serve listens on Config.Addr until ctx is cancelled, then drains
// in-flight requests for at most ShutdownTimeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info().Str("addr", a.Config.Addr).Msg("appraisal server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := a.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.Log.Info().Dur("timeout", timeout).Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
