// Package app wires the ltigate runtime: config, logging, persistence, and
// the launch HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ltigate/cmd/identity"
	"ltigate/cmd/internal/consumer"
	"ltigate/cmd/internal/launch"
	"ltigate/cmd/internal/nonce"
	"ltigate/cmd/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the ltigate runtime: it owns the HTTP server and the store
// lifecycle.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	launch   *launch.Handler
	admin    *launch.AdminHandler
	registry *prometheus.Registry
}

// Option configures optional App dependencies.
type Option func(*options)

type options struct {
	hook launch.Hook
}

// WithPostCreationHook installs the hook invoked after a launch user is
// first provisioned.
func WithPostCreationHook(hook launch.Hook) Option {
	return func(o *options) { o.hook = hook }
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	launchCfg, err := launch.LoadConfig(cfg.LaunchConfigPath)
	if err != nil {
		return nil, err
	}

	stores, dbPool, dbEnabled, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	resolver, err := launch.NewResolver(launchCfg.Views, launchCfg.Rules, launchCfg.DefaultView, log)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := launch.NewMetrics(registry)

	policy := launch.NewPolicy(stores.consumers, nonce.NewGuard(stores.nonces, log), log)
	auth := launch.NewAuthenticator(stores.users, o.hook, log)
	sessions := session.NewService(stores.sessions, cfg.SessionTTL)

	handler := launch.NewHandler(log, launchCfg, launch.HandlerConfig{
		TrustProxy:    cfg.TrustProxy,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		SecureCookies: cfg.SecureCookies,
	}, policy, auth, resolver, sessions, metrics)

	var admin *launch.AdminHandler
	if cfg.AdminToken != "" {
		admin = launch.NewAdminHandler(log, cfg.AdminToken, stores.consumers, stores.users, metrics)
	} else {
		log.Warn("admin.disabled.no_token")
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		launch:    handler,
		admin:     admin,
		registry:  registry,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.launch, a.admin, a.registry)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithSecurityHeaders(WithRequestLogging(mux, a.log)),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// stores groups the persistence boundaries the launch flow needs.
type stores struct {
	users     identity.Store
	consumers consumer.Store
	nonces    nonce.Store
	sessions  session.Store
}

// newStores decides between Postgres-backed persistence and the in-memory
// dev stores.
func newStores(ctx context.Context, cfg Config, log Logger) (stores, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		nonces := nonce.NewMemoryStore()
		return stores{
			users:     identity.NewMemoryStore(),
			consumers: memoryConsumerStore{MemoryStore: consumer.NewMemoryStore(), nonces: nonces},
			nonces:    nonces,
			sessions:  session.NewMemoryStore(),
		}, nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return stores{}, nil, false, err
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, nil, false, err
	}
	consumers, err := consumer.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, nil, false, err
	}
	nonces, err := nonce.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, nil, false, err
	}
	sessions, err := session.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, nil, false, err
	}

	log.Info("db.enabled.postgres_store")
	return stores{
		users:     users,
		consumers: consumers,
		nonces:    nonces,
		sessions:  sessions,
	}, pool, true, nil
}

// memoryConsumerStore keeps the in-memory replay store's known-consumer set
// in step with registrations. The Postgres stores get this for free from
// the foreign key.
type memoryConsumerStore struct {
	*consumer.MemoryStore
	nonces *nonce.MemoryStore
}

func (s memoryConsumerStore) Create(ctx context.Context, in consumer.CreateInput) (consumer.Consumer, error) {
	c, err := s.MemoryStore.Create(ctx, in)
	if err == nil {
		s.nonces.AddConsumer(c.Key)
	}
	return c, err
}
