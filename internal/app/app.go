// Package app wires the sync agent from settings and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/custodia-labs/sessync/internal/adapters/driven/backend/httpclient"
	"github.com/custodia-labs/sessync/internal/adapters/driven/clock"
	"github.com/custodia-labs/sessync/internal/adapters/driven/cookiefile"
	"github.com/custodia-labs/sessync/internal/adapters/driven/devtools"
	"github.com/custodia-labs/sessync/internal/adapters/driven/indicator"
	"github.com/custodia-labs/sessync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sessync/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sessync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sessync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
	"github.com/custodia-labs/sessync/internal/core/services"
	"github.com/custodia-labs/sessync/internal/logger"
	"github.com/custodia-labs/sessync/internal/metrics"
)

// App holds the wired agent and the resources it owns.
type App struct {
	settings domain.Settings
	version  string

	registry  *prometheus.Registry
	agent     *services.Agent
	scheduler *services.SyncScheduler
	reporter  *services.StatusReporter

	// cookies is set when credentials are read from a cookie file.
	cookies *cookiefile.Source
	// jar and surfaces are set when the host pushes state over the API.
	jar      *memory.CredentialJar
	surfaces *memory.SurfaceRegistry

	closers []io.Closer
}

// Options overrides adapters, mainly for tests.
type Options struct {
	Version string

	// Clock defaults to the system clock.
	Clock driven.Clock

	// Backend and Prober default to the HTTP client built from settings.
	Backend driven.Backend
	Prober  driven.SessionProber

	// Registry defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// New builds the application from settings.
func New(settings domain.Settings, opts Options) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	a := &App{settings: settings, version: opts.Version}

	a.registry = opts.Registry
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(a.registry)

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	kv, history, err := a.openStorage()
	if err != nil {
		return nil, err
	}

	backend, prober := opts.Backend, opts.Prober
	if backend == nil || prober == nil {
		client, err := httpclient.New(httpclient.Config{
			BaseURL:           settings.Backend.URL,
			Version:           opts.Version,
			Token:             settings.Backend.Token,
			RequestsPerSecond: settings.Backend.RequestsPerSecond,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating backend client: %w", err)
		}
		if backend == nil {
			backend = client
		}
		if prober == nil {
			prober = client
		}
	}

	source := a.credentialSource()
	liveness := a.livenessSource()
	cfg := settings.SyncConfig()

	gate := services.NewLivenessGate(liveness, cfg.CompanionHost)
	collector := services.NewCredentialCollector(source, clk)
	outcomes := services.NewOutcomeRecorder(kv, history)
	a.reporter = services.NewStatusReporter(gate, backend, clk, cfg, opts.Version, m)
	presence := services.NewPresenceIndicator(gate, indicator.NewLog(), clk, cfg, m)

	a.scheduler = services.NewSyncScheduler(cfg, services.SchedulerDeps{
		Clock:     clk,
		Gate:      gate,
		Collector: collector,
		Reporter:  a.reporter,
		Backend:   backend,
		Outcomes:  outcomes,
		Metrics:   m,
		Version:   opts.Version,
	})

	a.agent = services.NewAgent(cfg, services.AgentDeps{
		Clock:     clk,
		Source:    source,
		Scheduler: a.scheduler,
		Collector: collector,
		Presence:  presence,
		Probe:     services.NewConnectivityProbe(gate, prober, cfg),
		Outcomes:  outcomes,
	})

	logger.Debug("app: storage=%s credentials=%s liveness=%s backend=%s",
		settings.Storage.Backend, settings.Credentials.Source, settings.Liveness.Source, settings.Backend.URL)

	return a, nil
}

func (a *App) openStorage() (driven.KVStore, driven.HistoryStore, error) {
	switch a.settings.Storage.Backend {
	case domain.StorageRedis:
		store, err := redis.NewStore(redis.Config{
			Address: a.settings.Storage.RedisAddress,
			DB:      a.settings.Storage.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening redis store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store.KVStore(), store.HistoryStore(), nil

	case domain.StorageMemory:
		return memory.NewKVStore(), memory.NewHistoryStore(), nil

	default:
		store, err := sqlite.NewStore(a.settings.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		a.closers = append(a.closers, store)
		logger.Debug("app: sqlite store at %s", store.Path())
		return store.KVStore(), store.HistoryStore(), nil
	}
}

func (a *App) credentialSource() driven.CredentialSource {
	if a.settings.Credentials.Source == domain.CredentialSourcePush {
		a.jar = memory.NewCredentialJar()
		return a.jar
	}
	a.cookies = cookiefile.New(a.settings.Credentials.CookieFile)
	return a.cookies
}

func (a *App) livenessSource() driven.LivenessSource {
	if a.settings.Liveness.Source == domain.LivenessSourcePush {
		a.surfaces = memory.NewSurfaceRegistry()
		return a.surfaces
	}
	return devtools.New(a.settings.Liveness.DevToolsURL)
}

// Agent returns the command surface.
func (a *App) Agent() driving.AgentService {
	return a.agent
}

// Events returns the event sink.
func (a *App) Events() driving.EventSink {
	return a.agent
}

// Scheduler returns the scheduler loop.
func (a *App) Scheduler() driving.Scheduler {
	return a.scheduler
}

// Registry returns the metrics registry.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Start runs the agent in the background. The returned function cancels it
// and waits for the loop and any in-flight status report to finish.
func (a *App) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.agent.Run(ctx); err != nil {
			logger.Error("agent stopped: %v", err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			a.reporter.Wait()
		})
	}
}

// Serve runs the agent, the cookie file watcher and the HTTP API until ctx
// is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server, err := httpapi.NewServer(a.settings.Server.Listen, httpapi.Ports{
		Agent:    a.agent,
		Events:   a.agent,
		Jar:      a.jar,
		Surfaces: a.surfaces,
		Gatherer: a.registry,
		Version:  a.version,
	})
	if err != nil {
		return fmt.Errorf("creating http api: %w", err)
	}

	stop := a.Start(ctx)
	defer stop()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if a.cookies != nil {
		if err := os.MkdirAll(filepath.Dir(a.cookies.Path()), 0o700); err != nil {
			return fmt.Errorf("creating cookie directory: %w", err)
		}
		watcher := cookiefile.NewWatcher(a.cookies, a.settings.SyncConfig().CredentialDomain, a.agent)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				errCh <- fmt.Errorf("cookie watcher: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			errCh <- fmt.Errorf("http api: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		cancel()
	}
	wg.Wait()
	return runErr
}

// Close releases the stores.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
