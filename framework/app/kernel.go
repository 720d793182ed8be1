// Package app is the HTTP host: it owns the bootstrapper, mounts the engine
// behind a chi mux and runs the server until its context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-twostep/framework/bootstrap"
	"github.com/km-arc/go-twostep/framework/config"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/metrics"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Application is the top-level host.
type Application struct {
	Config       *config.Config
	Log          *zap.Logger
	Bootstrapper *bootstrap.Bootstrapper

	once    sync.Once
	handler http.Handler
	err     error
}

// New creates the host. opts are applied after the host's own options, so
// they may override the logger, metrics or favicon.
//
//	application, err := app.New(cfg, log, bootstrap.WithCustomizer(myapp.Customizer{}))
func New(cfg *config.Config, log *zap.Logger, opts ...bootstrap.Option) (*Application, error) {
	if log == nil {
		log = zap.NewNop()
	}
	base := []bootstrap.Option{
		bootstrap.WithConfig(cfg),
		bootstrap.WithLogger(log),
		bootstrap.WithMetrics(metrics.New().WithRuntime()),
	}
	if cfg.App.Favicon != "" {
		icon, err := os.ReadFile(cfg.App.Favicon)
		if err != nil {
			return nil, fmt.Errorf("app: read favicon: %w", err)
		}
		base = append(base, bootstrap.WithFavicon(icon))
	}
	return &Application{
		Config:       cfg,
		Log:          log,
		Bootstrapper: bootstrap.New(append(base, opts...)...),
	}, nil
}

// Boot composes the application. Calling it again is a no-op.
func (a *Application) Boot() error {
	err := a.Bootstrapper.Initialise()
	if errors.Is(err, bootstrap.ErrAlreadyInitialised) {
		return nil
	}
	return err
}

// Handler boots the application and returns the root handler. The mux
// serves the metrics endpoint itself and hands every other request to the
// engine.
func (a *Application) Handler() (http.Handler, error) {
	a.once.Do(func() {
		a.handler, a.err = a.buildHandler()
	})
	return a.handler, a.err
}

func (a *Application) buildHandler() (http.Handler, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}
	eng, err := a.Bootstrapper.GetEngine()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(a.Log))
	r.Use(middleware.Recoverer)

	if a.Config.Metrics.Enabled {
		r.Handle(a.Config.Metrics.Path, a.Bootstrapper.Metrics().Handler())
	}
	r.Handle("/*", eng)
	return r, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// disposes the application resolver. An empty addr uses APP_PORT.
func (a *Application) Run(ctx context.Context, addr string) error {
	h, err := a.Handler()
	if err != nil {
		return err
	}
	defer a.Bootstrapper.Dispose()

	if addr == "" {
		addr = a.Config.Addr()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.Log.Info("server started",
		zap.String("app", a.Config.App.Name),
		zap.String("addr", addr),
		zap.String("env", a.Config.App.Env),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ── Middleware ───────────────────────────────────────────────────────────────

// requestID makes sure every request carries a UUID in X-Request-ID, which
// the engine adopts as the context ID, and echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(gohttp.RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(gohttp.RequestIDHeader, id)
		}
		w.Header().Set(gohttp.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", r.Header.Get(gohttp.RequestIDHeader)),
			)
		})
	}
}
