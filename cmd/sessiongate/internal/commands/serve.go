package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	Listen          string        `help:"HTTP listen address." default:"0.0.0.0:8080" env:"SESSIONGATE_LISTEN"`
	ReadyTimeout    time.Duration `help:"How long to wait for Redis and Postgres at startup." default:"30s" env:"SESSIONGATE_READY_TIMEOUT"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"10s"`

	Redis    RedisFlags    `embed:"" prefix:"redis-"`
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`
	Engine   EngineFlags   `embed:"" prefix:"engine-"`
	Token    TokenFlags    `embed:"" prefix:"token-"`
}

// Validate is called by kong after parsing.
func (c *ServeCmd) Validate() error {
	if err := c.Postgres.Validate(); err != nil {
		return err
	}
	return c.Token.Validate()
}

func (c *ServeCmd) Run(globals *Globals, ctx context.Context) error {
	log := logger.Setup(globals.Debug)
	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting sessiongate")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := c.Redis.Client()
	defer func() { _ = rdb.Close() }()

	db, err := c.Postgres.Open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	users := directory.NewPostgres(db)

	checks := map[string]Pinger{
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"postgres": users.Ping,
	}
	if err := waitReady(ctx, log, checks, c.ReadyTimeout); err != nil {
		return err
	}

	builder := sessiongate.New().
		WithConfig(c.Engine.Config(c.Redis.Prefix)).
		WithRedis(rdb).
		WithUserDirectory(users).
		WithLogger(log)
	if c.Engine.Audit {
		builder = builder.WithAuditSink(sessiongate.NewZerologSink(log.With().Str("component", "audit").Logger()))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	cfg := engine.Config()
	for _, w := range cfg.Lint() {
		log.Warn().Str("code", w.Code).Msg(w.Message)
	}

	tokens, err := c.Token.Manager()
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	srv := configureHTTPServer(c.Listen, NewRouter(RouterDeps{
		Engine: engine,
		Tokens: tokens,
		Logger: log,
		Checks: checks,
	}))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", c.Listen).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// waitReady pings every dependency until all answer or timeout elapses.
func waitReady(ctx context.Context, log zerolog.Logger, checks map[string]Pinger, timeout time.Duration) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		for name, check := range checks {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := check(pingCtx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("dependency not ready")
				return struct{}{}, fmt.Errorf("%s: %w", name, err)
			}
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(timeout))
	if err != nil {
		return fmt.Errorf("dependencies not ready: %w", err)
	}
	return nil
}
