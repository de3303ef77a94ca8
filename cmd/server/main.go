package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog"

    httpadapter "rankypulse/internal/adapters/http"
    "rankypulse/internal/adapters/memory"
    pg "rankypulse/internal/adapters/postgres"
    "rankypulse/internal/config"
    "rankypulse/internal/detect"
    "rankypulse/internal/fetch"
    "rankypulse/internal/ports"
    "rankypulse/internal/services/auditor"
    "rankypulse/internal/workers/auditrunner"
)

func main() {
    cfg, cfgErr := config.Load()

    log := newLogger(cfg)
    if cfgErr != nil {
        log.Warn().Err(cfgErr).Msg("config")
    }

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    var store ports.AuditStore
    var jobs ports.AuditJobs
    if cfg.DatabaseURL != "" {
        db, err := pg.Connect(ctx, cfg.DatabaseURL)
        if err != nil {
            log.Fatal().Err(err).Msg("db connect error")
        }
        defer db.Close()
        if err := db.Migrate(ctx); err != nil {
            log.Fatal().Err(err).Msg("migrate error")
        }

        // Wire repositories to services (ports)
        var _ ports.AuditStore = db
        var _ ports.AuditJobs = db
        store = db
        jobs = db
    } else {
        log.Warn().Msg("no DATABASE_URL, using in-memory store")
        store = memory.New()
    }

    retry := fetch.RetryOptions{
        Timeout:     cfg.FetchTimeout,
        MaxAttempts: cfg.FetchMaxAttempts,
        BaseDelay:   cfg.FetchBaseDelay,
    }
    fetcher := fetch.NewClient()
    runner := detect.NewRunner(log, detect.Default()...)
    svc := auditor.New(fetcher, runner, store, retry, log)

    srv := httpadapter.New(svc, store, jobs, log)
    r := chi.NewRouter()
    r.Mount("/", srv.Routes())

    // Optional background job workers
    if jobs != nil && cfg.AuditWorkers > 0 {
        processor := auditrunner.AuditProcessor{Auditor: svc}
        go auditrunner.Run(ctx, jobs, processor, cfg.AuditWorkers, 500*time.Millisecond, log)
        log.Info().Int("workers", cfg.AuditWorkers).Msg("audit workers started")
    }

    errCh := make(chan error, 1)
    go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
    log.Info().Str("addr", cfg.ListenAddr).Msg("listening")

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
    select {
    case sig := <-sigCh:
        log.Info().Str("signal", sig.String()).Msg("shutting down")
        cancel()
        time.Sleep(300 * time.Millisecond)
    case err := <-errCh:
        log.Fatal().Err(err).Msg("server error")
    }
}

func newLogger(cfg config.Config) zerolog.Logger {
    level, err := zerolog.ParseLevel(cfg.LogLevel)
    if err != nil {
        level = zerolog.InfoLevel
    }
    var w = zerolog.ConsoleWriter{Out: os.Stderr}
    if cfg.Env == "production" {
        return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
    }
    return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
