package config

import (
    "fmt"
    "os"
    "time"

    "github.com/joho/godotenv"
)

type Config struct {
    Env          string
    ListenAddr   string
    DatabaseURL  string
    AuditWorkers int
    LogLevel     string

    FetchTimeout     time.Duration
    FetchMaxAttempts int
    FetchBaseDelay   time.Duration
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var out int
        _, err := fmt.Sscanf(v, "%d", &out)
        if err == nil {
            return out
        }
    }
    return def
}

func Load() (Config, error) {
    // Local development convenience; absent .env is fine.
    _ = godotenv.Load()

    cfg := Config{
        Env:          getenv("APP_ENV", "development"),
        ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
        DatabaseURL:  os.Getenv("DATABASE_URL"),
        AuditWorkers: getenvInt("AUDIT_WORKERS", 0),
        LogLevel:     getenv("LOG_LEVEL", "info"),

        FetchTimeout:     time.Duration(getenvInt("FETCH_TIMEOUT_MS", 12000)) * time.Millisecond,
        FetchMaxAttempts: getenvInt("FETCH_MAX_ATTEMPTS", 3),
        FetchBaseDelay:   time.Duration(getenvInt("FETCH_BASE_DELAY_MS", 350)) * time.Millisecond,
    }
    if cfg.DatabaseURL == "" {
        // Not fatal: the server falls back to the in-memory store.
        return cfg, fmt.Errorf("DATABASE_URL not set")
    }
    return cfg, nil
}
