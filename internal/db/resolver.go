package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/pgrun/internal/config"
)

// Built-in configuration defaults (lowest precedence).
const (
	defaultConnectTimeout     = 10 * time.Second
	defaultKeepalivesIdle     = 30 * time.Second
	defaultKeepalivesInterval = 10 * time.Second
	defaultKeepalivesCount    = 5
	defaultApplicationName    = "pgrun"

	defaultPoolSize        = 3
	defaultMaxOverflow     = 2
	defaultCheckoutTimeout = 10 * time.Second
	defaultRecycleInterval = 300 * time.Second
)

// EnvVars holds the process environment this module reads, captured once
// at startup. Field names match the environment variable names.
type EnvVars struct {
	DATABASE_URL    string // primary connection string
	SUPABASE_DB_URL string // alternative connection string; DATABASE_URL wins

	PGSSLMODE         string // SSL-mode default for URLs lacking one
	PGCONNECT_TIMEOUT string // connect timeout in seconds
	PGAPPNAME         string // application_name tag

	// TCP keepalives (help avoid idle disconnects on managed infrastructure)
	PG_KEEPALIVES          string // enable toggle
	PG_KEEPALIVES_IDLE     string // seconds
	PG_KEEPALIVES_INTERVAL string // seconds
	PG_KEEPALIVES_COUNT    string

	DB_USE_NULLPOOL string // pool-strategy toggle

	// Bounded-strategy knobs, read only when DB_USE_NULLPOOL is off
	DB_POOL_SIZE    string
	DB_MAX_OVERFLOW string
	DB_POOL_TIMEOUT string // checkout timeout in seconds
	DB_POOL_RECYCLE string // recycle interval in seconds
}

// LoadFromEnvironment captures the relevant environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		DATABASE_URL:           os.Getenv("DATABASE_URL"),
		SUPABASE_DB_URL:        os.Getenv("SUPABASE_DB_URL"),
		PGSSLMODE:              os.Getenv("PGSSLMODE"),
		PGCONNECT_TIMEOUT:      os.Getenv("PGCONNECT_TIMEOUT"),
		PGAPPNAME:              os.Getenv("PGAPPNAME"),
		PG_KEEPALIVES:          os.Getenv("PG_KEEPALIVES"),
		PG_KEEPALIVES_IDLE:     os.Getenv("PG_KEEPALIVES_IDLE"),
		PG_KEEPALIVES_INTERVAL: os.Getenv("PG_KEEPALIVES_INTERVAL"),
		PG_KEEPALIVES_COUNT:    os.Getenv("PG_KEEPALIVES_COUNT"),
		DB_USE_NULLPOOL:        os.Getenv("DB_USE_NULLPOOL"),
		DB_POOL_SIZE:           os.Getenv("DB_POOL_SIZE"),
		DB_MAX_OVERFLOW:        os.Getenv("DB_MAX_OVERFLOW"),
		DB_POOL_TIMEOUT:        os.Getenv("DB_POOL_TIMEOUT"),
		DB_POOL_RECYCLE:        os.Getenv("DB_POOL_RECYCLE"),
	}
}

// truthy reports whether v is one of the recognized affirmative tokens.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// Resolve derives the immutable Settings from the environment and the
// optional project config. Precedence for each parameter:
//
//  1. Environment variable
//  2. pgrun.yaml (projectConfig, may be nil)
//  3. Built-in default
//
// Returns ErrNoConnectionString when no connection string is configured.
func Resolve(envVars *EnvVars, projectConfig *config.ProjectConfig) (*Settings, error) {
	if envVars == nil {
		envVars = &EnvVars{}
	}

	var pc config.ConnectionConfig
	var pool config.PoolConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
		pool = projectConfig.Pool
	}

	raw := envVars.DATABASE_URL
	if raw == "" {
		raw = envVars.SUPABASE_DB_URL
	}
	if raw == "" {
		return nil, ErrNoConnectionString
	}

	// SSL mode: PGSSLMODE > pgrun.yaml > "require"
	sslMode := envVars.PGSSLMODE
	if sslMode == "" {
		sslMode = pc.SSLMode
	}
	if sslMode == "" {
		sslMode = DefaultSSLMode
	}

	canonical := SanitizeURL(raw, sslMode)

	conn, err := ParseConnectionString(canonical)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	connect, err := resolveConnectParams(envVars, pc, conn.SSLMode)
	if err != nil {
		return nil, err
	}

	poolSettings, err := resolvePoolSettings(envVars, pool)
	if err != nil {
		return nil, err
	}

	return &Settings{
		URL:     canonical,
		Conn:    conn,
		Connect: connect,
		Pool:    poolSettings,
	}, nil
}

func resolveConnectParams(envVars *EnvVars, pc config.ConnectionConfig, sslMode string) (ConnectParams, error) {
	p := ConnectParams{
		SSLMode:           sslMode,
		KeepalivesEnabled: true,
	}

	if envVars.PG_KEEPALIVES != "" {
		p.KeepalivesEnabled = truthy(envVars.PG_KEEPALIVES)
	}

	var err error
	if p.ConnectTimeout, err = secondsSetting("PGCONNECT_TIMEOUT",
		envVars.PGCONNECT_TIMEOUT, pc.ConnectTimeout, defaultConnectTimeout); err != nil {
		return p, err
	}
	if p.KeepalivesIdle, err = secondsSetting("PG_KEEPALIVES_IDLE",
		envVars.PG_KEEPALIVES_IDLE, pc.KeepalivesIdle, defaultKeepalivesIdle); err != nil {
		return p, err
	}
	if p.KeepalivesInterval, err = secondsSetting("PG_KEEPALIVES_INTERVAL",
		envVars.PG_KEEPALIVES_INTERVAL, pc.KeepalivesInterval, defaultKeepalivesInterval); err != nil {
		return p, err
	}

	count, err := intSetting("PG_KEEPALIVES_COUNT",
		envVars.PG_KEEPALIVES_COUNT, pc.KeepalivesCount, defaultKeepalivesCount)
	if err != nil {
		return p, err
	}
	p.KeepalivesCount = count

	p.ApplicationName = envVars.PGAPPNAME
	if p.ApplicationName == "" {
		p.ApplicationName = pc.ApplicationName
	}
	if p.ApplicationName == "" {
		p.ApplicationName = defaultApplicationName
	}

	return p, nil
}

func resolvePoolSettings(envVars *EnvVars, pool config.PoolConfig) (PoolSettings, error) {
	// NullPool is the default: safest behind managed poolers.
	useNullPool := true
	if envVars.DB_USE_NULLPOOL != "" {
		useNullPool = truthy(envVars.DB_USE_NULLPOOL)
	} else if pool.UseNullPool != nil {
		useNullPool = *pool.UseNullPool
	}

	s := PoolSettings{Strategy: StrategyNullPool}
	if useNullPool {
		return s, nil
	}

	s.Strategy = StrategyBounded

	size, err := intSetting("DB_POOL_SIZE", envVars.DB_POOL_SIZE, pool.Size, defaultPoolSize)
	if err != nil {
		return s, err
	}
	s.Size = int32(size)

	overflow, err := intSetting("DB_MAX_OVERFLOW", envVars.DB_MAX_OVERFLOW, pool.MaxOverflow, defaultMaxOverflow)
	if err != nil {
		return s, err
	}
	s.MaxOverflow = int32(overflow)

	if s.CheckoutTimeout, err = secondsSetting("DB_POOL_TIMEOUT",
		envVars.DB_POOL_TIMEOUT, pool.CheckoutTimeout, defaultCheckoutTimeout); err != nil {
		return s, err
	}
	if s.RecycleInterval, err = secondsSetting("DB_POOL_RECYCLE",
		envVars.DB_POOL_RECYCLE, pool.RecycleInterval, defaultRecycleInterval); err != nil {
		return s, err
	}

	return s, nil
}

// intSetting resolves an integer with env > yaml > default precedence.
func intSetting(name, envValue string, yamlValue, def int) (int, error) {
	if envValue != "" {
		n, err := strconv.Atoi(envValue)
		if err != nil {
			return 0, fmt.Errorf("invalid $%s value '%s': must be an integer", name, envValue)
		}
		return n, nil
	}
	if yamlValue != 0 {
		return yamlValue, nil
	}
	return def, nil
}

// secondsSetting resolves a duration expressed in whole seconds.
func secondsSetting(name, envValue string, yamlValue int, def time.Duration) (time.Duration, error) {
	n, err := intSetting(name, envValue, yamlValue, int(def/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
