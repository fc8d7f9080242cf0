package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnv.
const (
	EnvStrictAppTypes = "INTERFLOW_STRICT_APP_TYPES"
	EnvBatchSource    = "INTERFLOW_BATCH_SOURCE"
	EnvBatchOutput    = "INTERFLOW_BATCH_OUTPUT"
	EnvBatchSheet     = "INTERFLOW_BATCH_SHEET"
	EnvCacheBackend   = "INTERFLOW_CACHE_BACKEND"
	EnvCacheDir       = "INTERFLOW_CACHE_DIR"
	EnvCachePrefix    = "INTERFLOW_CACHE_PREFIX"
	EnvCacheTTL       = "INTERFLOW_CACHE_TTL"
	EnvRedisAddr      = "INTERFLOW_REDIS_ADDR"
	EnvRedisPassword  = "INTERFLOW_REDIS_PASSWORD"
	EnvRedisDB        = "INTERFLOW_REDIS_DB"
	EnvServerAddr     = "INTERFLOW_SERVER_ADDR"
	EnvLogLevel       = "INTERFLOW_LOG_LEVEL"

	// EnvPort is honored when no server address is set explicitly, as
	// container platforms commonly inject it.
	EnvPort = "PORT"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from the environment. Empty values are
// ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvBatchSource, &c.Batch.Source},
		{EnvBatchOutput, &c.Batch.Output},
		{EnvBatchSheet, &c.Batch.Sheet},
		{EnvCacheBackend, &c.Cache.Backend},
		{EnvCacheDir, &c.Cache.Dir},
		{EnvCachePrefix, &c.Cache.Prefix},
		{EnvRedisAddr, &c.Cache.RedisAddr},
		{EnvRedisPassword, &c.Cache.RedisPassword},
		{EnvLogLevel, &c.Log.Level},
	}
	for _, s := range strs {
		if v, ok := get(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := get(EnvServerAddr); ok {
		c.Server.Addr = v
	} else if v, ok := get(EnvPort); ok {
		c.Server.Addr = ":" + v
	}

	if v, ok := get(EnvStrictAppTypes); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrictAppTypes, err)
		}
		c.Diagram.StrictAppTypes = b
	}
	if v, ok := get(EnvRedisDB); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		c.Cache.RedisDB = n
	}
	if v, ok := get(EnvCacheTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		c.Cache.TTL.Duration = d
	}
	return nil
}
