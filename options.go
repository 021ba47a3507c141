package hashmodel

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string
	database int

	readinessTimeout time.Duration
	counterKey       string
	scanBatchSize    int64
	defaultPageSize  int
	maxPageSize      int

	log *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
		counterKey:       "index:counters",
		scanBatchSize:    100,
		defaultPageSize:  1000,
		maxPageSize:      10000,
		log:              zap.NewNop(),
	}
}

// WithRedis sets the Redis addresses to connect to.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithAuth sets connection credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithDB selects the logical database number.
func WithDB(n int) Option {
	return func(c *clientConfig) { c.database = n }
}

// WithReadinessTimeout bounds the startup readiness wait.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.readinessTimeout = d
		}
	}
}

// WithLogger sets the logger used for best-effort failure reporting.
func WithLogger(log *zap.Logger) Option {
	return func(c *clientConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCounterKey overrides the hash key holding per-index id counters.
func WithCounterKey(key string) Option {
	return func(c *clientConfig) {
		if key != "" {
			c.counterKey = key
		}
	}
}

// WithScanBatchSize bounds the per-round COUNT of cleanup key scans.
func WithScanBatchSize(n int64) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.scanBatchSize = n
		}
	}
}

// WithPageSizes sets the default and maximum query page sizes.
func WithPageSizes(def, max int) Option {
	return func(c *clientConfig) {
		if def > 0 {
			c.defaultPageSize = def
		}
		if max > 0 {
			c.maxPageSize = max
		}
	}
}
