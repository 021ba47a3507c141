package hashmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hashmodel-db/hashmodel/internal/config"
	"github.com/hashmodel-db/hashmodel/internal/db"
	dbredis "github.com/hashmodel-db/hashmodel/internal/db/redis"
	"github.com/hashmodel-db/hashmodel/internal/logger"
	"github.com/hashmodel-db/hashmodel/internal/metrics"
)

const defaultReadinessTimeout = 10 * time.Second

// Client owns the store connection shared by all collections.
type Client struct {
	store db.Store
	log   *zap.Logger

	counterKey      string
	scanBatchSize   int64
	defaultPageSize int
	maxPageSize     int
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("hashmodel: database address required (use WithRedis)")
	}

	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.database,
	})
	if err != nil {
		return nil, fmt.Errorf("hashmodel: create store: %w", err)
	}

	instrumented := metrics.Instrument(store)

	ctx := context.Background()
	if err := instrumented.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		instrumented.Close()
		return nil, fmt.Errorf("hashmodel: database not ready: %w", err)
	}

	return &Client{
		store:           instrumented,
		log:             cfg.log,
		counterKey:      cfg.counterKey,
		scanBatchSize:   cfg.scanBatchSize,
		defaultPageSize: cfg.defaultPageSize,
		maxPageSize:     cfg.maxPageSize,
	}, nil
}

// NewFromConfig creates a Client from a YAML config file for the given
// environment (local, dev, prod), wiring a matching logger.
func NewFromConfig(env string) (*Client, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("hashmodel: %w", err)
	}

	log, err := logger.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("hashmodel: %w", err)
	}

	return New(
		WithRedis(cfg.Database.Addrs...),
		WithAuth(cfg.Database.Username, cfg.Database.Password),
		WithDB(cfg.Database.DB),
		WithReadinessTimeout(time.Duration(cfg.Database.ReadinessTimeout)*time.Second),
		WithPageSizes(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize),
		WithCounterKey(cfg.Storage.CounterKey),
		WithScanBatchSize(int64(cfg.Storage.ScanBatchSize)),
		WithLogger(log),
	)
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close shuts down the store connection.
func (c *Client) Close() {
	c.store.Close()
}

// logFor prefers a context-scoped logger over the client's own.
func (c *Client) logFor(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, c.log)
}
