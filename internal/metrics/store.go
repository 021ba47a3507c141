package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

var (
	storeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hashmodel",
			Name:      "store_op_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hashmodel",
			Name:      "store_ops_total",
			Help:      "Total number of store operations",
		},
		[]string{"op", "status"},
	)
)

func init() {
	prometheus.MustRegister(storeOpDuration)
	prometheus.MustRegister(storeOpsTotal)
}

// Compile-time check: InstrumentedStore implements db.Store.
var _ db.Store = (*InstrumentedStore)(nil)

// InstrumentedStore decorates a db.Store with per-operation metrics.
type InstrumentedStore struct {
	next db.Store
}

// Instrument wraps a store with prometheus op counters and latency histograms.
func Instrument(next db.Store) *InstrumentedStore {
	return &InstrumentedStore{next: next}
}

func observe(op string, start time.Time, err error) {
	storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeOpsTotal.WithLabelValues(op, status).Inc()
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	observe("PING", start, err)
	return err
}

func (s *InstrumentedStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	start := time.Now()
	err := s.next.HSet(ctx, key, fields)
	observe(db.OpHSet, start, err)
	return err
}

func (s *InstrumentedStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	start := time.Now()
	err := s.next.HSetMulti(ctx, items)
	observe(db.OpHSet, start, err)
	return err
}

func (s *InstrumentedStore) TxHSet(ctx context.Context, items []db.HashSetItem) error {
	start := time.Now()
	err := s.next.TxHSet(ctx, items)
	observe(db.OpExec, start, err)
	return err
}

func (s *InstrumentedStore) HGet(ctx context.Context, key string, fields []string) ([]db.Value, error) {
	start := time.Now()
	vals, err := s.next.HGet(ctx, key, fields)
	observe(db.OpHGet, start, err)
	return vals, err
}

func (s *InstrumentedStore) HGetMulti(ctx context.Context, keys []string, fields []string) ([][]db.Value, error) {
	start := time.Now()
	vals, err := s.next.HGetMulti(ctx, keys, fields)
	observe(db.OpHGet, start, err)
	return vals, err
}

func (s *InstrumentedStore) HDel(ctx context.Context, key string, fields ...string) error {
	start := time.Now()
	err := s.next.HDel(ctx, key, fields...)
	observe(db.OpHDel, start, err)
	return err
}

func (s *InstrumentedStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	start := time.Now()
	n, err := s.next.HIncrBy(ctx, key, field, delta)
	observe(db.OpHIncrBy, start, err)
	return n, err
}

func (s *InstrumentedStore) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, key)
	observe(db.OpExists, start, err)
	return ok, err
}

func (s *InstrumentedStore) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	start := time.Now()
	out, err := s.next.ExistsMulti(ctx, keys)
	observe(db.OpExists, start, err)
	return out, err
}

func (s *InstrumentedStore) Del(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.next.Del(ctx, keys...)
	observe(db.OpDel, start, err)
	return err
}

func (s *InstrumentedStore) Scan(ctx context.Context, pattern string, batchSize int64) ([]string, error) {
	start := time.Now()
	keys, err := s.next.Scan(ctx, pattern, batchSize)
	observe(db.OpScan, start, err)
	return keys, err
}

func (s *InstrumentedStore) SAdd(ctx context.Context, key string, members ...string) error {
	start := time.Now()
	err := s.next.SAdd(ctx, key, members...)
	observe(db.OpSAdd, start, err)
	return err
}

func (s *InstrumentedStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	start := time.Now()
	n, err := s.next.SRem(ctx, key, members...)
	observe(db.OpSRem, start, err)
	return n, err
}

func (s *InstrumentedStore) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := s.next.SMembers(ctx, key)
	observe(db.OpSMembers, start, err)
	return members, err
}

func (s *InstrumentedStore) Search(ctx context.Context, index, query string, offset, limit int) (*db.SearchResult, error) {
	start := time.Now()
	res, err := s.next.Search(ctx, index, query, offset, limit)
	observe(db.OpSearch, start, err)
	return res, err
}

func (s *InstrumentedStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	start := time.Now()
	n, err := s.next.SearchCount(ctx, index, query)
	observe(db.OpSearch, start, err)
	return n, err
}

func (s *InstrumentedStore) Close() { s.next.Close() }

func (s *InstrumentedStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return s.next.WaitForReady(ctx, timeout)
}
