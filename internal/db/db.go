package db

import (
	"context"
	"time"
)

// Store is the full database surface the mapping layer consumes.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces below
type Store interface {
	Pinger
	HashStore
	SetStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Value is one hash field read result. Present is false when the field
// (or the whole key) does not exist.
type Value struct {
	Data    string
	Present bool
}

// HashSetItem holds a single key+fields pair for pipelined or transactional HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-record and key operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// TxHSet applies all items in one MULTI/EXEC transaction: either every
	// write lands or none does.
	TxHSet(ctx context.Context, items []HashSetItem) error
	HGet(ctx context.Context, key string, fields []string) ([]Value, error)
	HGetMulti(ctx context.Context, keys []string, fields []string) ([][]Value, error)
	HDel(ctx context.Context, key string, fields ...string) error
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string, batchSize int64) ([]string, error)
}

// SetStore provides set operations backing linked collections.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// SearchResult holds FT.SEARCH output: matched keys plus the total match count
// across all pages, not just the returned slice.
type SearchResult struct {
	Total int
	Keys  []string
}

// Searcher executes compiled queries against an FT index.
type Searcher interface {
	Search(ctx context.Context, index, query string, offset, limit int) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
