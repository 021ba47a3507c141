package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

// stubStore implements db.Store; every call answers with the configured error.
type stubStore struct {
	err error
}

func (s *stubStore) Ping(context.Context) error { return s.err }
func (s *stubStore) Close() {}
func (s *stubStore) WaitForReady(context.Context, time.Duration) error {
	return s.err
}

func (s *stubStore) HSet(context.Context, string, map[string]string) error { return s.err }
func (s *stubStore) HSetMulti(context.Context, []db.HashSetItem) error     { return s.err }
func (s *stubStore) TxHSet(context.Context, []db.HashSetItem) error        { return s.err }
func (s *stubStore) HGet(context.Context, string, []string) ([]db.Value, error) {
	return nil, s.err
}
func (s *stubStore) HGetMulti(context.Context, []string, []string) ([][]db.Value, error) {
	return nil, s.err
}
func (s *stubStore) HDel(context.Context, string, ...string) error { return s.err }
func (s *stubStore) HIncrBy(context.Context, string, string, int64) (int64, error) {
	return 0, s.err
}
func (s *stubStore) Exists(context.Context, string) (bool, error) { return false, s.err }
func (s *stubStore) ExistsMulti(context.Context, []string) ([]bool, error) {
	return nil, s.err
}
func (s *stubStore) Del(context.Context, ...string) error { return s.err }
func (s *stubStore) Scan(context.Context, string, int64) ([]string, error) {
	return nil, s.err
}
func (s *stubStore) SAdd(context.Context, string, ...string) error { return s.err }
func (s *stubStore) SRem(context.Context, string, ...string) (int64, error) {
	return 0, s.err
}
func (s *stubStore) SMembers(context.Context, string) ([]string, error) { return nil, s.err }
func (s *stubStore) Search(context.Context, string, string, int, int) (*db.SearchResult, error) {
	return &db.SearchResult{}, s.err
}
func (s *stubStore) SearchCount(context.Context, string, string) (int, error) {
	return 0, s.err
}

func TestInstrument_CountsByOpAndStatus(t *testing.T) {
	ctx := context.Background()

	ok := Instrument(&stubStore{})
	before := testutil.ToFloat64(storeOpsTotal.WithLabelValues(db.OpSearch, "ok"))
	if _, err := ok.Search(ctx, "idx", "*", 0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := testutil.ToFloat64(storeOpsTotal.WithLabelValues(db.OpSearch, "ok"))
	if after != before+1 {
		t.Errorf("expected ok counter to advance, got %f -> %f", before, after)
	}

	failing := Instrument(&stubStore{err: errors.New("OOM")})
	before = testutil.ToFloat64(storeOpsTotal.WithLabelValues(db.OpHSet, "error"))
	if err := failing.HSet(ctx, "k", map[string]string{"f": "v"}); err == nil {
		t.Fatal("expected the decorated error to pass through")
	}
	after = testutil.ToFloat64(storeOpsTotal.WithLabelValues(db.OpHSet, "error"))
	if after != before+1 {
		t.Errorf("expected error counter to advance, got %f -> %f", before, after)
	}
}

func TestInstrument_RecordsDurations(t *testing.T) {
	s := Instrument(&stubStore{})
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := testutil.CollectAndCount(storeOpDuration); n == 0 {
		t.Error("expected duration observations")
	}
}
