package hashmodel

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

// deletions records every Del call, concurrency-safe: cascades fan out.
type deletions struct {
	mu   sync.Mutex
	keys []string
}

func (d *deletions) add(keys ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, keys...)
}

func (d *deletions) sorted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]string(nil), d.keys...)
	sort.Strings(out)
	return out
}

func TestDelete_CascadesAndSweeps(t *testing.T) {
	ms := &mockStore{}
	coll := NewCollection(newTestClient(ms), accountSchema)

	deleted := &deletions{}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted.add(keys...)
		return nil
	}
	ms.smembersFn = func(_ context.Context, key string) ([]string, error) {
		if key == "account:u1:Devices:links" {
			return []string{"e9"}, nil
		}
		return nil, nil
	}
	ms.scanFn = func(_ context.Context, pattern string, batchSize int64) ([]string, error) {
		switch pattern {
		case "account:u1*":
			return []string{"account:u1:links"}, nil
		default:
			return nil, nil
		}
	}

	m := &account{Base: Base{Id: "u1"}}
	if err := coll.Delete(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"account:u1",               // primary key
		"account:u1:Devices:links", // managed link set
		"account:u1:links",         // swept sub-key
		"engine:e9",                // managed referent
		"engine:u1_Engine",         // nested cascade
	}
	if got := deleted.sorted(); len(got) != len(want) {
		t.Fatalf("deleted keys: got %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("deleted keys: got %v, want %v", got, want)
			}
		}
	}
}

func TestDelete_SweepFailureIsSwallowed(t *testing.T) {
	ms := &mockStore{}
	coll := NewCollection(newTestClient(ms), accountSchema)

	ms.scanFn = func(_ context.Context, _ string, _ int64) ([]string, error) {
		return nil, errors.New("SCAN busted")
	}

	m := &account{Base: Base{Id: "u1"}}
	if err := coll.Delete(context.Background(), m); err != nil {
		t.Fatalf("sweep failure must not surface, got: %v", err)
	}
}

func TestDelete_PrimaryKeyFailureSurfaces(t *testing.T) {
	ms := &mockStore{}
	coll := NewCollection(newTestClient(ms), accountSchema)

	ms.delFn = func(_ context.Context, keys ...string) error {
		return errors.New("DEL busted")
	}

	m := &account{Base: Base{Id: "u1"}}
	if err := coll.Delete(context.Background(), m); err == nil {
		t.Fatal("expected the primary delete failure to surface")
	}
}

func TestDelete_MissingIDFails(t *testing.T) {
	coll := NewCollection(newTestClient(&mockStore{}), accountSchema)
	if err := coll.Delete(context.Background(), &account{}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("got %v, want ErrMissingID", err)
	}
}

type noisyDoc struct {
	Base
	onDeleted func(ctx context.Context) error
}

func (d *noisyDoc) OnDeleted(ctx context.Context) error {
	if d.onDeleted != nil {
		return d.onDeleted(ctx)
	}
	return nil
}

var noisySchema = NewSchema[noisyDoc]("noisydoc")

func TestDelete_NotifiesListener(t *testing.T) {
	ms := &mockStore{}
	coll := NewCollection(newTestClient(ms), noisySchema)

	called := false
	m := &noisyDoc{Base: Base{Id: "n1"}}
	m.onDeleted = func(context.Context) error {
		called = true
		return nil
	}

	if err := coll.Delete(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected the deletion listener to run")
	}

	m.onDeleted = func(context.Context) error { return errors.New("listener busted") }
	if err := coll.Delete(context.Background(), m); err == nil {
		t.Fatal("expected the listener error to surface")
	}
}
