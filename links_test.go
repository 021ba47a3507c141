package hashmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

func boundAccount(t *testing.T, ms *mockStore) *account {
	t.Helper()
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	coll := NewCollection(newTestClient(ms), accountSchema)
	m, err := coll.Load(context.Background(), "u1", "Spare", "Devices")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return m
}

func TestLinkRef_SetAndGet(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	var wroteKey string
	var wroteFields map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		wroteKey = key
		wroteFields = fields
		return nil
	}

	if err := m.Spare.SetID(context.Background(), "e7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wroteKey != "account:u1:links" || wroteFields["Spare"] != "e7" {
		t.Errorf("unexpected write: key=%s fields=%v", wroteKey, wroteFields)
	}

	ms.hgetFn = func(_ context.Context, key string, fields []string) ([]db.Value, error) {
		out := make([]db.Value, len(fields))
		if key == "account:u1:links" && fields[0] == "Spare" {
			out[0] = db.Value{Data: "e7", Present: true}
		}
		return out, nil
	}

	id, err := m.Spare.ID(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "e7" {
		t.Errorf("unexpected id: %s", id)
	}

	e, err := m.Spare.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Id != "e7" {
		t.Errorf("unexpected referent id: %s", e.Id)
	}
}

func TestLinkRef_UnsetGetIsNotFound(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	ms.hgetFn = func(_ context.Context, _ string, fields []string) ([]db.Value, error) {
		return make([]db.Value, len(fields)), nil
	}

	if _, err := m.Spare.Get(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLinkRef_SetNilClears(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	var clearedField string
	ms.hdelFn = func(_ context.Context, key string, fields ...string) error {
		if key != "account:u1:links" {
			t.Errorf("unexpected key: %s", key)
		}
		clearedField = fields[0]
		return nil
	}

	if err := m.Spare.Set(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clearedField != "Spare" {
		t.Errorf("expected Spare cleared, got %q", clearedField)
	}
}

func TestLinkSet_AddRemove(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	var added []string
	ms.saddFn = func(_ context.Context, key string, members ...string) error {
		if key != "account:u1:Devices:links" {
			t.Errorf("unexpected key: %s", key)
		}
		added = members
		return nil
	}

	if err := m.Devices.Add(context.Background(), "e1", "e2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(added) != 2 {
		t.Errorf("unexpected members: %v", added)
	}

	if err := m.Devices.Add(context.Background(), ""); !errors.Is(err, ErrMissingID) {
		t.Fatalf("got %v, want ErrMissingID", err)
	}
}

func TestLinkSet_RemoveManagedDeletesReferent(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	ms.sremFn = func(_ context.Context, _ string, members ...string) (int64, error) {
		return 1, nil
	}
	var deleted []string
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = append(deleted, keys...)
		return nil
	}

	removed, err := m.Devices.Remove(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Fatal("expected removed=true")
	}
	found := false
	for _, k := range deleted {
		if k == "engine:e1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the referent deleted, got %v", deleted)
	}
}

func TestLinkSet_RemoveNonMember(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	ms.sremFn = func(_ context.Context, _ string, _ ...string) (int64, error) {
		return 0, nil
	}
	ms.delFn = func(_ context.Context, keys ...string) error {
		t.Fatalf("no delete expected for a non-member, got %v", keys)
		return nil
	}

	removed, err := m.Devices.Remove(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Fatal("expected removed=false")
	}
}

func TestLinkSet_AllSkipsDangling(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	ms.smembersFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"e1", "ghost"}, nil
	}
	ms.existsMultiFn = func(_ context.Context, keys []string) ([]bool, error) {
		out := make([]bool, len(keys))
		for i, k := range keys {
			out[i] = k == "engine:e1"
		}
		return out, nil
	}

	all, err := m.Devices.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].Id != "e1" {
		t.Errorf("unexpected referents: %+v", all)
	}
}

func TestLinkSet_ClearManagedDeletesAll(t *testing.T) {
	ms := &mockStore{}
	m := boundAccount(t, ms)

	ms.smembersFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"e1", "e2"}, nil
	}
	deleted := &deletions{}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted.add(keys...)
		return nil
	}

	if err := m.Devices.Clear(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"account:u1:Devices:links", "engine:e1", "engine:e2"}
	got := deleted.sorted()
	if len(got) != len(want) {
		t.Fatalf("deleted keys: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("deleted keys: got %v, want %v", got, want)
		}
	}
}
