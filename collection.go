package hashmodel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hashmodel-db/hashmodel/internal/codec"
	"github.com/hashmodel-db/hashmodel/internal/db"
)

// Collection binds a schema to a client and exposes the persistence
// operations for one model type.
type Collection[M any] struct {
	client *Client
	schema *Schema[M]
}

// NewCollection creates the persistence surface for a registered schema.
func NewCollection[M any](client *Client, schema *Schema[M]) *Collection[M] {
	if client == nil || schema == nil {
		panic("hashmodel: NewCollection requires a client and a schema")
	}
	return &Collection[M]{client: client, schema: schema}
}

// Key returns the primary storage key for an id.
func (c *Collection[M]) Key(id string) string { return c.schema.key(id) }

// Index returns the collection's index name.
func (c *Collection[M]) Index() string { return c.schema.index }

// Create allocates a model under the given id (a fresh unique token when
// empty), writing only the creation timestamp. An existing key yields a
// failed result, never an overwrite.
func (c *Collection[M]) Create(ctx context.Context, id string) (CreateResult[M], error) {
	if id == "" {
		id = uuid.NewString()
	}
	m := c.schema.newInstance(id)
	return c.createInstance(ctx, m)
}

// CreateFrom persists a caller-built instance, assigning a fresh id when it
// has none. Only the creation timestamp is written; push the remaining
// fields explicitly.
func (c *Collection[M]) CreateFrom(ctx context.Context, m *M) (CreateResult[M], error) {
	if asModel(m).ModelID() == "" {
		asModel(m).SetModelID(uuid.NewString())
	}
	return c.createInstance(ctx, m)
}

func (c *Collection[M]) createInstance(ctx context.Context, m *M) (CreateResult[M], error) {
	asModel(m).SetModelCreatedAt(time.Now().UTC())
	key := c.schema.key(asModel(m).ModelID())

	exists, err := c.client.store.Exists(ctx, key)
	if err != nil {
		return CreateResult[M]{}, fmt.Errorf("create %s: %w", key, err)
	}
	if exists {
		return CreateResult[M]{
			Succeeded: false,
			Message:   fmt.Sprintf("an object with the key [%s] already exists", key),
			Model:     m,
		}, nil
	}

	fields := map[string]string{
		createdAtField: codec.EncodeTime(asModel(m).ModelCreatedAt()),
	}
	if err := c.client.store.HSet(ctx, key, fields); err != nil {
		return CreateResult[M]{}, fmt.Errorf("create %s: %w", key, err)
	}

	return CreateResult[M]{Succeeded: true, Message: "successfully created", Model: m}, nil
}

// CreateMany allocates a contiguous block of numeric ids via the atomic
// per-index counter and creates all of them in one transaction: either
// every record exists afterwards or none does.
func (c *Collection[M]) CreateMany(ctx context.Context, count int) (BulkCreateResult[M], error) {
	if count <= 0 {
		return BulkCreateResult[M]{}, fmt.Errorf("hashmodel: create count must be positive, got %d", count)
	}

	next, err := c.client.store.HIncrBy(ctx, c.client.counterKey, c.schema.index, int64(count))
	if err != nil {
		return BulkCreateResult[M]{}, fmt.Errorf("allocate ids for %s: %w", c.schema.index, err)
	}

	start := next - int64(count)
	ids := make([]string, count)
	for i := range ids {
		ids[i] = strconv.FormatInt(start+int64(i), 10)
	}

	return c.createBatch(ctx, ids)
}

// CreateManyIDs creates one record per caller-supplied id, transactionally.
// Empty or duplicated ids are a structural error.
func (c *Collection[M]) CreateManyIDs(ctx context.Context, ids []string) (BulkCreateResult[M], error) {
	if len(ids) == 0 {
		return BulkCreateResult[M]{}, errors.New("hashmodel: no ids given")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return BulkCreateResult[M]{}, errors.New("hashmodel: empty id in batch")
		}
		if _, dup := seen[id]; dup {
			return BulkCreateResult[M]{}, fmt.Errorf("hashmodel: duplicate id %q in batch", id)
		}
		seen[id] = struct{}{}
	}

	return c.createBatch(ctx, ids)
}

func (c *Collection[M]) createBatch(ctx context.Context, ids []string) (BulkCreateResult[M], error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.schema.key(id)
	}

	// One pipelined round trip for the whole existence pre-check.
	existing, err := c.client.store.ExistsMulti(ctx, keys)
	if err != nil {
		return BulkCreateResult[M]{}, fmt.Errorf("check existing ids for %s: %w", c.schema.index, err)
	}
	for i, exists := range existing {
		if exists {
			return BulkCreateResult[M]{
				Succeeded: false,
				Message:   fmt.Sprintf("object id %s already exists; no records were created", ids[i]),
			}, nil
		}
	}

	now := time.Now().UTC()
	wire := codec.EncodeTime(now)
	models := make([]*M, len(ids))
	items := make([]db.HashSetItem, len(ids))
	for i, id := range ids {
		m := c.schema.newInstance(id)
		asModel(m).SetModelCreatedAt(now)
		models[i] = m
		items[i] = db.HashSetItem{Key: keys[i], Fields: map[string]string{createdAtField: wire}}
	}

	if err := c.client.store.TxHSet(ctx, items); err != nil {
		if errors.Is(err, db.ErrTxAborted) {
			return BulkCreateResult[M]{
				Succeeded: false,
				Message:   "creation transaction aborted; no records were created",
			}, nil
		}
		return BulkCreateResult[M]{}, fmt.Errorf("persist batch for %s: %w", c.schema.index, err)
	}

	return BulkCreateResult[M]{Succeeded: true, Message: "successfully created", Models: models}, nil
}

// Load materializes a model by id. With no field names, every registered
// field is hydrated; otherwise only the named ones. Returns ErrNotFound
// when the key does not exist.
func (c *Collection[M]) Load(ctx context.Context, id string, fields ...string) (*M, error) {
	return loadModel(ctx, c.client, c.schema, id, fields...)
}

// LoadMany materializes several models, skipping ids with no record. The
// existence checks and field reads are pipelined.
func (c *Collection[M]) LoadMany(ctx context.Context, ids []string, fields ...string) ([]*M, error) {
	return loadManyModels(ctx, c.client, c.schema, ids, fields...)
}

// Push writes the named fields' current in-memory values to the store, one
// result per field. Non-serializable fields and uniqueness violations come
// back as failed results without a write; an unknown field name is a hard
// error.
func (c *Collection[M]) Push(ctx context.Context, m *M, fields ...string) ([]PushResult[M], error) {
	return pushFields(ctx, c.client, c.schema, m, fields...)
}

// Pull reads the named fields (all serializable fields when none are named)
// into the instance. Absent wire values leave the field unchanged.
func (c *Collection[M]) Pull(ctx context.Context, m *M, fields ...string) error {
	return pullFields(ctx, c.client, c.schema, m, fields...)
}

// Increment atomically increments an integer field's backing value and
// mirrors the new value into the instance.
func (c *Collection[M]) Increment(ctx context.Context, m *M, field string, delta int64) (int64, error) {
	return incrementField(ctx, c.client, c.schema, m, field, delta)
}

// Delete removes the model's primary key, cascades into nested documents
// and managed links, and scans out any orphaned sub-keys sharing the
// primary key prefix. Scan cleanup is best-effort: its failures are logged,
// not returned.
func (c *Collection[M]) Delete(ctx context.Context, m *M) error {
	return deleteModel(ctx, c.client, c.schema, m)
}

// --- shared persistence plumbing (also used by nested/link components) ---

func pushFields[M any](ctx context.Context, cl *Client, s *Schema[M], m *M, names ...string) ([]PushResult[M], error) {
	id := asModel(m).ModelID()
	if id == "" {
		return nil, ErrMissingID
	}
	key := s.key(id)

	results := make([]PushResult[M], 0, len(names))
	for _, name := range names {
		f, ok := s.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in schema %q", ErrUnknownField, name, s.index)
		}
		if !f.serializable {
			results = append(results, PushResult[M]{
				Succeeded: false,
				Message:   "field is not serializable",
				Field:     name,
				Model:     m,
			})
			continue
		}

		wire, hasValue, err := f.encode(m)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", name, err)
		}
		if !hasValue {
			if err := cl.store.HDel(ctx, key, name); err != nil {
				return nil, fmt.Errorf("clear field %q: %w", name, err)
			}
			results = append(results, PushResult[M]{
				Succeeded: true, Message: "field cleared", Field: name, Model: m,
			})
			continue
		}

		if f.unique {
			taken, err := uniqueValueTaken(ctx, cl, s.index, key, name, wire)
			if err != nil {
				return nil, fmt.Errorf("uniqueness check for %q: %w", name, err)
			}
			if taken {
				results = append(results, PushResult[M]{
					Succeeded: false,
					Message:   fmt.Sprintf("value %q is already in use", wire),
					Field:     name,
					Model:     m,
				})
				continue
			}
		}

		if err := cl.store.HSet(ctx, key, map[string]string{name: wire}); err != nil {
			return nil, fmt.Errorf("push field %q: %w", name, err)
		}
		results = append(results, PushResult[M]{
			Succeeded: true, Message: "successfully pushed", Field: name, Model: m,
		})
	}
	return results, nil
}

// uniqueValueTaken runs a tag-equality search for the candidate value and
// reports whether any other record already holds it. The check is
// optimistic: it is not linearizable with a concurrent writer pushing the
// same value.
func uniqueValueTaken(ctx context.Context, cl *Client, index, ownKey, field, wire string) (bool, error) {
	query := fmt.Sprintf("@%s:{%s}", field, escapeValue.Replace(wire))
	res, err := cl.store.Search(ctx, index, query, 0, 2)
	if err != nil {
		return false, err
	}
	for _, key := range res.Keys {
		if key != ownKey {
			return true, nil
		}
	}
	// More matches than the probe fetched can only mean another holder.
	return res.Total > len(res.Keys), nil
}

func pullFields[M any](ctx context.Context, cl *Client, s *Schema[M], m *M, names ...string) error {
	id := asModel(m).ModelID()
	if id == "" {
		return ErrMissingID
	}

	targets, err := s.serializableSubset(names)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	values, err := cl.store.HGet(ctx, s.key(id), targets)
	if err != nil {
		return fmt.Errorf("pull %s: %w", s.key(id), err)
	}

	for i, v := range values {
		if !v.Present {
			continue // absent wire value leaves the field unchanged
		}
		f := s.byName[targets[i]]
		if err := f.decode(m, v.Data); err != nil {
			return fmt.Errorf("decode field %q: %w", targets[i], err)
		}
	}
	return nil
}

func incrementField[M any](ctx context.Context, cl *Client, s *Schema[M], m *M, name string, delta int64) (int64, error) {
	id := asModel(m).ModelID()
	if id == "" {
		return 0, ErrMissingID
	}

	f, ok := s.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q in schema %q", ErrUnknownField, name, s.index)
	}
	if f.setInt == nil {
		return 0, fmt.Errorf("hashmodel: field %q is not an integer field", name)
	}

	newValue, err := cl.store.HIncrBy(ctx, s.key(id), name, delta)
	if err != nil {
		return 0, fmt.Errorf("increment field %q: %w", name, err)
	}

	f.setInt(m, newValue)
	return newValue, nil
}

// serializableSubset resolves the requested names (all fields when empty)
// to the serializable ones, rejecting unknown names and silently skipping
// nested/link fields and the identity field.
func (s *Schema[M]) serializableSubset(names []string) ([]string, error) {
	if len(names) == 0 {
		names = s.fieldNames()
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "Id" {
			continue
		}
		f, ok := s.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in schema %q", ErrUnknownField, name, s.index)
		}
		if !f.serializable {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}
