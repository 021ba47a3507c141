package hashmodel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// LinkRef is a single reference to a record of another index, stored as one
// field of the parent's "{parentKey}:links" hash. The zero value is unbound;
// instances are wired onto the parent during hydration.
type LinkRef[N any] struct {
	client   *Client
	schema   *Schema[N]
	linksKey string
	field    string
}

// SetID points the reference at the given id.
func (l *LinkRef[N]) SetID(ctx context.Context, id string) error {
	if id == "" {
		return l.Clear(ctx)
	}
	if err := l.client.store.HSet(ctx, l.linksKey, map[string]string{l.field: id}); err != nil {
		return fmt.Errorf("set link %s.%s: %w", l.linksKey, l.field, err)
	}
	return nil
}

// Set points the reference at the given record; nil clears it.
func (l *LinkRef[N]) Set(ctx context.Context, n *N) error {
	if n == nil {
		return l.Clear(ctx)
	}
	id := asModel(n).ModelID()
	if id == "" {
		return ErrMissingID
	}
	return l.SetID(ctx, id)
}

// ID returns the referenced id, or empty when the reference is unset.
func (l *LinkRef[N]) ID(ctx context.Context) (string, error) {
	values, err := l.client.store.HGet(ctx, l.linksKey, []string{l.field})
	if err != nil {
		return "", fmt.Errorf("read link %s.%s: %w", l.linksKey, l.field, err)
	}
	if len(values) == 0 || !values[0].Present {
		return "", nil
	}
	return values[0].Data, nil
}

// Get loads the referenced record. An unset reference or a dangling id
// yields ErrNotFound.
func (l *LinkRef[N]) Get(ctx context.Context) (*N, error) {
	id, err := l.ID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: link %s.%s is unset", ErrNotFound, l.linksKey, l.field)
	}
	return loadModel(ctx, l.client, l.schema, id)
}

// Clear unsets the reference. The referenced record is untouched.
func (l *LinkRef[N]) Clear(ctx context.Context) error {
	if err := l.client.store.HDel(ctx, l.linksKey, l.field); err != nil {
		return fmt.Errorf("clear link %s.%s: %w", l.linksKey, l.field, err)
	}
	return nil
}

// LinkSet is an unordered id collection referencing records of another
// index, stored as the set "{parentKey}:{field}:links". A managed set owns
// its referents: removing a member or clearing the set deletes the records
// themselves.
type LinkSet[N any] struct {
	client  *Client
	schema  *Schema[N]
	setKey  string
	managed bool
}

// Add inserts the given ids into the set.
func (l *LinkSet[N]) Add(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if id == "" {
			return ErrMissingID
		}
	}
	if err := l.client.store.SAdd(ctx, l.setKey, ids...); err != nil {
		return fmt.Errorf("add to link set %s: %w", l.setKey, err)
	}
	return nil
}

// AddModels inserts the ids of the given records.
func (l *LinkSet[N]) AddModels(ctx context.Context, ns ...*N) error {
	ids := make([]string, len(ns))
	for i, n := range ns {
		ids[i] = asModel(n).ModelID()
	}
	return l.Add(ctx, ids...)
}

// Remove drops an id from the set and reports whether it was a member. On a
// managed set a removed member's record is deleted as well.
func (l *LinkSet[N]) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := l.client.store.SRem(ctx, l.setKey, id)
	if err != nil {
		return false, fmt.Errorf("remove from link set %s: %w", l.setKey, err)
	}
	if removed == 0 {
		return false, nil
	}
	if l.managed {
		if err := deleteModel(ctx, l.client, l.schema, l.schema.newInstance(id)); err != nil {
			return true, err
		}
	}
	return true, nil
}

// IDs returns the member ids, unordered.
func (l *LinkSet[N]) IDs(ctx context.Context) ([]string, error) {
	ids, err := l.client.store.SMembers(ctx, l.setKey)
	if err != nil {
		return nil, fmt.Errorf("read link set %s: %w", l.setKey, err)
	}
	return ids, nil
}

// All loads every member record, skipping dangling ids.
func (l *LinkSet[N]) All(ctx context.Context, fields ...string) ([]*N, error) {
	ids, err := l.IDs(ctx)
	if err != nil {
		return nil, err
	}
	return loadManyModels(ctx, l.client, l.schema, ids, fields...)
}

// Clear empties the set. On a managed set every referent is deleted first.
func (l *LinkSet[N]) Clear(ctx context.Context) error {
	if l.managed {
		ids, err := l.IDs(ctx)
		if err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				return deleteModel(gctx, l.client, l.schema, l.schema.newInstance(id))
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("clear managed link set %s: %w", l.setKey, err)
		}
	}
	if err := l.client.store.Del(ctx, l.setKey); err != nil {
		return fmt.Errorf("clear link set %s: %w", l.setKey, err)
	}
	return nil
}

// Delete implements Deletable; it is Clear.
func (l *LinkSet[N]) Delete(ctx context.Context) error { return l.Clear(ctx) }

// Link declares a single-reference field targeting another schema. The
// reference lives in the parent's links hash; it is wired onto the instance
// during hydration and never serialized with the parent's scalars.
func Link[M, N any](
	name string,
	target *Schema[N],
	set func(*M, *LinkRef[N]),
	opts ...FieldOption,
) Field[M] {
	return Field[M]{spec: fieldSpec[M]{
		name: name,
		link: &linkSpec[M]{
			bind: func(cl *Client, parent *M, parentKey string) {
				set(parent, &LinkRef[N]{
					client:   cl,
					schema:   target,
					linksKey: parentKey + ":links",
					field:    name,
				})
			},
		},
	}}
}

// Links declares an id-collection field targeting another schema. With the
// Managed option the collection owns its referents and deleting the parent
// cascades through them.
func Links[M, N any](
	name string,
	target *Schema[N],
	set func(*M, *LinkSet[N]),
	opts ...FieldOption,
) Field[M] {
	meta := applyOptions(opts)

	component := func(cl *Client, parentKey string) *LinkSet[N] {
		return &LinkSet[N]{
			client:  cl,
			schema:  target,
			setKey:  parentKey + ":" + name + ":links",
			managed: meta.managed,
		}
	}

	spec := &linkSpec[M]{
		managed: meta.managed,
		bind: func(cl *Client, parent *M, parentKey string) {
			set(parent, component(cl, parentKey))
		},
	}
	if meta.managed {
		spec.cascade = func(ctx context.Context, cl *Client, parentKey string) error {
			return component(cl, parentKey).Clear(ctx)
		}
	}

	return Field[M]{spec: fieldSpec[M]{name: name, link: spec}}
}
