package hashmodel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

func loadModel[M any](ctx context.Context, cl *Client, s *Schema[M], id string, fields ...string) (*M, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	exists, err := cl.store.Exists(ctx, s.key(id))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.key(id), err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.key(id))
	}

	m := s.newInstance(id)
	if err := hydrateModel(ctx, cl, s, m, fields, nil); err != nil {
		return nil, err
	}
	return m, nil
}

func loadManyModels[M any](ctx context.Context, cl *Client, s *Schema[M], ids []string, fields ...string) ([]*M, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	existing, err := cl.store.ExistsMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load batch for %s: %w", s.index, err)
	}

	var validIDs []string
	var validKeys []string
	for i, ok := range existing {
		if ok {
			validIDs = append(validIDs, ids[i])
			validKeys = append(validKeys, keys[i])
		}
	}
	if len(validIDs) == 0 {
		return nil, nil
	}

	// With hydration enabled, all scalar reads go out in one pipelined
	// round trip; per-model hydration then decodes from the shared bags.
	var bags []map[string]db.Value
	if s.hydrated {
		scalars, err := s.serializableSubset(fields)
		if err != nil {
			return nil, err
		}
		if len(scalars) > 0 {
			rows, err := cl.store.HGetMulti(ctx, validKeys, scalars)
			if err != nil {
				return nil, fmt.Errorf("load batch for %s: %w", s.index, err)
			}
			bags = make([]map[string]db.Value, len(rows))
			for i, row := range rows {
				bag := make(map[string]db.Value, len(scalars))
				for j, name := range scalars {
					bag[name] = row[j]
				}
				bags[i] = bag
			}
		}
	}

	models := make([]*M, len(validIDs))
	for i, id := range validIDs {
		m := s.newInstance(id)
		var bag map[string]db.Value
		if bags != nil {
			bag = bags[i]
		}
		if err := hydrateModel(ctx, cl, s, m, fields, bag); err != nil {
			return nil, err
		}
		models[i] = m
	}
	return models, nil
}

// hydrateModel fills an instance's fields from the store. With hydration
// disabled on the schema it assigns nested stubs and link components and
// issues no reads at all. A prefetched bag (from a batch load) suppresses
// the per-model scalar read.
func hydrateModel[M any](ctx context.Context, cl *Client, s *Schema[M], m *M, names []string, bag map[string]db.Value) error {
	id := asModel(m).ModelID()
	if len(names) == 0 {
		names = s.fieldNames()
	}

	if s.hydrated && bag == nil {
		scalars, err := s.serializableSubset(names)
		if err != nil {
			return err
		}
		if len(scalars) > 0 {
			values, err := cl.store.HGet(ctx, s.key(id), scalars)
			if err != nil {
				return fmt.Errorf("hydrate %s: %w", s.key(id), err)
			}
			bag = make(map[string]db.Value, len(scalars))
			for i, name := range scalars {
				bag[name] = values[i]
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		if name == "Id" {
			continue
		}
		f, ok := s.byName[name]
		if !ok {
			return fmt.Errorf("%w: %q in schema %q", ErrUnknownField, name, s.index)
		}

		switch {
		case f.nested != nil:
			derivedID := id + "_" + f.name
			if s.hydrated && f.eager {
				nested := f.nested
				g.Go(func() error {
					return nested.eagerLoad(gctx, cl, m, derivedID)
				})
			} else {
				f.nested.stub(m, derivedID)
			}
		case f.link != nil:
			f.link.bind(cl, m, s.key(id))
		default:
			if bag == nil {
				continue
			}
			v, ok := bag[name]
			if !ok || !v.Present {
				continue
			}
			if err := f.decode(m, v.Data); err != nil {
				return fmt.Errorf("decode field %q: %w", name, err)
			}
		}
	}
	return g.Wait()
}
