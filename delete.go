package hashmodel

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// deleteModel removes the primary key, notifies the model, cascades into
// nested documents and managed links, then sweeps any remaining sub-keys
// under the primary key prefix. The sweep is best-effort.
func deleteModel[M any](ctx context.Context, cl *Client, s *Schema[M], m *M) error {
	id := asModel(m).ModelID()
	if id == "" {
		return ErrMissingID
	}
	key := s.key(id)

	if err := cl.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	if listener, ok := any(m).(DeletionListener); ok {
		if err := listener.OnDeleted(ctx); err != nil {
			return fmt.Errorf("deletion listener for %s: %w", key, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range s.fields {
		switch {
		case f.nested != nil:
			nested := f.nested
			derivedID := id + "_" + f.name
			g.Go(func() error {
				return nested.cascade(gctx, cl, m, derivedID)
			})
		case f.link != nil && f.link.managed:
			link := f.link
			g.Go(func() error {
				return link.cascade(gctx, cl, key)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cascade for %s: %w", key, err)
	}

	// Sweep orphaned sub-keys (link hashes, nested leftovers). A failure
	// here leaves garbage, not inconsistency, so it is logged and swallowed.
	log := cl.logFor(ctx)
	keys, err := cl.store.Scan(ctx, key+"*", cl.scanBatchSize)
	if err != nil {
		log.Warn("sub-key sweep failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if len(keys) > 0 {
		if err := cl.store.Del(ctx, keys...); err != nil {
			log.Warn("sub-key cleanup failed", zap.String("key", key), zap.Int("count", len(keys)), zap.Error(err))
		}
	}
	return nil
}
