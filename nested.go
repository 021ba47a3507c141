package hashmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashmodel-db/hashmodel/internal/codec"
)

// Nested declares a nested-document field: a child record of the target
// schema whose id is derived from the parent as "{parentId}_{field}". On a
// hydrated load with the Hydrate option the child is loaded eagerly, and
// created on first touch when missing; otherwise the parent carries a stub
// with only the derived id set. Deleting the parent cascades into the child.
func Nested[M, N any](
	name string,
	target *Schema[N],
	get func(*M) *N, set func(*M, *N),
	opts ...FieldOption,
) Field[M] {
	meta := applyOptions(opts)

	ns := &nestedSpec[M]{
		eagerLoad: func(ctx context.Context, cl *Client, parent *M, derivedID string) error {
			n, err := loadModel(ctx, cl, target, derivedID)
			switch {
			case err == nil:
				set(parent, n)
				return nil
			case errors.Is(err, ErrNotFound):
				n := target.newInstance(derivedID)
				now := time.Now().UTC()
				asModel(n).SetModelCreatedAt(now)
				fields := map[string]string{createdAtField: codec.EncodeTime(now)}
				if err := cl.store.HSet(ctx, target.key(derivedID), fields); err != nil {
					return fmt.Errorf("create nested %s: %w", target.key(derivedID), err)
				}
				set(parent, n)
				return nil
			default:
				return err
			}
		},
		stub: func(parent *M, derivedID string) {
			set(parent, target.newInstance(derivedID))
		},
		cascade: func(ctx context.Context, cl *Client, parent *M, derivedID string) error {
			n := get(parent)
			if n == nil {
				n = target.newInstance(derivedID)
			} else if asModel(n).ModelID() == "" {
				asModel(n).SetModelID(derivedID)
			}
			return deleteModel(ctx, cl, target, n)
		},
	}

	return Field[M]{spec: fieldSpec[M]{
		name:   name,
		kind:   meta.kind,
		eager:  meta.eager,
		nested: ns,
	}}
}
