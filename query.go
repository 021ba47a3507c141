package hashmodel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

// Query accumulates search conditions for one collection. Conditions compile
// eagerly on Where; the first compile error sticks and surfaces on execution.
// A Query with no conditions matches everything.
type Query[M any] struct {
	coll       *Collection[M]
	conditions []string
	err        error
}

// Query starts a search over the collection, optionally seeded with
// conditions.
func (c *Collection[M]) Query(exprs ...Expr) *Query[M] {
	q := &Query[M]{coll: c}
	for _, e := range exprs {
		q.Where(e)
	}
	return q
}

// Where adds a condition. Multiple conditions combine conjunctively.
func (q *Query[M]) Where(e Expr) *Query[M] {
	if q.err != nil {
		return q
	}
	frag, err := q.coll.schema.compile(e, time.Now())
	if err != nil {
		q.err = err
		return q
	}
	if frag != "" {
		q.conditions = append(q.conditions, frag)
	}
	return q
}

// QueryString renders the accumulated conditions in the search grammar.
// Top-level conditions are space-joined without extra parentheses.
func (q *Query[M]) QueryString() string {
	switch len(q.conditions) {
	case 0:
		return "*"
	case 1:
		return q.conditions[0]
	default:
		return strings.Join(q.conditions, " ")
	}
}

func (q *Query[M]) execute(ctx context.Context, page, pageSize int) (*db.SearchResult, error) {
	if q.err != nil {
		return nil, q.err
	}
	if pageSize <= 0 {
		pageSize = q.coll.client.defaultPageSize
	}
	if pageSize > q.coll.client.maxPageSize {
		pageSize = q.coll.client.maxPageSize
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	res, err := q.coll.client.store.Search(ctx, q.coll.schema.index, q.QueryString(), offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", q.coll.schema.index, err)
	}
	return res, nil
}

func (q *Query[M]) idFromKey(key string) string {
	return strings.TrimPrefix(key, q.coll.schema.index+":")
}

func (q *Query[M]) stubsFromKeys(keys []string) []*M {
	models := make([]*M, len(keys))
	for i, key := range keys {
		models[i] = q.coll.schema.newInstance(q.idFromKey(key))
	}
	return models
}

// ToList returns the first page of matches as id-only stubs. Follow with
// Load/Pull, or use Select to fetch fields in bulk.
func (q *Query[M]) ToList(ctx context.Context) ([]*M, error) {
	res, err := q.execute(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	return q.stubsFromKeys(res.Keys), nil
}

// ToPagedList returns one page of matching stubs with total counts. Pages
// are 1-based.
func (q *Query[M]) ToPagedList(ctx context.Context, page, pageSize int) (Page[M], error) {
	res, err := q.execute(ctx, page, pageSize)
	if err != nil {
		return Page[M]{}, err
	}
	if pageSize <= 0 {
		pageSize = q.coll.client.defaultPageSize
	}
	return Page[M]{
		Items:      q.stubsFromKeys(res.Keys),
		TotalCount: res.Total,
		TotalPages: (res.Total + pageSize - 1) / pageSize,
	}, nil
}

// Any reports whether at least one record matches.
func (q *Query[M]) Any(ctx context.Context) (bool, error) {
	res, err := q.execute(ctx, 1, 1)
	if err != nil {
		return false, err
	}
	return res.Total > 0, nil
}

// Count returns the number of matching records without fetching keys.
func (q *Query[M]) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	n, err := q.coll.client.store.SearchCount(ctx, q.coll.schema.index, q.QueryString())
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.coll.schema.index, err)
	}
	return n, nil
}

// Select returns the first page of matches with the named fields populated
// (all serializable fields when none are named), fetched in one pipelined
// round trip.
func (q *Query[M]) Select(ctx context.Context, fields ...string) ([]*M, error) {
	page, err := q.SelectPaged(ctx, 1, 0, fields...)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SelectPaged is Select with explicit 1-based paging.
func (q *Query[M]) SelectPaged(ctx context.Context, page, pageSize int, fields ...string) (Page[M], error) {
	res, err := q.execute(ctx, page, pageSize)
	if err != nil {
		return Page[M]{}, err
	}
	if pageSize <= 0 {
		pageSize = q.coll.client.defaultPageSize
	}

	scalars, err := q.coll.schema.serializableSubset(fields)
	if err != nil {
		return Page[M]{}, err
	}

	models := q.stubsFromKeys(res.Keys)
	if len(models) > 0 && len(scalars) > 0 {
		rows, err := q.coll.client.store.HGetMulti(ctx, res.Keys, scalars)
		if err != nil {
			return Page[M]{}, fmt.Errorf("select %s: %w", q.coll.schema.index, err)
		}
		for i, row := range rows {
			for j, name := range scalars {
				if !row[j].Present {
					continue
				}
				f := q.coll.schema.byName[name]
				if err := f.decode(models[i], row[j].Data); err != nil {
					return Page[M]{}, fmt.Errorf("decode field %q: %w", name, err)
				}
			}
		}
	}

	return Page[M]{
		Items:      models,
		TotalCount: res.Total,
		TotalPages: (res.Total + pageSize - 1) / pageSize,
	}, nil
}
