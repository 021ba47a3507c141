package hashmodel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

// mockStore implements db.Store for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	txHSetFn      func(ctx context.Context, items []db.HashSetItem) error
	hgetFn        func(ctx context.Context, key string, fields []string) ([]db.Value, error)
	hgetMultiFn   func(ctx context.Context, keys []string, fields []string) ([][]db.Value, error)
	hdelFn        func(ctx context.Context, key string, fields ...string) error
	hincrByFn     func(ctx context.Context, key, field string, delta int64) (int64, error)
	existsFn      func(ctx context.Context, key string) (bool, error)
	existsMultiFn func(ctx context.Context, keys []string) ([]bool, error)
	delFn         func(ctx context.Context, keys ...string) error
	scanFn        func(ctx context.Context, pattern string, batchSize int64) ([]string, error)
	saddFn        func(ctx context.Context, key string, members ...string) error
	sremFn        func(ctx context.Context, key string, members ...string) (int64, error)
	smembersFn    func(ctx context.Context, key string) ([]string, error)
	searchFn      func(ctx context.Context, index, query string, offset, limit int) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) Ping(context.Context) error { return nil }
func (m *mockStore) Close() {}
func (m *mockStore) WaitForReady(context.Context, time.Duration) error {
	return nil
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) TxHSet(ctx context.Context, items []db.HashSetItem) error {
	if m.txHSetFn != nil {
		return m.txHSetFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGet(ctx context.Context, key string, fields []string) ([]db.Value, error) {
	if m.hgetFn != nil {
		return m.hgetFn(ctx, key, fields)
	}
	return make([]db.Value, len(fields)), nil
}

func (m *mockStore) HGetMulti(ctx context.Context, keys []string, fields []string) ([][]db.Value, error) {
	if m.hgetMultiFn != nil {
		return m.hgetMultiFn(ctx, keys, fields)
	}
	rows := make([][]db.Value, len(keys))
	for i := range rows {
		rows[i] = make([]db.Value, len(fields))
	}
	return rows, nil
}

func (m *mockStore) HDel(ctx context.Context, key string, fields ...string) error {
	if m.hdelFn != nil {
		return m.hdelFn(ctx, key, fields...)
	}
	return nil
}

func (m *mockStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	if m.hincrByFn != nil {
		return m.hincrByFn(ctx, key, field, delta)
	}
	return delta, nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if m.existsMultiFn != nil {
		return m.existsMultiFn(ctx, keys)
	}
	return make([]bool, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string, batchSize int64) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern, batchSize)
	}
	return nil, nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.saddFn != nil {
		return m.saddFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if m.sremFn != nil {
		return m.sremFn(ctx, key, members...)
	}
	return 0, nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, index, query string, offset, limit int) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, query, offset, limit)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestClient(ms *mockStore) *Client {
	return &Client{
		store:           ms,
		log:             zap.NewNop(),
		counterKey:      "index:counters",
		scanBatchSize:   100,
		defaultPageSize: 1000,
		maxPageSize:     10000,
	}
}

// --- fixture models ---

type color int

const (
	colorRed color = iota
	colorBlue
)

var colorNames = map[color]string{
	colorRed:  "red",
	colorBlue: "blue",
}

type engine struct {
	Base
	Horsepower int64
}

type account struct {
	Base
	Name     string
	Email    string
	Age      int64
	Balance  float64
	Active   bool
	Paint    color
	LastSeen time.Time
	Sessions int64
	Nickname *string

	Engine  *engine
	Spare   *LinkRef[engine]
	Devices *LinkSet[engine]
}

var (
	engineSchema = NewSchema[engine]("engine",
		Int64("Horsepower",
			func(e *engine) int64 { return e.Horsepower },
			func(e *engine, v int64) { e.Horsepower = v },
			Indexed(Numeric)),
	).Hydrated()

	accountSchema = NewSchema[account]("account",
		String("Name",
			func(a *account) string { return a.Name },
			func(a *account, v string) { a.Name = v },
			Indexed(Text)),
		String("Email",
			func(a *account) string { return a.Email },
			func(a *account, v string) { a.Email = v },
			Unique()),
		Int64("Age",
			func(a *account) int64 { return a.Age },
			func(a *account, v int64) { a.Age = v },
			Indexed(Numeric)),
		Float64("Balance",
			func(a *account) float64 { return a.Balance },
			func(a *account, v float64) { a.Balance = v },
			Indexed(Numeric)),
		Bool("Active",
			func(a *account) bool { return a.Active },
			func(a *account, v bool) { a.Active = v },
			Indexed(Numeric)),
		Enum("Paint",
			func(a *account) color { return a.Paint },
			func(a *account, v color) { a.Paint = v },
			colorNames,
			Indexed(Tag)),
		Time("LastSeen",
			func(a *account) time.Time { return a.LastSeen },
			func(a *account, v time.Time) { a.LastSeen = v },
			Indexed(Numeric)),
		Int64("Sessions",
			func(a *account) int64 { return a.Sessions },
			func(a *account, v int64) { a.Sessions = v }),
		StringPtr("Nickname",
			func(a *account) *string { return a.Nickname },
			func(a *account, v *string) { a.Nickname = v }),
		Nested("Engine", engineSchema,
			func(a *account) *engine { return a.Engine },
			func(a *account, e *engine) { a.Engine = e },
			Hydrate()),
		Link("Spare", engineSchema,
			func(a *account, l *LinkRef[engine]) { a.Spare = l }),
		Links("Devices", engineSchema,
			func(a *account, l *LinkSet[engine]) { a.Devices = l },
			Managed()),
	).Hydrated()

	// lazySchema never hydrates; loads produce stubs with zero reads.
	lazySchema = NewSchema[lazyDoc]("lazydoc",
		String("Title",
			func(d *lazyDoc) string { return d.Title },
			func(d *lazyDoc, v string) { d.Title = v },
			Indexed(Text)),
	)
)

type lazyDoc struct {
	Base
	Title string
}
