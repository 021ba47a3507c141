package hashmodel

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/hashmodel-db/hashmodel/internal/codec"
)

// Kind governs how a field's predicates compile into the search grammar.
type Kind int

const (
	// Auto resolves to Text for string values and Numeric otherwise.
	Auto Kind = iota
	// Text is a tokenized full-text field supporting wildcard predicates.
	Text
	// Tag is an exact-match categorical field. Contains/StartsWith/EndsWith
	// degrade to an exact match: tags cannot be partially matched. That is a
	// limitation of the tag index, not a bug.
	Tag
	// Numeric is a range-searchable numeric field.
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Auto:
		return "auto"
	case Text:
		return "text"
	case Tag:
		return "tag"
	case Numeric:
		return "numeric"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// createdAtField is the hash field holding the creation timestamp.
const createdAtField = "CreatedAt"

// fieldSpec is the per-field metadata table entry: wire accessors plus the
// declarative flags, resolved once at registration time.
type fieldSpec[M any] struct {
	name         string
	kind         Kind
	unique       bool
	eager        bool // nested-document eager-hydrate flag
	serializable bool

	// encode returns the wire form of the field's current value. ok=false
	// means "no value": the backing hash field is removed on push.
	encode func(m *M) (wire string, ok bool, err error)
	// decode writes a wire value into the instance. Strictly typed scalars
	// propagate parse errors; the opaque JSON path degrades to the zero value.
	decode func(m *M, wire string) error
	// setInt mirrors an atomic increment into the instance (integer fields only).
	setInt func(m *M, v int64)

	nested *nestedSpec[M]
	link   *linkSpec[M]
}

// nestedSpec holds type-erased operations over a nested-document field,
// instantiated with the target schema at registration.
type nestedSpec[M any] struct {
	// eagerLoad fully hydrates the nested record (creating it when missing)
	// and assigns it to the parent.
	eagerLoad func(ctx context.Context, cl *Client, parent *M, derivedID string) error
	// stub assigns an empty instance carrying only the derived id.
	stub func(parent *M, derivedID string)
	// cascade deletes the nested record and everything under it.
	cascade func(ctx context.Context, cl *Client, parent *M, derivedID string) error
}

// linkSpec holds operations over a link component field.
type linkSpec[M any] struct {
	managed bool
	// bind assigns a store-bound component to the parent instance.
	bind func(cl *Client, parent *M, parentKey string)
	// cascade clears a managed collection, deleting its referents.
	cascade func(ctx context.Context, cl *Client, parentKey string) error
}

// Field is one schema entry produced by the typed constructors below.
type Field[M any] struct {
	spec fieldSpec[M]
}

// FieldOption tunes a field's index metadata.
type FieldOption func(*fieldMeta)

type fieldMeta struct {
	kind    Kind
	unique  bool
	eager   bool
	managed bool
}

// Indexed sets the field's index kind.
func Indexed(kind Kind) FieldOption {
	return func(m *fieldMeta) { m.kind = kind }
}

// Unique marks the field as unique within its index. The check performed on
// push is optimistic: it races with concurrent writers of the same value and
// is not a server-enforced constraint.
func Unique() FieldOption {
	return func(m *fieldMeta) {
		m.unique = true
		m.kind = Tag
	}
}

// Hydrate marks a nested-document field for eager hydration on load.
func Hydrate() FieldOption {
	return func(m *fieldMeta) { m.eager = true }
}

// Managed marks a link collection as owning its referents: removing a link
// (or clearing the collection) also deletes the referenced records.
func Managed() FieldOption {
	return func(m *fieldMeta) { m.managed = true }
}

func applyOptions(opts []FieldOption) fieldMeta {
	var m fieldMeta
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Schema is the immutable per-type descriptor table. Build one per model
// type with NewSchema, typically in a package-level var.
type Schema[M any] struct {
	index    string
	hydrated bool
	fields   []*fieldSpec[M]
	byName   map[string]*fieldSpec[M]
}

// NewSchema builds the descriptor table for M and registers it under the
// given index name. *M must implement Model (embed Base); a violation is a
// programming error and panics at registration.
func NewSchema[M any](index string, fields ...Field[M]) *Schema[M] {
	if index == "" {
		panic("hashmodel: schema index name is empty")
	}
	if _, ok := any(new(M)).(Model); !ok {
		panic(fmt.Sprintf("hashmodel: *%T must implement Model; embed hashmodel.Base", *new(M)))
	}

	s := &Schema[M]{
		index:  index,
		byName: make(map[string]*fieldSpec[M], len(fields)+1),
	}

	created := &fieldSpec[M]{
		name:         createdAtField,
		kind:         Numeric,
		serializable: true,
		encode: func(m *M) (string, bool, error) {
			return codec.EncodeTime(asModel(m).ModelCreatedAt()), true, nil
		},
		decode: func(m *M, wire string) error {
			t, err := codec.DecodeTime(wire)
			if err != nil {
				return err
			}
			asModel(m).SetModelCreatedAt(t)
			return nil
		},
	}
	s.add(created)

	for i := range fields {
		spec := fields[i].spec
		if spec.name == "" || spec.name == "Id" || spec.name == createdAtField {
			panic(fmt.Sprintf("hashmodel: invalid field name %q in schema %q", spec.name, index))
		}
		s.add(&spec)
	}

	registerSchema(index, s)
	return s
}

func (s *Schema[M]) add(f *fieldSpec[M]) {
	if _, dup := s.byName[f.name]; dup {
		panic(fmt.Sprintf("hashmodel: duplicate field %q in schema %q", f.name, s.index))
	}
	s.fields = append(s.fields, f)
	s.byName[f.name] = f
}

// Hydrated marks the whole type for eager hydration: loads fetch scalar
// fields and follow nested eager flags. Without it, loads produce stubs and
// issue no reads. Call at declaration time only.
func (s *Schema[M]) Hydrated() *Schema[M] {
	s.hydrated = true
	return s
}

// Index returns the schema's index name.
func (s *Schema[M]) Index() string { return s.index }

func (s *Schema[M]) key(id string) string {
	return s.index + ":" + id
}

func (s *Schema[M]) newInstance(id string) *M {
	m := new(M)
	asModel(m).SetModelID(id)
	return m
}

// fieldNames returns every registered field name, in declaration order.
func (s *Schema[M]) fieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// --- scalar field constructors ---

func String[M any](name string, get func(*M) string, set func(*M, string), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return get(m), true, nil },
		decode: func(m *M, wire string) error { set(m, wire); return nil },
	}}
}

func Bool[M any](name string, get func(*M) bool, set func(*M, bool), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return codec.EncodeBool(get(m)), true, nil },
		decode: func(m *M, wire string) error { set(m, codec.DecodeBool(wire)); return nil },
	}}
}

func Int32[M any](name string, get func(*M) int32, set func(*M, int32), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return codec.EncodeInt(int64(get(m))), true, nil },
		decode: func(m *M, wire string) error {
			n, err := codec.DecodeInt(wire)
			if err != nil {
				return err
			}
			set(m, int32(n))
			return nil
		},
		setInt: func(m *M, v int64) { set(m, int32(v)) },
	}}
}

func Int64[M any](name string, get func(*M) int64, set func(*M, int64), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return codec.EncodeInt(get(m)), true, nil },
		decode: func(m *M, wire string) error {
			n, err := codec.DecodeInt(wire)
			if err != nil {
				return err
			}
			set(m, n)
			return nil
		},
		setInt: set,
	}}
}

func Float64[M any](name string, get func(*M) float64, set func(*M, float64), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return codec.EncodeFloat(get(m)), true, nil },
		decode: func(m *M, wire string) error {
			f, err := codec.DecodeFloat(wire)
			if err != nil {
				return err
			}
			set(m, f)
			return nil
		},
	}}
}

// StringPtr stores an optional string. A nil value removes the backing hash
// field on push; an absent field leaves the pointer untouched on read.
func StringPtr[M any](name string, get func(*M) *string, set func(*M, *string), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) {
			p := get(m)
			if p == nil {
				return "", false, nil
			}
			return *p, true, nil
		},
		decode: func(m *M, wire string) error { set(m, &wire); return nil },
	}}
}

// TimePtr stores an optional timestamp; nil removes the backing hash field
// on push.
func TimePtr[M any](name string, get func(*M) *time.Time, set func(*M, *time.Time), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) {
			p := get(m)
			if p == nil {
				return "", false, nil
			}
			return codec.EncodeTime(*p), true, nil
		},
		decode: func(m *M, wire string) error {
			t, err := codec.DecodeTime(wire)
			if err != nil {
				return err
			}
			set(m, &t)
			return nil
		},
	}}
}

// Decimal stores an exact decimal literal as-is. Decoding validates the
// wire value parses as a rational; malformed data is a hard error like the
// other strictly typed scalars.
func Decimal[M any](name string, get func(*M) string, set func(*M, string), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return get(m), true, nil },
		decode: func(m *M, wire string) error {
			if _, ok := new(big.Rat).SetString(wire); !ok {
				return fmt.Errorf("decode decimal %q", wire)
			}
			set(m, wire)
			return nil
		},
	}}
}

// Time stores a timestamp as integer epoch seconds, UTC.
func Time[M any](name string, get func(*M) time.Time, set func(*M, time.Time), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return codec.EncodeTime(get(m)), true, nil },
		decode: func(m *M, wire string) error {
			t, err := codec.DecodeTime(wire)
			if err != nil {
				return err
			}
			set(m, t)
			return nil
		},
	}}
}

// Duration stores a duration as fractional seconds.
func Duration[M any](name string, get func(*M) time.Duration, set func(*M, time.Duration), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) { return codec.EncodeDuration(get(m)), true, nil },
		decode: func(m *M, wire string) error {
			d, err := codec.DecodeDuration(wire)
			if err != nil {
				return err
			}
			set(m, d)
			return nil
		},
	}}
}

// Enum stores a named constant by its name. Unknown names on decode are hard
// errors, matching the strict scalar paths.
func Enum[M any, E comparable](
	name string,
	get func(*M) E, set func(*M, E),
	names map[E]string,
	opts ...FieldOption,
) Field[M] {
	meta := applyOptions(opts)
	byName := make(map[string]E, len(names))
	for v, n := range names {
		byName[n] = v
	}
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) {
			v := get(m)
			n, ok := names[v]
			if !ok {
				return "", false, fmt.Errorf("enum field %q: value %v has no name", name, v)
			}
			return n, true, nil
		},
		decode: func(m *M, wire string) error {
			v, ok := byName[wire]
			if !ok {
				return fmt.Errorf("enum field %q: unknown name %q", name, wire)
			}
			set(m, v)
			return nil
		},
	}}
}

// JSON stores an opaque structured value through the generic object encoder.
// A malformed wire value decodes to the zero value without error; this is
// the one lenient decode path.
func JSON[M any, V any](name string, get func(*M) V, set func(*M, V), opts ...FieldOption) Field[M] {
	meta := applyOptions(opts)
	return Field[M]{spec: fieldSpec[M]{
		name: name, kind: meta.kind, unique: meta.unique, serializable: true,
		encode: func(m *M) (string, bool, error) {
			wire, err := codec.EncodeJSON(get(m))
			if err != nil {
				return "", false, err
			}
			return wire, true, nil
		},
		decode: func(m *M, wire string) error {
			var v V
			if err := codec.DecodeJSON(wire, &v); err != nil {
				var zero V
				set(m, zero)
				return nil
			}
			set(m, v)
			return nil
		},
	}}
}

// --- schema registry ---

// The registry maps index names to their descriptors for diagnostics and
// duplicate detection. Populated once per type at registration; read-only
// afterwards.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]any)
)

func registerSchema(index string, s any) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[index]; dup {
		panic(fmt.Sprintf("hashmodel: index %q registered twice", index))
	}
	registry[index] = s
}

// LookupIndex reports whether a schema is registered under the index name.
func LookupIndex(index string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[index]
	return ok
}
