package hashmodel

import (
	"context"
	"time"
)

// Model is the identity surface every mapped type must expose. Embed Base
// to satisfy it.
type Model interface {
	ModelID() string
	SetModelID(id string)
	ModelCreatedAt() time.Time
	SetModelCreatedAt(t time.Time)
}

// DeletionListener is invoked after a model's primary key has been removed.
type DeletionListener interface {
	OnDeleted(ctx context.Context) error
}

// Deletable is the capability cascading delete recurses into. Managed link
// collections implement it; plain links do not (their keys share the owner's
// prefix and fall to scan cleanup).
type Deletable interface {
	Delete(ctx context.Context) error
}

// Base carries the identity fields shared by all models. The Id is supplied
// externally and never round-trips through hash fields; CreatedAt is stored
// as epoch seconds under the "CreatedAt" field.
type Base struct {
	Id        string
	CreatedAt time.Time
}

func (b *Base) ModelID() string               { return b.Id }
func (b *Base) SetModelID(id string) { b.Id = id }
func (b *Base) ModelCreatedAt() time.Time     { return b.CreatedAt }
func (b *Base) SetModelCreatedAt(t time.Time) { b.CreatedAt = t }

// asModel converts a typed instance to its Model surface. NewSchema verifies
// the assertion holds for the type, so this cannot fail afterwards.
func asModel[M any](m *M) Model {
	return any(m).(Model)
}
