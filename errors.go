package hashmodel

import "errors"

var (
	// ErrNotFound signals a missing model record.
	ErrNotFound = errors.New("hashmodel: model not found")
	// ErrUnknownField signals a field name with no schema entry.
	ErrUnknownField = errors.New("hashmodel: unknown field")
	// ErrNotSerializable signals a nested-document or link field used where a
	// scalar hash field is required.
	ErrNotSerializable = errors.New("hashmodel: field is not serializable")
	// ErrUnsupportedExpr signals a predicate the compiler cannot classify.
	ErrUnsupportedExpr = errors.New("hashmodel: unsupported expression")
	// ErrMissingID signals an operation on a model without an id.
	ErrMissingID = errors.New("hashmodel: model has no id")
)
