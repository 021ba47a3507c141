package hashmodel

// CreateResult reports the outcome of a single-model creation. Business-rule
// failures (duplicate id) set Succeeded=false; they are never returned as
// errors.
type CreateResult[M any] struct {
	Succeeded bool
	Message   string
	Model     *M
}

// BulkCreateResult reports the outcome of a batch creation: either all
// requested models were created or none were.
type BulkCreateResult[M any] struct {
	Succeeded bool
	Message   string
	Models    []*M
}

// PushResult reports the outcome of one field-sync attempt. Uniqueness
// violations and non-serializable fields come back as failed results, not
// errors.
type PushResult[M any] struct {
	Succeeded bool
	Message   string
	Field     string
	Model     *M
}

// Page holds one page of query results with pagination metadata.
type Page[M any] struct {
	Items      []*M
	TotalCount int
	TotalPages int
}
