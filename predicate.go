package hashmodel

// Expr is one node of a predicate condition tree. The variants are closed:
// comparisons, the three string predicates, And/Or/Not. The compiler only
// ever traverses this set; there is no general expression evaluation.
type Expr interface {
	exprNode()
}

type cmpOp int

const (
	opEq cmpOp = iota
	opNe
	opGt
	opGte
	opLt
	opLte
)

func (o cmpOp) String() string {
	switch o {
	case opEq:
		return "=="
	case opNe:
		return "!="
	case opGt:
		return ">"
	case opGte:
		return ">="
	case opLt:
		return "<"
	case opLte:
		return "<="
	default:
		return "?"
	}
}

type strOp int

const (
	opContains strOp = iota
	opStartsWith
	opEndsWith
)

type compareExpr struct {
	field string
	op    cmpOp
	value any
}

type stringExpr struct {
	field string
	op    strOp
	value string
}

type logicalExpr struct {
	or       bool
	operands []Expr
}

type notExpr struct {
	inner Expr
}

func (compareExpr) exprNode() {}
func (stringExpr) exprNode() {}
func (logicalExpr) exprNode() {}
func (notExpr) exprNode() {}

// Eq matches field == value.
func Eq(field string, value any) Expr { return compareExpr{field: field, op: opEq, value: value} }

// Ne matches field != value.
func Ne(field string, value any) Expr { return compareExpr{field: field, op: opNe, value: value} }

// Gt matches field > value (numeric fields only).
func Gt(field string, value any) Expr { return compareExpr{field: field, op: opGt, value: value} }

// Gte matches field >= value (numeric fields only).
func Gte(field string, value any) Expr { return compareExpr{field: field, op: opGte, value: value} }

// Lt matches field < value (numeric fields only).
func Lt(field string, value any) Expr { return compareExpr{field: field, op: opLt, value: value} }

// Lte matches field <= value (numeric fields only).
func Lte(field string, value any) Expr { return compareExpr{field: field, op: opLte, value: value} }

// Contains matches a substring on Text fields. On Tag fields it degrades to
// an exact match: tags have no partial matching.
func Contains(field, value string) Expr {
	return stringExpr{field: field, op: opContains, value: value}
}

// StartsWith matches a prefix on Text fields; exact match on Tag fields.
func StartsWith(field, value string) Expr {
	return stringExpr{field: field, op: opStartsWith, value: value}
}

// EndsWith matches a suffix on Text fields; exact match on Tag fields.
func EndsWith(field, value string) Expr {
	return stringExpr{field: field, op: opEndsWith, value: value}
}

// And groups conditions conjunctively.
func And(exprs ...Expr) Expr { return logicalExpr{or: false, operands: exprs} }

// Or groups conditions disjunctively.
func Or(exprs ...Expr) Expr { return logicalExpr{or: true, operands: exprs} }

// Not negates a condition.
func Not(expr Expr) Expr { return notExpr{inner: expr} }

// nowValue is the placeholder Now() yields; the compiler resolves it to its
// own current time at compile time.
type nowValue struct{}

// Now returns a placeholder resolved to the compiler's current time, so a
// query built ahead of execution still compares against compile-time now.
func Now() any { return nowValue{} }
