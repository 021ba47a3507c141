// Package hashmodel maps typed application models onto Redis hash records
// and compiles typed predicates into RediSearch queries.
//
// Every model instance lives in one hash at "{index}:{id}". Field metadata
// (index kind, uniqueness, eager hydration) is declared once per type through
// an explicit Schema; no reflection is used at runtime. Collections expose
// create/load/push/pull/increment/delete operations plus a query builder that
// translates condition trees into the FT.SEARCH grammar.
package hashmodel
