package repository

import (
	"fmt"
	"strings"
	"time"
)

// Filter is a composable, typed predicate used to build WHERE clauses.
// Queries that filter shifts (listings, conflict lookups, reports) share this
// vocabulary instead of assembling ad-hoc condition strings.
type Filter interface {
	write(sb *strings.Builder, args *[]any)
}

type binary struct {
	column string
	op     string
	value  any
}

func (f binary) write(sb *strings.Builder, args *[]any) {
	*args = append(*args, f.value)
	fmt.Fprintf(sb, "%s %s $%d", f.column, f.op, len(*args))
}

func Eq(column string, value any) Filter    { return binary{column, "=", value} }
func NotEq(column string, value any) Filter { return binary{column, "<>", value} }
func Gte(column string, value any) Filter   { return binary{column, ">=", value} }
func Gt(column string, value any) Filter    { return binary{column, ">", value} }
func Lt(column string, value any) Filter    { return binary{column, "<", value} }

type nullCheck struct {
	column string
	isNull bool
}

func (f nullCheck) write(sb *strings.Builder, _ *[]any) {
	if f.isNull {
		fmt.Fprintf(sb, "%s IS NULL", f.column)
	} else {
		fmt.Fprintf(sb, "%s IS NOT NULL", f.column)
	}
}

func IsNull(column string) Filter  { return nullCheck{column, true} }
func NotNull(column string) Filter { return nullCheck{column, false} }

type group struct {
	op      string
	filters []Filter
}

func (f group) write(sb *strings.Builder, args *[]any) {
	for i, sub := range f.filters {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(f.op)
			sb.WriteString(" ")
		}
		sb.WriteString("(")
		sub.write(sb, args)
		sb.WriteString(")")
	}
}

func And(filters ...Filter) Filter { return group{"AND", filters} }
func Or(filters ...Filter) Filter  { return group{"OR", filters} }

// Overlaps matches rows whose half-open [startColumn, endColumn) interval
// intersects [from, to): startColumn < to AND endColumn > from.
func Overlaps(startColumn, endColumn string, from, to time.Time) Filter {
	return And(Lt(startColumn, to), Gt(endColumn, from))
}

// whereClause renders the filters into a leading " WHERE ..." fragment and
// its positional arguments. Empty input renders nothing.
func whereClause(filters []Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(filters))
	sb.WriteString(" WHERE ")
	And(filters...).write(&sb, &args)
	return sb.String(), args
}
