package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWhereClause(t *testing.T) {
	t.Run("empty renders nothing", func(t *testing.T) {
		where, args := whereClause(nil)
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("single condition", func(t *testing.T) {
		where, args := whereClause([]Filter{Eq("organization_id", int64(3))})
		assert.Equal(t, " WHERE (organization_id = $1)", where)
		assert.Equal(t, []any{int64(3)}, args)
	})

	t.Run("conditions join with AND and number in order", func(t *testing.T) {
		where, args := whereClause([]Filter{
			Eq("organization_id", int64(3)),
			NotEq("id", int64(9)),
			Gte("break_minutes", 30),
		})
		assert.Equal(t, " WHERE (organization_id = $1) AND (id <> $2) AND (break_minutes >= $3)", where)
		assert.Equal(t, []any{int64(3), int64(9), 30}, args)
	})

	t.Run("null checks take no argument", func(t *testing.T) {
		where, args := whereClause([]Filter{
			IsNull("user_id"),
			NotNull("published_at"),
			Eq("status", "published"),
		})
		assert.Equal(t, " WHERE (user_id IS NULL) AND (published_at IS NOT NULL) AND (status = $1)", where)
		assert.Equal(t, []any{"published"}, args)
	})

	t.Run("or groups parenthesize", func(t *testing.T) {
		where, args := whereClause([]Filter{
			Or(Eq("status", "draft"), Eq("status", "published")),
		})
		assert.Equal(t, " WHERE ((status = $1) OR (status = $2))", where)
		assert.Equal(t, []any{"draft", "published"}, args)
	})
}

func TestOverlapsFilter(t *testing.T) {
	from := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 4, 17, 0, 0, 0, time.UTC)

	where, args := whereClause([]Filter{Overlaps("start_at", "end_at", from, to)})

	// Half-open interval semantics: start strictly before the window end and
	// end strictly after the window start, so touching intervals do not match.
	assert.Equal(t, " WHERE ((start_at < $1) AND (end_at > $2))", where)
	assert.Equal(t, []any{to, from}, args)
}
