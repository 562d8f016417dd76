package query

import "strings"

// Statement is parameterized SQL ready for binding. User input only ever
// travels in Args.
type Statement struct {
	SQL  string
	Args []any
}

// Fragment is one predicate clause together with the joins it needs and the
// values bound to its placeholders. The zero Fragment is a no-op.
type Fragment struct {
	Joins []string
	Where string
	Args  []any
}

// Empty reports whether the fragment contributes nothing to a query.
func (f Fragment) Empty() bool {
	return len(f.Joins) == 0 && strings.TrimSpace(f.Where) == ""
}

// Builder composes a SELECT from fragments. Every WHERE fragment is ANDed.
type Builder struct {
	distinct bool
	columns  []string
	from     string
	joins    []string
	where    []string
	args     []any
	orderBy  []string
}

// Select starts a builder over the given table expression.
func Select(from string, columns ...string) *Builder {
	return &Builder{from: from, columns: columns}
}

// Distinct de-duplicates result rows.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// Where appends fragments; empty fragments are skipped.
func (b *Builder) Where(fragments ...Fragment) *Builder {
	for _, f := range fragments {
		if f.Empty() {
			continue
		}
		b.joins = append(b.joins, f.Joins...)
		if w := strings.TrimSpace(f.Where); w != "" {
			b.where = append(b.where, w)
		}
		b.args = append(b.args, f.Args...)
	}
	return b
}

// OrderBy sets the ORDER BY column list.
func (b *Builder) OrderBy(columns ...string) *Builder {
	b.orderBy = columns
	return b
}

// Build renders the statement. Args are copied so the builder can be reused.
func (b *Builder) Build() Statement {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	args := make([]any, len(b.args))
	copy(args, b.args)
	return Statement{SQL: sb.String(), Args: args}
}

// containsPattern builds a LIKE pattern matching term anywhere, lower-cased
// and with LIKE metacharacters escaped so the term matches literally.
func containsPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
