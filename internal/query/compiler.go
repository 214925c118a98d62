package query

import (
	"fmt"
	"strings"
)

// Statement is query text with '?' placeholders and its bound arguments in
// textual order.
type Statement struct {
	SQL  string
	Args []any
}

// Compiler renders plans for one dialect.
type Compiler struct {
	dialect Dialect
}

func NewCompiler(d Dialect) Compiler {
	return Compiler{dialect: d}
}

func (c Compiler) Dialect() Dialect {
	return c.dialect
}

// Count renders the total-count query; ordering and pagination are ignored.
func (c Compiler) Count(p Plan) Statement {
	where, args := c.where(p.Predicates)
	return Statement{
		SQL:  "SELECT COUNT(*) FROM " + Table + where,
		Args: args,
	}
}

// Page renders the ranked, paginated result query.
func (c Compiler) Page(p Plan) Statement {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT " + Table + ".*")
	if p.Relevance != nil {
		expr, relArgs := c.relevance(*p.Relevance)
		sb.WriteString(", (" + expr + ") AS relevance")
		args = append(args, relArgs...)
	}
	sb.WriteString(" FROM " + Table)

	where, whereArgs := c.where(p.Predicates)
	sb.WriteString(where)
	args = append(args, whereArgs...)

	order := orderBy(p.Ordering)
	if p.Relevance != nil {
		order = append([]string{"relevance DESC"}, order...)
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, p.Limit, p.Offset)

	return Statement{SQL: sb.String(), Args: args}
}

// Column renders a single-column projection of the plan, used for facets.
func (c Compiler) Column(p Plan, column string) Statement {
	where, args := c.where(p.Predicates)
	sql := "SELECT " + column + " FROM " + Table + where
	if order := orderBy(p.Ordering); len(order) > 0 {
		sql += " ORDER BY " + strings.Join(order, ", ")
	}
	sql += " LIMIT ?"
	return Statement{SQL: sql, Args: append(args, p.Limit)}
}

func (c Compiler) where(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(preds))
	var args []any
	for _, pred := range preds {
		clause, predArgs := pred.compile(c.dialect)
		clauses = append(clauses, clause)
		args = append(args, predArgs...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (c Compiler) relevance(r Relevance) (string, []any) {
	var parts []string
	var args []any
	for _, term := range r.Terms {
		pattern := ContainsPattern(term)
		for _, field := range SearchFields {
			parts = append(parts, fmt.Sprintf("CASE WHEN %s THEN %d ELSE 0 END", likeClause(c.dialect, field), field.Weight))
			args = append(args, pattern)
		}
	}
	if r.Phrase != "" {
		title := TextField{Column: ColTitle}
		parts = append(parts, fmt.Sprintf("CASE WHEN %s THEN %d ELSE 0 END", likeClause(c.dialect, title), WeightPhrase))
		args = append(args, ContainsPattern(r.Phrase))
	}
	if len(parts) == 0 {
		return "0", nil
	}
	return strings.Join(parts, " + "), args
}

func orderBy(terms []OrderTerm) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Desc {
			out = append(out, t.Expr+" DESC")
		} else {
			out = append(out, t.Expr+" ASC")
		}
	}
	return out
}
