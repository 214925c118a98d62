package query

import (
	"fmt"
	"strings"
	"time"
)

// Predicate is one condition of the WHERE conjunction. The set of variants is
// closed; column names always come from this package, never from callers.
type Predicate interface {
	compile(d Dialect) (string, []any)
}

// TextField is a searchable column and its relevance weight.
type TextField struct {
	Column string
	Weight int
	Array  bool
}

// TextMatch matches when any term occurs in any of the fields.
type TextMatch struct {
	Fields []TextField
	Terms  []string
}

// Equals compares a column with a bound value.
type Equals struct {
	Column string
	Value  string
}

// OneOf matches when the column equals one of the values.
type OneOf struct {
	Column string
	Values []string
}

// SetContains matches when Value is an element of an array column.
type SetContains struct {
	Column string
	Value  string
}

// DateRange bounds a timestamp column; a zero To leaves it open-ended.
type DateRange struct {
	Column string
	From   time.Time
	To     time.Time
}

// BooleanFlag requires a boolean column to hold Value.
type BooleanFlag struct {
	Column string
	Value  bool
}

// GreaterThan requires a counter column to exceed Value.
type GreaterThan struct {
	Column string
	Value  int
}

func (p TextMatch) compile(d Dialect) (string, []any) {
	var clauses []string
	var args []any
	for _, term := range p.Terms {
		pattern := ContainsPattern(term)
		for _, field := range p.Fields {
			clauses = append(clauses, likeClause(d, field))
			args = append(args, pattern)
		}
	}
	if len(clauses) == 0 {
		return "1 = 1", nil
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func (p Equals) compile(Dialect) (string, []any) {
	return p.Column + " = ?", []any{p.Value}
}

func (p OneOf) compile(Dialect) (string, []any) {
	if len(p.Values) == 0 {
		return "1 = 0", nil
	}
	marks := make([]string, len(p.Values))
	args := make([]any, len(p.Values))
	for i, v := range p.Values {
		marks[i] = "?"
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", p.Column, strings.Join(marks, ", ")), args
}

func (p SetContains) compile(d Dialect) (string, []any) {
	return d.ArrayContains(p.Column), []any{p.Value}
}

func (p DateRange) compile(Dialect) (string, []any) {
	switch {
	case p.To.IsZero():
		return p.Column + " >= ?", []any{p.From}
	case p.From.IsZero():
		return p.Column + " < ?", []any{p.To}
	default:
		return fmt.Sprintf("(%s >= ? AND %s < ?)", p.Column, p.Column), []any{p.From, p.To}
	}
}

func (p BooleanFlag) compile(Dialect) (string, []any) {
	return p.Column + " = ?", []any{p.Value}
}

func (p GreaterThan) compile(Dialect) (string, []any) {
	return p.Column + " > ?", []any{p.Value}
}

func likeClause(d Dialect, field TextField) string {
	column := field.Column
	if field.Array {
		column = d.ArrayText(column)
	}
	return "LOWER(" + column + ") LIKE ? ESCAPE '\\'"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE pattern matching term anywhere, with the
// term's own wildcards escaped.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
