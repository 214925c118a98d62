package query

import (
	"time"

	"github.com/prompthero/backend/internal/models"
)

// TrendingWindow is how far back a prompt may have been created and still
// count as trending.
const TrendingWindow = 7 * 24 * time.Hour

// Table and column names used by plans.
const (
	Table            = "prompts"
	ColID            = "prompts.id"
	ColTitle         = "prompts.title"
	ColDescription   = "prompts.description"
	ColContent       = "prompts.content"
	ColCategory      = "prompts.category"
	ColTags          = "prompts.tags"
	ColDifficulty    = "prompts.difficulty"
	ColFeatured      = "prompts.is_featured"
	ColPublic        = "prompts.is_public"
	ColModeration    = "prompts.moderation_status"
	ColAverageRating = "prompts.average_rating"
	ColUsageCount    = "prompts.usage_count"
	ColCreatedAt     = "prompts.created_at"
	ColUpdatedAt     = "prompts.updated_at"
)

// Relevance weights.
const (
	WeightTitle       = 10
	WeightTags        = 5
	WeightDescription = 3
	WeightContent     = 1
	WeightPhrase      = 20
)

// SearchFields are the columns free text is matched against.
var SearchFields = []TextField{
	{Column: ColTitle, Weight: WeightTitle},
	{Column: ColTags, Weight: WeightTags, Array: true},
	{Column: ColDescription, Weight: WeightDescription},
	{Column: ColContent, Weight: WeightContent},
}

// OrderTerm is one ORDER BY item. Expr is always a constant from this package.
type OrderTerm struct {
	Expr string
	Desc bool
}

type sortRule struct {
	expr  string
	fixed *Order
}

func fixed(o Order) *Order { return &o }

var sortColumns = map[Sort]sortRule{
	SortNewest:       {expr: ColCreatedAt, fixed: fixed(OrderDesc)},
	SortOldest:       {expr: ColCreatedAt, fixed: fixed(OrderAsc)},
	SortCreatedAt:    {expr: ColCreatedAt},
	SortUpdatedAt:    {expr: ColUpdatedAt},
	SortTitle:        {expr: "LOWER(" + ColTitle + ")"},
	SortRating:       {expr: ColAverageRating},
	SortPopular:      {expr: ColUsageCount},
	SortUsageCount:   {expr: ColUsageCount},
	SortAlphabetical: {expr: "LOWER(" + ColTitle + ")", fixed: fixed(OrderAsc)},
}

// Relevance describes the search ranking expression.
type Relevance struct {
	Phrase string
	Terms  []string
}

// Plan is a compiled-to-be query: predicates are ANDed together.
type Plan struct {
	Predicates []Predicate
	Relevance  *Relevance
	Ordering   []OrderTerm
	Limit      int
	Offset     int
}

// Visible returns the predicates every public listing starts with.
func Visible() []Predicate {
	return []Predicate{
		BooleanFlag{Column: ColPublic, Value: true},
		OneOf{Column: ColModeration, Values: models.VisibleModerationStates},
	}
}

// Build assembles the plan for f. now anchors the trending window.
func Build(f Filter, now time.Time) Plan {
	preds := Visible()

	if f.Searching() {
		preds = append(preds, TextMatch{Fields: SearchFields, Terms: f.Terms})
	}
	if f.Category != "" {
		preds = append(preds, Equals{Column: ColCategory, Value: f.Category})
	}
	for _, tag := range f.Tags {
		preds = append(preds, SetContains{Column: ColTags, Value: tag})
	}
	if f.Difficulty != "" {
		preds = append(preds, Equals{Column: ColDifficulty, Value: f.Difficulty})
	}
	if f.Featured {
		preds = append(preds, BooleanFlag{Column: ColFeatured, Value: true})
	}
	if f.Trending {
		preds = append(preds,
			DateRange{Column: ColCreatedAt, From: now.Add(-TrendingWindow)},
			GreaterThan{Column: ColUsageCount, Value: 0},
		)
	}

	plan := Plan{
		Predicates: preds,
		Ordering:   Ordering(f.Sort, f.Order),
		Limit:      f.Limit,
		Offset:     f.Offset(),
	}
	if f.Searching() {
		plan.Relevance = &Relevance{Phrase: f.Search, Terms: f.Terms}
	}
	return plan
}

// Ordering resolves the requested sort followed by the tie-break keys
// created_at DESC and id ASC.
func Ordering(s Sort, o Order) []OrderTerm {
	rule, ok := sortColumns[s]
	if !ok {
		rule = sortColumns[SortNewest]
	}
	dir := o
	if rule.fixed != nil {
		dir = *rule.fixed
	}

	terms := []OrderTerm{{Expr: rule.expr, Desc: dir == OrderDesc}}
	if rule.expr != ColCreatedAt {
		terms = append(terms, OrderTerm{Expr: ColCreatedAt, Desc: true})
	}
	return append(terms, OrderTerm{Expr: ColID})
}

// WorkingSet returns a plan over the same predicates capped at limit rows,
// ordered by engagement. Facets are computed from it.
func (p Plan) WorkingSet(limit int) Plan {
	return Plan{
		Predicates: p.Predicates,
		Ordering: []OrderTerm{
			{Expr: ColUsageCount, Desc: true},
			{Expr: ColID},
		},
		Limit: limit,
	}
}

// TitlePlan matches visible prompts whose title contains text.
func TitlePlan(text string, limit int) Plan {
	preds := append(Visible(), TextMatch{
		Fields: []TextField{{Column: ColTitle, Weight: WeightTitle}},
		Terms:  []string{text},
	})
	return Plan{
		Predicates: preds,
		Ordering: []OrderTerm{
			{Expr: ColUsageCount, Desc: true},
			{Expr: "LOWER(" + ColTitle + ")"},
			{Expr: ColID},
		},
		Limit: limit,
	}
}
