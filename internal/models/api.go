package models

// CreatePromptRequest is the body of POST /api/prompts.
type CreatePromptRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Content     string   `json:"content" binding:"required"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Difficulty  string   `json:"difficulty"`
	IsPublic    *bool    `json:"is_public"`
}

type RatePromptRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type TagFrequency struct {
	Tag       string `json:"tag"`
	Frequency int    `json:"frequency"`
}

// Suggestion types.
const (
	SuggestionTitle    = "title"
	SuggestionCategory = "category"
	SuggestionTag      = "tag"
	SuggestionPopular  = "popular"
)

type Suggestion struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type Facets struct {
	RelatedTags []TagFrequency `json:"related_tags"`
	Suggestions []Suggestion   `json:"suggestions"`
}

type PromptListResponse struct {
	Results    []Prompt   `json:"results"`
	Pagination Pagination `json:"pagination"`
	Facets     Facets     `json:"facets"`
}
