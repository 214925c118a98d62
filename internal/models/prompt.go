package models

// Prompt categories.
const (
	CategoryDevelopment = "development"
	CategoryCreative    = "creative"
	CategoryBusiness    = "business"
	CategoryEducation   = "education"
	CategoryResearch    = "research"
	CategoryTechnical   = "technical"
	CategoryGeneral     = "general"
)

// Difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Moderation states. Only approved and pending prompts are listed.
const (
	ModerationApproved = "approved"
	ModerationPending  = "pending"
	ModerationRejected = "rejected"
	ModerationHidden   = "hidden"
)

var Categories = []string{
	CategoryDevelopment,
	CategoryCreative,
	CategoryBusiness,
	CategoryEducation,
	CategoryResearch,
	CategoryTechnical,
	CategoryGeneral,
}

var Difficulties = []string{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
}

// VisibleModerationStates lists the states a public listing may show.
var VisibleModerationStates = []string{ModerationApproved, ModerationPending}

func IsValidCategory(category string) bool {
	return contains(Categories, category)
}

func IsValidDifficulty(difficulty string) bool {
	return contains(Difficulties, difficulty)
}

func IsValidModerationStatus(status string) bool {
	switch status {
	case ModerationApproved, ModerationPending, ModerationRejected, ModerationHidden:
		return true
	}
	return false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
