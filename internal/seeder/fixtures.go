package seeder

// Fixtures is the built-in starter catalog.
func Fixtures() []RawPrompt {
	return []RawPrompt{
		{
			Title:       "Code Review Assistant",
			Description: "Get a thorough review of a code change",
			Content:     "Review the following {language} code for bugs, readability and performance. Point out each issue with the line it occurs on and suggest a fix.\n\n{code}",
			Category:    "development",
			Difficulty:  "intermediate",
			Tags:        []string{"code-review", "debugging", "best-practices"},
		},
		{
			Title:       "Unit Test Generator",
			Description: "Write table-driven tests for a function",
			Content:     "Write unit tests for this function. Cover the happy path, edge cases and error returns.\n\n{function}",
			Category:    "development",
			Tags:        []string{"testing", "code"},
		},
		{
			Title:       "SQL Query Explainer",
			Description: "Walk through what a query does and how to index it",
			Content:     "Explain step by step what this SQL query does, then suggest indexes that would speed it up.\n\n{query}",
			Category:    "technical",
			Tags:        []string{"sql", "database", "performance"},
		},
		{
			Title:       "Short Story Starter",
			Description: "Open a story with a strong first scene",
			Content:     "Write the opening scene of a {genre} story about {character}. End on a question the reader needs answered. #fiction #writing",
			Category:    "creative",
			Difficulty:  "beginner",
		},
		{
			Title:       "Poem In Any Form",
			Content:     "Write a {form} poem about {topic}. Keep the meter consistent and avoid cliches.",
			Category:    "creative",
			Tags:        []string{"poetry", "writing"},
		},
		{
			Title:       "Cold Email Writer",
			Description: "Draft a concise outreach email",
			Content:     "Write a cold email to {role} at {company} introducing {product}. Keep it under 120 words with one clear call to action.",
			Category:    "business",
			Tags:        []string{"email", "sales", "marketing"},
		},
		{
			Title:       "Startup Pitch Critic",
			Description: "Stress-test a pitch before investors do",
			Content:     "Act as a skeptical investor. Read this pitch and list the five hardest questions you would ask, with what a strong answer looks like.\n\n{pitch}",
			Category:    "business",
			Difficulty:  "advanced",
			Tags:        []string{"startup", "strategy"},
		},
		{
			Title:       "Explain Like I'm Five",
			Description: "Simplify any concept",
			Content:     "Explain {concept} to a five year old using one everyday analogy.",
			Category:    "education",
			Tags:        []string{"explain", "learning"},
		},
		{
			Title:       "Quiz Builder",
			Description: "Turn notes into a practice quiz",
			Content:     "Create a ten question multiple-choice quiz from these notes. Mark the correct answer and explain why the others are wrong.\n\n{notes}",
			Category:    "education",
			Tags:        []string{"quiz", "learning", "teaching"},
		},
		{
			Title:       "Literature Review Outline",
			Description: "Structure a review of existing work",
			Content:     "Outline a literature review on {topic}. Group the main papers by approach and note open questions for each group.",
			Category:    "research",
			Difficulty:  "advanced",
			Tags:        []string{"research", "academic", "writing"},
		},
	}
}
