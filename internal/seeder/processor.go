package seeder

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
)

// RawPrompt is a prompt as scraped or hand-written, before cleanup.
type RawPrompt struct {
	Title       string
	Description string
	Content     string
	Category    string
	Difficulty  string
	Tags        []string
	SourceURL   string
}

// ContentProcessor handles text processing and cleanup
type ContentProcessor struct {
	blockBreaks     *regexp.Regexp
	htmlTags        *regexp.Regexp
	markdownLinks   *regexp.Regexp
	inlineSpace     *regexp.Regexp
	hashtags        *regexp.Regexp
	categoryKeyword map[string][]string
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		blockBreaks:   regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>|</div>`),
		htmlTags:      regexp.MustCompile(`<[^>]*>`),
		markdownLinks: regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`),
		inlineSpace:   regexp.MustCompile(`[ \t\r\f\v]+`),
		hashtags:      regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}][\p{L}\p{N}_-]*)`),
		categoryKeyword: map[string][]string{
			models.CategoryDevelopment: {"code", "function", "refactor", "debug", "api", "unit test", "programming"},
			models.CategoryCreative:    {"story", "poem", "poetry", "character", "fiction", "lyrics", "screenplay"},
			models.CategoryBusiness:    {"marketing", "sales", "customer", "email", "pitch", "strategy", "startup"},
			models.CategoryEducation:   {"explain", "lesson", "student", "teach", "quiz", "curriculum"},
			models.CategoryResearch:    {"research", "paper", "literature", "hypothesis", "citation", "study"},
			models.CategoryTechnical:   {"server", "kubernetes", "linux", "network", "database", "infrastructure", "sql"},
		},
	}
}

// CleanContent strips markup and normalizes whitespace while keeping
// paragraph breaks (at most one blank line in a row).
func (cp *ContentProcessor) CleanContent(content string) string {
	content = cp.blockBreaks.ReplaceAllString(content, "\n")
	content = cp.htmlTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	// Markdown links keep their text
	content = cp.markdownLinks.ReplaceAllString(content, "$1")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	emptyLines := 0
	for _, line := range lines {
		line = strings.TrimSpace(cp.inlineSpace.ReplaceAllString(line, " "))
		if line == "" {
			emptyLines++
			if emptyLines == 1 {
				cleaned = append(cleaned, "")
			}
			continue
		}
		emptyLines = 0
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// ExtractHashtags returns the #tags written inline in content, in order of
// first appearance.
func (cp *ContentProcessor) ExtractHashtags(content string) []string {
	var tags []string
	for _, match := range cp.hashtags.FindAllStringSubmatch(content, -1) {
		tags = append(tags, match[1])
	}
	return tags
}

// CountWords estimates word count in text
func (cp *ContentProcessor) CountWords(text string) int {
	words := strings.FieldsFunc(text, func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	})

	// Filter out very short "words"
	count := 0
	for _, word := range words {
		if utf8.RuneCountInString(word) > 1 {
			count++
		}
	}
	return count
}

// InferCategory picks the category whose keywords appear most often in the
// title and content. Ties go to the first category in models.Categories.
func (cp *ContentProcessor) InferCategory(title, content string) string {
	text := strings.ToLower(title + " " + content)
	best, bestHits := models.CategoryGeneral, 0
	for _, category := range models.Categories {
		hits := 0
		for _, keyword := range cp.categoryKeyword[category] {
			hits += strings.Count(text, keyword)
		}
		if hits > bestHits {
			best, bestHits = category, hits
		}
	}
	return best
}

// InferDifficulty grades a prompt by length: long prompts with many
// placeholders tend to need more experience.
func (cp *ContentProcessor) InferDifficulty(content string) string {
	words := cp.CountWords(content)
	placeholders := strings.Count(content, "{") + strings.Count(content, "[")
	switch {
	case words > 150 || placeholders > 5:
		return models.DifficultyAdvanced
	case words > 50 || placeholders > 2:
		return models.DifficultyIntermediate
	default:
		return models.DifficultyBeginner
	}
}

// Prepare turns a raw prompt into a create request. Explicit category and
// difficulty win when valid; otherwise they are inferred from the text.
func (cp *ContentProcessor) Prepare(raw RawPrompt) models.CreatePromptRequest {
	content := cp.CleanContent(raw.Content)
	title := truncate(strings.Join(strings.Fields(cp.CleanContent(raw.Title)), " "), models.MaxTitleLength)

	description := cp.CleanContent(raw.Description)
	if description == "" {
		description = firstLine(content)
	}

	category := strings.ToLower(strings.TrimSpace(raw.Category))
	if !models.IsValidCategory(category) {
		category = cp.InferCategory(title, content)
	}

	difficulty := strings.ToLower(strings.TrimSpace(raw.Difficulty))
	if !models.IsValidDifficulty(difficulty) {
		difficulty = cp.InferDifficulty(content)
	}

	tags := append(append([]string{}, raw.Tags...), cp.ExtractHashtags(content)...)

	return models.CreatePromptRequest{
		Title:       title,
		Description: truncate(description, models.MaxDescriptionLength),
		Content:     truncate(content, models.MaxContentLength),
		Category:    category,
		Difficulty:  difficulty,
		Tags:        query.NormalizeTags(tags),
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
