package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPromptNotFound = errors.New("prompt not found")
	ErrInvalidPrompt  = errors.New("invalid prompt")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// PromptCatalog is the single-record side of the prompt repository.
type PromptCatalog interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetVisibleByID(ctx context.Context, id string) (*models.Prompt, error)
	Rate(ctx context.Context, id string, rating int, now time.Time) (*models.Prompt, error)
	RecordUse(ctx context.Context, id string, now time.Time) (*models.Prompt, error)
}

type PromptService struct {
	prompts PromptCatalog
	logger  *logrus.Logger
	now     func() time.Time
}

func NewPromptService(prompts PromptCatalog, logger *logrus.Logger) *PromptService {
	return &PromptService{
		prompts: prompts,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *PromptService) Get(ctx context.Context, id string) (*models.Prompt, error) {
	prompt, err := s.prompts.GetVisibleByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "get prompt")
	}
	return prompt, nil
}

// Create validates req and stores a new public prompt. Category and
// difficulty default to general and beginner.
func (s *PromptService) Create(ctx context.Context, req models.CreatePromptRequest) (*models.Prompt, error) {
	prompt := &models.Prompt{
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		Content:          strings.TrimSpace(req.Content),
		Category:         strings.ToLower(strings.TrimSpace(req.Category)),
		Tags:             models.StringArray(query.NormalizeTags(req.Tags)),
		Difficulty:       strings.ToLower(strings.TrimSpace(req.Difficulty)),
		IsPublic:         true,
		ModerationStatus: models.ModerationApproved,
	}
	if prompt.Category == "" {
		prompt.Category = models.CategoryGeneral
	}
	if prompt.Difficulty == "" {
		prompt.Difficulty = models.DifficultyBeginner
	}
	if req.IsPublic != nil {
		prompt.IsPublic = *req.IsPublic
	}
	if err := validateTags(req.Tags); err != nil {
		return nil, err
	}

	if err := prompt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrompt, err)
	}

	if err := s.prompts.Create(ctx, prompt); err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"prompt_id": prompt.ID,
		"category":  prompt.Category,
		"tags":      len(prompt.Tags),
	}).Info("Prompt created")

	return prompt, nil
}

// validateTags checks every comma-separated part of raw and counts distinct
// tags the way query.NormalizeTags does.
func validateTags(raw []string) error {
	seen := make(map[string]bool)
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if utf8.RuneCountInString(strings.TrimSpace(part)) > models.MaxTagLength {
				return fmt.Errorf("%w: tags must be at most %d characters", ErrInvalidPrompt, models.MaxTagLength)
			}
			if tag := query.NormalizeTag(part); tag != "" {
				seen[tag] = true
			}
		}
	}
	if len(seen) > models.MaxTags {
		return fmt.Errorf("%w: at most %d tags are allowed", ErrInvalidPrompt, models.MaxTags)
	}
	return nil
}

// Rate adds one rating in [1,5] to the prompt's running average.
func (s *PromptService) Rate(ctx context.Context, id string, rating int) (*models.Prompt, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	prompt, err := s.prompts.Rate(ctx, id, rating, s.now())
	if err != nil {
		return nil, notFound(err, "rate prompt")
	}
	return prompt, nil
}

// Use records one use of the prompt.
func (s *PromptService) Use(ctx context.Context, id string) (*models.Prompt, error) {
	prompt, err := s.prompts.RecordUse(ctx, id, s.now())
	if err != nil {
		return nil, notFound(err, "record prompt use")
	}
	return prompt, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPromptNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
