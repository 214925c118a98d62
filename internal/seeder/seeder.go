package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/prompthero/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PromptCreator stores a validated prompt.
type PromptCreator interface {
	Create(ctx context.Context, req models.CreatePromptRequest) (*models.Prompt, error)
}

// TitleChecker reports whether a prompt with the given title already exists.
type TitleChecker interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
}

type Result struct {
	Created int
	Skipped int
	Failed  int
	Errors  []error
}

// Seeder cleans raw prompts and stores the ones not already present.
type Seeder struct {
	processor *ContentProcessor
	creator   PromptCreator
	titles    TitleChecker
	dryRun    bool
	logger    *logrus.Logger
}

func NewSeeder(processor *ContentProcessor, creator PromptCreator, titles TitleChecker, dryRun bool, logger *logrus.Logger) *Seeder {
	return &Seeder{
		processor: processor,
		creator:   creator,
		titles:    titles,
		dryRun:    dryRun,
		logger:    logger,
	}
}

// Seed processes every raw prompt. Individual failures are collected in
// the result; only context cancellation stops the run early.
func (s *Seeder) Seed(ctx context.Context, raws []RawPrompt) (Result, error) {
	var result Result
	seen := make(map[string]bool)

	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		req := s.processor.Prepare(raw)
		log := s.logger.WithFields(logrus.Fields{
			"title":    req.Title,
			"category": req.Category,
			"progress": fmt.Sprintf("%d/%d", i+1, len(raws)),
		})

		if seen[req.Title] {
			result.Skipped++
			continue
		}
		seen[req.Title] = true

		if s.titles != nil {
			exists, err := s.titles.ExistsByTitle(ctx, req.Title)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Errorf("check %q: %w", req.Title, err))
				continue
			}
			if exists {
				log.Debug("Prompt already present, skipping")
				result.Skipped++
				continue
			}
		}

		if s.dryRun {
			log.WithField("tags", req.Tags).Info("DRY RUN: Would create prompt")
			result.Created++
			continue
		}

		if _, err := s.creator.Create(ctx, req); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			log.WithError(err).Warn("Failed to create prompt")
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("create %q: %w", req.Title, err))
			continue
		}
		result.Created++
	}

	s.logger.WithFields(logrus.Fields{
		"created": result.Created,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Seeding completed")

	return result, nil
}
