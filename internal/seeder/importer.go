package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const defaultUserAgent = "PromptHero-Seeder/1.0"

// Catalog page markup. Every prompt is an element with class "prompt"
// holding title, description, content and tag children; category and
// difficulty are data attributes. Pagination follows a[rel=next].
const (
	selPrompt      = ".prompt"
	selTitle       = ".prompt-title"
	selDescription = ".prompt-description"
	selContent     = ".prompt-content"
	selTag         = ".prompt-tags .tag"
	selNextPage    = "a[rel=next]"
)

type ImporterConfig struct {
	UserAgent      string
	MaxPages       int
	Parallelism    int
	Delay          time.Duration
	RequestTimeout time.Duration
}

// Importer crawls an HTML prompt catalog and returns cleaned create
// requests.
type Importer struct {
	config    ImporterConfig
	processor *ContentProcessor
	logger    *logrus.Logger
}

func NewImporter(config ImporterConfig, processor *ContentProcessor, logger *logrus.Logger) *Importer {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.MaxPages < 1 {
		config.MaxPages = 1
	}
	if config.Parallelism < 1 {
		config.Parallelism = 1
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	return &Importer{config: config, processor: processor, logger: logger}
}

// Import visits startURL and up to MaxPages-1 follow-up pages. Prompts
// without a title or content are skipped. Page-level failures after the
// first page are logged and do not fail the import.
func (im *Importer) Import(ctx context.Context, startURL string) ([]RawPrompt, error) {
	c := colly.NewCollector(
		colly.UserAgent(im.config.UserAgent),
		colly.MaxDepth(im.config.MaxPages),
	)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: im.config.Parallelism,
		Delay:       im.config.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure collector: %w", err)
	}
	c.SetRequestTimeout(im.config.RequestTimeout)

	var (
		prompts  []RawPrompt
		skipped  int
		firstErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		im.logger.WithField("url", r.URL.String()).Debug("Fetching catalog page")
	})

	c.OnHTML(selPrompt, func(e *colly.HTMLElement) {
		raw := im.extractPrompt(e)
		if strings.TrimSpace(raw.Title) == "" || strings.TrimSpace(raw.Content) == "" {
			skipped++
			return
		}
		prompts = append(prompts, raw)
	})

	c.OnHTML(selNextPage, func(e *colly.HTMLElement) {
		next := e.Request.AbsoluteURL(e.Attr("href"))
		if next == "" {
			return
		}
		if err := e.Request.Visit(next); err != nil && err != colly.ErrAlreadyVisited && err != colly.ErrMaxDepth {
			im.logger.WithError(err).WithField("url", next).Warn("Failed to follow catalog page")
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		im.logger.WithError(err).WithFields(logrus.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		}).Warn("Catalog page failed")
		if r.Request.Depth == 1 && firstErr == nil {
			firstErr = err
		}
	})

	if err := c.Visit(startURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", startURL, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", startURL, firstErr)
	}

	im.logger.WithFields(logrus.Fields{
		"url":     startURL,
		"prompts": len(prompts),
		"skipped": skipped,
	}).Info("Catalog import finished")

	return prompts, nil
}

func (im *Importer) extractPrompt(e *colly.HTMLElement) RawPrompt {
	content, _ := e.DOM.Find(selContent).First().Html()

	var tags []string
	e.DOM.Find(selTag).Each(func(_ int, s *goquery.Selection) {
		if tag := strings.TrimSpace(s.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})

	return RawPrompt{
		Title:       e.ChildText(selTitle),
		Description: e.ChildText(selDescription),
		Content:     content,
		Category:    e.Attr("data-category"),
		Difficulty:  e.Attr("data-difficulty"),
		Tags:        tags,
		SourceURL:   e.Request.URL.String(),
	}
}
