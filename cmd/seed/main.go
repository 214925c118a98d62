package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prompthero/backend/internal/config"
	"github.com/prompthero/backend/internal/database"
	"github.com/prompthero/backend/internal/migration"
	"github.com/prompthero/backend/internal/repository"
	"github.com/prompthero/backend/internal/seeder"
	"github.com/prompthero/backend/internal/services"
	"github.com/prompthero/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	// Command line flags
	dryRun     = flag.Bool("dry-run", false, "Don't write to the database, just log what would be created")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	sourceURL  = flag.String("url", "", "Crawl prompts from this catalog page instead of the built-in fixtures")
	maxPages   = flag.Int("pages", 1, "Maximum catalog pages to follow when crawling")
	concurrent = flag.Int("concurrent", 1, "Number of concurrent requests")
	delay      = flag.Duration("delay", time.Second, "Delay between requests")
)

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.Log.Level)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := seeder.NewContentProcessor()

	raws := seeder.Fixtures()
	if *sourceURL != "" {
		importer := seeder.NewImporter(seeder.ImporterConfig{
			MaxPages:    *maxPages,
			Parallelism: *concurrent,
			Delay:       *delay,
		}, processor, logger)

		raws, err = importer.Import(ctx, *sourceURL)
		if err != nil {
			logger.WithError(err).Fatal("Catalog import failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"prompts": len(raws),
		"dry_run": *dryRun,
	}).Info("Starting prompt seeder...")

	var (
		creator seeder.PromptCreator
		titles  seeder.TitleChecker
	)
	if !*dryRun {
		// The seeder only needs postgres
		dbManager, err := database.NewManager(&database.Config{
			DatabaseURL: cfg.Database.URL,
			LogLevel:    cfg.Log.Level,
			Connect:     database.DefaultRetryConfig(),
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database manager")
		}
		defer dbManager.Close()

		if err := migration.NewRunner(dbManager.DB, logger).RunMigrations(cfg.Migrations.Path); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}

		repos := repository.NewRepositoryManager(dbManager.DB)
		creator = services.NewPromptService(repos.Prompt, logger)
		titles = repos.Prompt
	}

	result, err := seeder.NewSeeder(processor, creator, titles, *dryRun, logger).Seed(ctx, raws)
	if err != nil {
		logger.WithError(err).Error("Seeding interrupted")
		return
	}

	for _, seedErr := range result.Errors {
		logger.WithError(seedErr).Warn("Seeding error")
	}
	logger.Info("Prompt seeding completed successfully!")
}
