package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/soldlistings/config"
	"sjsage522/soldlistings/helpers"
	"sjsage522/soldlistings/internal/crawler"
	"sjsage522/soldlistings/logger"
	"sjsage522/soldlistings/services/cache"
	"sjsage522/soldlistings/services/publisher"
	"sjsage522/soldlistings/services/worker"
	"sjsage522/soldlistings/storage"
)

var rootCmd = &cobra.Command{
	Use:           "soldlistings",
	Short:         "soldlistings scrapes eBay sold listings into CSV, JSON and optional stores.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scrapeFlags struct {
	startID           int
	csvPath           string
	jsonPath          string
	strict            bool
	includeSearchPage bool
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [keywords...]",
	Short: "Scrapes the sold listings of every keyword query and writes them out.",
	Long: "Each argument is one search query; quote multi-word queries. " +
		"Without arguments the queries come from SCRAPE_QUERIES (';'-separated).",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		applyScrapeFlags(cmd, cfg, args)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runScrape(cmd.Context(), cfg)
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock",
	Short: "Clears the rate-limit block stored in memcache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.MemcacheAddr == "" {
			return fmt.Errorf("MEMCACHE_ADDR is not set")
		}
		c := crawler.NewSoldCrawler(crawler.CrawlerConfig{BlockTime: cfg.BlockTime}, nil,
			cache.NewMemcacheService(cfg.MemcacheAddr, cfg.FetchTimeout))
		if err := c.ClearBlock(); err != nil {
			return err
		}
		logger.Default.Info().Str("memcache", cfg.MemcacheAddr).Msg("Rate-limit block cleared")
		return nil
	},
}

func init() {
	flags := scrapeCmd.Flags()
	flags.IntVar(&scrapeFlags.startID, "start-id", 0, "id given to the first listing")
	flags.StringVar(&scrapeFlags.csvPath, "csv", "", "CSV output path (overrides OUTPUT_CSV)")
	flags.StringVar(&scrapeFlags.jsonPath, "json", "", "JSON output path (overrides OUTPUT_JSON)")
	flags.BoolVar(&scrapeFlags.strict, "strict", false, "abort when a result page's structure changed")
	flags.BoolVar(&scrapeFlags.includeSearchPage, "include-search-page", false, "also extract the search page itself")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(unblockCmd)
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Cancel the run on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		cancel()
		os.Exit(1)
	}
}

// applyScrapeFlags lets command-line values win over the environment
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Queries = args
	}
	flags := cmd.Flags()
	if flags.Changed("start-id") {
		cfg.StartID = scrapeFlags.startID
	}
	if flags.Changed("csv") {
		cfg.OutputCSV = scrapeFlags.csvPath
	}
	if flags.Changed("json") {
		cfg.OutputJSON = scrapeFlags.jsonPath
	}
	if flags.Changed("strict") {
		cfg.StrictMode = scrapeFlags.strict
	}
	if flags.Changed("include-search-page") {
		cfg.IncludeSearchPage = scrapeFlags.includeSearchPage
	}
}

func runScrape(ctx context.Context, cfg *config.Config) error {
	log := logger.Default

	log.Info().
		Str("environment", cfg.Environment).
		Int("queries", len(cfg.Queries)).
		Int("start_id", cfg.StartID).
		Bool("strict", cfg.StrictMode).
		Msg("Starting scrape")

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Cleanup()

	c := crawler.NewSoldCrawler(crawler.CrawlerConfig{
		SearchBaseURL:     cfg.SearchURL,
		IncludeSearchPage: cfg.IncludeSearchPage,
		BlockTime:         cfg.BlockTime,
	}, helpers.NewFetcher(cfg.FetchTimeout), services.Cache)

	w := worker.NewWorker(c, services.Publisher, services.Sinks, worker.Options{
		StartID: cfg.StartID,
		Strict:  cfg.StrictMode,
	})

	result, err := w.Run(ctx, cfg.Queries)
	if err != nil {
		return err
	}

	log.Info().
		Int("listings", len(result.Records)).
		Int("next_id", result.NextID).
		Msg("Scrape finished")
	return nil
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Sinks     []storage.Sink
	postgres  *storage.PostgresWriter
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.postgres != nil {
		s.postgres.Close()
	}
}

// initializeServices initializes the services the configuration enables
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	if cfg.OutputCSV != "" {
		services.Sinks = append(services.Sinks, storage.NewCSVWriter(cfg.OutputCSV))
	}
	if cfg.OutputJSON != "" {
		services.Sinks = append(services.Sinks, storage.NewJSONWriter(cfg.OutputJSON))
	}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.FetchTimeout)
		if err := cacheService.Ping(); err != nil {
			logger.Warn("Memcache at %s unreachable, rate-limit block disabled: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("redis at %s: %w", cfg.RedisAddr, err)
		}
		services.Publisher = redisPublisher

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DatabaseURL)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.postgres = pg
		if err := pg.EnsureSchema(ctx); err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Sinks = append(services.Sinks, pg)

		logger.Info("Connected to PostgreSQL")
	}

	if len(services.Sinks) == 0 && services.Publisher == nil {
		logger.Warn("No output configured, listings will only be logged")
	}

	return services, nil
}
