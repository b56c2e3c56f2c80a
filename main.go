package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/composer"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/config"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/documents"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/knowledge"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/lang"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/llmclient"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/match"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/site"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/web"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	base, err := knowledge.Load(cfg.KnowledgeFile)
	if err != nil {
		// A missing or invalid knowledge file degrades to an empty set;
		// document search and the LLM fallback still work.
		logger.Warn("Knowledge file unusable, starting with empty knowledge set",
			zap.String("path", cfg.KnowledgeFile), zap.Error(err))
		base = &knowledge.Base{Meta: knowledge.Meta{Language: cfg.PivotLang}}
	}
	store := knowledge.NewStore(base, cfg.KnowledgeThreshold, logger)

	indexer := documents.NewIndexer(
		cfg.DocumentsDir,
		documents.NewFileCache(cfg.DocumentCacheFile),
		logger,
	)

	siteClient, err := site.NewClient(site.Config{
		Domain:        cfg.SiteDomain,
		SearchURL:     cfg.SiteSearchURL,
		FallbackPages: cfg.SitePages,
		Timeout:       cfg.HTTPTimeout,
		PageCacheSize: cfg.SitePageCacheSize,
	}, match.New(cfg.SiteThreshold, cfg.SnippetMaxChars), logger)
	if err != nil {
		logger.Fatal("Failed to initialize site search client", zap.Error(err))
	}

	pivot := base.Meta.Language
	if pivot == "" {
		pivot = cfg.PivotLang
	}
	normalizer := lang.NewNormalizer(
		lang.WhatlangDetector{},
		lang.NewGoogleTranslator(cfg.TranslateURL, cfg.HTTPTimeout, logger),
		pivot,
		base.Meta.SupportedLangs,
		base.Meta.FallbackLang,
		logger,
	)

	llm := llmclient.New(cfg, logger)

	pipeline := composer.New(
		store,
		indexer,
		match.New(cfg.DocumentThreshold, cfg.SnippetMaxChars),
		siteClient,
		llm,
		normalizer,
		composer.Options{
			Temperature:     cfg.LLMTemperature,
			ContextMaxChars: cfg.ContextMaxChars,
			OffTopicTerms:   cfg.OffTopicTerms,
		},
		logger,
	)

	server := web.NewServer(pipeline, base, cfg, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting Tecnaria assistant web server",
		zap.String("address", addr),
		zap.Int("knowledge_items", len(base.Items)))
	if err := server.Start(ctx, addr); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
