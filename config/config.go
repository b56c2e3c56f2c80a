package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	WebPort  int    `mapstructure:"WEB_PORT"`

	KnowledgeFile     string `mapstructure:"KNOWLEDGE_FILE"`
	DocumentsDir      string `mapstructure:"DOCUMENTS_DIR"`
	DocumentCacheFile string `mapstructure:"DOCUMENT_CACHE_FILE"`

	KnowledgeThreshold int `mapstructure:"KNOWLEDGE_THRESHOLD"`
	DocumentThreshold  int `mapstructure:"DOCUMENT_THRESHOLD"`
	SiteThreshold      int `mapstructure:"SITE_THRESHOLD"`
	SnippetMaxChars    int `mapstructure:"SNIPPET_MAX_CHARS"`
	ContextMaxChars    int `mapstructure:"CONTEXT_MAX_CHARS"`

	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	MaxRetries        int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`

	OpenAIAPIKey   string  `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL  string  `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel    string  `mapstructure:"OPENAI_MODEL"`
	LLMTemperature float64 `mapstructure:"LLM_TEMPERATURE"`

	SiteDomain        string   `mapstructure:"SITE_DOMAIN"`
	SiteSearchURL     string   `mapstructure:"SITE_SEARCH_URL"`
	SitePages         []string `mapstructure:"SITE_PAGES"`
	SitePageCacheSize int      `mapstructure:"SITE_PAGE_CACHE_SIZE"`

	TranslateURL string `mapstructure:"TRANSLATE_URL"`
	PivotLang    string `mapstructure:"PIVOT_LANG"`

	OffTopicTerms []string `mapstructure:"OFF_TOPIC_TERMS"`

	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int `mapstructure:"RATE_LIMIT_BURST"`
}

func Load(logger *zap.Logger) *Config {
	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("WEB_PORT", 8080)
	viper.SetDefault("KNOWLEDGE_FILE", "static/data/tecnaria_gold.json")
	viper.SetDefault("DOCUMENTS_DIR", "documenti")
	viper.SetDefault("DOCUMENT_CACHE_FILE", "documenti_cache.json")
	viper.SetDefault("KNOWLEDGE_THRESHOLD", 60)
	viper.SetDefault("DOCUMENT_THRESHOLD", 65)
	viper.SetDefault("SITE_THRESHOLD", 60)
	viper.SetDefault("SNIPPET_MAX_CHARS", 3000)
	viper.SetDefault("CONTEXT_MAX_CHARS", 12000)
	viper.SetDefault("HTTP_TIMEOUT", 10)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("RETRY_DELAY_SECONDS", 2)
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("LLM_TEMPERATURE", 0.3)
	viper.SetDefault("SITE_DOMAIN", "tecnaria.com")
	viper.SetDefault("SITE_SEARCH_URL", "https://html.duckduckgo.com/html/")
	viper.SetDefault("SITE_PAGES", []string{
		"https://www.tecnaria.com/it/index.html",
		"https://www.tecnaria.com/it/prodotti.html",
		"https://www.tecnaria.com/it/connettori-solai-legno.html",
		"https://www.tecnaria.com/it/connettori-solai-acciaio.html",
		"https://www.tecnaria.com/it/connettori-solai-calcestruzzo.html",
		"https://www.tecnaria.com/it/applicazioni.html",
		"https://www.tecnaria.com/it/chiodatrici.html",
		"https://www.tecnaria.com/it/download.html",
		"https://www.tecnaria.com/it/contatti.html",
	})
	viper.SetDefault("SITE_PAGE_CACHE_SIZE", 32)
	viper.SetDefault("TRANSLATE_URL", "https://translate.googleapis.com/translate_a/single")
	viper.SetDefault("PIVOT_LANG", "it")
	viper.SetDefault("OFF_TOPIC_TERMS", []string{
		"bitcoin", "binance", "forex", "tourism", "hotel", "iphone",
		"android", "python code", "javascript", "football", "soccer", "trading",
	})
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 5)

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.OpenAIBaseURL = strings.TrimRight(config.OpenAIBaseURL, "/")

	// Convert seconds to proper time.Duration
	config.HTTPTimeout = config.HTTPTimeout * time.Second
	config.RetryDelaySeconds = config.RetryDelaySeconds * time.Second

	return &config
}
