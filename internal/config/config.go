package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Sheets SheetsConfig `yaml:"sheets" mapstructure:"sheets"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Bitrix BitrixConfig `yaml:"bitrix" mapstructure:"bitrix"`
	Ranker RankerConfig `yaml:"ranker" mapstructure:"ranker"`
	Retry  RetryConfig  `yaml:"retry" mapstructure:"retry"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend. The DSN scheme selects
// Postgres or SQLite.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SheetsConfig configures the spreadsheet source.
type SheetsConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	DocID        string `yaml:"doc_id" mapstructure:"doc_id"`
	Token        string `yaml:"token" mapstructure:"token"`
	GeneralSheet string `yaml:"general_sheet" mapstructure:"general_sheet"`
	CatalogSheet string `yaml:"catalog_sheet" mapstructure:"catalog_sheet"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec   int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"` // "ollama" or "anthropic"
	Ollama    OllamaConfig    `yaml:"ollama" mapstructure:"ollama"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// OllamaConfig holds Ollama endpoint settings.
type OllamaConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BitrixConfig holds the Bitrix24 inbound webhook settings.
type BitrixConfig struct {
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RankerConfig configures catalog relevance filtering.
type RankerConfig struct {
	Limit      int    `yaml:"limit" mapstructure:"limit"`
	Threshold  int    `yaml:"threshold" mapstructure:"threshold"`
	FieldsFile string `yaml:"fields_file" mapstructure:"fields_file"`
}

// RetryConfig configures backend call retries.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int `yaml:"port" mapstructure:"port"`
	AnswerTimeoutS int `yaml:"answer_timeout_secs" mapstructure:"answer_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.answer_timeout_secs", 300)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("sheets.general_sheet", "Общая информация о компании")
	v.SetDefault("sheets.catalog_sheet", "Товары")
	v.SetDefault("sheets.timeout_secs", 30)
	v.SetDefault("sheets.rate_per_sec", 5)
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "llama3.2:3b")
	v.SetDefault("llm.ollama.timeout_secs", 120)
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.anthropic.max_tokens", 256)
	v.SetDefault("bitrix.timeout_secs", 10)
	v.SetDefault("ranker.limit", 3)
	v.SetDefault("ranker.threshold", 50)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.multiplier", 2.0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
