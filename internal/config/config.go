package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ProductCurator/internal/domain"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "PRODUCT_CURATOR_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	httpAddrEnv       = "HTTP_ADDR"
	adminSecretEnv    = "ADMIN_SECRET"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	visionAPIKeyEnv   = "VISION_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	HTTP          HTTPConfig         `yaml:"http"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Suppliers     []SupplierConfig   `yaml:"suppliers"`
	Curation      CurationConfig     `yaml:"curation"`
	Notifications NotificationConfig `yaml:"notifications"`
	Vision        VisionConfig       `yaml:"vision"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects in-memory stores.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig enables persisted job state and event publishing.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Prefix  string `yaml:"prefix"`
	Channel string `yaml:"channel"`
}

// HTTPConfig configures the admin API.
type HTTPConfig struct {
	Addr        string `yaml:"addr"`
	AdminSecret string `yaml:"adminSecret"`
}

// SchedulerConfig lists the recurring jobs.
type SchedulerConfig struct {
	Timezone string         `yaml:"timezone"`
	Jobs     []JobConfig    `yaml:"jobs"`
	location *time.Location `yaml:"-"`
}

// JobConfig declares one named job and its cadence.
type JobConfig struct {
	Name     string        `yaml:"name"`
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SupplierConfig describes one catalog and the categories pulled from it.
type SupplierConfig struct {
	Name         string        `yaml:"name"`
	Kind         string        `yaml:"kind"`
	BaseURL      string        `yaml:"baseUrl"`
	SearchPath   string        `yaml:"searchPath"`
	APIKey       string        `yaml:"apiKey"`
	FixturePath  string        `yaml:"fixturePath"`
	RateLimitRPS float64       `yaml:"rateLimitRps"`
	Timeout      time.Duration `yaml:"timeout"`
	PageSize     int           `yaml:"pageSize"`
	MaxPages     int           `yaml:"maxPages"`
	Country      string        `yaml:"country"`
	Categories   []string      `yaml:"categories"`
}

// CurationConfig bundles filtering, scoring, routing and pricing knobs.
type CurationConfig struct {
	Filter            FilterConfig              `yaml:"filter"`
	LuxuryKeywords    []string                  `yaml:"luxuryKeywords"`
	Thresholds        []domain.QualityThreshold `yaml:"thresholds"`
	MarkupTiers       []MarkupTier              `yaml:"markupTiers"`
	FetchTimeout      time.Duration             `yaml:"fetchTimeout"`
	FetchConcurrency  int                       `yaml:"fetchConcurrency"`
	LowStockThreshold int                       `yaml:"lowStockThreshold"`
	HistoryDepth      int                       `yaml:"historyDepth"`
}

// FilterConfig is the cheap pre-scoring reject list.
type FilterConfig struct {
	MinPrice            float64  `yaml:"minPrice"`
	MaxPrice            float64  `yaml:"maxPrice"`
	AllowedRegions      []string `yaml:"allowedRegions"`
	MaxProcessingDays   int      `yaml:"maxProcessingDays"`
	RequireFreeShipping bool     `yaml:"requireFreeShipping"`
	RequireInStock      *bool    `yaml:"requireInStock"`
	ExcludedKeywords    []string `yaml:"excludedKeywords"`
}

// InStockRequired defaults to true when the option is not set.
func (f FilterConfig) InStockRequired() bool {
	return f.RequireInStock == nil || *f.RequireInStock
}

// MarkupTier applies Multiplier to cost prices up to UpTo. UpTo 0 means no upper bound.
type MarkupTier struct {
	UpTo       float64 `yaml:"upTo"`
	Multiplier float64 `yaml:"multiplier"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// VisionConfig describes the image assessment service.
type VisionConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// Load reads the YAML file named by $PRODUCT_CURATOR_CONFIG (if any) and applies
// environment overrides. An unreadable file falls back to defaults.
func Load() Config {
	path := os.Getenv(configPathEnv)
	cfg, err := LoadFile(path)
	if err != nil {
		log.Printf("config: %v (falling back to defaults)", err)
		cfg, _ = LoadFile("")
	}
	return cfg
}

// LoadFile reads an explicit YAML path and fails if it cannot be read or parsed.
// An empty path yields defaults plus env overrides.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		fileCfg, err := Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg, nil
}

// Parse decodes a YAML document into a Config without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(adminSecretEnv); v != "" {
		c.HTTP.AdminSecret = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(visionAPIKeyEnv); v != "" {
		c.Vision.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.URL != "" {
		base.Redis.URL = override.Redis.URL
	}
	if override.Redis.Prefix != "" {
		base.Redis.Prefix = override.Redis.Prefix
	}
	if override.Redis.Channel != "" {
		base.Redis.Channel = override.Redis.Channel
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.AdminSecret != "" {
		base.HTTP.AdminSecret = override.HTTP.AdminSecret
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if len(override.Scheduler.Jobs) > 0 {
		base.Scheduler.Jobs = override.Scheduler.Jobs
	}

	if len(override.Suppliers) > 0 {
		base.Suppliers = override.Suppliers
	}

	base.Curation = mergeCuration(base.Curation, override.Curation)

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.BaseURL != "" {
		base.Notifications.Telegram.BaseURL = override.Notifications.Telegram.BaseURL
	}

	if override.Vision.Endpoint != "" {
		base.Vision.Endpoint = override.Vision.Endpoint
	}
	if override.Vision.APIKey != "" {
		base.Vision.APIKey = override.Vision.APIKey
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	return base
}

func mergeCuration(base, override CurationConfig) CurationConfig {
	f := override.Filter
	if f.MinPrice > 0 {
		base.Filter.MinPrice = f.MinPrice
	}
	if f.MaxPrice > 0 {
		base.Filter.MaxPrice = f.MaxPrice
	}
	if len(f.AllowedRegions) > 0 {
		base.Filter.AllowedRegions = f.AllowedRegions
	}
	if f.MaxProcessingDays > 0 {
		base.Filter.MaxProcessingDays = f.MaxProcessingDays
	}
	if f.RequireFreeShipping {
		base.Filter.RequireFreeShipping = true
	}
	if f.RequireInStock != nil {
		base.Filter.RequireInStock = f.RequireInStock
	}
	if len(f.ExcludedKeywords) > 0 {
		base.Filter.ExcludedKeywords = f.ExcludedKeywords
	}

	if len(override.LuxuryKeywords) > 0 {
		base.LuxuryKeywords = override.LuxuryKeywords
	}
	if len(override.Thresholds) > 0 {
		base.Thresholds = override.Thresholds
	}
	if len(override.MarkupTiers) > 0 {
		base.MarkupTiers = override.MarkupTiers
	}
	if override.FetchTimeout > 0 {
		base.FetchTimeout = override.FetchTimeout
	}
	if override.FetchConcurrency > 0 {
		base.FetchConcurrency = override.FetchConcurrency
	}
	if override.LowStockThreshold > 0 {
		base.LowStockThreshold = override.LowStockThreshold
	}
	if override.HistoryDepth > 0 {
		base.HistoryDepth = override.HistoryDepth
	}
	return base
}

// DefaultThresholds returns the built-in auto-approve and review rules.
func DefaultThresholds() []domain.QualityThreshold {
	return []domain.QualityThreshold{
		{
			ID:         "default-auto-approve",
			Name:       "Auto-approve high quality",
			Type:       domain.ThresholdAutoApprove,
			Active:     true,
			Conditions: domain.ThresholdConditions{MinScore: 70},
		},
		{
			ID:         "default-review",
			Name:       "Manual review",
			Type:       domain.ThresholdReviewQueue,
			Active:     true,
			Conditions: domain.ThresholdConditions{MinScore: 50},
		},
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Redis:   RedisConfig{Prefix: "productcurator", Channel: "productcurator:events"},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{
			Timezone: defaultTimezone,
			location: tz,
			Jobs: []JobConfig{
				{Name: "daily-product-curation", Interval: 24 * time.Hour, Enabled: true},
				{Name: "inventory-sync", Interval: 6 * time.Hour, Enabled: true},
				{Name: "weekly-curation-digest", Interval: 7 * 24 * time.Hour, Enabled: true},
			},
		},
		Suppliers: []SupplierConfig{
			{
				Name:         "demo-catalog",
				Kind:         "http",
				BaseURL:      "https://catalog.example.org",
				SearchPath:   "/v1/products/search",
				RateLimitRPS: 5,
				Timeout:      20 * time.Second,
				PageSize:     50,
				MaxPages:     4,
				Country:      "US",
				Categories:   []string{"jewelry", "watches", "home-decor"},
			},
		},
		Curation: CurationConfig{
			Filter: FilterConfig{
				MinPrice:          50,
				MaxPrice:          5000,
				AllowedRegions:    []string{"US", "CA", "GB", "AU", "DE", "FR", "IT", "ES"},
				MaxProcessingDays: 3,
				RequireInStock:    boolPtr(true),
				ExcludedKeywords:  []string{"replica", "fake", "knockoff", "cheap", "wholesale lot"},
			},
			LuxuryKeywords: []string{
				"luxury", "premium", "handcrafted", "artisan", "designer",
				"exclusive", "limited edition", "genuine leather", "sterling silver", "cashmere",
			},
			Thresholds: DefaultThresholds(),
			MarkupTiers: []MarkupTier{
				{UpTo: 100, Multiplier: 2.5},
				{UpTo: 500, Multiplier: 2.0},
				{UpTo: 0, Multiplier: 1.6},
			},
			FetchTimeout:      30 * time.Second,
			FetchConcurrency:  4,
			LowStockThreshold: 5,
			HistoryDepth:      7,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BaseURL: "https://api.telegram.org"},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You write concise, elegant product descriptions for a luxury storefront.",
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}
