// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopping-notifier/internal/exclusions"
	"github.com/donaldgifford/shopping-notifier/internal/retry"
	"github.com/donaldgifford/shopping-notifier/internal/store"
	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
	LedgerCSV      = "csv"
)

// Batch trigger modes.
const (
	TriggerQueue = "queue"
	TriggerHTTP  = "http"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Yahoo      YahooConfig      `yaml:"yahoo"`
	Chatwork   ChatworkConfig   `yaml:"chatwork"`
	Storage    StorageConfig    `yaml:"storage"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Batch      BatchConfig      `yaml:"batch"`
	Exclusions ExclusionsConfig `yaml:"exclusions"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// YahooConfig defines the item search API settings.
type YahooConfig struct {
	AppID        string          `yaml:"app_id"`
	SearchURL    string          `yaml:"search_url"`
	Sort         string          `yaml:"sort"`
	Results      int             `yaml:"results"`
	InStock      *bool           `yaml:"in_stock"`
	CallInterval time.Duration   `yaml:"call_interval"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	Retry        retry.Policy    `yaml:"retry"`
}

// RateLimitConfig defines search API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// ChatworkConfig defines the notification room and credentials.
type ChatworkConfig struct {
	RoomID       string        `yaml:"room_id"`
	APIToken     string        `yaml:"api_token"`
	BaseURL      string        `yaml:"base_url"`
	SuccessDelay time.Duration `yaml:"success_delay"`
	Retry        retry.Policy  `yaml:"retry"`
	// DryRun logs notifications instead of sending them.
	DryRun bool `yaml:"dry_run"`
}

// StorageConfig locates the configuration bucket. The bucket is a directory
// holding the rules CSV, the exclusion cache, and CSV ledgers.
type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	ConfigKey string `yaml:"config_key"`
}

// LedgerConfig selects the de-duplication ledger backend.
type LedgerConfig struct {
	Backend  string         `yaml:"backend"`
	Name     string         `yaml:"name"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	CSV      CSVConfig      `yaml:"csv"`
}

// PostgresConfig defines PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode, d.PoolSize,
	)
}

// SQLiteConfig defines the embedded ledger database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// CSVConfig defines the object key of a CSV ledger inside the bucket.
type CSVConfig struct {
	Key string `yaml:"key"`
}

// BatchConfig controls batch slicing and chaining.
type BatchConfig struct {
	Size           int              `yaml:"size"`
	Partition      domain.Partition `yaml:"partition"`
	NotifyInterval time.Duration    `yaml:"notify_interval"`
	Trigger        string           `yaml:"trigger"`
	TriggerURL     string           `yaml:"trigger_url"`
	QueueSize      int              `yaml:"queue_size"`
}

// ExclusionsConfig defines the global excluded-shop sources.
type ExclusionsConfig struct {
	SecretName    string        `yaml:"secret_name"`
	SpreadsheetID string        `yaml:"spreadsheet_id"`
	SheetName     string        `yaml:"sheet_name"`
	SheetsURL     string        `yaml:"sheets_url"`
	Secrets       SecretsConfig `yaml:"secrets"`
	CacheKey      string        `yaml:"cache_key"`
	// Shops is a static list used when no spreadsheet is configured.
	Shops []string `yaml:"shops"`
}

// SheetsEnabled reports whether the spreadsheet source is configured.
func (e *ExclusionsConfig) SheetsEnabled() bool {
	return e.SecretName != "" && e.SpreadsheetID != ""
}

// SecretsConfig selects where service-account credentials are read from.
// An empty Dir reads them from the environment.
type SecretsConfig struct {
	Dir string `yaml:"dir"`
}

// MatcherConfig defines the condition tag vocabulary.
type MatcherConfig struct {
	NewOnlyTag string `yaml:"new_only_tag"`
	UsedMarker string `yaml:"used_marker"`
}

// ScheduleConfig defines the serve-mode run schedule.
type ScheduleConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution, environment overrides and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides copies the recognized deployment variables over the
// file values. Empty variables are ignored.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"YAHOO_APPLICATION_ID", &cfg.Yahoo.AppID},
		{"CHATWORK_ROOM_ID", &cfg.Chatwork.RoomID},
		{"CHATWORK_API_TOKEN", &cfg.Chatwork.APIToken},
		{"CONFIG_BUCKET", &cfg.Storage.Bucket},
		{"CONFIG_KEY", &cfg.Storage.ConfigKey},
		{"LEDGER_NAME", &cfg.Ledger.Name},
		{"GOOGLE_SECRET_NAME", &cfg.Exclusions.SecretName},
		{"SPREADSHEET_ID", &cfg.Exclusions.SpreadsheetID},
	}
	for _, s := range strs {
		if v, ok := lookup(s.env); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup("PARTITION"); ok && v != "" {
		cfg.Batch.Partition = domain.Partition(v)
	}

	if v, ok := lookup("BATCH_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BATCH_SIZE %q: %w", v, err)
		}
		cfg.Batch.Size = n
	}

	return nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyYahooDefaults(&cfg.Yahoo)
	applyChatworkDefaults(&cfg.Chatwork)
	applyStorageDefaults(&cfg.Storage)
	applyLedgerDefaults(&cfg.Ledger)
	applyBatchDefaults(&cfg.Batch)
	applyExclusionsDefaults(&cfg.Exclusions)
	applyMatcherDefaults(&cfg.Matcher)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyYahooDefaults(y *YahooConfig) {
	if y.SearchURL == "" {
		y.SearchURL = "https://shopping.yahooapis.jp/ShoppingWebService/V3/itemSearch"
	}
	if y.Sort == "" {
		y.Sort = "-score"
	}
	if y.Results == 0 {
		y.Results = 10
	}
	if y.InStock == nil {
		inStock := true
		y.InStock = &inStock
	}
	if y.CallInterval == 0 {
		y.CallInterval = time.Second
	}
	applyRateLimitDefaults(&y.RateLimit)
	applyRetryDefaults(&y.Retry)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 1.0
	}
	if r.Burst == 0 {
		r.Burst = 1
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 50000
	}
}

func applyRetryDefaults(p *retry.Policy) {
	def := retry.DefaultPolicy()
	if p.MaxAttempts == 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Backoff == 0 {
		p.Backoff = def.Backoff
	}
	if p.RateLimitBackoff == 0 {
		p.RateLimitBackoff = def.RateLimitBackoff
	}
}

func applyChatworkDefaults(c *ChatworkConfig) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.chatwork.com/v2"
	}
	if c.SuccessDelay == 0 {
		c.SuccessDelay = time.Second
	}
	applyRetryDefaults(&c.Retry)
}

func applyStorageDefaults(s *StorageConfig) {
	if s.Bucket == "" {
		s.Bucket = "data"
	}
	if s.ConfigKey == "" {
		s.ConfigKey = "config.csv"
	}
}

func applyLedgerDefaults(l *LedgerConfig) {
	if l.Backend == "" {
		l.Backend = LedgerSQLite
	}
	if l.Name == "" {
		l.Name = store.DefaultLedgerName
	}
	if l.SQLite.Path == "" {
		l.SQLite.Path = "data/ledger.db"
	}
	if l.CSV.Key == "" {
		l.CSV.Key = l.Name + ".csv"
	}

	p := &l.Postgres
	if p.Port == 0 {
		p.Port = 5432
	}
	if p.SSLMode == "" {
		p.SSLMode = "disable"
	}
	if p.PoolSize == 0 {
		p.PoolSize = 4
	}
}

func applyBatchDefaults(b *BatchConfig) {
	if b.Size == 0 {
		b.Size = 10
	}
	if b.Partition == "" {
		b.Partition = domain.PartitionAll
	}
	if b.NotifyInterval == 0 {
		b.NotifyInterval = time.Second
	}
	if b.Trigger == "" {
		b.Trigger = TriggerQueue
	}
	if b.QueueSize == 0 {
		b.QueueSize = 16
	}
}

func applyExclusionsDefaults(e *ExclusionsConfig) {
	if e.SheetName == "" {
		e.SheetName = exclusions.DefaultSheetName
	}
	if e.CacheKey == "" {
		e.CacheKey = exclusions.DefaultCacheKey
	}
}

func applyMatcherDefaults(m *MatcherConfig) {
	if m.NewOnlyTag == "" {
		m.NewOnlyTag = matcher.DefaultNewOnlyTag
	}
	if m.UsedMarker == "" {
		m.UsedMarker = matcher.DefaultUsedMarker
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.Interval == 0 {
		s.Interval = time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Yahoo.AppID == "" {
		errs = append(errs, fmt.Errorf("yahoo.app_id is required"))
	}
	if cfg.Yahoo.Results < 1 || cfg.Yahoo.Results > 100 {
		errs = append(errs, fmt.Errorf("yahoo.results must be between 1 and 100 (got %d)", cfg.Yahoo.Results))
	}

	if !cfg.Chatwork.DryRun {
		if cfg.Chatwork.RoomID == "" {
			errs = append(errs, fmt.Errorf("chatwork.room_id is required unless dry_run is set"))
		}
		if cfg.Chatwork.APIToken == "" {
			errs = append(errs, fmt.Errorf("chatwork.api_token is required unless dry_run is set"))
		}
	}

	if err := store.ValidateLedgerName(cfg.Ledger.Name); err != nil {
		errs = append(errs, fmt.Errorf("ledger.name: %w", err))
	}
	switch cfg.Ledger.Backend {
	case LedgerPostgres:
		if cfg.Ledger.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("ledger.postgres.host is required when backend is postgres"))
		}
		if cfg.Ledger.Postgres.Name == "" {
			errs = append(errs, fmt.Errorf("ledger.postgres.name is required when backend is postgres"))
		}
		if cfg.Ledger.Postgres.User == "" {
			errs = append(errs, fmt.Errorf("ledger.postgres.user is required when backend is postgres"))
		}
	case LedgerSQLite, LedgerCSV:
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"ledger.backend must be one of: postgres, sqlite, csv (got %q)",
				cfg.Ledger.Backend,
			),
		)
	}

	if cfg.Batch.Size < 1 {
		errs = append(errs, fmt.Errorf("batch.size must be positive (got %d)", cfg.Batch.Size))
	}
	if !cfg.Batch.Partition.Valid() {
		errs = append(
			errs,
			fmt.Errorf("batch.partition must be one of: all, even, odd (got %q)", cfg.Batch.Partition),
		)
	}
	switch cfg.Batch.Trigger {
	case TriggerQueue:
	case TriggerHTTP:
		if cfg.Batch.TriggerURL == "" {
			errs = append(errs, fmt.Errorf("batch.trigger_url is required when trigger is http"))
		}
	default:
		errs = append(
			errs,
			fmt.Errorf("batch.trigger must be one of: queue, http (got %q)", cfg.Batch.Trigger),
		)
	}

	if cfg.Schedule.Enabled && cfg.Schedule.Interval < time.Minute {
		errs = append(errs, fmt.Errorf("schedule.interval must be at least 1m (got %s)", cfg.Schedule.Interval))
	}

	return errors.Join(errs...)
}
