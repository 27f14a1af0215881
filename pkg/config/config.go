package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config stores all configuration for the application.
type Config struct {
	Seed      string `mapstructure:"SITE"`
	KeysLimit int64  `mapstructure:"KEYS_LIMIT"`

	FrontierStore  string        `mapstructure:"FRONTIER_STORE"`
	EntryTTL       time.Duration `mapstructure:"ENTRY_TTL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	RedisKeyPrefix string        `mapstructure:"REDIS_KEY_PREFIX"`

	Fetcher         string        `mapstructure:"FETCHER"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	ChromePath      string        `mapstructure:"CHROME_PATH"`
	UserAgents      []string      `mapstructure:"-"` // USER_AGENTS, separated by userAgentSep
	Proxies         []string      `mapstructure:"PROXIES"`

	Archiver    string `mapstructure:"ARCHIVER"`
	ResultDir   string `mapstructure:"RESULT_DIR"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3Prefix    string `mapstructure:"S3_PREFIX"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	MaxFailures  int64  `mapstructure:"MAX_FAILURES"`
	FailureStore string `mapstructure:"FAILURE_STORE"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

// userAgentSep separates USER_AGENTS entries. Browser user agents contain commas, as in
// "(KHTML, like Gecko)", so the usual comma-separated list does not work for them.
const userAgentSep = "|"

func splitUserAgents(raw string) []string {
	var agents []string
	for _, ua := range strings.Split(raw, userAgentSep) {
		if ua = strings.TrimSpace(ua); ua != "" {
			agents = append(agents, ua)
		}
	}
	return agents
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"site":         "SITE",
	"keys-limit":   "KEYS_LIMIT",
	"store":        "FRONTIER_STORE",
	"fetcher":      "FETCHER",
	"archiver":     "ARCHIVER",
	"result-dir":   "RESULT_DIR",
	"max-failures": "MAX_FAILURES",
	"log-level":    "LOG_LEVEL",
	"metrics-addr": "METRICS_ADDR",
}

// RegisterFlags adds the flags Load understands. Flags win over environment and .env values
// only when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("site", "", "seed URL; also the prefix every followed link must start with")
	fs.Int64("keys-limit", 0, "maximum number of frontier entries (0 disables discovery)")
	fs.String("store", "", "frontier store: redis or memory")
	fs.String("fetcher", "", "page fetcher: chromedp or http")
	fs.String("archiver", "", "page archiver: filesystem, postgres, s3 or kafka")
	fs.String("result-dir", "", "directory for the filesystem archiver")
	fs.Int64("max-failures", 0, "stop after a URL fails this many times (0 = never)")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("metrics-addr", "", "serve /metrics and the frontier API on this address")
}

// Load reads configuration from the .env file, environment variables and fs, in increasing
// order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	_ = v.ReadInConfig()

	v.SetDefault("SITE", "https://cmlabs.co/")
	v.SetDefault("KEYS_LIMIT", 0)
	v.SetDefault("FRONTIER_STORE", "redis")
	v.SetDefault("ENTRY_TTL", 5*time.Hour)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "frontier:")
	v.SetDefault("FETCHER", "chromedp")
	v.SetDefault("PAGE_LOAD_TIMEOUT", 60*time.Second)
	v.SetDefault("CHROME_PATH", "")
	v.SetDefault("USER_AGENTS", "")
	v.SetDefault("PROXIES", []string{})
	v.SetDefault("ARCHIVER", "filesystem")
	v.SetDefault("RESULT_DIR", "result")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_PREFIX", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("KAFKA_BROKERS", []string{})
	v.SetDefault("KAFKA_TOPIC", "archived-pages")
	v.SetDefault("MAX_FAILURES", 0)
	v.SetDefault("FAILURE_STORE", "frontier")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ADDR", "")

	// The seed and limit are also accepted under their historical lower-case names.
	if err := v.BindEnv("SITE", "SITE", "site"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("KEYS_LIMIT", "KEYS_LIMIT", "keysLimit"); err != nil {
		return nil, err
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.UserAgents = splitUserAgents(v.GetString("USER_AGENTS"))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	seed, err := url.Parse(c.Seed)
	if err != nil || (seed.Scheme != "http" && seed.Scheme != "https") || seed.Host == "" {
		return fmt.Errorf("%w: seed %q is not an absolute http(s) URL", ErrInvalidConfig, c.Seed)
	}
	if c.EntryTTL <= 0 {
		return fmt.Errorf("%w: ENTRY_TTL must be positive", ErrInvalidConfig)
	}
	if c.PageLoadTimeout <= 0 {
		return fmt.Errorf("%w: PAGE_LOAD_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.MaxFailures < 0 {
		return fmt.Errorf("%w: MAX_FAILURES must not be negative", ErrInvalidConfig)
	}

	switch c.FrontierStore {
	case "redis", "memory":
	default:
		return fmt.Errorf("%w: unknown frontier store %q", ErrInvalidConfig, c.FrontierStore)
	}
	switch c.Fetcher {
	case "chromedp", "http":
	default:
		return fmt.Errorf("%w: unknown fetcher %q", ErrInvalidConfig, c.Fetcher)
	}

	switch c.Archiver {
	case "filesystem":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: the postgres archiver needs POSTGRES_URL", ErrInvalidConfig)
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: the s3 archiver needs S3_BUCKET", ErrInvalidConfig)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("%w: the kafka archiver needs KAFKA_BROKERS and KAFKA_TOPIC", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown archiver %q", ErrInvalidConfig, c.Archiver)
	}

	switch c.FailureStore {
	case "frontier":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: FAILURE_STORE=postgres needs POSTGRES_URL", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown failure store %q", ErrInvalidConfig, c.FailureStore)
	}
	return nil
}
