package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var Version = "dev"

const (
	DownloadTimeout   = 3600 * time.Second
	SweepInterval     = time.Hour
	DiskSpaceMinGB    = 5
	MaxURLLength      = 2048
	RateLimitWindow   = 60 * time.Second
	RateLimitMax      = 30
	PassthroughFormat = "mp4"
	DefaultFormat     = "mp3"
)

// Config is built once by Load and handed to every component. Nothing reads
// the process environment after that.
type Config struct {
	Port              string   `env:"PORT" env-default:"8000"`
	UploadFolder      string   `env:"UPLOAD_FOLDER" env-default:"downloads"`
	OutputFolder      string   `env:"OUTPUT_FOLDER" env-default:"outputs"`
	IndexFile         string   `env:"INDEX_FILE" env-default:"index.html"`
	MaxContentLength  int64    `env:"MAX_CONTENT_LENGTH" env-default:"5368709120"`
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" env-separator:"," env-default:"mp3,wav,mp4,mkv,avi,flac"`
	CleanupAgeHours   int      `env:"CLEANUP_AGE_HOURS" env-default:"24"`
	ToolTimeoutSec    int      `env:"TOOL_TIMEOUT_SECONDS" env-default:"3600"`
	MaxConcurrentJobs int      `env:"MAX_CONCURRENT_JOBS" env-default:"2"`
	CORSOrigins       []string `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
	LogLevel          string   `env:"LOG_LEVEL" env-default:"info"`

	YtdlpCookiesFile string `env:"YTDLP_COOKIES_FILE"`
	YtdlpProxy       string `env:"YTDLP_PROXY"`

	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	DiscordPingUserID string `env:"DISCORD_PING_USER_ID"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.AllowedExtensions = normalizeExtensions(cfg.AllowedExtensions)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.UploadFolder == "" {
		errs = append(errs, errors.New("UPLOAD_FOLDER must not be empty"))
	}
	if c.OutputFolder == "" {
		errs = append(errs, errors.New("OUTPUT_FOLDER must not be empty"))
	}
	if c.MaxContentLength <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONTENT_LENGTH must be positive, got %d", c.MaxContentLength))
	}
	if c.CleanupAgeHours <= 0 {
		errs = append(errs, fmt.Errorf("CLEANUP_AGE_HOURS must be positive, got %d", c.CleanupAgeHours))
	}
	if c.ToolTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("TOOL_TIMEOUT_SECONDS must be positive, got %d", c.ToolTimeoutSec))
	}
	if c.MaxConcurrentJobs <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENT_JOBS must be positive, got %d", c.MaxConcurrentJobs))
	}
	if len(c.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("ALLOWED_EXTENSIONS must list at least one extension"))
	}
	return errors.Join(errs...)
}

func (c *Config) RetentionAge() time.Duration {
	return time.Duration(c.CleanupAgeHours) * time.Hour
}

func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSec) * time.Second
}

// AllowsExtension reports whether ext (with or without the leading dot) is on
// the upload allow-list. Comparison is case-insensitive.
func (c *Config) AllowsExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return false
	}
	return Contains(c.AllowedExtensions, ext)
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" && !Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func Contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
