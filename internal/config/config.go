package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Afrawles/sprintdigest/internal/report"
)

var (
	ErrMissingJira  = errors.New("JIRA_DOMAIN, JIRA_EMAIL and JIRA_API_TOKEN are required")
	ErrMissingSlack = errors.New("SLACK_WEBHOOK_URL or SLACK_BOT_TOKEN + SLACK_CHANNEL_ID are required")
)

type Config struct {
	Jira     JiraConfig                `yaml:"jira"`
	Slack    SlackConfig               `yaml:"slack"`
	Digest   DigestConfig              `yaml:"digest"`
	Output   OutputConfig              `yaml:"output"`
	LogLevel string                    `yaml:"log_level"`
	Profiles map[string]report.Profile `yaml:"profiles"`
}

type JiraConfig struct {
	Domain    string        `yaml:"domain"`
	Email     string        `yaml:"email"`
	APIToken  string        `yaml:"api_token"`
	BoardIDs  []int         `yaml:"board_ids"`
	RateLimit float64       `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

type SlackConfig struct {
	BotToken   string `yaml:"bot_token"`
	ChannelID  string `yaml:"channel_id"`
	WebhookURL string `yaml:"webhook_url"`
	APIURL     string `yaml:"api_url"`
}

type DigestConfig struct {
	Profile     string `yaml:"profile"`
	Timezone    string `yaml:"timezone"`
	Concurrency int    `yaml:"concurrency"`
}

type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Format    []string `yaml:"format"` // json, csv, xlsx, html
}

func Default() *Config {
	return &Config{
		Jira: JiraConfig{
			RateLimit: 5,
			Timeout:   30 * time.Second,
		},
		Digest: DigestConfig{
			Profile:     "weekly",
			Concurrency: 4,
		},
		Output: OutputConfig{
			Format: []string{"json", "csv", "xlsx", "html"},
		},
		LogLevel: "info",
		Profiles: report.BuiltinProfiles(),
	}
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load builds the configuration from defaults, the optional YAML file at
// path and the environment, in that order of precedence (later wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads the file named by DIGEST_CONFIG, if any, then the
// environment.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("DIGEST_CONFIG"))
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	builtins := c.Profiles
	c.Profiles = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// file profiles replace built-ins of the same name
	merged := builtins
	for name, p := range c.Profiles {
		if p.Name == "" {
			p.Name = name
		}
		merged[name] = p
	}
	c.Profiles = merged

	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Jira.Domain, "JIRA_DOMAIN")
	setString(&c.Jira.Email, "JIRA_EMAIL")
	setString(&c.Jira.APIToken, "JIRA_API_TOKEN")
	setString(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	setString(&c.Slack.ChannelID, "SLACK_CHANNEL_ID")
	setString(&c.Slack.WebhookURL, "SLACK_WEBHOOK_URL")
	setString(&c.Slack.APIURL, "SLACK_API_URL")
	setString(&c.Digest.Profile, "DIGEST_PROFILE")
	setString(&c.Digest.Timezone, "DIGEST_TIMEZONE")
	setString(&c.Output.Directory, "OUTPUT_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("OUTPUT_FORMAT"); v != "" {
		c.Output.Format = SplitList(v)
	}

	if v := os.Getenv("JIRA_BOARD_IDS"); v != "" {
		ids, err := ParseIDs(v)
		if err != nil {
			return fmt.Errorf("JIRA_BOARD_IDS: %w", err)
		}
		c.Jira.BoardIDs = ids
	}

	if v := os.Getenv("JIRA_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("JIRA_RATE_LIMIT: %w", err)
		}
		c.Jira.RateLimit = f
	}

	if v := os.Getenv("JIRA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JIRA_TIMEOUT: %w", err)
		}
		c.Jira.Timeout = d
	}

	if v := os.Getenv("DIGEST_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DIGEST_CONCURRENCY: %w", err)
		}
		c.Digest.Concurrency = n
	}

	return nil
}

// JiraBaseURL accepts a bare domain ("acme.atlassian.net") or a full URL.
func (c *Config) JiraBaseURL() string {
	domain := strings.TrimRight(strings.TrimSpace(c.Jira.Domain), "/")
	if domain == "" {
		return ""
	}
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

func (c *Config) Location() (*time.Location, error) {
	if c.Digest.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("DIGEST_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Profile returns the active digest profile.
func (c *Config) Profile() (report.Profile, error) {
	return report.LookupProfile(c.Profiles, c.Digest.Profile)
}

// ValidateJira checks what every command talking to Jira needs.
func (c *Config) ValidateJira() error {
	if c.Jira.Domain == "" || c.Jira.Email == "" || c.Jira.APIToken == "" {
		return ErrMissingJira
	}
	return nil
}

// Validate checks everything a digest run needs. Slack settings are only
// required when the digest is actually sent.
func (c *Config) Validate(requireSlack bool) error {
	var errs []error

	if err := c.ValidateJira(); err != nil {
		errs = append(errs, err)
	}

	if requireSlack && c.Slack.WebhookURL == "" && (c.Slack.BotToken == "" || c.Slack.ChannelID == "") {
		errs = append(errs, ErrMissingSlack)
	}

	p, err := c.Profile()
	if err != nil {
		errs = append(errs, err)
	} else if err := p.Validate(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Digest.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Digest.Concurrency))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// SplitList splits a comma-separated string and trims whitespace, dropping
// empty items.
func SplitList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func ParseIDs(input string) ([]int, error) {
	var ids []int
	for _, part := range SplitList(input) {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid board id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
