package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Rosters  RostersConfig  `yaml:"rosters" envconfig:"ROSTERS"`
	Matching MatchingConfig `yaml:"matching" envconfig:"MATCHING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"30m"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"` // console|file|both
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/regpulse.log"`
}

// SourceConfig describes where the raw registration report comes from.
// When FilePath is set the file source is used; otherwise the browser
// session scrapes the report portal.
type SourceConfig struct {
	PortalURL  string        `yaml:"portal_url" envconfig:"PORTAL_URL"`
	Username   string        `yaml:"username" envconfig:"USERNAME"`
	Password   string        `yaml:"password" envconfig:"PASSWORD"`
	FilePath   string        `yaml:"file_path" envconfig:"FILE_PATH"`
	Headless   bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
	PageDelay  time.Duration `yaml:"page_delay" envconfig:"PAGE_DELAY" default:"500ms"`
}

// RostersConfig describes the two roster spreadsheets.
type RostersConfig struct {
	APIKey          string `yaml:"api_key" envconfig:"API_KEY"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	MembersRange    string `yaml:"members_range" envconfig:"MEMBERS_RANGE" default:"Members!A2:F"`
	HistoricalRange string `yaml:"historical_range" envconfig:"HISTORICAL_RANGE" default:"History!A2:D"`
}

// MatchingConfig carries the campaign constants the matcher and
// aggregator depend on.
type MatchingConfig struct {
	// ReferralCutoff excludes registrations at or after this date from
	// the referral histogram (YYYY-MM-DD).
	ReferralCutoff string `yaml:"referral_cutoff" envconfig:"REFERRAL_CUTOFF" default:"2025-10-09"`
	// CountryCode is the phone prefix stripped before keeping the last
	// ten digits of a number.
	CountryCode string `yaml:"country_code" envconfig:"COUNTRY_CODE" default:"91"`
}

// Load loads configuration from environment variables and the optional
// config file. Environment variables take precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Paths.resolve(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Source.PortalURL == "" {
		envConfig.Source.PortalURL = fileConfig.Source.PortalURL
	}
	if envConfig.Source.FilePath == "" {
		envConfig.Source.FilePath = fileConfig.Source.FilePath
	}
	if envConfig.Rosters.APIKey == "" {
		envConfig.Rosters.APIKey = fileConfig.Rosters.APIKey
	}
	if envConfig.Rosters.SpreadsheetID == "" {
		envConfig.Rosters.SpreadsheetID = fileConfig.Rosters.SpreadsheetID
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}

	return envConfig
}

func getConfigFilePath() string {
	if p := os.Getenv("REG_CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}

var validate = validator.New()

type configRules struct {
	Port           int    `validate:"min=1,max=65535"`
	Level          string `validate:"oneof=debug info warn error"`
	Output         string `validate:"oneof=console file both"`
	ReferralCutoff string `validate:"datetime=2006-01-02"`
}

// validate checks the loaded configuration for values the pipeline cannot
// run with.
func (c *Config) validate() error {
	rules := configRules{
		Port:           c.Server.Port,
		Level:          c.Logging.Level,
		Output:         c.Logging.Output,
		ReferralCutoff: c.Matching.ReferralCutoff,
	}
	if err := validate.Struct(rules); err != nil {
		return err
	}
	return nil
}

// ReferralCutoffDate parses the configured phase cutoff. The default is
// always parseable; validation rejects anything else at load time.
func (c *Config) ReferralCutoffDate() time.Time {
	t, err := time.Parse("2006-01-02", c.Matching.ReferralCutoff)
	if err != nil {
		t, _ = time.Parse("2006-01-02", DefaultReferralCutoff)
	}
	return t
}
