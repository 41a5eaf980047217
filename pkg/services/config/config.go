package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

const (
	DefaultSourceURL  = "https://www.ndiscommission.gov.au/about-us/compliance-and-enforcement/compliance-actions/search/export"
	DefaultUserAgent  = "Mozilla/5.0"
	DefaultOutputPath = "docs/signals.json"
	DefaultModel      = "gemini-1.5-flash"

	EnvPrefix = "SIGNALS"
)

type Config struct {
	Mode    domain.Mode         `mapstructure:"mode" yaml:"mode"`
	Strict  bool                `mapstructure:"strict" yaml:"strict"`
	Source  SourceConfig        `mapstructure:"source" yaml:"source"`
	Fields  map[string][]string `mapstructure:"fields" yaml:"fields"`
	Risk    RiskConfig          `mapstructure:"risk" yaml:"risk"`
	Output  OutputConfig        `mapstructure:"output" yaml:"output"`
	Enrich  EnrichConfig        `mapstructure:"enrich" yaml:"enrich"`
	Publish PublishConfig       `mapstructure:"publish" yaml:"publish"`
	History HistoryConfig       `mapstructure:"history" yaml:"history"`
	Events  EventsConfig        `mapstructure:"events" yaml:"events"`
	Metrics MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`
	Server  ServerConfig        `mapstructure:"server" yaml:"server"`
}

type SourceConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type RiskRule struct {
	Risk     domain.Risk `mapstructure:"risk" yaml:"risk"`
	Keywords []string    `mapstructure:"keywords" yaml:"keywords"`
}

type RiskConfig struct {
	Rules []RiskRule `mapstructure:"rules" yaml:"rules"`
}

type OutputConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	// MaxRecords caps the written records; zero or less disables the cap.
	MaxRecords   int `mapstructure:"max_records" yaml:"max_records"`
	PreviewChars int `mapstructure:"preview_chars" yaml:"preview_chars"`
}

type EnrichConfig struct {
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	Model           string        `mapstructure:"model" yaml:"model"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRows         int           `mapstructure:"max_rows" yaml:"max_rows"`
	CredentialsFile string        `mapstructure:"credentials_file" yaml:"credentials_file"`
	Profile         string        `mapstructure:"profile" yaml:"profile"`
	// RequestsPerMinute throttles model calls; zero disables throttling.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

type PublishConfig struct {
	Bucket       string `mapstructure:"bucket" yaml:"bucket"`
	Key          string `mapstructure:"key" yaml:"key"`
	Region       string `mapstructure:"region" yaml:"region"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	Profile      string `mapstructure:"profile" yaml:"profile"`
	CacheControl string `mapstructure:"cache_control" yaml:"cache_control"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type EventsConfig struct {
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`
	TopicID   string `mapstructure:"topic_id" yaml:"topic_id"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string `mapstructure:"job" yaml:"job"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultFields lists the known header aliases for every extracted field.
// The export's column names are not versioned, so the list is overridable from config.
func DefaultFields() map[string][]string {
	return map[string][]string{
		"type":      {"Type", "Action type", "Compliance action", "Action"},
		"name":      {"Name", "Provider", "Provider name", "Registered provider", "Entity"},
		"state":     {"State", "Jurisdiction"},
		"effective": {"Effective", "Effective date", "Start date", "Commencement date", "Date effective", "Date effective from"},
		"end":       {"End", "End date", "Expiry date", "Cease date", "Date effective to"},
		"link":      {"Link", "URL", "Details"},
	}
}

// mergeFields overlays configured alias lists on the defaults per field, so
// overriding one field keeps the known aliases of all the others.
func mergeFields(configured map[string][]string) map[string][]string {
	fields := DefaultFields()
	for name, aliases := range configured {
		if len(aliases) == 0 {
			continue
		}
		fields[strings.ToLower(name)] = aliases
	}
	return fields
}

func DefaultRiskRules() []RiskRule {
	return []RiskRule{
		{Risk: domain.RiskHigh, Keywords: []string{"banning", "revocation", "cancel", "prohibition", "injunction", "civil penalty"}},
		{Risk: domain.RiskMed, Keywords: []string{"enforceable undertaking", "compliance notice", "notice", "direction"}},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(domain.ModeSignals))
	v.SetDefault("strict", false)

	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.user_agent", DefaultUserAgent)
	v.SetDefault("source.timeout", 60*time.Second)

	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.max_records", 500)
	v.SetDefault("output.preview_chars", 0)

	v.SetDefault("enrich.api_key", "")
	v.SetDefault("enrich.model", DefaultModel)
	v.SetDefault("enrich.timeout", 30*time.Second)
	v.SetDefault("enrich.max_rows", 200)
	v.SetDefault("enrich.credentials_file", "")
	v.SetDefault("enrich.profile", "DEFAULT")
	v.SetDefault("enrich.requests_per_minute", 0)

	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.key", "signals.json")
	v.SetDefault("publish.region", "us-east-1")
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.profile", "")
	v.SetDefault("publish.cache_control", "max-age=300")

	v.SetDefault("history.path", "")

	v.SetDefault("events.project_id", "")
	v.SetDefault("events.topic_id", "")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "compliance_signals")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
}

// Load reads the optional YAML file at path, applies SIGNALS_* environment
// overrides and fills in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("enrich.api_key", EnvPrefix+"_ENRICH_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Fields = mergeFields(cfg.Fields)
	if len(cfg.Risk.Rules) == 0 {
		cfg.Risk.Rules = DefaultRiskRules()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case domain.ModeSignals, domain.ModeEnriched:
	default:
		return fmt.Errorf("unsupported mode %q: expected %q or %q", c.Mode, domain.ModeSignals, domain.ModeEnriched)
	}
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url is required")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return fmt.Errorf("output.path is required")
	}
	for _, r := range c.Risk.Rules {
		if !r.Risk.Valid() {
			return fmt.Errorf("risk rule has unsupported bucket %q", r.Risk)
		}
	}
	return nil
}
