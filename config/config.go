// Package config loads dynarec settings and builds the store client, logger
// and adapter from them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nisimpson/dynarec"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DYNAREC_TABLE_NAME.
const EnvPrefix = "DYNAREC"

// Operation names accepted by the direct-invoke Lambda handler.
var Operations = []string{"create", "get", "update", "delete"}

// Event formats accepted by the Lambda handler.
const (
	EventDirect = "direct"
	EventProxy  = "proxy"
)

// Config holds all settings. Keys are shared by the config file and the
// environment.
type Config struct {
	TableName          string `mapstructure:"table_name"`
	Region             string `mapstructure:"region"`
	Endpoint           string `mapstructure:"endpoint"`
	AccessKeyID        string `mapstructure:"access_key_id"`
	SecretAccessKey    string `mapstructure:"secret_access_key"`
	SessionToken       string `mapstructure:"session_token"`
	KeyAttribute       string `mapstructure:"key_attribute"`
	PartitionAttribute string `mapstructure:"partition_attribute"`
	InfoAttribute      string `mapstructure:"info_attribute"`
	ActorsAttribute    string `mapstructure:"actors_attribute"`
	RatingAttribute    string `mapstructure:"rating_attribute"`
	PlotAttribute      string `mapstructure:"plot_attribute"`
	ConsistentRead     bool   `mapstructure:"consistent_read"`
	Validation         string `mapstructure:"validation"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	HTTPAddress    string        `mapstructure:"http_address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Operation      string        `mapstructure:"operation"`
	EventFormat    string        `mapstructure:"event_format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		TableName:          "movies",
		Region:             "us-east-1",
		KeyAttribute:       dynarec.DefaultKeyAttribute,
		PartitionAttribute: dynarec.DefaultPartitionAttribute,
		InfoAttribute:      dynarec.DefaultInfoAttribute,
		ActorsAttribute:    dynarec.DefaultActorsAttribute,
		RatingAttribute:    dynarec.DefaultRatingAttribute,
		PlotAttribute:      dynarec.DefaultPlotAttribute,
		ConsistentRead:     true,
		Validation:         dynarec.Strict.String(),
		LogLevel:           "info",
		LogFormat:          "json",
		HTTPAddress:        ":8080",
		RequestTimeout:     10 * time.Second,
		EventFormat:        EventDirect,
	}
}

// Load loads configuration with precedence: ENV > file > defaults. The file
// is optional; an explicitly named file that cannot be read is an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	setDefaults(v, defaults)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("table_name", d.TableName)
	v.SetDefault("region", d.Region)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("access_key_id", d.AccessKeyID)
	v.SetDefault("secret_access_key", d.SecretAccessKey)
	v.SetDefault("session_token", d.SessionToken)
	v.SetDefault("key_attribute", d.KeyAttribute)
	v.SetDefault("partition_attribute", d.PartitionAttribute)
	v.SetDefault("info_attribute", d.InfoAttribute)
	v.SetDefault("actors_attribute", d.ActorsAttribute)
	v.SetDefault("rating_attribute", d.RatingAttribute)
	v.SetDefault("plot_attribute", d.PlotAttribute)
	v.SetDefault("consistent_read", d.ConsistentRead)
	v.SetDefault("validation", d.Validation)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("http_address", d.HTTPAddress)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("operation", d.Operation)
	v.SetDefault("event_format", d.EventFormat)
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TableName) == "" {
		errs = append(errs, errors.New("table_name is required"))
	}
	if strings.TrimSpace(c.KeyAttribute) == "" {
		errs = append(errs, errors.New("key_attribute is required"))
	}
	if _, err := dynarec.ParseValidationMode(c.Validation); err != nil {
		errs = append(errs, fmt.Errorf("validation: %w", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.Operation != "" && !validOperation(c.Operation) {
		errs = append(errs, fmt.Errorf("operation must be one of %s, got %q", strings.Join(Operations, ", "), c.Operation))
	}
	switch c.EventFormat {
	case EventDirect, EventProxy:
	default:
		errs = append(errs, fmt.Errorf("event_format must be %s or %s, got %q", EventDirect, EventProxy, c.EventFormat))
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		errs = append(errs, errors.New("access_key_id and secret_access_key must be set together"))
	}

	return errors.Join(errs...)
}

func validOperation(op string) bool {
	for _, o := range Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Table returns the table description for the configured attribute names.
func (c *Config) Table() *dynarec.Table {
	t := dynarec.NewTable(c.TableName)
	t.KeyAttribute = c.KeyAttribute
	t.PartitionAttribute = c.PartitionAttribute
	t.InfoAttribute = c.InfoAttribute
	t.ActorsAttribute = c.ActorsAttribute
	t.RatingAttribute = c.RatingAttribute
	t.PlotAttribute = c.PlotAttribute
	t.ConsistentRead = c.ConsistentRead
	return t
}

// ValidationMode returns the parsed validation mode. Validate has already
// rejected unknown values, so an error here falls back to Strict.
func (c *Config) ValidationMode() dynarec.ValidationMode {
	mode, _ := dynarec.ParseValidationMode(c.Validation)
	return mode
}
