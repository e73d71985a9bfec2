// Package config loads service configuration from an optional file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"salesreports/internal/domain/reports"
)

// EnvPrefix prefixes every environment variable, e.g. SALESREPORTS_DATABASE_URL.
const EnvPrefix = "SALESREPORTS"

// Eligibility policy names.
const (
	EligibilityDefault = "default"
	EligibilityLegacy  = "legacy"
	EligibilityCustom  = "custom"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Reports  ReportsConfig  `mapstructure:"reports"`
}

type AppConfig struct {
	Env             string        `mapstructure:"env" validate:"oneof=development production test"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

type DatabaseConfig struct {
	URL              string        `mapstructure:"url" validate:"required"`
	MaxConns         int32         `mapstructure:"max_conns" validate:"min=1"`
	MinConns         int32         `mapstructure:"min_conns" validate:"min=0"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout" validate:"min=0"`
}

// RedisConfig enables the shared option label cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// Enabled reports whether a redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type ReportsConfig struct {
	Eligibility               string            `mapstructure:"eligibility" validate:"oneof=default legacy custom"`
	OrderStates               []string          `mapstructure:"order_states"`
	PaymentStates             []string          `mapstructure:"payment_states"`
	AdjustmentCodes           map[string]string `mapstructure:"adjustment_codes"`
	OrderPromotionAliases     []string          `mapstructure:"order_promotion_aliases"`
	OrderItemPromotionAliases []string          `mapstructure:"order_item_promotion_aliases"`
	CurrencyExponent          int32             `mapstructure:"currency_exponent" validate:"min=0,max=6"`
	LabelCacheTTL             time.Duration     `mapstructure:"label_cache_ttl" validate:"min=0"`
	Timezone                  string            `mapstructure:"timezone" validate:"required"`
}

// Location returns the zone report dates are read in.
func (r ReportsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// EligibilityPolicy returns the configured order eligibility policy.
func (r ReportsConfig) EligibilityPolicy() (reports.EligibilityPolicy, error) {
	var p reports.EligibilityPolicy
	switch r.Eligibility {
	case EligibilityDefault, "":
		p = reports.DefaultEligibilityPolicy()
	case EligibilityLegacy:
		p = reports.LegacyEligibilityPolicy()
	case EligibilityCustom:
		p = reports.EligibilityPolicy{OrderStates: r.OrderStates, PaymentStates: r.PaymentStates}
	default:
		return p, fmt.Errorf("unknown eligibility policy %q", r.Eligibility)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// AdjustmentTypes returns the configured adjustment type codes and aliases.
func (r ReportsConfig) AdjustmentTypes() (reports.AdjustmentTypes, error) {
	a := reports.DefaultAdjustmentTypes()
	for kind, code := range r.AdjustmentCodes {
		k := reports.AdjustmentKind(kind)
		if _, ok := a.Codes[k]; !ok {
			return a, fmt.Errorf("unknown adjustment kind %q", kind)
		}
		a.Codes[k] = code
	}
	a.OrderPromotionAliases = r.OrderPromotionAliases
	a.OrderItemPromotionAliases = r.OrderItemPromotionAliases
	return a, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.read_timeout", 15*time.Second)
	v.SetDefault("app.write_timeout", 60*time.Second)
	v.SetDefault("app.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.statement_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	def := reports.DefaultEligibilityPolicy()
	adj := reports.DefaultAdjustmentTypes()
	v.SetDefault("reports.eligibility", EligibilityDefault)
	v.SetDefault("reports.order_states", def.OrderStates)
	v.SetDefault("reports.payment_states", def.PaymentStates)
	v.SetDefault("reports.adjustment_codes", map[string]string{})
	v.SetDefault("reports.order_promotion_aliases", adj.OrderPromotionAliases)
	v.SetDefault("reports.order_item_promotion_aliases", adj.OrderItemPromotionAliases)
	v.SetDefault("reports.currency_exponent", 2)
	v.SetDefault("reports.label_cache_ttl", 5*time.Minute)
	v.SetDefault("reports.timezone", "Local")
}

// Load reads cfgFile when given, failing if it cannot be read, then overlays SALESREPORTS_* environment variables.
// DATABASE_URL is accepted as well for the database url.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that the report policy can be built.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Reports.EligibilityPolicy(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Reports.AdjustmentTypes(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Reports.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
