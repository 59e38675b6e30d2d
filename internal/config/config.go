package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Ramp            RampConfig            `mapstructure:"ramp"`
	BusinessCentral BusinessCentralConfig `mapstructure:"business_central"`
	GLMapping       GLMappingConfig       `mapstructure:"gl_mapping"`
	Logger          LoggerConfig          `mapstructure:"logger"`
	Server          ServerConfig          `mapstructure:"server"`
	Export          ExportConfig          `mapstructure:"export"`
}

// RampConfig holds Ramp API configuration. ClientID and ClientSecret are
// never read from the config file, only from the environment.
type RampConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	TokenURL             string `mapstructure:"token_url"`
	PageSize             int    `mapstructure:"page_size"`
	StatusFilter         string `mapstructure:"status_filter"`
	TransactionsEndpoint string `mapstructure:"transactions_endpoint"`
	ClientID             string `mapstructure:"client_id"`
	ClientSecret         string `mapstructure:"client_secret"`
}

// BusinessCentralConfig holds the journal template and the default account
// numbers used when a record carries no (or incomplete) accounting coding.
type BusinessCentralConfig struct {
	TemplateName         string `mapstructure:"template_name"`
	BatchName            string `mapstructure:"batch_name"`
	VendorPayableAccount string `mapstructure:"vendor_payable_account"`
	BankAccount          string `mapstructure:"bank_account"`
	OtherIncomeAccount   string `mapstructure:"other_income_account"`
	RampCardAccount      string `mapstructure:"ramp_card_account"`
}

// GLMappingConfig identifies which Ramp accounting field carries the
// Business Central G/L account number.
type GLMappingConfig struct {
	RampGLAccountKey string `mapstructure:"ramp_gl_account_key"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ServerConfig holds dashboard HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ExportConfig holds output file configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load loads configuration from the TOML file and environment variables.
// A .env file in the working directory is applied first, matching how
// credentials are distributed to operators.
func Load(configPath string) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Ramp defaults
	v.SetDefault("ramp.page_size", 200)
	v.SetDefault("ramp.transactions_endpoint", "transactions")

	// Business Central defaults
	// batch_name has no global default: each normalizer falls back to its
	// own batch name when the config leaves it empty.
	v.SetDefault("business_central.template_name", "GENERAL")
	v.SetDefault("business_central.vendor_payable_account", "20000")
	v.SetDefault("business_central.bank_account", "11005")
	v.SetDefault("business_central.other_income_account", "40000")
	v.SetDefault("business_central.ramp_card_account", "26100")

	// G/L mapping defaults
	v.SetDefault("gl_mapping.ramp_gl_account_key", "gl_account")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Export defaults
	v.SetDefault("export.output_dir", "exports")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment only
	v.BindEnv("ramp.client_id", "RAMP_CLIENT_ID")
	v.BindEnv("ramp.client_secret", "RAMP_CLIENT_SECRET")
}

// Validate validates the configuration. Missing credentials are a startup
// failure, never a soft warning.
func (c *Config) Validate() error {
	if c.Ramp.BaseURL == "" {
		return fmt.Errorf("ramp.base_url is required")
	}
	if c.Ramp.TokenURL == "" {
		return fmt.Errorf("ramp.token_url is required")
	}
	if c.Ramp.ClientID == "" {
		return fmt.Errorf("RAMP_CLIENT_ID must be set in the environment or .env file")
	}
	if c.Ramp.ClientSecret == "" {
		return fmt.Errorf("RAMP_CLIENT_SECRET must be set in the environment or .env file")
	}
	if c.Ramp.PageSize <= 0 {
		return fmt.Errorf("ramp.page_size must be positive")
	}

	if c.BusinessCentral.RampCardAccount == "" {
		return fmt.Errorf("business_central.ramp_card_account is required")
	}
	if c.BusinessCentral.BankAccount == "" {
		return fmt.Errorf("business_central.bank_account is required")
	}

	return nil
}
