package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TASKTRACKER_AUTH_JWT_SECRET.
const EnvPrefix = "TASKTRACKER"

// DevJWTSecret is the signing secret LoadWithDefaults falls back to.
const DevJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // SQLite database file path
}

// HTTPConfig contains REST server settings.
type HTTPConfig struct {
	Address string `mapstructure:"address"` // e.g. ":8080"
}

// GRPCConfig contains gRPC server settings. An empty address disables the gRPC listener.
type GRPCConfig struct {
	Address string `mapstructure:"address"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// PolicyConfig holds the configurable access rules.
type PolicyConfig struct {
	AllowUserCreateTasks bool `mapstructure:"allow_user_create_tasks"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "tasks.db"},
		HTTP:     HTTPConfig{Address: ":8080"},
		GRPC:     GRPCConfig{Address: ":50051"},
		Auth:     AuthConfig{TokenTTL: 24 * time.Hour, BcryptCost: 10},
		Logging:  LoggingConfig{Level: "INFO"},
	}
}

// New returns a viper instance with defaults registered, environment overrides
// enabled and, if configFile is not empty, that file read in.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("http.address", d.HTTP.Address)
	v.SetDefault("grpc.address", d.GRPC.Address)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("policy.allow_user_create_tasks", d.Policy.AllowUserCreateTasks)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Load reads the configuration from v. The JWT secret is required.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is not set (env " + EnvPrefix + "_AUTH_JWT_SECRET); required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for the JWT secret in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults(v *viper.Viper) (*Config, error) {
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DevJWTSecret
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if strings.TrimSpace(c.HTTP.Address) == "" {
		errs = append(errs, errors.New("http.address must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}
	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of DEBUG, INFO, WARN, ERROR", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, TokenTTL: %s, AllowUserCreateTasks: %t, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, c.Auth.TokenTTL, c.Policy.AllowUserCreateTasks)
}
