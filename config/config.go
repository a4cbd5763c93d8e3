// Package config merges .env, environment, an optional YAML file and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"evernote-drive/validator"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "EVERNOTE_DRIVE"
	ConfigName = "evernote-drive"
	appDir     = "evernote-drive"
)

type Config struct {
	Env      string `mapstructure:"env" json:"env" validate:"oneof=development production"`
	LogLevel string `mapstructure:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file" validate:"required"`
	TokenFile       string `mapstructure:"token_file" json:"token_file" validate:"required"`
	AuthPort        int    `mapstructure:"auth_port" json:"auth_port" validate:"min=0,max=65535"`

	// ParentFolderID is where the root folder (or the notebooks) go; empty means My Drive
	ParentFolderID string `mapstructure:"parent_folder_id" json:"parent_folder_id"`
	// RootFolder groups all notebook folders; empty puts them straight under the parent
	RootFolder string `mapstructure:"root_folder" json:"root_folder" validate:"drivename,max=255"`

	MaxAttempts    int           `mapstructure:"max_attempts" json:"max_attempts" validate:"min=1,max=10"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" json:"retry_base_delay"`
	ParallelFiles  int           `mapstructure:"parallel_files" json:"parallel_files" validate:"min=1,max=16"`

	ReportDB    string `mapstructure:"report_db" json:"report_db"`
	MetricsFile string `mapstructure:"metrics_file" json:"metrics_file"`

	DryRun      bool `mapstructure:"dry_run" json:"dry_run"`
	Attachments bool `mapstructure:"attachments" json:"attachments"`
}

// IsProduction selects JSON logs
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Dir is the per-user directory for credentials, tokens and reports
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appDir)
}

// SetDefaults registers every key so environment variables are picked up on Unmarshal
func SetDefaults(v *viper.Viper) {
	dir := Dir()

	v.SetDefault("env", GetEnv("ENV", "development"))
	v.SetDefault("log_level", GetEnv("LOG_LEVEL", "info"))
	v.SetDefault("credentials_file", filepath.Join(dir, "credentials.json"))
	v.SetDefault("token_file", filepath.Join(dir, "token.json"))
	v.SetDefault("auth_port", 6789)
	v.SetDefault("parent_folder_id", "")
	v.SetDefault("root_folder", "Evernote")
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_base_delay", time.Second)
	v.SetDefault("parallel_files", 1)
	v.SetDefault("report_db", filepath.Join(dir, "runs.db"))
	v.SetDefault("metrics_file", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("attachments", false)
}

// Load reads configuration into v and returns the validated result. An
// explicit cfgFile must exist; otherwise evernote-drive.yaml is looked up in
// the working directory and Dir() and is optional.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New().Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
