package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Kommo    KommoConfig    `mapstructure:"kommo"`
	Sinks    SinksConfig    `mapstructure:"sinks"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type AdminConfig struct {
	APISecret string `mapstructure:"api_secret"`
}

type KommoConfig struct {
	// BaseURL is the full account subdomain URL, e.g. https://acme.kommo.com
	BaseURL           string        `mapstructure:"base_url"`
	ClientID          string        `mapstructure:"client_id"`
	ClientSecret      string        `mapstructure:"client_secret"`
	TokenSafetyMargin time.Duration `mapstructure:"token_safety_margin"`
	SentinelTag       string        `mapstructure:"sentinel_tag"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

type SinksConfig struct {
	Notion     NotionConfig     `mapstructure:"notion"`
	Conversion ConversionConfig `mapstructure:"conversion"`
}

type NotionConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

type ConversionConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`
	AccessToken string `mapstructure:"access_token"`
	EventName   string `mapstructure:"event_name"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("kommo.token_safety_margin", time.Hour)
	viper.SetDefault("kommo.sentinel_tag", "webconnect")
	viper.SetDefault("kommo.request_timeout", 15*time.Second)
	viper.SetDefault("sinks.conversion.event_name", "Lead")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
