package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// NotifyConfig configures outbound transfer-received events.
// An empty URL disables NATS and falls back to log-only delivery.
type NotifyConfig struct {
	URL       string `mapstructure:"url"`
	Subject   string `mapstructure:"subject"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type LedgerConfig struct {
	// Tolerance (seconds) when pairing legacy rows that predate
	// transfer ids during reconciliation.
	ReconcileToleranceSec int `mapstructure:"reconcile_tolerance_sec"`
}

type AppSubConfig struct {
	PageSize        int    `mapstructure:"page_size"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	App      AppSubConfig   `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. FINBOOK_SERVER_PORT=9000
		v.SetEnvPrefix("FINBOOK")
		v.AutomaticEnv()

		v.SetDefault("notify.subject", "finbook.transfer.received")
		v.SetDefault("notify.timeout_ms", 3000)
		v.SetDefault("ledger.reconcile_tolerance_sec", 5)
		v.SetDefault("app.default_currency", "USD")

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
