package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger         `mapstructure:"logger"`
	DB        Database       `mapstructure:"database"`
	API       API            `mapstructure:"api"`
	Cache     Cache          `mapstructure:"cache"`
	Binance   Binance        `mapstructure:"binance"`
	Gemini    Gemini         `mapstructure:"gemini"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
	Scheduler Scheduler      `mapstructure:"scheduler"`
	Backtest  Backtest       `mapstructure:"backtest"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Binance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CandleCacheTTL      time.Duration `mapstructure:"candle_cache_ttl"`
}

type Gemini struct {
	Enabled             bool          `mapstructure:"enabled"`
	APIKey              string        `mapstructure:"api_key"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type Scheduler struct {
	Enabled         bool          `mapstructure:"enabled"`
	CronExpression  string        `mapstructure:"cron_expression"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
}

type Backtest struct {
	DefaultInitialCapital float64 `mapstructure:"default_initial_capital"`
	DefaultPeriodsPerYear float64 `mapstructure:"default_periods_per_year"`
	SweepMaxConcurrency   int     `mapstructure:"sweep_max_concurrency"`
}

func Load() (*Config, error) {
	// .env is optional; env vars win either way.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	// A missing config file is fine, defaults and env vars cover it.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("cache.default_expiration", 10*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 15*time.Minute)
	viper.SetDefault("binance.base_url", "https://api.binance.com")
	viper.SetDefault("binance.timeout", 15*time.Second)
	viper.SetDefault("binance.max_request_per_minute", 60)
	viper.SetDefault("binance.candle_cache_ttl", 5*time.Minute)
	viper.SetDefault("gemini.base_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", 60*time.Second)
	viper.SetDefault("gemini.max_request_per_minute", 10)
	viper.SetDefault("gemini.max_token_per_minute", 1000000)
	viper.SetDefault("scheduler.cron_expression", "0 1 * * *")
	viper.SetDefault("scheduler.timeout_duration", 30*time.Minute)
	viper.SetDefault("backtest.default_initial_capital", 10000)
	viper.SetDefault("backtest.default_periods_per_year", 252)
	viper.SetDefault("backtest.sweep_max_concurrency", 4)
}
