package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Session   SessionConfig   `mapstructure:"session"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AdminToken   string `mapstructure:"admin_token"`
}

// BackendConfig selects the driver behind the query interface.
// Driver is one of "postgrest", "postgres" or "memory".
type BackendConfig struct {
	Driver           string `mapstructure:"driver"`
	URL              string `mapstructure:"url"`
	AnonKey          string `mapstructure:"anon_key"`
	Timeout          int    `mapstructure:"timeout"`
	MaxRetries       int    `mapstructure:"max_retries"`
	ImageConcurrency int    `mapstructure:"image_concurrency"`
	SeedFixtures     bool   `mapstructure:"seed_fixtures"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// StorageConfig selects the object store. Provider is one of
// "supabase", "minio" or "memory".
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	Bucket        string `mapstructure:"bucket"`
	CacheControl  string `mapstructure:"cache_control"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// TelegramConfig configures the host bridge and the bot. Mode is one of
// "telegram", "mock" or "auto".
type TelegramConfig struct {
	Mode           string `mapstructure:"mode"`
	BotToken       string `mapstructure:"bot_token"`
	WebAppURL      string `mapstructure:"webapp_url"`
	InitDataMaxAge int    `mapstructure:"init_data_max_age"`
	WebhookURL     string `mapstructure:"webhook_url"`
}

type SessionConfig struct {
	TTL           int `mapstructure:"ttl"`
	SweepInterval int `mapstructure:"sweep_interval"`
}

type SchedulerConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	PollInterval      int  `mapstructure:"poll_interval"`
	ActivityRetention int  `mapstructure:"activity_retention"`
	ShutdownTimeout   int  `mapstructure:"shutdown_timeout"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindSupabaseEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// bindSupabaseEnv lets the variable names used by the Mini-App frontend
// build configure the backend as well.
func bindSupabaseEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"backend.url":        {"BACKEND_URL", "SUPABASE_URL", "VITE_SUPABASE_URL", "REACT_APP_SUPABASE_URL"},
		"backend.anon_key":   {"BACKEND_ANON_KEY", "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY", "REACT_APP_SUPABASE_ANON_KEY"},
		"telegram.bot_token": {"TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.admin_token", "")

	v.SetDefault("backend.driver", "postgrest")
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.anon_key", "")
	v.SetDefault("backend.timeout", 15)
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("backend.image_concurrency", 8)
	v.SetDefault("backend.seed_fixtures", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("storage.provider", "supabase")
	v.SetDefault("storage.bucket", "product-images")
	v.SetDefault("storage.cache_control", "3600")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("telegram.mode", "auto")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.webapp_url", "")
	v.SetDefault("telegram.init_data_max_age", 86400) // 24 hours
	v.SetDefault("telegram.webhook_url", "")

	v.SetDefault("session.ttl", 1800)
	v.SetDefault("session.sweep_interval", 60)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.poll_interval", 3600)         // 1 hour
	v.SetDefault("scheduler.activity_retention", 7776000) // 90 days
	v.SetDefault("scheduler.shutdown_timeout", 30)
}
