package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/eatnear/internal/core/ranking"
	"github.com/samirrijal/eatnear/internal/pkg/geospatial"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
	RateLimit      int `mapstructure:"rate_limit"` // requests per minute per IP
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Storage backends accepted by storage.backend.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendElastic  = "elastic"
)

type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	ElasticURL   string `mapstructure:"elastic_url"`
	ElasticIndex string `mapstructure:"elastic_index"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminUser         string `mapstructure:"admin_user"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"` // bcrypt
	TokenTTL          int    `mapstructure:"token_ttl"`           // seconds
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SearchConfig carries the constants shared by the bounding-box estimator
// and the ranker.
type SearchConfig struct {
	EarthRadiusMeters       float64 `mapstructure:"earth_radius_meters"`
	MetersPerDegreeLatitude float64 `mapstructure:"meters_per_degree_latitude"`
	PriceMatchBonus         float64 `mapstructure:"price_match_bonus"`
	ToleranceSlackMeters    float64 `mapstructure:"tolerance_slack_meters"`
	MaxEarthSpanMeters      float64 `mapstructure:"max_earth_span_meters"`
	CacheTTL                int     `mapstructure:"cache_ttl"` // seconds
}

// RankingConfig converts the search section into ranker settings.
func (s SearchConfig) RankingConfig() ranking.Config {
	return ranking.Config{
		Geo: geospatial.Params{
			EarthRadiusMeters:       s.EarthRadiusMeters,
			MetersPerDegreeLatitude: s.MetersPerDegreeLatitude,
		},
		PriceMatchBonus:      s.PriceMatchBonus,
		ToleranceSlackMeters: s.ToleranceSlackMeters,
		MaxEarthSpanMeters:   s.MaxEarthSpanMeters,
	}
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: EATNEAR_DATABASE_HOST → database.host
	v.SetEnvPrefix("EATNEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 5)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "eatnear")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "eatnear")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("storage.backend", BackendPostgres)
	v.SetDefault("storage.sqlite_path", "eatnear.db")
	v.SetDefault("storage.elastic_url", "http://localhost:9200")
	v.SetDefault("storage.elastic_index", "restaurants")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "restaurant-import")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.token_ttl", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	def := ranking.DefaultConfig()
	v.SetDefault("search.earth_radius_meters", def.Geo.EarthRadiusMeters)
	v.SetDefault("search.meters_per_degree_latitude", def.Geo.MetersPerDegreeLatitude)
	v.SetDefault("search.price_match_bonus", def.PriceMatchBonus)
	v.SetDefault("search.tolerance_slack_meters", def.ToleranceSlackMeters)
	v.SetDefault("search.max_earth_span_meters", def.MaxEarthSpanMeters)
	v.SetDefault("search.cache_ttl", 300)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, "server.rate_limit must be positive")
	}

	switch c.Storage.Backend {
	case BackendPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required")
		}
	case BackendElastic:
		if c.Storage.ElasticURL == "" {
			errs = append(errs, "storage.elastic_url is required")
		}
		if c.Storage.ElasticIndex == "" {
			errs = append(errs, "storage.elastic_index is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be postgres, sqlite or elastic, got %q", c.Storage.Backend))
	}

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}

	s := c.Search
	if s.EarthRadiusMeters <= 0 {
		errs = append(errs, "search.earth_radius_meters must be positive")
	}
	if s.MetersPerDegreeLatitude <= 0 {
		errs = append(errs, "search.meters_per_degree_latitude must be positive")
	}
	if s.ToleranceSlackMeters < 0 {
		errs = append(errs, "search.tolerance_slack_meters must not be negative")
	}
	if s.MaxEarthSpanMeters <= 0 {
		errs = append(errs, "search.max_earth_span_meters must be positive")
	}
	if s.CacheTTL < 0 {
		errs = append(errs, "search.cache_ttl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
