package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 実行環境。leeway の適用可否を決めるため、既定値を持たない。
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// DefaultDevelopmentLeeway は development 環境で exp 検証に適用する既定の許容誤差（365 日）。
const DefaultDevelopmentLeeway = 365 * 24 * time.Hour

// Config はアプリケーションの設定を表す。
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AppConfig はアプリケーション情報の設定。
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Tier        string `yaml:"tier"`
}

// ServerConfig は REST サーバーの設定。
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GRPCConfig は gRPC サーバーの設定。
type GRPCConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig はデータベースの設定。
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// KafkaConfig は Kafka の設定。Brokers が空の場合はイベント配信を行わない。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AuthConfig は JWT 検証と IdP 連携の設定。
type AuthConfig struct {
	Domain            string        `yaml:"domain"`
	Audience          string        `yaml:"audience"`
	Issuer            string        `yaml:"issuer"`
	Algorithms        []string      `yaml:"algorithms"`
	JWKSURI           string        `yaml:"jwks_uri"`
	UserInfoURL       string        `yaml:"userinfo_url"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	DevelopmentLeeway time.Duration `yaml:"development_leeway"`
}

// TelemetryConfig はログとトレースの設定。
type TelemetryConfig struct {
	TraceEndpoint string  `yaml:"trace_endpoint"`
	SampleRate    float64 `yaml:"sample_rate"`
	LogLevel      string  `yaml:"log_level"`
}

// Load は設定ファイルから Config を読み込み、既定値を補完する。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	a := &c.Auth
	domain := strings.TrimSuffix(a.Domain, "/")
	if a.Issuer == "" && domain != "" {
		a.Issuer = "https://" + domain + "/"
	}
	if a.JWKSURI == "" && domain != "" {
		a.JWKSURI = "https://" + domain + "/.well-known/jwks.json"
	}
	if a.UserInfoURL == "" && domain != "" {
		a.UserInfoURL = "https://" + domain + "/userinfo"
	}
	if len(a.Algorithms) == 0 {
		a.Algorithms = []string{"RS256"}
	}
	if a.HTTPTimeout <= 0 {
		a.HTTPTimeout = 10 * time.Second
	}
	if a.DevelopmentLeeway <= 0 {
		a.DevelopmentLeeway = DefaultDevelopmentLeeway
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "k1s0.system.profile.events.v1"
	}
	if c.GRPC.Port <= 0 {
		c.GRPC.Port = 50051
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
}

// Validate は設定値のバリデーションを行う。
func (c *Config) Validate() error {
	var errs []error
	if c.App.Name == "" {
		errs = append(errs, fmt.Errorf("app.name is required"))
	}
	switch c.App.Environment {
	case EnvProduction, EnvDevelopment, EnvTest:
	case "":
		errs = append(errs, fmt.Errorf("app.environment is required"))
	default:
		errs = append(errs, fmt.Errorf("app.environment must be one of production, development, test: got %q", c.App.Environment))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive"))
	}
	if c.Auth.Domain == "" {
		errs = append(errs, fmt.Errorf("auth.domain is required"))
	}
	if c.Auth.Audience == "" {
		errs = append(errs, fmt.Errorf("auth.audience is required"))
	}
	return errors.Join(errs...)
}

// Leeway は exp 検証に適用する許容誤差を返す。development 以外では常に 0。
func (c *Config) Leeway() time.Duration {
	if c.App.Environment == EnvDevelopment {
		return c.Auth.DevelopmentLeeway
	}
	return 0
}

// DSN はデータベース接続文字列を返す。
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
