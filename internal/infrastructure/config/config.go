// Package config loads service and trainer settings. Values come from
// built-in defaults, then an optional YAML file, then the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset sources.
const (
	DatasetSourceCSV      = "csv"
	DatasetSourcePostgres = "postgres"
)

// Run ledger backends.
const (
	LedgerNone     = "none"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

// Config holds all configuration for approvald and the trainer.
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Model       ModelConfig     `yaml:"model"`
	Log         LogConfig       `yaml:"log"`
	Auth        AuthConfig      `yaml:"auth"`
	TLS         TLSConfig       `yaml:"tls"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Database    DatabaseConfig  `yaml:"database"`
	Training    TrainingConfig  `yaml:"training"`
	Ledger      LedgerConfig    `yaml:"ledger"`
}

type ServerConfig struct {
	HTTPPort           string   `yaml:"http_port"`
	GRPCPort           string   `yaml:"grpc_port"` // "0" disables the gRPC server
	GRPCReflection     bool     `yaml:"grpc_reflection"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimit          float64  `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst          int      `yaml:"rate_burst"`
}

type ModelConfig struct {
	ArtifactPath      string  `yaml:"artifact_path"`
	DecisionThreshold float64 `yaml:"decision_threshold"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	JWTPublicKeyFile string `yaml:"jwt_public_key_file"`
	JWTIssuer        string `yaml:"jwt_issuer"`
}

// Enabled reports whether requests must carry a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.JWTPublicKeyFile != ""
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"` // empty selects the log-only publisher
	Topic         string   `yaml:"topic"`
	SASLMechanism string   `yaml:"sasl_mechanism"`
	SASLUsername  string   `yaml:"sasl_username"`
	SASLPassword  string   `yaml:"sasl_password"`
	TLS           bool     `yaml:"tls"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // empty disables tracing export
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MigrationsPath string `yaml:"migrations_path"`
}

type TrainingConfig struct {
	DatasetSource string  `yaml:"dataset_source"`
	DatasetPath   string  `yaml:"dataset_path"`
	DatasetTable  string  `yaml:"dataset_table"`
	Seed          int64   `yaml:"seed"`
	TestFraction  float64 `yaml:"test_fraction"`
	MaxIter       int     `yaml:"max_iter"`
	C             float64 `yaml:"c"`
}

type LedgerConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			HTTPPort:           "8000",
			GRPCPort:           "9000",
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			RateBurst:          20,
		},
		Model: ModelConfig{
			ArtifactPath:      "models/loan_model.json",
			DecisionThreshold: 0.35,
		},
		Log:       LogConfig{Level: "info", Format: "json"},
		Auth:      AuthConfig{JWTIssuer: "bib-identity"},
		Kafka:     KafkaConfig{Topic: "lending-events"},
		Telemetry: TelemetryConfig{ServiceName: "loan-approval"},
		Database: DatabaseConfig{
			MigrationsPath: "internal/infrastructure/persistence/postgres/migrations",
		},
		Training: TrainingConfig{
			DatasetSource: DatasetSourceCSV,
			DatasetPath:   "data/loans.csv",
			DatasetTable:  "loan_records",
			Seed:          42,
			TestFraction:  0.2,
			MaxIter:       2000,
			C:             1.0,
		},
		Ledger: LedgerConfig{Kind: LedgerNone, Path: "models/training_runs.db"},
	}
}

// Load builds the configuration. path, or CONFIG_FILE when path is empty,
// names an optional YAML file; environment variables override both.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	e := &envReader{}

	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.Server.HTTPPort = getEnv("HTTP_PORT", c.Server.HTTPPort)
	c.Server.GRPCPort = getEnv("GRPC_PORT", c.Server.GRPCPort)
	c.Server.GRPCReflection = e.getBool("GRPC_REFLECTION", c.Server.GRPCReflection)
	c.Server.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.Server.CORSAllowedOrigins)
	c.Server.RateLimit = e.getFloat("RATE_LIMIT", c.Server.RateLimit)
	c.Server.RateBurst = e.getInt("RATE_BURST", c.Server.RateBurst)

	c.Model.ArtifactPath = getEnv("ARTIFACT_PATH", c.Model.ArtifactPath)
	c.Model.DecisionThreshold = e.getFloat("DECISION_THRESHOLD", c.Model.DecisionThreshold)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTPublicKeyFile = getEnv("JWT_PUBLIC_KEY_FILE", c.Auth.JWTPublicKeyFile)
	c.Auth.JWTIssuer = getEnv("JWT_ISSUER", c.Auth.JWTIssuer)

	c.TLS.CertFile = getEnv("GRPC_TLS_CERT_FILE", c.TLS.CertFile)
	c.TLS.KeyFile = getEnv("GRPC_TLS_KEY_FILE", c.TLS.KeyFile)

	c.Kafka.Brokers = getEnvList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.SASLMechanism = getEnv("KAFKA_SASL_MECHANISM", c.Kafka.SASLMechanism)
	c.Kafka.SASLUsername = getEnv("KAFKA_SASL_USERNAME", c.Kafka.SASLUsername)
	c.Kafka.SASLPassword = getEnv("KAFKA_SASL_PASSWORD", c.Kafka.SASLPassword)
	c.Kafka.TLS = e.getBool("KAFKA_TLS", c.Kafka.TLS)

	c.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)
	c.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Training.DatasetSource = getEnv("DATASET_SOURCE", c.Training.DatasetSource)
	c.Training.DatasetPath = getEnv("DATASET_PATH", c.Training.DatasetPath)
	c.Training.DatasetTable = getEnv("DATASET_TABLE", c.Training.DatasetTable)
	c.Training.Seed = int64(e.getInt("TRAIN_SEED", int(c.Training.Seed)))
	c.Training.TestFraction = e.getFloat("TEST_FRACTION", c.Training.TestFraction)
	c.Training.MaxIter = e.getInt("MAX_ITER", c.Training.MaxIter)
	c.Training.C = e.getFloat("TRAIN_C", c.Training.C)

	c.Ledger.Kind = getEnv("RUN_LEDGER", c.Ledger.Kind)
	c.Ledger.Path = getEnv("RUN_LEDGER_PATH", c.Ledger.Path)

	return e.err()
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if t := c.Model.DecisionThreshold; !(t > 0 && t < 1) {
		errs = append(errs, fmt.Errorf("decision threshold must be in (0, 1), got %v", t))
	}
	if f := c.Training.TestFraction; !(f > 0 && f < 1) {
		errs = append(errs, fmt.Errorf("test fraction must be in (0, 1), got %v", f))
	}
	if c.Training.MaxIter <= 0 {
		errs = append(errs, fmt.Errorf("max iterations must be positive, got %d", c.Training.MaxIter))
	}
	if c.Training.C <= 0 {
		errs = append(errs, fmt.Errorf("regularisation strength must be positive, got %v", c.Training.C))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.Server.RateLimit))
	}
	switch c.Training.DatasetSource {
	case DatasetSourceCSV:
	case DatasetSourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("postgres dataset source requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown dataset source %q", c.Training.DatasetSource))
	}
	switch c.Ledger.Kind {
	case LedgerNone, LedgerSQLite:
	case LedgerPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("postgres run ledger requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown run ledger %q", c.Ledger.Kind))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS requires both a certificate and a key file"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Server.HTTPPort)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.Server.GRPCPort)
}

// GRPCEnabled reports whether the gRPC server should be started.
func (c *Config) GRPCEnabled() bool {
	return c.Server.GRPCPort != "" && c.Server.GRPCPort != "0"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envReader parses typed variables and remembers the ones it could not parse.
type envReader struct {
	errs []error
}

func (e *envReader) getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return i
}

func (e *envReader) getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func (e *envReader) getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (e *envReader) err() error {
	if len(e.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: invalid environment: %w", errors.Join(e.errs...))
}
