package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSessionTTL     = 7 * 24 * time.Hour
	defaultMaxUploadBytes = 5 << 20
)

// ConfigPath is the YAML file read by Load when no path is given.
var ConfigPath = envOr("SHOP_CONFIG", "config.yaml")

// DotEnvPath is loaded into the environment before overrides are applied.
// A missing file is not an error.
var DotEnvPath = ".env"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	PublicBaseURL string `yaml:"publicBaseURL"`

	// DatabaseURL selects Postgres; empty runs on the in-memory store.
	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	JWTSecret   string `yaml:"jwtSecret"`
	JWTIssuer   string `yaml:"jwtIssuer"`
	JWTAudience string `yaml:"jwtAudience"`
	JWTLeeway   string `yaml:"jwtLeeway"`
	SessionTTL  string `yaml:"sessionTTL"`

	CORSOrigins       []string `yaml:"corsOrigins"`
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`

	SignupRateLimitPerMinute   int `yaml:"signupRateLimitPerMinute"`
	LoginRateLimitPerMinute    int `yaml:"loginRateLimitPerMinute"`
	LikeRateLimitPerMinute     int `yaml:"likeRateLimitPerMinute"`
	FeedbackRateLimitPerMinute int `yaml:"feedbackRateLimitPerMinute"`
	ContactRateLimitPerMinute  int `yaml:"contactRateLimitPerMinute"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
	MinioPublicURL string `yaml:"minioPublicURL"`

	CloudinaryCloudName    string `yaml:"cloudinaryCloudName"`
	CloudinaryUploadPreset string `yaml:"cloudinaryUploadPreset"`
	CloudinaryFolder       string `yaml:"cloudinaryFolder"`

	GoogleClientID string `yaml:"googleClientID"`
	GoogleJWKSURL  string `yaml:"googleJwksURL"`

	// EventsBackend is none, redis or amqp.
	EventsBackend string `yaml:"eventsBackend"`
	EventsStream  string `yaml:"eventsStream"`
	AMQPURL       string `yaml:"amqpURL"`
	AMQPExchange  string `yaml:"amqpExchange"`

	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

// Load reads .env, then the YAML file at path (defaults to ConfigPath), then
// applies environment overrides and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	if err := godotenv.Load(DotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", DotEnvPath, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	overrideString(&cfg.Port, "SHOP_PORT")
	overrideString(&cfg.LogLevel, "SHOP_LOG_LEVEL")
	overrideString(&cfg.PublicBaseURL, "SHOP_PUBLIC_URL")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.RedisPassword, "REDIS_PASSWORD")
	overrideString(&cfg.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.JWTIssuer, "JWT_ISSUER")
	overrideString(&cfg.JWTAudience, "JWT_AUDIENCE")
	overrideString(&cfg.JWTLeeway, "JWT_LEEWAY")
	overrideString(&cfg.SessionTTL, "SHOP_SESSION_TTL")
	if v := os.Getenv("SHOP_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	if v := os.Getenv("SHOP_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	overrideInt(&cfg.SignupRateLimitPerMinute, "SHOP_SIGNUP_RATE_LIMIT_PER_MINUTE")
	overrideInt(&cfg.LoginRateLimitPerMinute, "SHOP_LOGIN_RATE_LIMIT_PER_MINUTE")
	overrideInt(&cfg.LikeRateLimitPerMinute, "SHOP_LIKE_RATE_LIMIT_PER_MINUTE")
	overrideInt(&cfg.FeedbackRateLimitPerMinute, "SHOP_FEEDBACK_RATE_LIMIT_PER_MINUTE")
	overrideInt(&cfg.ContactRateLimitPerMinute, "SHOP_CONTACT_RATE_LIMIT_PER_MINUTE")
	overrideString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	overrideString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	overrideString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	overrideString(&cfg.MinioBucket, "MINIO_BUCKET")
	overrideString(&cfg.MinioPublicURL, "MINIO_PUBLIC_URL")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	overrideString(&cfg.CloudinaryCloudName, "CLOUDINARY_CLOUD_NAME")
	overrideString(&cfg.CloudinaryUploadPreset, "CLOUDINARY_UPLOAD_PRESET")
	overrideString(&cfg.CloudinaryFolder, "CLOUDINARY_FOLDER")
	overrideString(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	overrideString(&cfg.GoogleJWKSURL, "GOOGLE_JWKS_URL")
	overrideString(&cfg.EventsBackend, "SHOP_EVENTS_BACKEND")
	overrideString(&cfg.EventsStream, "SHOP_EVENTS_STREAM")
	overrideString(&cfg.AMQPURL, "AMQP_URL")
	overrideString(&cfg.AMQPExchange, "AMQP_EXCHANGE")
	if v := os.Getenv("SHOP_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))
	if cfg.EventsBackend == "" {
		cfg.EventsBackend = "none"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or SHOP_PORT)")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("config: jwtSecret must be at least 32 bytes (set in config.yaml or JWT_SECRET)")
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return err
	}
	if _, err := ParseJWTLeeway(cfg.JWTLeeway); err != nil {
		return err
	}
	if cfg.SignupRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 || cfg.LikeRateLimitPerMinute < 0 ||
		cfg.FeedbackRateLimitPerMinute < 0 || cfg.ContactRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.MaxUploadBytes <= 0 || cfg.MaxUploadBytes > defaultMaxUploadBytes {
		return fmt.Errorf("config: maxUploadBytes must be between 1 and %d", defaultMaxUploadBytes)
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioBucket == "" || cfg.MinioPublicURL == "") {
		return errors.New("config: minioBucket and minioPublicURL are required with minioEndpoint")
	}
	switch cfg.EventsBackend {
	case "none":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis events backend")
		}
	case "amqp":
		if strings.TrimSpace(cfg.AMQPURL) == "" {
			return errors.New("config: amqpURL is required for the amqp events backend")
		}
	default:
		return fmt.Errorf("config: unknown eventsBackend %q (none, redis or amqp)", cfg.EventsBackend)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseSessionTTL parses the session lifetime, defaulting to seven days.
func ParseSessionTTL(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultSessionTTL, nil
	}
	dur, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || dur <= 0 {
		return 0, fmt.Errorf("config: invalid sessionTTL %q", raw)
	}
	return dur, nil
}

// ParseJWTLeeway parses optional JWT leeway duration string.
func ParseJWTLeeway(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: invalid jwtLeeway duration: %w", err)
	}
	return dur, nil
}
