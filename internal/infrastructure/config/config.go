package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const devJWTSecret = "dev-only-secret"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	BodyLimit string        `env:"BODY_LIMIT, default=10M"`

	// StoreBackend selects where listings, orders and users live: memory, sqlite or mongo.
	StoreBackend string `env:"STORE_BACKEND, default=memory"`
	// CartBackend selects the session storage for carts: memory, sqlite or redis.
	CartBackend string        `env:"CART_BACKEND, default=memory"`
	CartTTL     time.Duration `env:"CART_TTL,     default=720h"`

	DispatcherWorkers int `env:"DISPATCHER_WORKERS, default=4"`

	SQLite SQLiteConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	NATS   NATSConfig
	Images ImageConfig
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=marketplace.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// NATSConfig is optional; an empty URL keeps events in the log only.
type NATSConfig struct {
	URL string `env:"NATS_URL"`
}

type ImageConfig struct {
	// Backend is local or minio.
	Backend   string `env:"IMAGE_BACKEND, default=local"`
	UploadDir string `env:"UPLOAD_DIR,    default=uploads"`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT,   default=localhost:9000"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET,     default=listing-images"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL,    default=false"`
	// MinIOPublicURL overrides the base of resolved image URLs, e.g. a CDN.
	MinIOPublicURL string `env:"MINIO_PUBLIC_URL"`
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, then the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves the configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = devJWTSecret
	}
	if err := oneOf("STORE_BACKEND", c.StoreBackend, "memory", "sqlite", "mongo"); err != nil {
		return err
	}
	if err := oneOf("CART_BACKEND", c.CartBackend, "memory", "sqlite", "redis"); err != nil {
		return err
	}
	if err := oneOf("IMAGE_BACKEND", c.Images.Backend, "local", "minio"); err != nil {
		return err
	}
	if c.Images.Backend == "minio" && (c.Images.MinIOAccessKey == "" || c.Images.MinIOSecretKey == "") {
		return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for IMAGE_BACKEND=minio")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s=%q must be one of %v", key, value, allowed)
}
