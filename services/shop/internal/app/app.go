package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"omifemcuts/internal/idtoken"
	"omifemcuts/pkg/events"
	"omifemcuts/pkg/storage"
	"omifemcuts/pkg/store"
)

const defaultMaxUploadBytes = 5 << 20

// MinioConfig selects MinIO image hosting when Endpoint is set.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// EventsConfig selects the domain event backend: none, redis or amqp.
type EventsConfig struct {
	Backend  string
	Stream   string
	AMQPURL  string
	Exchange string
}

// IdentityVerifier checks a federated ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (idtoken.Identity, error)
}

// Config holds runtime configuration for the shop application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	JWTSecret  string
	JWT        store.JWTOptions
	SessionTTL time.Duration

	Minio      MinioConfig
	Cloudinary storage.CloudinaryConfig

	GoogleClientID string
	GoogleJWKSURL  string

	Events EventsConfig

	MaxUploadBytes int64

	// Optional collaborators; nil values are built from the fields above.
	Store     store.Store
	Sessions  store.SessionStore
	Images    storage.ImageHost
	Publisher events.Publisher
	Identity  IdentityVerifier
	Rand      *rand.Rand
	Now       func() time.Time
}

// App is the core shop service wiring persistence, sessions, image hosting
// and event publishing together with the catalog, feedback and admin logic.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	images    storage.ImageHost
	publisher events.Publisher
	identity  IdentityVerifier
	now       func() time.Time
	maxUpload int64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs the application. Without a database URL it runs on the
// in-memory store, which is only suitable for a single instance.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			slog.Warn("no database URL configured, using in-memory store")
			dataStore = store.NewMemoryStore()
		} else {
			var err error
			dataStore, err = store.NewGormStore(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var err error
		sessionStore, err = newSessionStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	images := cfg.Images
	if images == nil {
		var err error
		images, err = newImageHost(cfg)
		if err != nil {
			return nil, err
		}
	}

	publisher := cfg.Publisher
	if publisher == nil {
		var err error
		publisher, err = newPublisher(cfg)
		if err != nil {
			return nil, err
		}
	}

	identity := cfg.Identity
	if identity == nil && strings.TrimSpace(cfg.GoogleClientID) != "" {
		v, err := idtoken.NewVerifier(idtoken.Config{
			JWKSURL:  cfg.GoogleJWKSURL,
			Audience: cfg.GoogleClientID,
		})
		if err != nil {
			return nil, fmt.Errorf("init id token verifier: %w", err)
		}
		identity = v
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return &App{
		store:     dataStore,
		sessions:  sessionStore,
		images:    images,
		publisher: publisher,
		identity:  identity,
		now:       now,
		maxUpload: maxUpload,
		rng:       rng,
	}, nil
}

func newSessionStore(cfg Config) (store.SessionStore, error) {
	if cfg.JWTSecret == "" {
		if cfg.RedisAddr == "" {
			return nil, errors.New("session store required (jwtSecret or redisAddr)")
		}
		return store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL), nil
	}
	var revoker store.TokenRevoker
	if cfg.RedisAddr != "" {
		revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	} else {
		revoker = store.NewMemoryTokenRevoker()
	}
	sessions, err := store.NewJWTSessionStoreWithOptions(cfg.JWTSecret, cfg.SessionTTL, revoker, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("init jwt sessions: %w", err)
	}
	return sessions, nil
}

func newImageHost(cfg Config) (storage.ImageHost, error) {
	switch {
	case strings.TrimSpace(cfg.Minio.Endpoint) != "":
		objects, err := storage.NewMinioStore(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("init minio: %w", err)
		}
		return storage.NewMinioImageHost(objects, cfg.Minio.PublicURL), nil
	case strings.TrimSpace(cfg.Cloudinary.CloudName) != "":
		host, err := storage.NewCloudinaryImageHost(cfg.Cloudinary)
		if err != nil {
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		return host, nil
	default:
		slog.Warn("no image host configured, uploads fall back to the placeholder image")
		return storage.PlaceholderImageHost{}, nil
	}
}

func newPublisher(cfg Config) (events.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Events.Backend)) {
	case "", "none":
		return events.NopPublisher{}, nil
	case "redis":
		p, err := events.NewRedisStreamPublisher(events.RedisStreamConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.Events.Stream,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis events: %w", err)
		}
		return p, nil
	case "amqp":
		p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			return nil, fmt.Errorf("init amqp events: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// Close releases the event publisher connection.
func (a *App) Close() error {
	if a.publisher == nil {
		return nil
	}
	return a.publisher.Close()
}

// ImageHostName reports which image host serves uploads.
func (a *App) ImageHostName() string {
	return a.images.Name()
}

// MaxUploadBytes is the largest accepted style image.
func (a *App) MaxUploadBytes() int64 {
	return a.maxUpload
}

func (a *App) emit(ctx context.Context, t events.Type, subject string, data map[string]string) {
	events.Emit(ctx, a.publisher, events.New(t, subject, data))
}
