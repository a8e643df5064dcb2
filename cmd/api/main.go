package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/ecofinds/marketplace/internal/api"
	"github.com/ecofinds/marketplace/internal/core/ports"
	"github.com/ecofinds/marketplace/internal/core/service"
	"github.com/ecofinds/marketplace/internal/infrastructure/config"
	"github.com/ecofinds/marketplace/internal/infrastructure/db/memory"
	"github.com/ecofinds/marketplace/internal/infrastructure/db/mongo"
	"github.com/ecofinds/marketplace/internal/infrastructure/db/redis"
	"github.com/ecofinds/marketplace/internal/infrastructure/db/sqlite"
	"github.com/ecofinds/marketplace/internal/infrastructure/http/handlers"
	"github.com/ecofinds/marketplace/internal/infrastructure/messaging/nats"
	"github.com/ecofinds/marketplace/internal/infrastructure/queue"
	"github.com/ecofinds/marketplace/internal/infrastructure/storage/imaging"
	"github.com/ecofinds/marketplace/internal/infrastructure/storage/local"
	"github.com/ecofinds/marketplace/internal/infrastructure/storage/minio"
	"github.com/ecofinds/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

//	@title			Marketplace API
//	@version		1.0
//	@description	Second-hand marketplace: listings, catalog search, cart and checkout.
//	@BasePath		/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		bootLog := logger.Get()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

// backends holds the connections opened for the configured storage, so they
// can be probed by readiness and closed on shutdown.
type backends struct {
	sqlite *sql.DB
	mongo  *mongodriver.Client
	mongoD *mongodriver.Database
	redis  *goredis.Client
	nats   *natsgo.Conn
}

func (b *backends) checks() []handlers.Checker {
	var out []handlers.Checker
	if b.sqlite != nil {
		out = append(out, handlers.SQLiteCheck(b.sqlite))
	}
	if b.mongoD != nil {
		out = append(out, handlers.MongoCheck(b.mongoD))
	}
	if b.redis != nil {
		out = append(out, handlers.RedisCheck(b.redis))
	}
	if b.nats != nil {
		out = append(out, handlers.NATSCheck(b.nats))
	}
	return out
}

func (b *backends) close(ctx context.Context, log zerolog.Logger) {
	if b.nats != nil {
		if err := b.nats.Drain(); err != nil {
			log.Warn().Err(err).Msg("nats drain failed")
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if b.mongo != nil {
		if err := b.mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}
	if b.sqlite != nil {
		if err := b.sqlite.Close(); err != nil {
			log.Warn().Err(err).Msg("sqlite close failed")
		}
	}
}

type stores struct {
	listings ports.ListingRepository
	orders   ports.OrderRepository
	users    ports.UserRepository
	carts    ports.CartRepository
	lock     ports.CheckoutLock
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	b := &backends{}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		b.close(closeCtx, log)
	}()

	st, err := openStores(ctx, cfg, b, log)
	if err != nil {
		return err
	}

	images, uploadDir, err := openImageStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	// --- Event pipeline ---
	var sink ports.EventPublisher = queue.NewLogSink(logger.Component("events"))
	if cfg.NATS.URL != "" {
		b.nats, err = nats.Connect(cfg.NATS.URL, logger.Component("nats"))
		if err != nil {
			return err
		}
		if sink, err = nats.NewPublisher(b.nats); err != nil {
			return err
		}
	}
	dispatcher := queue.NewDispatcher(cfg.DispatcherWorkers, sink, logger.Component("dispatcher"))
	dispatcher.Start(context.WithoutCancel(ctx))

	// --- Services ---
	listings := service.NewListingService(st.listings, dispatcher, logger.Component("listings"))
	carts := service.NewCartService(st.carts, st.listings, logger.Component("carts"))
	orders := service.NewOrderService(st.orders, carts, st.lock, dispatcher, logger.Component("orders"))
	auth := service.NewAuthService(st.users, cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.Deps{
		Log:       log,
		Auth:      auth,
		Listings:  listings,
		Carts:     carts,
		Orders:    orders,
		Images:    images,
		UploadDir: uploadDir,
		BodyLimit: cfg.BodyLimit,
		Checks:    b.checks(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreBackend).
			Str("carts", cfg.CartBackend).
			Str("images", cfg.Images.Backend).
			Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("event dispatcher did not drain")
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, b *backends, log zerolog.Logger) (*stores, error) {
	st := &stores{}
	var err error

	needSQLite := cfg.StoreBackend == "sqlite" || cfg.CartBackend == "sqlite"
	if needSQLite {
		if b.sqlite, err = sqlite.Open(ctx, cfg.SQLite.Path); err != nil {
			return nil, err
		}
	}

	switch cfg.StoreBackend {
	case "sqlite":
		st.listings = sqlite.NewListingRepository(b.sqlite)
		st.orders = sqlite.NewOrderRepository(b.sqlite)
		st.users = sqlite.NewUserRepository(b.sqlite)
	case "mongo":
		b.mongo, b.mongoD, err = mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		listingRepo := mongo.NewListingRepository(b.mongoD)
		orderRepo := mongo.NewOrderRepository(b.mongoD)
		userRepo := mongo.NewUserRepository(b.mongoD)
		if err := mongo.EnsureIndexes(ctx, listingRepo, orderRepo, userRepo); err != nil {
			return nil, err
		}
		st.listings, st.orders, st.users = listingRepo, orderRepo, userRepo
	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		st.listings = memory.NewListingRepository()
		st.orders = memory.NewOrderRepository()
		st.users = memory.NewUserRepository()
	}

	switch cfg.CartBackend {
	case "sqlite":
		st.carts = sqlite.NewCartRepository(b.sqlite)
		st.lock = memory.NewCheckoutLock()
	case "redis":
		b.redis, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		st.carts = redis.NewCartRepository(b.redis, cfg.CartTTL)
		st.lock = redis.NewCheckoutLock(b.redis, 0, logger.Component("checkout-lock"))
	default:
		st.carts = memory.NewCartRepository()
		st.lock = memory.NewCheckoutLock()
	}
	return st, nil
}

// openImageStore returns the store and, for local disk, the directory to serve.
func openImageStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.ImageStore, string, error) {
	if cfg.Images.Backend == "minio" {
		store, err := minio.NewStore(ctx, minio.Config{
			Endpoint:  cfg.Images.MinIOEndpoint,
			AccessKey: cfg.Images.MinIOAccessKey,
			SecretKey: cfg.Images.MinIOSecretKey,
			Bucket:    cfg.Images.MinIOBucket,
			UseSSL:    cfg.Images.MinIOUseSSL,
			PublicURL: cfg.Images.MinIOPublicURL,
		}, logger.Component("images"))
		if err != nil {
			return nil, "", err
		}
		return imaging.NewStore(store), "", nil
	}

	store, err := local.NewStore(cfg.Images.UploadDir, logger.Component("images"))
	if err != nil {
		return nil, "", err
	}
	log.Debug().Str("dir", store.Dir()).Msg("serving uploads from local disk")
	return imaging.NewStore(store), store.Dir(), nil
}
