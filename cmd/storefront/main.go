package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BITS4/babyshop/internal/authn"
	"github.com/BITS4/babyshop/internal/cart"
	"github.com/BITS4/babyshop/internal/catalog"
	"github.com/BITS4/babyshop/internal/checkout"
	"github.com/BITS4/babyshop/internal/config"
	"github.com/BITS4/babyshop/internal/mailer"
	"github.com/BITS4/babyshop/internal/orders"
	"github.com/BITS4/babyshop/internal/profile"
	transport "github.com/BITS4/babyshop/internal/transport/http"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "storefront").Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("storefront exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mongo holds the catalog and the profiles.
	connectCtx, connectCancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer connectCancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	db := mongoClient.Database(cfg.MongoDBName)

	// Redis holds carts, confirmation snapshots and provider tokens.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(connectCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	// Postgres holds the order history.
	pgCred := &orders.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	ordersRepo, err := orders.NewRepository(pgCred)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer ordersRepo.Close()
	if err := ordersRepo.RunMigrations(pgCred); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Catalog, kept live by the change stream.
	catalogSvc := catalog.NewService(catalog.NewMongoRepository(db), log)
	go catalogSvc.Run(rootCtx)

	// Sessions.
	identity := authn.NewRESTClient(cfg.AuthBaseURL, cfg.AuthAPIKey)
	tokenStore := authn.NewRedisTokenStore(redisClient, cfg.SessionTTL)
	authSvc := authn.NewService(identity, tokenStore, cfg.JWTSecret, cfg.SessionTTL, cfg.AdminEmail, log)

	// Cart and checkout.
	cartSvc := cart.NewService(cart.NewRedisStore(redisClient))
	publisher := checkout.NewKafkaPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()
	checkoutSvc := checkout.NewService(
		cartSvc,
		ordersRepo,
		checkout.NewRedisLastOrderStore(redisClient),
		publisher,
		log,
	)

	ordersSvc := orders.NewService(ordersRepo)

	// Order confirmation mail, fed by the checkout events.
	consumer := orders.NewConsumer(
		mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		log,
		cfg.KafkaBrokers...,
	)
	defer consumer.Close()
	go consumer.Run(rootCtx)

	// Profiles and avatars.
	profileRepo := profile.NewMongoRepository(db)
	if err := profileRepo.CreateIndexes(connectCtx); err != nil {
		return fmt.Errorf("create profile indexes: %w", err)
	}
	avatars, err := profile.NewGridFSStorage(db)
	if err != nil {
		return fmt.Errorf("open avatar bucket: %w", err)
	}
	profileSvc := profile.NewService(profileRepo, avatars)

	handlers := transport.Handlers{
		Auth:     transport.NewAuthHandler(authSvc, cfg.SecureCookies),
		Products: transport.NewProductHandler(catalogSvc),
		Cart:     transport.NewCartHandler(cartSvc, catalogSvc),
		Checkout: transport.NewCheckoutHandler(checkoutSvc),
		Orders:   transport.NewOrdersHandler(ordersSvc),
		Profile:  transport.NewProfileHandler(profileSvc),
	}

	// No write timeout: the catalog watch stream stays open indefinitely.
	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     transport.NewRouter(handlers, authSvc, cfg.RequestTimeout),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
