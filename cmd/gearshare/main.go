package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"gearshare/internal/app/commands"
	bookingapp "gearshare/internal/app/handlers/booking"
	walletapp "gearshare/internal/app/handlers/wallet"
	"gearshare/internal/app/middleware"
	appoutbox "gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/services/escrow"
	"gearshare/internal/app/uow"
	domainitem "gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/money"
	domainuser "gearshare/internal/domain/user"
	"gearshare/internal/infra/broker/kafka"
	"gearshare/internal/infra/config"
	mongostore "gearshare/internal/infra/db/mongo"
	ginserver "gearshare/internal/infra/http/gin"
	"gearshare/internal/infra/obs"
	"gearshare/internal/infra/outbox"
	"gearshare/internal/infra/payments"
	"gearshare/internal/infra/storage/memory"
	redisstore "gearshare/internal/infra/storage/redis"
	"gearshare/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using in-memory fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.Currency = getenv("CURRENCY", "USD")
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.readiness}, app.handlers)

	fixturesPath := getenv("CATALOG_FIXTURES", filepath.Join("data", "catalog.json"))
	if err := app.loadCatalogFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("catalog fixtures load failed", "error", err, "path", fixturesPath)
	}

	for _, run := range app.background {
		go run(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	readiness  map[string]obs.ReadinessCheck
	background []func(context.Context)

	items domainitem.Repository
	users domainuser.Repository
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{readiness: map[string]obs.ReadinessCheck{}}

	var (
		uowFactory uow.UoWFactory
		box        appoutbox.Outbox
		idStore    middleware.IdempotencyStore
	)

	if cfg.MongoURI != "" {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return application{}, fmt.Errorf("mongo indexes: %w", err)
		}
		app.readiness["mongo"] = client.Ping

		app.items = mongostore.NewItemRepository(client.DB)
		app.users = mongostore.NewUserRepository(client.DB)
		uowFactory = mongostore.Factory{
			DB:           client.DB,
			ItemsRepo:    app.items,
			UsersRepo:    app.users,
			BookingsRepo: mongostore.NewBookingRepository(client.DB),
			WalletsRepo:  mongostore.NewWalletRepository(client.DB),
			WalletTxRepo: mongostore.NewTransactionRepository(client.DB),
		}

		outboxStore := outbox.NewStore(client.DB)
		box = outbox.NewStoreOutbox(outboxStore)

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka producer: %w", err)
			}
			worker := &outbox.Worker{
				Store:       outboxStore,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			app.background = append(app.background, func(ctx context.Context) {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			})

			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "gearshare-user-projection", nil, &kafka.UserProjectionHandler{
				Users:  app.users,
				Logger: logger,
			})
			if err != nil {
				return application{}, fmt.Errorf("kafka consumer: %w", err)
			}
			userTopic := cfg.KafkaTopicPrefix + "users.events.v1"
			app.background = append(app.background, func(ctx context.Context) {
				if err := consumer.Run(ctx, []string{userTopic}); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("user projection consumer stopped", "error", err)
				}
			})
		}
	} else {
		factory := memory.NewFactory()
		app.items = factory.ItemsRepo
		app.users = factory.UsersRepo
		uowFactory = factory
		box = memory.NewOutbox()
	}

	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		app.readiness["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		idStore = redisstore.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	} else {
		idStore = memory.NewIdempotencyStore()
	}

	var gateway policies.PaymentsPort
	if cfg.PaymentsMode == "gateway" {
		gateway = payments.NewGatewayClient(cfg.PaymentsURL, cfg.PaymentsAPIKey, cfg.PaymentsTimeout, logger)
	} else {
		gateway = payments.NewMemoryGateway()
	}

	var archiver policies.StatementArchiver = s3.NoopArchiver{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			logger.Warn("statement archiver unavailable", "error", err)
		} else {
			archiver = client
		}
	}

	escrowSvc := &escrow.Service{Outbox: box, Encoder: appoutbox.JSONEventEncoder{}}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory, Outbox: box, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.AcceptBookingCommand{}.Key(), &bookingapp.AcceptBookingHandler{
		UoWFactory: uowFactory, Payments: gateway, Escrow: escrowSvc, Outbox: box, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingCommand{}.Key(), &bookingapp.RejectBookingHandler{
		UoWFactory: uowFactory, Outbox: box, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		UoWFactory: uowFactory, Escrow: escrowSvc, Outbox: box, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory, Payments: gateway, Escrow: escrowSvc, Outbox: box, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.DisputeBookingCommand{}.Key(), &bookingapp.DisputeBookingHandler{
		UoWFactory: uowFactory, Escrow: escrowSvc, Outbox: box, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, walletapp.ExportStatementCommand{}.Key(), &walletapp.ExportStatementHandler{
		UoWFactory: uowFactory, Archiver: archiver,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, walletapp.GetWalletQuery{}.Key(), &walletapp.GetWalletHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Me: ginserver.MeHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Currency: cfg.Currency,
			Logger:   logger,
		},
		AuthMiddleware: ginserver.AuthMiddleware{}.Handle,
	}
	return app, nil
}

func (a application) loadCatalogFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("catalog fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures catalogFixtures
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range fixtures.Users {
		u, err := domainuser.NewUser(domainuser.ID(fx.ID), fx.Email, fx.Name, now)
		if err != nil {
			logger.Error("user fixture invalid", "user_id", fx.ID, "error", err)
			continue
		}
		if err := a.users.Save(ctx, u); err != nil {
			logger.Error("cannot store fixture user", "user_id", fx.ID, "error", err)
		}
	}
	for _, fx := range fixtures.Items {
		rate, err := money.New(fx.DailyRateCents, fx.Currency)
		if err != nil {
			logger.Error("item fixture rate invalid", "item_id", fx.ID, "error", err)
			continue
		}
		it, err := domainitem.NewItem(domainitem.CreateParams{
			ID:        domainitem.ID(fx.ID),
			OwnerID:   domainitem.OwnerID(fx.OwnerID),
			Title:     fx.Title,
			DailyRate: rate,
			Now:       now,
		})
		if err != nil {
			logger.Error("item fixture invalid", "item_id", fx.ID, "error", err)
			continue
		}
		if err := a.items.Save(ctx, it); err != nil {
			logger.Error("cannot store fixture item", "item_id", fx.ID, "error", err)
			continue
		}
		logger.Info("item fixture imported", "item_id", fx.ID)
	}
	return nil
}

type catalogFixtures struct {
	Users []userFixture `json:"users"`
	Items []itemFixture `json:"items"`
}

type userFixture struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type itemFixture struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	Title          string `json:"title"`
	DailyRateCents int64  `json:"daily_rate_cents"`
	Currency       string `json:"currency"`
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
