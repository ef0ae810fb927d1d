package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mallorder/internal/app"
	"mallorder/internal/config"
	"mallorder/internal/entities"
	"mallorder/internal/events"
	"mallorder/internal/handler"
	"mallorder/internal/postgres"
	"mallorder/internal/repo"
	"mallorder/internal/service"
	"mallorder/pkg/cache"
	"mallorder/pkg/trm"

	"github.com/joho/godotenv"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	store := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRU[entities.Order](conf.Cache.Capacity, conf.Cache.TTL)
	publisher := events.NewKafkaPublisher(logger, conf.Kafka)

	walletService := service.NewWalletService(logger, txManager, store, conf.Wallet.RechargeLimit)
	orderService := service.NewOrderService(logger, txManager, store, store, store, walletService, publisher, orderCache)
	cartService := service.NewCartService(logger, txManager, store, store)

	application := app.New(logger, conf)
	application.SetHTTPHandlers(
		handler.NewOrderHandler(logger, orderService),
		handler.NewWalletHandler(logger, walletService),
		handler.NewCartHandler(logger, cartService),
	)
	application.SetStarters(janitorStarter{cache: orderCache})
	application.SetClosers(publisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", application.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", application.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type janitorStarter struct {
	cache *cache.LRU[entities.Order]
}

func (j janitorStarter) Start(ctx context.Context) error {
	j.cache.StartJanitor(ctx)
	return nil
}
