// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"diviner-booking/cmd"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/gateway"
	"diviner-booking/internal/usecase"
	"diviner-booking/internal/wire"
	"diviner-booking/internal/worker"
	"diviner-booking/pkg/database"
	"diviner-booking/pkg/metrics"
	"diviner-booking/pkg/mq"
	"diviner-booking/pkg/obs"
	"diviner-booking/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup so they finish before main sets the exit code.
func run() int {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := obs.InitTracer(ctx, config.Tracing.Endpoint, config.Tracing.ServiceName, version)
	if err != nil {
		logger.Error("Failed to init tracer", zap.Error(err))
		return 1
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return 1
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Error("Failed to apply schema", zap.Error(err))
			return 1
		}
		logger.Info("Schema applied")
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	deps := usecase.Deps{
		Gateway: gateway.NewStripe(config.Stripe, config.Booking.Currency),
		Metrics: metrics.New(prometheus.DefaultRegisterer, config.App.Name),
	}

	// Payment events go through RabbitMQ when configured, inline otherwise
	var consumer *mq.Consumer
	if config.Rabbit.URL != "" {
		publisher, err := mq.NewPublisher(config.Rabbit.URL, config.Rabbit.Exchange)
		if err != nil {
			logger.Error("Failed to connect publisher", zap.Error(err))
			return 1
		}
		defer publisher.Close()
		deps.Publisher = publisher

		consumer, err = mq.NewConsumer(config.Rabbit.URL, config.Rabbit.Exchange, config.Rabbit.Queue, gateway.RoutingKeys)
		if err != nil {
			logger.Error("Failed to connect consumer", zap.Error(err))
			return 1
		}
		defer consumer.Close()

		logger.Info("RabbitMQ connected",
			zap.String("exchange", config.Rabbit.Exchange),
			zap.String("queue", config.Rabbit.Queue))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, deps, logger)

	if consumer != nil {
		deliveries, err := consumer.Deliveries(ctx)
		if err != nil {
			logger.Error("Failed to start consuming", zap.Error(err))
			return 1
		}
		go worker.NewPaymentConsumer(app.Service.Payment, logger).Run(ctx, deliveries)
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return 1
	}
	logger.Info("Server stopped")
	return 0
}
