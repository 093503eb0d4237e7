package main

import (
	"chairside/internal/bookings/events"
	"chairside/internal/bookings/handler"
	"chairside/internal/bookings/repository"
	"chairside/internal/bookings/service"
	"chairside/internal/bookings/validator"
	"chairside/pkg/app"
	"chairside/pkg/config"
	"chairside/pkg/kafka"
	kafka_config "chairside/pkg/kafka/config"
	"chairside/pkg/notifier"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Chairside bookings service")
	cfg.SetMongo()

	hub := notifier.NewHub(cfg.Log)
	bookingService := initServices(cfg, hub)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewEventStreamHandler(hub, cfg.Log),
		handler.NewHealthHandler(cfg),
	)

	initKafkaRelay(cfg, hub, serverApp)
	serverApp.OnShutdown(cfg.GracefulShutdown)

	serverApp.Run()
}

func initServices(cfg *config.Config, hub *notifier.Hub) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		bookingValidator,
		hub,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

// initKafkaRelay wires the optional Kafka bridge. Without KAFKA_BROKERS the
// service runs standalone and events stay in-process.
func initKafkaRelay(cfg *config.Config, hub *notifier.Hub, serverApp *app.Application) {
	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka relay disabled, no brokers configured")
		return
	}
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	relay := events.NewRelay(hub, producer, cfg.Log)
	relay.Start()

	serverApp.OnShutdown(relay.Stop)
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Warn("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Kafka relay initialized",
		"brokers", kafkaCfg.Brokers,
		"topic", cfg.EventTopic,
	)
}
