package main

import (
	"keja/internal/promotions/events"
	"keja/internal/promotions/handler"
	"keja/internal/promotions/repository"
	"keja/internal/promotions/service"
	"keja/internal/promotions/validator"
	"keja/pkg/app"
	"keja/pkg/config"
	"keja/pkg/kafka"
	kafka_config "keja/pkg/kafka/config"
	kafka_middleware "keja/pkg/kafka/middleware"
)

const ServiceName = "promotions"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Promotions service")
	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	promotionService := initServices(cfg, publisher)
	serverApp.SetApp(handler.NewPromotionHandler(promotionService, cfg.Log))
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, promotion events will not be published")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaPromotionsTopic, cfg.KafkaPromotionsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}
	serverApp.OnShutdown("kafka-producer", producer.Close)

	cfg.Log.Info("Kafka producer initialized",
		"topic", producer.Topic(),
		"dlq_topic", cfg.KafkaPromotionsDLQTopic,
	)
	return events.NewKafkaPublisher(producer, cfg.Clock, cfg.Log)
}

func initServices(cfg *config.Config, publisher events.Publisher) service.PromotionService {
	promotionService := service.NewPromotionService(
		repository.NewMongoPromotionRepository(cfg),
		repository.NewMongoListingStampRepository(cfg),
		repository.NewMongoListingLockRepository(cfg),
		validator.NewPromotionValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Promotion service initialized",
		"database", cfg.MongoDatabaseName,
		"transactions_enabled", cfg.MongoTransactionsEnabled,
	)
	return promotionService
}
