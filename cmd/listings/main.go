package main

import (
	"keja/internal/listings/handler"
	"keja/internal/listings/repository"
	"keja/internal/listings/service"
	"keja/internal/listings/validator"
	"keja/pkg/app"
	"keja/pkg/config"
)

const ServiceName = "listings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Listings service")
	listingService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewListingHandler(listingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ListingService {
	listingRepo := repository.NewMongoListingRepository(cfg)
	listingService := service.NewListingService(
		listingRepo,
		validator.NewSearchValidator(),
		cfg,
	)

	cfg.Log.Info("Listing service initialized",
		"database", cfg.MongoDatabaseName,
		"max_page_size", cfg.SearchMaxPageSize,
	)
	return listingService
}
