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
	"github.com/rs/zerolog/log"

	"github.com/MrJamesThe3rd/stockscan/internal/config"
	"github.com/MrJamesThe3rd/stockscan/internal/database"
	"github.com/MrJamesThe3rd/stockscan/internal/fiscal"
	stockscanHttp "github.com/MrJamesThe3rd/stockscan/internal/http"
	matchingHandler "github.com/MrJamesThe3rd/stockscan/internal/http/matching"
	scanHandler "github.com/MrJamesThe3rd/stockscan/internal/http/scan"
	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
	inventoryStore "github.com/MrJamesThe3rd/stockscan/internal/inventory/store"
	"github.com/MrJamesThe3rd/stockscan/internal/logger"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/stockscan/internal/matching/store"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr/tesseract"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	policy := pricing.Policy{TaxRate: cfg.TaxRate(), Markup: cfg.Markup()}

	var (
		inventoryService = inventory.NewService(inventoryStore.New(db), policy, logger.WithComponent("inventory"))
		matchingService  = matching.NewService(matchingStore.New(db))
		fiscalExtractor  = fiscal.NewExtractor(
			fiscal.NewHTTPRenderer(cfg.Fiscal.RenderTimeout),
			fiscal.Options{
				VerifyBase:    cfg.Fiscal.VerifyURL,
				Timeout:       cfg.Fiscal.RenderTimeout,
				DefaultRate:   cfg.DefaultExchangeRate(),
				MinPageLength: cfg.Fiscal.MinPageLength,
				OwnName:       cfg.Business.Name,
			},
			logger.WithComponent("fiscal"),
		)
	)

	scanService := scan.NewService(scan.Dependencies{
		Recognizer: tesseract.New(cfg.OCR.Language, cfg.OCR.TessdataPrefix),
		PDF:        ocr.PDFText{},
		Fiscal:     fiscalExtractor,
		Aliases:    matchingService,
		Inventory:  inventoryService,
		Pricing:    policy,
		OwnName:    cfg.Business.Name,
	}, logger.WithComponent("scan"))

	router := stockscanHttp.New(
		scanHandler.NewHandler(scanService, cfg.Server.MaxUpload),
		matchingHandler.NewHandler(matchingService),
		cfg.Server.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// a fiscal scan may wait for the full render timeout before degrading
		WriteTimeout: cfg.Server.Timeout + cfg.Fiscal.RenderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("starting server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
