// File: agendify/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agendify/config"
	"agendify/cron"
	"agendify/database"
	agendaRepoPkg "agendify/database/repository/agenda"
	catalogRepoPkg "agendify/database/repository/catalog"
	paymentRepoPkg "agendify/database/repository/paymentrec"
	scheduleRepoPkg "agendify/database/repository/schedule"
	"agendify/handlers"
	"agendify/middleware"
	"agendify/routes"
	"agendify/services/checkout"
	"agendify/services/payment"
	"agendify/services/schedule"
	"agendify/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitSessionCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	scheduleRepo := scheduleRepoPkg.NewMongoScheduleRepo()
	agendaRepo := agendaRepoPkg.NewMongoAgendaRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentRepo()
	catalogRepo := catalogRepoPkg.NewMongoCatalogRepo()

	// outward payment gateway.
	gateway := payment.NewHTTPGateway(
		config.AppConfig.GatewayBaseURL,
		config.AppConfig.GatewayAPIKey,
		15*time.Second,
		logger,
	)

	// services.
	scheduleService := schedule.NewService(scheduleRepo, utils.GetCacheClient(), 10*time.Minute, logger)

	pollPolicy := checkout.PollPolicy{
		Interval:    time.Duration(config.AppConfig.PollIntervalMS) * time.Millisecond,
		MaxAttempts: config.AppConfig.PollMaxAttempts,
		Timeout:     time.Duration(config.AppConfig.PollTimeoutSec) * time.Second,
	}
	sessionStore := checkout.NewSessionStore(
		utils.GetSessionCacheClient(),
		time.Duration(config.AppConfig.SessionTTLMin)*time.Minute,
	)
	reconciler := cron.NewAsynqReconciler()
	checkoutService := checkout.NewService(
		gateway,
		sessionStore,
		pollPolicy,
		agendaRepo,
		paymentRepo,
		catalogRepo,
		reconciler,
		logger,
	)

	// background settlement reconcile worker.
	cron.InitReconcileWorker(gateway, paymentRepo)

	// handlers.
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	agendaHandler := handlers.NewAgendaHandler(agendaRepo, catalogRepo)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Schedule endpoints.
		FindConfigScheduleHandler: scheduleHandler.FindConfigSchedule,
		AddConfigScheduleHandler:  scheduleHandler.AddConfigSchedule,
		FindAvailableSlotsHandler: scheduleHandler.FindAvailableSlots,

		// Checkout endpoints.
		PayPerClassPixHandler:        checkoutHandler.PayPerClassPix,
		PayPerClassCreditCardHandler: checkoutHandler.PayPerClassCreditCard,
		FindPaymentClassHandler:      checkoutHandler.FindPaymentClass,
		CancelCheckoutHandler:        checkoutHandler.CancelCheckout,
		CheckoutSessionHandler:       checkoutHandler.CheckoutSession,

		// Agenda endpoints.
		AddAgendaHandler:  agendaHandler.AddAgenda,
		FindAgendaHandler: agendaHandler.FindAgenda,

		// Catalog endpoints.
		ListProfessorsHandler: catalogHandler.ListProfessors,
		ListProductsHandler:   catalogHandler.ListProducts,
		ListPackagesHandler:   catalogHandler.ListPackages,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Periodic dependency health snapshots for /health.
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetSessionCacheClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	checkoutService.Shutdown()
	if err := reconciler.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close reconcile queue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
