package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BongominErickJuma/quickmart-server/checkout"
	"github.com/BongominErickJuma/quickmart-server/config"
	"github.com/BongominErickJuma/quickmart-server/controllers"
	"github.com/BongominErickJuma/quickmart-server/database"
	"github.com/BongominErickJuma/quickmart-server/mailer"
	"github.com/BongominErickJuma/quickmart-server/middleware"
	"github.com/BongominErickJuma/quickmart-server/payments"
	"github.com/BongominErickJuma/quickmart-server/repository"
	"github.com/BongominErickJuma/quickmart-server/routes"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	db := client.Database(cfg.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	log.Info().Str("database", cfg.DBName).Msg("connected to MongoDB")

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)

	stripeClient := payments.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	mail := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	})

	checkoutSvc := checkout.NewService(
		products,
		users,
		orders,
		stripeClient,
		checkout.NewLogMonitor(log),
		checkout.Config{
			SuccessURL:   cfg.CheckoutSuccessURL,
			CancelURL:    cfg.CheckoutCancelURL,
			AssetBaseURL: cfg.AssetBaseURL,
		},
		log,
	)

	auth := middleware.NewAuth(users, cfg.JWTSecret)

	r := routes.NewEngine(log, cfg.ClientBaseURL)
	routes.RegisterRoutes(r, auth, routes.Controllers{
		Auth:     controllers.NewAuthController(users, mail, cfg, log),
		Users:    controllers.NewUserController(users),
		Products: controllers.NewProductController(products),
		Orders:   controllers.NewOrderController(orders, products, checkoutSvc),
		Webhook:  controllers.NewWebhookController(stripeClient, checkoutSvc, log),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening for requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
