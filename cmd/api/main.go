package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Realwahba/support-tickets/internal/api/http"
	"github.com/Realwahba/support-tickets/internal/api/http/handlers"
	"github.com/Realwahba/support-tickets/internal/auth"
	"github.com/Realwahba/support-tickets/internal/config"
	"github.com/Realwahba/support-tickets/internal/events"
	"github.com/Realwahba/support-tickets/internal/mail"
	"github.com/Realwahba/support-tickets/internal/observability"
	"github.com/Realwahba/support-tickets/internal/persistence"
	"github.com/Realwahba/support-tickets/internal/repository"
	"github.com/Realwahba/support-tickets/internal/sequence"
	"github.com/Realwahba/support-tickets/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewReplyRepository(pool)
	counterRepo := repository.NewCounterRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	var sender mail.Sender
	if cfg.Mailer.SendGridAPIKey != "" {
		sender, err = mail.NewSendGridSender(cfg.Mailer)
		if err != nil {
			logger.Fatal("failed to init mailer", zap.Error(err))
		}
	} else {
		logger.Warn("mailer not configured, notifications will be logged and dropped")
	}
	service.NewNotificationService(sender, logger, cfg.Notification).RegisterHandlers(dispatcher)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		ReplyRepo:  replyRepo,
		Allocator:  sequence.NewAllocator(counterRepo),
		Dispatcher: dispatcher,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Portal:         handlers.NewTicketsHandler(ticketService),
		Admin:          handlers.NewAdminTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
