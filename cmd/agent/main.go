package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-support/internal/agent"
	"github.com/spec-kit/campus-support/internal/ai"
	httptransport "github.com/spec-kit/campus-support/internal/api/http"
	"github.com/spec-kit/campus-support/internal/auth"
	"github.com/spec-kit/campus-support/internal/config"
	"github.com/spec-kit/campus-support/internal/observability"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
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

	oracle := ai.NewOracle(cfg.AI, logger)
	classifier := ai.NewClassifier(oracle)

	client := agent.NewClient(cfg.Agent.TicketServiceURL, cfg.Internal.Secret)
	processor := agent.NewProcessor(client, classifier, cfg.Agent.CalendarAPIBase, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "agent"})
	})

	app.Post("/process/:ticketId", auth.RequireAgentKey(cfg.Agent.SharedSecret), func(c *fiber.Ctx) error {
		ticketID, err := strconv.ParseInt(c.Params("ticketId"), 10, 64)
		if err != nil || ticketID <= 0 {
			return apperrors.NewValidationError("invalid ticket id", nil)
		}

		result, err := processor.Process(c.UserContext(), ticketID)
		if err != nil {
			logger.Warn("processing failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
			return err
		}
		return c.JSON(fiber.Map{"data": result})
	})

	go func() {
		logger.Info("agent listening", zap.String("addr", cfg.Agent.Addr()))
		if err := app.Listen(cfg.Agent.Addr()); err != nil {
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
