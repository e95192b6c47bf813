package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/fulfillment-api/docs"
	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/notification"
	"github.com/jhoicas/fulfillment-api/internal/application/orders"
	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/application/returns"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
	infrakafka "github.com/jhoicas/fulfillment-api/internal/infrastructure/kafka"
	inframail "github.com/jhoicas/fulfillment-api/internal/infrastructure/mail"
	"github.com/jhoicas/fulfillment-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/fulfillment-api/internal/infrastructure/pdf"
	"github.com/jhoicas/fulfillment-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/fulfillment-api/internal/interfaces/http"
	"github.com/jhoicas/fulfillment-api/pkg/config"
	"github.com/jhoicas/fulfillment-api/pkg/logger"
)

// @title                       Fulfillment API
// @version                     1.0
// @description                 Inventario, pedidos y devoluciones de la tienda: ledger de stock, máquina de estados y notificaciones.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacenamiento: PostgreSQL en despliegue, memoria para desarrollo local
	var (
		txRunner      ports.TxRunner
		repos         ports.TxRepos
		notifications interface {
			repository.NotificationRepository
			ports.NotificationSink
		}
	)
	switch cfg.App.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		txRunner, repos, notifications = store, store.Repos(), store.Notifications()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner, repos, notifications = postgres.NewTxRunner(pool), postgres.Repos(pool), postgres.NewNotificationRepository(pool)
	}

	// Correo: SMTP si hay host configurado; si no, solo se registra la intención
	var mailer ports.EmailSender = inframail.NewLogSender(log)
	if cfg.SMTP.Enabled() {
		mailer = inframail.NewSMTPSender(cfg.SMTP)
	}

	// Eventos de dominio: Kafka si hay brokers configurados
	var events ports.EventPublisher = ports.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher := infrakafka.NewPublisher(infrakafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador kafka")
			}
		}()
		events = publisher
	}

	notifier := notification.NewNotifier(notification.NewEmitter(nil), notifications, mailer, log)

	ledger, err := inventory.NewStockLedger(inventory.Deps{
		Tx:              txRunner,
		Stock:           repos.Stock,
		Movements:       repos.Movements,
		Events:          events,
		Logger:          log,
		HistoryMaxLimit: cfg.Fulfillment.HistoryMaxLimit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("stock ledger")
	}

	machine, err := orders.NewOrderStateMachine(orders.Deps{
		Tx:       txRunner,
		Orders:   repos.Orders,
		Ledger:   ledger,
		Notifier: notifier,
		Events:   events,
		Slips:    infrapdf.NewPackingSlipGenerator(cfg.App.Name),
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("order state machine")
	}

	workflow, err := returns.NewReturnWorkflow(returns.Deps{
		Tx:         txRunner,
		Orders:     repos.Orders,
		Returns:    repos.Returns,
		Machine:    machine,
		Ledger:     ledger,
		Notifier:   notifier,
		Events:     events,
		Logger:     log,
		WindowDays: cfg.Fulfillment.ReturnWindowDays,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("return workflow")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.Swagger {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Fulfillment API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:        ledger,
		Orders:        machine,
		Returns:       workflow,
		Notifications: notifications,
		JWTSecret:     cfg.JWT.Secret,
		AppName:       cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
