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
	"github.com/jhoicas/Fiskalizacija-api/internal/application/fiscalization"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/fina"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/fina/signer"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/httpclient"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/lock"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/mojeracun"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Fiskalizacija-api/internal/interfaces/http"
	"github.com/jhoicas/Fiskalizacija-api/pkg/config"
	"github.com/jhoicas/Fiskalizacija-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("fina_env", cfg.Fiscal.FinaEnvironment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("crear esquema")
		}
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)

	// FINA: un cliente HTTP por protocolo, con la política TLS decidida aquí una sola vez.
	finaHTTP := httpclient.New(httpclient.Config{
		Timeout:             cfg.Fiscal.FinaTimeout,
		InsecureSkipVerify:  cfg.Fiscal.TLSInsecureSkipVerify,
		MaxIdleConnsPerHost: 4,
	})
	var finaOpts []fina.Option
	switch {
	case cfg.Fiscal.FinaURL != "":
		finaOpts = append(finaOpts, fina.WithEndpoint(cfg.Fiscal.FinaURL))
	case cfg.Fiscal.FinaEnvironment == "test":
		// Fuera de producción nunca se envía a la CIS real, aunque el emisor esté marcado como production.
		finaOpts = append(finaOpts, fina.WithEndpoint(fina.EndpointTest))
	}
	finaSvc := fina.NewService(
		fina.NewSOAPClient(finaHTTP),
		signer.NewDigitalSignatureService(),
		log.Component("fina"),
		finaOpts...,
	)

	mojeRacunHTTP := httpclient.New(httpclient.Config{
		Timeout:             cfg.Fiscal.MojeRacunTimeout,
		InsecureSkipVerify:  cfg.Fiscal.TLSInsecureSkipVerify,
		MaxIdleConnsPerHost: 4,
	})
	mojeRacunSvc := mojeracun.NewService(
		mojeracun.NewClient(mojeRacunHTTP, cfg.Fiscal.MojeRacunURL),
		log.Component("mojeracun"),
	)

	// Candado de envío: Redis si hay varias instancias, memoria si no.
	var submissionLock fiscalization.SubmissionLock
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, lock.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		submissionLock = lock.NewRedisLock(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: candado de envío en memoria (una sola instancia)")
		submissionLock = lock.NewMemoryLock()
	}

	orchestrator := fiscalization.NewOrchestrator(
		invoiceRepo, companyRepo,
		finaSvc, mojeRacunSvc, mojeRacunSvc,
		submissionLock,
		fiscalization.Config{
			MaxAge:         time.Duration(cfg.Fiscal.MaxAgeDays) * 24 * time.Hour,
			AttemptTimeout: cfg.Fiscal.AttemptTimeout,
			LockTTL:        cfg.Fiscal.LockTTL,
			BatchDelay:     cfg.Fiscal.BatchDelay,
			BatchWorkers:   cfg.Fiscal.BatchWorkers,
		},
		log.Component("fiscalization"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute * 10, // los lotes pueden tardar minutos
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Fiskalizacija API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "db": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Invoices:  orchestrator,
		Outbox:    orchestrator,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Log:       log.Component("http"),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
