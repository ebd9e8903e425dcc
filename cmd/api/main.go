package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Licencias-api/docs"
	"github.com/jhoicas/Licencias-api/internal/application/access"
	appanalytics "github.com/jhoicas/Licencias-api/internal/application/analytics"
	"github.com/jhoicas/Licencias-api/internal/application/auth"
	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/audit"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/licensefile"
	inframetrics "github.com/jhoicas/Licencias-api/internal/infrastructure/metrics"
	infranats "github.com/jhoicas/Licencias-api/internal/infrastructure/nats"
	infrapdf "github.com/jhoicas/Licencias-api/internal/infrastructure/pdf"
	infraredis "github.com/jhoicas/Licencias-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Licencias-api/internal/interfaces/http"
	"github.com/jhoicas/Licencias-api/pkg/config"
	"github.com/jhoicas/Licencias-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Storage).
		Msg("iniciando aplicación")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("la aplicación terminó con error")
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}

// run arma y ejecuta el servidor hasta recibir SIGINT/SIGTERM. Los errores de arranque se
// devuelven para que los recursos ya abiertos se cierren con sus defer.
func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	store, err := openStorage(ctx, cfg.DB, log)
	if err != nil {
		return fmt.Errorf("almacenamiento: %w", err)
	}
	defer store.close()

	// Métricas Prometheus en /metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := inframetrics.NewMetrics(registry, "licencias")

	// Bus de eventos (opcional)
	var publisher ports.EventPublisher = ports.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := infranats.Connect(cfg.NATS.URL, cfg.App.Name, log.Component("nats"))
		if err != nil {
			return fmt.Errorf("conexión a NATS: %w", err)
		}
		defer func() { _ = nc.Drain() }()
		publisher = infranats.NewPublisher(nc, cfg.NATS.SubjectPrefix, log.Component("nats"))
	}

	// Idempotencia (opcional)
	var idempotency ports.IdempotencyStore
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("conexión a Redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		idempotency = infraredis.NewIdempotencyStore(rdb)
	} else {
		log.Warn().Msg("REDIS_URL vacío: Idempotency-Key deshabilitado")
	}

	auditSink := audit.NewSink(store.audit, publisher, cfg.Audit.BufferSize, log.Component("audit"))

	authorizer := access.NewAuthorizer(store.companies)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.License.DocumentLang)

	// Archivo de licencia firmado (opcional)
	var fileSigner license.FileSigner
	if cfg.License.SigningEnabled() {
		cert, err := licensefile.LoadCertificate(cfg.License.SigningCertPath, cfg.License.SigningKeyPath, cfg.License.P12Password)
		if err != nil {
			return fmt.Errorf("certificado de firma de licencias: %w", err)
		}
		signer, err := licensefile.NewSigner(cert)
		if err != nil {
			return fmt.Errorf("firmador de licencias: %w", err)
		}
		fileSigner = signer
	}

	ledgerUC := wallet.NewLedgerUseCase(
		store.tx, store.wallets, store.ledger, authorizer, publisher, metrics, log.Component("wallet"),
	).WithStatementRenderer(pdfGenerator)
	licenseUC := license.NewUseCase(
		store.tx, store.licenses, store.clients, store.products, authorizer, publisher, metrics, log.Component("license"),
	).WithExporters(fileSigner, pdfGenerator, cfg.License.Issuer)
	activationUC := license.NewActivationUseCase(
		store.tx, store.licenses, auditSink, publisher, metrics, log.Component("activation"),
	)
	salesUC := billing.NewSalesUseCase(
		store.tx, ledgerUC, store.licenses, store.clients, store.products, store.transactions, authorizer, log.Component("sales"),
	)
	authUC := auth.NewAuthUseCase(store.users, store.companies, authorizer, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Licencias API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CompanyUC:    usecase.NewCompanyUseCase(store.companies, authorizer),
		UserUC:       usecase.NewUserUseCase(store.users, authorizer),
		ClientUC:     usecase.NewClientUseCase(store.clients, authorizer),
		ProductUC:    usecase.NewProductUseCase(store.products),
		DeviceUC:     usecase.NewDeviceRegistrationUseCase(store.tx, store.devices, store.products, store.companies, authorizer),
		LicenseUC:    licenseUC,
		ActivationUC: activationUC,
		SalesUC:      salesUC,
		WalletUC:     ledgerUC,
		DashboardUC: appanalytics.NewDashboardUseCase(
			store.companies, store.wallets, store.ledger, store.licenses, authorizer, cfg.License.ExpiringHorizonDays,
		),

		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
		DefaultHorizon: cfg.License.ExpiringHorizonDays,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		AuditSink:      auditSink,
		Observer:       metrics,
		Log:            log.Component("http"),
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.HTTP.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	case err := <-listenErr:
		_ = auditSink.Close(context.Background())
		if err != nil {
			return fmt.Errorf("servidor HTTP: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Las bitácoras pendientes se escriben antes de cerrar el almacenamiento.
	if err := auditSink.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre de bitácoras")
	}
	return nil
}
