package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	appanalytics "github.com/jhoicas/Licencias-api/internal/application/analytics"
	"github.com/jhoicas/Licencias-api/internal/application/auth"
	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	CompanyUC    *usecase.CompanyUseCase
	UserUC       *usecase.UserUseCase
	ClientUC     *usecase.ClientUseCase
	ProductUC    *usecase.ProductUseCase
	DeviceUC     *usecase.DeviceRegistrationUseCase
	LicenseUC    *license.UseCase
	ActivationUC *license.ActivationUseCase
	SalesUC      *billing.SalesUseCase
	WalletUC     *wallet.LedgerUseCase
	DashboardUC  *appanalytics.DashboardUseCase

	JWTSecret      string
	JWTIssuer      string
	DefaultHorizon int

	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	AuditSink      ports.AuditSink
	Observer       HTTPObserver
	Log            zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AccessLog(deps.AuditSink, deps.Observer, deps.Log))
	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Log)
	superadmin := RequireRole(entity.RoleSuperAdmin)
	managers := RequireRole(entity.RoleSuperAdmin, entity.RoleAdmin)

	authHandler := NewAuthHandler(deps.AuthUC)
	activationHandler := NewActivationHandler(deps.ActivationUC)
	deviceHandler := NewDeviceHandler(deps.DeviceUC)

	// Públicas: login y endpoints que consume el software instalado.
	api.Post("/auth/login", authHandler.Login)
	api.Post("/activations", activationHandler.Activate)
	api.Post("/activations/validate", activationHandler.Validate)
	api.Post("/devices/register", deviceHandler.Register)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	protected.Post("/auth/register", managers, authHandler.Register)

	// Companies
	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.UserUC)
	companies := protected.Group("/companies")
	companies.Post("/", managers, companyHandler.Create)
	companies.Get("/", companyHandler.List)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Put("/:id", managers, companyHandler.Update)
	companies.Post("/:id/move", superadmin, companyHandler.Move)
	companies.Get("/:id/tree", companyHandler.Subtree)
	companies.Get("/:id/users", managers, companyHandler.Users)
	protected.Get("/users/:id", companyHandler.GetUser)

	// Clients
	clientHandler := NewClientHandler(deps.ClientUC)
	clients := protected.Group("/clients")
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Post("/:id/status", managers, clientHandler.SetStatus)

	// Products: catálogo global, solo el superadmin escribe.
	productHandler := NewProductHandler(deps.ProductUC)
	products := protected.Group("/products")
	products.Post("/", superadmin, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", superadmin, productHandler.Update)

	// Licenses. Las rutas fijas van antes de /:id.
	licenseHandler := NewLicenseHandler(deps.LicenseUC, deps.SalesUC, deps.DefaultHorizon)
	licenses := protected.Group("/licenses")
	licenses.Post("/", managers, idem, licenseHandler.Issue)
	licenses.Get("/", licenseHandler.List)
	licenses.Get("/expiring", licenseHandler.Expiring)
	licenses.Post("/sweep", superadmin, licenseHandler.Sweep)
	licenses.Get("/:id", licenseHandler.Get)
	licenses.Post("/:id/suspend", managers, licenseHandler.Suspend)
	licenses.Post("/:id/reactivate", managers, licenseHandler.Reactivate)
	licenses.Post("/:id/renew", managers, idem, licenseHandler.Renew)
	licenses.Post("/:id/reset-binding", managers, licenseHandler.ResetBinding)
	licenses.Get("/:id/file", licenseHandler.File)
	licenses.Get("/:id/certificate", licenseHandler.Certificate)
	licenses.Get("/:id/transactions", licenseHandler.Transactions)

	// Transactions (ventas)
	transactionHandler := NewTransactionHandler(deps.SalesUC)
	transactions := protected.Group("/transactions")
	transactions.Post("/", idem, transactionHandler.Create)
	transactions.Get("/:id", transactionHandler.GetByID)

	// Wallets
	walletHandler := NewWalletHandler(deps.WalletUC)
	wallets := protected.Group("/wallets/:companyId")
	wallets.Get("/", walletHandler.Get)
	wallets.Get("/ledger", walletHandler.Ledger)
	wallets.Get("/reconcile", managers, walletHandler.Reconcile)
	wallets.Get("/statement", walletHandler.Statement)
	wallets.Post("/recharge", superadmin, idem, walletHandler.Recharge)
	wallets.Post("/spend", idem, walletHandler.Spend)
	wallets.Post("/transfer", managers, idem, walletHandler.Transfer)

	// Devices y dashboard
	protected.Get("/devices", deviceHandler.ListByNIT)
	protected.Get("/dashboard", NewDashboardHandler(deps.DashboardUC).GetSummary)

	api.Use(func(c *fiber.Ctx) error {
		return writeError(c, fiber.NewError(fiber.StatusNotFound, "ruta no encontrada"))
	})
}
