// seed_admin crea la empresa raíz de la plataforma y su primer usuario superadmin, para que
// alguien pueda iniciar sesión en una base vacía. Es idempotente: si la empresa (por NIT) o el
// email ya existen, los reutiliza.
//
// Uso: SEED_ADMIN_PASSWORD=... go run ./cmd/seed_admin <nit> <nombre-empresa> <email>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/Licencias-api/db"
	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/auth"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/domain"
	domcompany "github.com/jhoicas/Licencias-api/internal/domain/company"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Licencias-api/pkg/config"
)

// system actor con el que corre la siembra; no corresponde a ningún usuario persistido.
var system = entity.Actor{UserID: "seed_admin", Role: entity.RoleSuperAdmin}

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "Uso: seed_admin <nit> <nombre-empresa> <email>")
		os.Exit(2)
	}
	nit, err := domcompany.NormalizeNIT(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "NIT: %v\n", err)
		os.Exit(2)
	}
	name, email := strings.TrimSpace(os.Args[2]), strings.TrimSpace(os.Args[3])
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD debe tener al menos 8 caracteres")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	if err := seed(cfg, nit, name, email, password); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seed(cfg *config.Config, nit, name, email, password string) error {
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("PostgreSQL: %w", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, db.Migrations()); err != nil {
		return fmt.Errorf("Migraciones: %w", err)
	}

	companies := postgres.NewCompanyRepository(pool)
	users := postgres.NewUserRepository(pool)
	authorizer := access.NewAuthorizer(companies)

	company, err := companies.GetByNIT(ctx, nit)
	if err != nil {
		return fmt.Errorf("Buscar empresa: %w", err)
	}
	companyID := ""
	if company != nil {
		companyID = company.ID
		fmt.Printf("Empresa %s ya existe (%s)\n", nit, companyID)
	} else {
		created, err := usecase.NewCompanyUseCase(companies, authorizer).Create(ctx, system, dto.CreateCompanyRequest{
			Name: name,
			NIT:  nit,
			Type: entity.CompanyTypeReseller,
		})
		if err != nil {
			return fmt.Errorf("Crear empresa: %w", err)
		}
		companyID = created.ID
		fmt.Printf("Empresa %s creada (%s)\n", nit, companyID)
	}

	authUC := auth.NewAuthUseCase(users, companies, authorizer, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	user, err := authUC.RegisterUser(ctx, system, dto.RegisterRequest{
		Email:     email,
		Password:  password,
		CompanyID: companyID,
		Name:      "Administrador",
		Role:      entity.RoleSuperAdmin,
	})
	switch {
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		fmt.Printf("Usuario %s ya existe\n", email)
	case err != nil:
		return fmt.Errorf("Crear usuario: %w", err)
	default:
		fmt.Printf("Superadmin %s creado (%s)\n", user.Email, user.ID)
	}
	return nil
}
