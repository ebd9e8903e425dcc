// Package analytics contiene los casos de uso de reportes del back-office:
// el resumen de billetera y licencias de una empresa.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	domlicense "github.com/jhoicas/Licencias-api/internal/domain/license"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

const countBatch = 500 // página usada para contar licencias por estado vigente

// Authorizer decide si el actor puede ver la empresa.
type Authorizer interface {
	CanAccessCompany(ctx context.Context, actor entity.Actor, companyID string) error
}

// DashboardUseCase genera el resumen de una empresa: billetera del mes en curso,
// licencias por estado vigente y licencias próximas a vencer.
//
// Solo lectura: no abre transacciones; cada consulta ve su propia instantánea.
type DashboardUseCase struct {
	companies  repository.CompanyRepository
	wallets    repository.WalletRepository
	ledger     repository.WalletLedgerRepository
	licenses   repository.LicenseRepository
	authorizer Authorizer
	horizon    int
	nowFn      func() time.Time
}

// NewDashboardUseCase construye el caso de uso. horizonDays es el horizonte por defecto de vencimientos.
func NewDashboardUseCase(
	companies repository.CompanyRepository,
	wallets repository.WalletRepository,
	ledger repository.WalletLedgerRepository,
	licenses repository.LicenseRepository,
	authorizer Authorizer,
	horizonDays int,
) *DashboardUseCase {
	return &DashboardUseCase{
		companies:  companies,
		wallets:    wallets,
		ledger:     ledger,
		licenses:   licenses,
		authorizer: authorizer,
		horizon:    horizonDays,
		nowFn:      time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *DashboardUseCase) WithClock(fn func() time.Time) *DashboardUseCase {
	uc.nowFn = fn
	return uc
}

// GetSummary construye el DashboardSummaryDTO para la empresa indicada (vacío = la del actor).
//
// Tres consultas en paralelo:
//  1. billetera + SumByType(mes)      → Balance, MonthRecharged, MonthSpent, MonthTransfered
//  2. licencias del subárbol          → LicensesByStatus
//  3. ListExpiringBetween(horizonte)  → Expiring
func (uc *DashboardUseCase) GetSummary(ctx context.Context, actor entity.Actor, companyID string, horizonDays int) (*dto.DashboardSummaryDTO, error) {
	if companyID == "" {
		companyID = actor.CompanyID
	}
	if companyID == "" {
		return nil, fmt.Errorf("%w: company_id es obligatorio", domain.ErrValidation)
	}
	if horizonDays <= 0 {
		horizonDays = uc.horizon
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, companyID); err != nil {
		return nil, err
	}
	subtree, err := uc.companies.ListSubtree(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: subárbol: %w", err)
	}
	scope := make([]string, 0, len(subtree))
	for _, c := range subtree {
		scope = append(scope, c.ID)
	}

	now := uc.nowFn()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := &dto.DashboardSummaryDTO{
		CompanyID:       companyID,
		Balance:         decimal.Zero,
		MonthRecharged:  decimal.Zero,
		MonthSpent:      decimal.Zero,
		MonthTransfered: decimal.Zero,
		HorizonDays:     horizonDays,
		DateLabel:       monthLabel(now),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := uc.wallets.GetByCompanyID(gctx, companyID)
		if err != nil {
			return fmt.Errorf("dashboard: billetera: %w", err)
		}
		if w != nil {
			out.Balance = w.Balance
		}
		totals, err := uc.ledger.SumByType(gctx, companyID, monthStart, now)
		if err != nil {
			return fmt.Errorf("dashboard: movimientos del mes: %w", err)
		}
		out.MonthRecharged = totals[entity.WalletTxRecharge]
		out.MonthSpent = totals[entity.WalletTxSpend]
		out.MonthTransfered = totals[entity.WalletTxTransferOut]
		return nil
	})
	g.Go(func() error {
		counts, err := uc.countByStatus(gctx, scope, now)
		if err != nil {
			return fmt.Errorf("dashboard: licencias por estado: %w", err)
		}
		out.LicensesByStatus = counts
		return nil
	})
	g.Go(func() error {
		list, err := uc.licenses.ListExpiringBetween(gctx, now, now.AddDate(0, 0, horizonDays), scope)
		if err != nil {
			return fmt.Errorf("dashboard: vencimientos: %w", err)
		}
		list = domlicense.FilterExpiring(list, now, horizonDays)
		out.Expiring = make([]dto.ExpiringLicenseDTO, 0, len(list))
		for _, l := range list {
			out.Expiring = append(out.Expiring, dto.ExpiringLicenseDTO{
				LicenseID:     l.ID,
				ClientID:      l.ClientID,
				ActivationKey: l.ActivationKey,
				ExpiresAt:     *l.ExpiresAt,
				DaysLeft:      daysLeft(now, *l.ExpiresAt),
			})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *DashboardUseCase) countByStatus(ctx context.Context, scope []string, now time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for offset := 0; ; offset += countBatch {
		page, err := uc.licenses.List(ctx, repository.LicenseFilter{CompanyIDs: scope, Limit: countBatch, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, l := range page {
			counts[domlicense.ComputeStatus(l, now)]++
		}
		if len(page) < countBatch {
			return counts, nil
		}
	}
}

// daysLeft días completos restantes, redondeando hacia arriba (vence hoy más tarde = 1).
func daysLeft(now, expiresAt time.Time) int {
	d := expiresAt.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
