package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/analytics"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/memory"
)

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewStore()
	parent := "r1"
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: parent, NIT: "1", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "ag", NIT: "2", Type: entity.CompanyTypeAgent, ParentID: &parent, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "r2", NIT: "3", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	owner := "ag"
	require.NoError(t, store.Clients().Create(ctx, &entity.Client{ID: "cli", CompanyID: &owner, Name: "C", Status: entity.ClientStatusValidated}))

	at := func(d time.Duration) *time.Time { v := now.Add(d); return &v }
	seed := []entity.License{
		{ID: "l1", ActivationKey: "K1", Status: entity.LicenseStatusActive, ExpiresAt: at(3 * 24 * time.Hour)},
		{ID: "l2", ActivationKey: "K2", Status: entity.LicenseStatusActive, ExpiresAt: at(-24 * time.Hour)},
		{ID: "l3", ActivationKey: "K3", Status: entity.LicenseStatusSuspended},
		{ID: "l4", ActivationKey: "K4", Status: entity.LicenseStatusActive, ExpiresAt: at(90 * 24 * time.Hour)},
	}
	for i := range seed {
		l := seed[i]
		l.ClientID, l.ProductID, l.CreatedAt = "cli", "p", now
		require.NoError(t, store.Licenses().Create(ctx, &l))
	}

	authz := access.NewAuthorizer(store.Companies())
	root := entity.Actor{UserID: "root", Role: entity.RoleSuperAdmin}
	ledger := wallet.NewLedgerUseCase(memory.NewTxRunner(store), store.Wallets(), store.Ledger(), authz, nil, nil, zerolog.Nop()).WithClock(clock)
	_, err := ledger.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "r1", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = ledger.Spend(ctx, root, wallet.SpendInput{CompanyID: "r1", Amount: decimal.NewFromInt(30)})
	require.NoError(t, err)

	uc := analytics.NewDashboardUseCase(store.Companies(), store.Wallets(), store.Ledger(), store.Licenses(), authz, 30).WithClock(clock)
	admin := entity.Actor{UserID: "a", CompanyID: "r1", Role: entity.RoleAdmin}

	sum, err := uc.GetSummary(ctx, admin, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "r1", sum.CompanyID)
	assert.True(t, sum.Balance.Equal(decimal.NewFromInt(70)))
	assert.True(t, sum.MonthRecharged.Equal(decimal.NewFromInt(100)))
	assert.True(t, sum.MonthSpent.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 2, sum.LicensesByStatus[entity.LicenseStatusActive])
	assert.Equal(t, 1, sum.LicensesByStatus[entity.LicenseStatusExpired])
	assert.Equal(t, 1, sum.LicensesByStatus[entity.LicenseStatusSuspended])
	require.Len(t, sum.Expiring, 1)
	assert.Equal(t, "l1", sum.Expiring[0].LicenseID)
	assert.Equal(t, 3, sum.Expiring[0].DaysLeft)
	assert.Equal(t, "Marzo 2026", sum.DateLabel)

	_, err = uc.GetSummary(ctx, admin, "r2", 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
