package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/memory"
)

var root = entity.Actor{UserID: "root", Role: entity.RoleSuperAdmin}

func ptr(s string) *string { return &s }

func newCompanies(t *testing.T) (*usecase.CompanyUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return usecase.NewCompanyUseCase(store.Companies(), access.NewAuthorizer(store.Companies())), store
}

func TestCompany_JerarquiaYMovimiento(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCompanies(t)

	reseller, err := uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Distribuidor", NIT: "900", Type: entity.CompanyTypeReseller})
	require.NoError(t, err)
	a, err := uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Sub A", NIT: "901", Type: entity.CompanyTypeSubCompany, ParentID: &reseller.ID})
	require.NoError(t, err)
	b, err := uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Sub B", NIT: "902", Type: entity.CompanyTypeSubCompany, ParentID: &a.ID})
	require.NoError(t, err)

	_, err = uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Agente", NIT: "903", Type: entity.CompanyTypeAgent})
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy, "un agente requiere padre")

	_, err = uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Dup", NIT: "900", Type: entity.CompanyTypeReseller})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Dup", NIT: "9.00", Type: entity.CompanyTypeReseller})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "el NIT se normaliza antes de comparar")

	_, err = uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "DV", NIT: "800197268-5", Type: entity.CompanyTypeReseller})
	assert.ErrorIs(t, err, domain.ErrValidation, "dígito de verificación inválido")

	withDV, err := uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "DV ok", NIT: "800.197.268-4", Type: entity.CompanyTypeReseller})
	require.NoError(t, err)
	assert.Equal(t, "800197268", withDV.NIT)
	assert.Equal(t, "800197268-4", withDV.NITWithDV)

	_, err = uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "Mismo NIT sin DV", NIT: "800197268", Type: entity.CompanyTypeReseller})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "con y sin dígito de verificación es la misma empresa")

	_, err = uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "X", NIT: "904", Type: entity.CompanyTypeAgent, ParentID: ptr("no-existe")})
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)

	// A bajo su propio descendiente B: ciclo.
	_, err = uc.Move(ctx, root, a.ID, &b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
	_, err = uc.Move(ctx, root, a.ID, &a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)

	moved, err := uc.Move(ctx, root, b.ID, &reseller.ID)
	require.NoError(t, err)
	assert.Equal(t, reseller.ID, *moved.ParentID)

	tree, err := uc.Subtree(ctx, root, reseller.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Children, 2)
}

func TestCompany_Alcance(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCompanies(t)

	r1, err := uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "R1", NIT: "1", Type: entity.CompanyTypeReseller})
	require.NoError(t, err)
	r2, err := uc.Create(ctx, root, dto.CreateCompanyRequest{Name: "R2", NIT: "2", Type: entity.CompanyTypeReseller})
	require.NoError(t, err)

	admin := entity.Actor{UserID: "adm", CompanyID: r1.ID, Role: entity.RoleAdmin}
	agent, err := uc.Create(ctx, admin, dto.CreateCompanyRequest{Name: "Ag", NIT: "3", Type: entity.CompanyTypeAgent, ParentID: &r1.ID})
	require.NoError(t, err)

	_, err = uc.Create(ctx, admin, dto.CreateCompanyRequest{Name: "Raíz", NIT: "4", Type: entity.CompanyTypeReseller})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetByID(ctx, admin, r2.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := uc.List(ctx, admin, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	suspended := entity.CompanyStatusSuspended
	_, err = uc.Update(ctx, admin, r1.ID, dto.UpdateCompanyRequest{Status: &suspended})
	assert.ErrorIs(t, err, domain.ErrForbidden, "una empresa no cambia su propio estado")
	_, err = uc.Update(ctx, admin, agent.ID, dto.UpdateCompanyRequest{Status: &suspended})
	require.NoError(t, err)

	ok, err := uc.IsOperational(ctx, agent.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_AlcanceYEstado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "r1", NIT: "1", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "r2", NIT: "2", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	uc := usecase.NewClientUseCase(store.Clients(), access.NewAuthorizer(store.Companies()))
	admin := entity.Actor{UserID: "adm", CompanyID: "r1", Role: entity.RoleAdmin}

	c, err := uc.Create(ctx, admin, dto.CreateClientRequest{Name: "Tienda"})
	require.NoError(t, err)
	assert.Equal(t, "r1", *c.CompanyID)
	assert.Equal(t, entity.ClientStatusPending, c.Status)

	_, err = uc.Create(ctx, admin, dto.CreateClientRequest{Name: "Ajena", CompanyID: ptr("r2")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	direct, err := uc.Create(ctx, root, dto.CreateClientRequest{Name: "Directo"})
	require.NoError(t, err)
	assert.Nil(t, direct.CompanyID)
	_, err = uc.GetByID(ctx, admin, direct.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	c, err = uc.SetStatus(ctx, admin, c.ID, entity.ClientStatusValidated)
	require.NoError(t, err)
	assert.Equal(t, entity.ClientStatusValidated, c.Status)
	_, err = uc.SetStatus(ctx, admin, c.ID, "borrado")
	assert.ErrorIs(t, err, domain.ErrValidation)

	list, err := uc.List(ctx, admin, "", "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestDevice_ContadorDeUso(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "r1", NIT: "900", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "r2", NIT: "800", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "p1", Name: "ERP", Version: "1", LicenseType: entity.LicenseTypePerpetual, Active: true}))

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	uc := usecase.NewDeviceRegistrationUseCase(memory.NewTxRunner(store), store.Devices(), store.Products(), store.Companies(),
		access.NewAuthorizer(store.Companies())).WithClock(func() time.Time { return now })

	req := dto.RegisterDeviceRequest{CompanyNIT: "900", ProductID: "p1", ProductVersion: "1.2", DeviceUID: "PC-01", Hostname: "caja"}
	first, err := uc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UsageCount)

	now = now.Add(time.Hour)
	second, err := uc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, second.UsageCount)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.LastSeenAt.After(second.FirstSeenAt))

	_, err = uc.Register(ctx, dto.RegisterDeviceRequest{CompanyNIT: "900", ProductID: "nope", ProductVersion: "1", DeviceUID: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	regs, err := uc.ListByNIT(ctx, entity.Actor{UserID: "a", CompanyID: "r1", Role: entity.RoleAdmin}, "900")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Len(t, regs[0].Devices, 1)

	_, err = uc.ListByNIT(ctx, entity.Actor{UserID: "b", CompanyID: "r2", Role: entity.RoleAdmin}, "900")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDevice_NITNormalizado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "r1", NIT: "800197268", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "p1", Name: "ERP", Version: "1", LicenseType: entity.LicenseTypePerpetual, Active: true}))
	uc := usecase.NewDeviceRegistrationUseCase(memory.NewTxRunner(store), store.Devices(), store.Products(), store.Companies(),
		access.NewAuthorizer(store.Companies()))

	_, err := uc.Register(ctx, dto.RegisterDeviceRequest{CompanyNIT: "800.197.268-4", ProductID: "p1", ProductVersion: "2", DeviceUID: "PC-01"})
	require.NoError(t, err)
	_, err = uc.Register(ctx, dto.RegisterDeviceRequest{CompanyNIT: "800197268", ProductID: "p1", ProductVersion: "2", DeviceUID: "PC-02"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, dto.RegisterDeviceRequest{CompanyNIT: "800197268-5", ProductID: "p1", ProductVersion: "2", DeviceUID: "PC-03"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	admin := entity.Actor{UserID: "a", CompanyID: "r1", Role: entity.RoleAdmin}
	for _, q := range []string{"800197268", "800.197.268-4"} {
		regs, err := uc.ListByNIT(ctx, admin, q)
		require.NoError(t, err, q)
		require.Len(t, regs, 1, q)
		assert.Equal(t, "800197268", regs[0].CompanyNIT)
		assert.Len(t, regs[0].Devices, 2, q)
	}
}
