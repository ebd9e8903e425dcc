package wallet_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
	domwallet "github.com/jhoicas/Licencias-api/internal/domain/wallet"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/memory"
)

var (
	fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	root     = entity.Actor{UserID: "u-root", Role: entity.RoleSuperAdmin}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store *memory.Store
	uc    *wallet.LedgerUseCase
}

func newFixture(t *testing.T, companyIDs ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	resellerID := "reseller"
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{
		ID: resellerID, Name: "Distribuidor", NIT: "900000000", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive,
	}))
	for i, id := range companyIDs {
		parent := resellerID
		require.NoError(t, store.Companies().Create(ctx, &entity.Company{
			ID: id, Name: id, NIT: "90000000" + string(rune('1'+i)), Type: entity.CompanyTypeSubCompany,
			ParentID: &parent, Status: entity.CompanyStatusActive,
		}))
	}
	uc := wallet.NewLedgerUseCase(
		memory.NewTxRunner(store),
		store.Wallets(),
		store.Ledger(),
		access.NewAuthorizer(store.Companies()),
		nil, nil,
		zerolog.Nop(),
	).WithClock(func() time.Time { return fixedNow })
	return &fixture{store: store, uc: uc}
}

func (f *fixture) balance(t *testing.T, companyID string) decimal.Decimal {
	t.Helper()
	w, err := f.uc.GetWallet(context.Background(), root, companyID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) assertConsistent(t *testing.T, companyID string) {
	t.Helper()
	rep, err := f.uc.Reconcile(context.Background(), root, companyID)
	require.NoError(t, err)
	assert.True(t, rep.Consistent, "billetera %s: cache=%s libro=%s cadena=%v",
		companyID, rep.CachedBalance, rep.LedgerBalance, rep.ChainOK)
}

func TestEscenario_GastoYTransferencia(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")

	_, err := f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "a", Amount: dec("100.00")})
	require.NoError(t, err)

	row, err := f.uc.Spend(ctx, root, wallet.SpendInput{CompanyID: "a", Amount: dec("50.00"), RelatedEntityType: "license", RelatedEntityID: "l-1"})
	require.NoError(t, err)
	assert.True(t, row.BalanceBefore.Equal(dec("100")))
	assert.True(t, row.BalanceAfter.Equal(dec("50")))
	assert.Equal(t, "license", row.RelatedEntityType)
	assert.True(t, f.balance(t, "a").Equal(dec("50.00")))

	res, err := f.uc.Transfer(ctx, root, wallet.TransferInput{FromCompanyID: "a", ToCompanyID: "b", Amount: dec("20.00")})
	require.NoError(t, err)
	assert.True(t, f.balance(t, "a").Equal(dec("30.00")))
	assert.True(t, f.balance(t, "b").Equal(dec("20.00")))

	require.NotNil(t, res.Out.CorrelationID)
	require.NotNil(t, res.In.CorrelationID)
	assert.Equal(t, *res.Out.CorrelationID, *res.In.CorrelationID)
	assert.Equal(t, res.CorrelationID, *res.Out.CorrelationID)
	assert.Equal(t, entity.WalletTxTransferOut, res.Out.Type)
	assert.Equal(t, entity.WalletTxTransferIn, res.In.Type)
	assert.Equal(t, "b", *res.Out.CounterpartyCompanyID)
	assert.Equal(t, "a", *res.In.CounterpartyCompanyID)
	assert.True(t, res.In.BalanceBefore.IsZero())

	f.assertConsistent(t, "a")
	f.assertConsistent(t, "b")
}

func TestSpend_SaldoInsuficiente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a")
	_, err := f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "a", Amount: dec("10.00")})
	require.NoError(t, err)

	_, err = f.uc.Spend(ctx, root, wallet.SpendInput{CompanyID: "a", Amount: dec("10.01")})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, f.balance(t, "a").Equal(dec("10.00")))

	rows, err := f.uc.ListLedger(ctx, root, repository.LedgerFilter{CompanyID: "a"})
	require.NoError(t, err)
	assert.Len(t, rows, 1, "el gasto fallido no deja fila")
}

func TestRecharge_MontoInvalido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a")
	for _, amount := range []string{"0", "-5", "1.001"} {
		_, err := f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "a", Amount: dec(amount)})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, amount)
	}
	assert.True(t, f.balance(t, "a").IsZero())
}

func TestRecharge_SoloSuperAdmin(t *testing.T) {
	f := newFixture(t, "a")
	admin := entity.Actor{UserID: "u1", CompanyID: "reseller", Role: entity.RoleAdmin}
	_, err := f.uc.Recharge(context.Background(), admin, wallet.RechargeInput{CompanyID: "a", Amount: dec("5")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRecharge_EmpresaInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Recharge(context.Background(), root, wallet.RechargeInput{CompanyID: "nope", Amount: dec("5")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")
	_, err := f.uc.Transfer(ctx, root, wallet.TransferInput{FromCompanyID: "a", ToCompanyID: "a", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Transfer(ctx, root, wallet.TransferInput{FromCompanyID: "a", ToCompanyID: "b", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, f.balance(t, "a").IsZero())
	assert.True(t, f.balance(t, "b").IsZero())

	rows, err := f.uc.ListLedger(ctx, root, repository.LedgerFilter{CompanyID: "b"})
	require.NoError(t, err)
	assert.Empty(t, rows, "la transferencia fallida no deja la fila de entrada")
}

func TestTransfer_FueraDeAlcance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")
	_, err := f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "a", Amount: dec("10")})
	require.NoError(t, err)

	agentOfA := entity.Actor{UserID: "u2", CompanyID: "a", Role: entity.RoleAdmin}
	_, err = f.uc.Transfer(ctx, agentOfA, wallet.TransferInput{FromCompanyID: "a", ToCompanyID: "b", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrForbidden, "b no está en el subárbol de a")

	resellerAdmin := entity.Actor{UserID: "u3", CompanyID: "reseller", Role: entity.RoleAdmin}
	_, err = f.uc.Transfer(ctx, resellerAdmin, wallet.TransferInput{FromCompanyID: "a", ToCompanyID: "b", Amount: dec("1")})
	assert.NoError(t, err)
}

// Secuencias aleatorias de operaciones: el saldo siempre coincide con la suma del libro.
func TestInvariante_SaldoIgualSumaDelLibro(t *testing.T) {
	ctx := context.Background()
	ids := []string{"a", "b", "c"}
	f := newFixture(t, ids...)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		amount := decimal.New(int64(rng.Intn(5000)-500), -2) // incluye montos inválidos
		id := ids[rng.Intn(len(ids))]
		var err error
		switch rng.Intn(3) {
		case 0:
			_, err = f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: id, Amount: amount})
		case 1:
			_, err = f.uc.Spend(ctx, root, wallet.SpendInput{CompanyID: id, Amount: amount})
		case 2:
			to := ids[rng.Intn(len(ids))]
			_, err = f.uc.Transfer(ctx, root, wallet.TransferInput{FromCompanyID: id, ToCompanyID: to, Amount: amount})
		}
		if err != nil {
			require.True(t, domain.IsBusiness(err), "error inesperado: %v", err)
		}
	}

	total := decimal.Zero
	for _, id := range ids {
		f.assertConsistent(t, id)
		bal := f.balance(t, id)
		assert.False(t, bal.IsNegative())
		total = total.Add(bal)

		rows, err := f.store.Ledger().ListChronological(ctx, id)
		require.NoError(t, err)
		assert.True(t, domwallet.LedgerSum(rows).Equal(bal))
	}
	assert.False(t, total.IsNegative())
}

func TestSpend_ConcurrenteNoSobregira(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a")
	_, err := f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "a", Amount: dec("100.00")})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		noFunds int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Spend(ctx, root, wallet.SpendInput{CompanyID: "a", Amount: dec("10.00")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrInsufficientFunds):
				noFunds++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, noFunds)
	assert.True(t, f.balance(t, "a").IsZero())
	f.assertConsistent(t, "a")
}

func TestStatement_TotalesPorTipo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")
	_, err := f.uc.Recharge(ctx, root, wallet.RechargeInput{CompanyID: "a", Amount: dec("80")})
	require.NoError(t, err)
	_, err = f.uc.Spend(ctx, root, wallet.SpendInput{CompanyID: "a", Amount: dec("30")})
	require.NoError(t, err)
	_, err = f.uc.Transfer(ctx, root, wallet.TransferInput{FromCompanyID: "a", ToCompanyID: "b", Amount: dec("5")})
	require.NoError(t, err)

	st, err := f.uc.Statement(ctx, root, "a", fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, st.Totals[entity.WalletTxRecharge].Equal(dec("80")))
	assert.True(t, st.Totals[entity.WalletTxSpend].Equal(dec("30")))
	assert.True(t, st.Totals[entity.WalletTxTransferOut].Equal(dec("5")))
	assert.Len(t, st.Entries, 3)
	assert.True(t, st.Wallet.Balance.Equal(dec("45")))

	_, err = f.uc.Statement(ctx, root, "a", fixedNow, fixedNow.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
