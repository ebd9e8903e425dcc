package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	appanalytics "github.com/jhoicas/Licencias-api/internal/application/analytics"
	"github.com/jhoicas/Licencias-api/internal/application/auth"
	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/memory"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/redis"
	apphttp "github.com/jhoicas/Licencias-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Licencias-api/pkg/jwt"
)

const (
	resellerID = "10000000-0000-0000-0000-000000000001"
	companyA   = "10000000-0000-0000-0000-00000000000a"
	companyB   = "10000000-0000-0000-0000-00000000000b"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
	audit *recordingSink
}

// recordingSink guarda las bitácoras tal como llegan al sink.
type recordingSink struct {
	mu          sync.Mutex
	access      []*entity.AccessLog
	activations []*entity.ActivationLog
}

func (s *recordingSink) RecordAccess(l *entity.AccessLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = append(s.access, l)
}

func (s *recordingSink) RecordActivation(l *entity.ActivationLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activations = append(s.activations, l)
}

func newAPI(t *testing.T, idem bool) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{
		ID: resellerID, Name: "Distribuidor", NIT: "900000001", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive,
	}))
	parent := resellerID
	for i, id := range []string{companyA, companyB} {
		require.NoError(t, store.Companies().Create(ctx, &entity.Company{
			ID: id, Name: id, NIT: "90000001" + string(rune('a'+i)), Type: entity.CompanyTypeSubCompany,
			ParentID: &parent, Status: entity.CompanyStatusActive,
		}))
	}

	log := zerolog.Nop()
	sink := &recordingSink{}
	tx := memory.NewTxRunner(store)
	authz := access.NewAuthorizer(store.Companies())
	ledger := wallet.NewLedgerUseCase(tx, store.Wallets(), store.Ledger(), authz, nil, nil, log)

	deps := apphttp.RouterDeps{
		AuthUC:       auth.NewAuthUseCase(store.Users(), store.Companies(), authz, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		CompanyUC:    usecase.NewCompanyUseCase(store.Companies(), authz),
		UserUC:       usecase.NewUserUseCase(store.Users(), authz),
		ClientUC:     usecase.NewClientUseCase(store.Clients(), authz),
		ProductUC:    usecase.NewProductUseCase(store.Products()),
		DeviceUC:     usecase.NewDeviceRegistrationUseCase(tx, store.Devices(), store.Products(), store.Companies(), authz),
		LicenseUC:    license.NewUseCase(tx, store.Licenses(), store.Clients(), store.Products(), authz, nil, nil, log),
		ActivationUC: license.NewActivationUseCase(tx, store.Licenses(), sink, nil, nil, log),
		SalesUC:      billing.NewSalesUseCase(tx, ledger, store.Licenses(), store.Clients(), store.Products(), store.Transactions(), authz, log),
		WalletUC:     ledger,
		DashboardUC:  appanalytics.NewDashboardUseCase(store.Companies(), store.Wallets(), store.Ledger(), store.Licenses(), authz, 30),

		JWTSecret:      testJWTSecret,
		JWTIssuer:      testIssuer,
		DefaultHorizon: 30,
		IdempotencyTTL: time.Minute,
		AuditSink:      sink,
		Log:            log,
	}
	if idem {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		deps.Idempotency = redis.NewIdempotencyStore(client)
	}

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, deps)
	return &apiFixture{app: app, store: store, audit: sink}
}

func bearer(t *testing.T, role, companyID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, companyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeBalance(t *testing.T, body []byte) string {
	t.Helper()
	var w dto.WalletResponse
	require.NoError(t, json.Unmarshal(body, &w))
	return w.Balance.StringFixed(2)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Code
}

func TestWallet_RecargaGastoYTransferencia(t *testing.T) {
	f := newAPI(t, false)
	root := bearer(t, entity.RoleSuperAdmin, resellerID)

	resp, _ := f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/recharge", root, map[string]any{"amount": "100"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/spend", root,
		map[string]any{"amount": "50", "related_entity_type": "license"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var row dto.WalletTransactionResponse
	require.NoError(t, json.Unmarshal(body, &row))
	assert.Equal(t, entity.WalletTxSpend, row.Type)
	assert.Equal(t, "100.00", row.BalanceBefore.StringFixed(2))
	assert.Equal(t, "50.00", row.BalanceAfter.StringFixed(2))

	resp, body = f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/transfer", root,
		map[string]any{"to_company_id": companyB, "amount": "20"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var tr dto.TransferResponse
	require.NoError(t, json.Unmarshal(body, &tr))
	assert.NotEmpty(t, tr.CorrelationID)
	assert.Equal(t, entity.WalletTxTransferOut, tr.Out.Type)
	assert.Equal(t, entity.WalletTxTransferIn, tr.In.Type)

	_, body = f.do(t, http.MethodGet, "/api/wallets/"+companyA, root, nil, nil)
	assert.Equal(t, "30.00", decodeBalance(t, body))
	_, body = f.do(t, http.MethodGet, "/api/wallets/"+companyB, root, nil, nil)
	assert.Equal(t, "20.00", decodeBalance(t, body))

	resp, body = f.do(t, http.MethodGet, "/api/wallets/"+companyA+"/ledger?limit=10", root, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page dto.LedgerListResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 3)
	assert.Equal(t, entity.WalletTxTransferOut, page.Items[0].Type, "más reciente primero")

	resp, body = f.do(t, http.MethodGet, "/api/wallets/"+companyA+"/reconcile", root, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rep dto.ReconcileResponse
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.True(t, rep.Consistent)
}

func TestWallet_MapeoDeErrores(t *testing.T) {
	f := newAPI(t, false)
	root := bearer(t, entity.RoleSuperAdmin, resellerID)

	resp, body := f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/spend", root, map[string]any{"amount": "10"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errorCode(t, body))

	resp, body = f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/recharge", root, map[string]any{"amount": "-5"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, body))

	resp, body = f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/recharge", root, map[string]any{"amount": "1.005"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, body))

	resp, body = f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/recharge", root, map[string]any{"amount": "100000000000000000"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, body))

	admin := bearer(t, entity.RoleAdmin, companyA)
	resp, body = f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/recharge", admin, map[string]any{"amount": "10"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	resp, body = f.do(t, http.MethodGet, "/api/wallets/"+companyA+"/ledger?from=ayer", root, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	resp, _ = f.do(t, http.MethodGet, "/api/wallets/"+companyA, "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWallet_OperadorFueraDeAlcance(t *testing.T) {
	f := newAPI(t, false)
	op := bearer(t, entity.RoleOperator, companyB)

	resp, body := f.do(t, http.MethodGet, "/api/wallets/"+companyA, op, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))
}

func TestIdempotencia_RepiteRespuesta(t *testing.T) {
	f := newAPI(t, true)
	root := bearer(t, entity.RoleSuperAdmin, resellerID)
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "recarga-1"}
	path := "/api/wallets/" + companyA + "/recharge"

	first, firstBody := f.do(t, http.MethodPost, path, root, map[string]any{"amount": "40"}, headers)
	require.Equal(t, http.StatusCreated, first.StatusCode, string(firstBody))

	second, secondBody := f.do(t, http.MethodPost, path, root, map[string]any{"amount": "40"}, headers)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(apphttp.HeaderIdempotentReplay))
	assert.JSONEq(t, string(firstBody), string(secondBody))

	_, body := f.do(t, http.MethodGet, "/api/wallets/"+companyA, root, nil, nil)
	assert.Equal(t, "40.00", decodeBalance(t, body), "la repetición no vuelve a recargar")

	reused, body := f.do(t, http.MethodPost, path, root, map[string]any{"amount": "41"}, headers)
	assert.Equal(t, http.StatusUnprocessableEntity, reused.StatusCode)
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", errorCode(t, body))
}

func TestIdempotencia_ErrorDeNegocioQuedaGuardado(t *testing.T) {
	f := newAPI(t, true)
	root := bearer(t, entity.RoleSuperAdmin, resellerID)
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "gasto-1"}
	path := "/api/wallets/" + companyA + "/spend"

	first, _ := f.do(t, http.MethodPost, path, root, map[string]any{"amount": "5"}, headers)
	require.Equal(t, http.StatusConflict, first.StatusCode)

	f.do(t, http.MethodPost, "/api/wallets/"+companyA+"/recharge", root, map[string]any{"amount": "10"}, nil)

	again, _ := f.do(t, http.MethodPost, path, root, map[string]any{"amount": "5"}, headers)
	assert.Equal(t, http.StatusConflict, again.StatusCode, "un 4xx se repite aunque ya haya saldo")
	assert.Equal(t, "true", again.Header.Get(apphttp.HeaderIdempotentReplay))
}

func TestActivacion_LlaveInexistente(t *testing.T) {
	f := newAPI(t, false)

	resp, body := f.do(t, http.MethodPost, "/api/activations", "",
		map[string]any{"activation_key": "NO-EXISTE", "device_id": "pc-1"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var out dto.ActivationResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Success)
	assert.Equal(t, "NOT_FOUND", out.Code)
}

func TestCuerpoInvalidoYValidacion(t *testing.T) {
	f := newAPI(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "no-es-correo", "password": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

func TestRutaInexistente(t *testing.T) {
	f := newAPI(t, false)
	root := bearer(t, entity.RoleSuperAdmin, resellerID)

	resp, body := f.do(t, http.MethodGet, "/api/no-existe", root, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeRouteMissing, errorCode(t, body))
}

func TestProductos_SoloSuperadminEscribe(t *testing.T) {
	f := newAPI(t, false)
	admin := bearer(t, entity.RoleAdmin, companyA)

	resp, _ := f.do(t, http.MethodPost, "/api/products", admin, map[string]any{"name": "POS", "price": "10"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBitacoras_ConservanDatosDeCadaPeticion(t *testing.T) {
	f := newAPI(t, false)
	const n = 30
	for i := 0; i < n; i++ {
		ua := fmt.Sprintf("agente-%03d", i)
		resp, _ := f.do(t, http.MethodGet, fmt.Sprintf("/api/ruta-%03d", i), "", nil, map[string]string{"User-Agent": ua})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp, _ = f.do(t, http.MethodPost, "/api/activations", "", map[string]any{
			"activation_key": fmt.Sprintf("NOPE%d-AAAAA-BBBBB-CCCCC", i), "device_id": "PC-1",
		}, map[string]string{"User-Agent": ua})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	f.audit.mu.Lock()
	defer f.audit.mu.Unlock()
	require.Len(t, f.audit.access, 2*n)
	require.Len(t, f.audit.activations, n)
	for i := 0; i < n; i++ {
		ua := fmt.Sprintf("agente-%03d", i)
		get, post := f.audit.access[2*i], f.audit.access[2*i+1]
		assert.Equal(t, fmt.Sprintf("/api/ruta-%03d", i), get.Path)
		assert.Equal(t, http.MethodGet, get.Method)
		assert.Equal(t, ua, get.UserAgent)
		assert.Equal(t, "/api/activations", post.Path)
		assert.Equal(t, http.MethodPost, post.Method)
		assert.Equal(t, ua, post.UserAgent)
		assert.Equal(t, ua, f.audit.activations[i].UserAgent)
	}
}
