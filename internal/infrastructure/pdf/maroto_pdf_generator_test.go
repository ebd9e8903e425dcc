package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/pdf"
)

func TestRenderCertificate(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("es-CO")
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := license.Document{
		License: &entity.License{
			ID:            "lic-1",
			ActivationKey: "ABCDE-FGHIJ-KLMNO-PQRST",
			LicenseType:   entity.LicenseTypeSubscription,
			ExpiresAt:     &expires,
		},
		EffectiveStatus: entity.LicenseStatusPendingValidation,
		Client:          &entity.Client{Name: "Cliente SAS", NIT: "900123456"},
		Product:         &entity.Product{Name: "Contable", Version: "2.0", MaxUsers: 3, MaxDevices: 1},
		Issuer:          "Licencias",
		IssuedAt:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	out, err := g.RenderCertificate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")
}

func TestRenderCertificate_DocumentoIncompleto(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("es-CO")
	_, err := g.RenderCertificate(license.Document{})
	assert.Error(t, err)
}

func TestRenderStatement(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("es-CO")
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	st := &wallet.Statement{
		Wallet: &entity.CompanyWallet{CompanyID: "c1", Balance: decimal.NewFromInt(30)},
		From:   now.AddDate(0, -1, 0),
		To:     now,
		Totals: map[string]decimal.Decimal{
			entity.WalletTxRecharge:    decimal.NewFromInt(100),
			entity.WalletTxSpend:       decimal.NewFromInt(50),
			entity.WalletTxTransferOut: decimal.NewFromInt(20),
		},
		Entries: []*entity.WalletTransaction{
			{Type: entity.WalletTxRecharge, Amount: decimal.NewFromInt(100), BalanceAfter: decimal.NewFromInt(100), CreatedAt: now},
			{Type: entity.WalletTxSpend, Amount: decimal.NewFromInt(50), BalanceAfter: decimal.NewFromInt(50), CreatedAt: now},
		},
	}

	out, err := g.RenderStatement(st)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = g.RenderStatement(nil)
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("en")
	assert.Equal(t, "1,234.50", g.FormatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", g.FormatMoney(decimal.Zero))
}
