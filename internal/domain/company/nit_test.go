package company_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/company"
)

func TestVerificationDigit(t *testing.T) {
	cases := map[string]byte{
		"800197268": '4',
		"860034313": '7',
		"900000001": '2',
		"8001972":   '8',
	}
	for base, want := range cases {
		got, err := company.VerificationDigit(base)
		require.NoError(t, err, base)
		assert.Equal(t, want, got, base)
	}
}

func TestNormalizeNIT(t *testing.T) {
	got, err := company.NormalizeNIT("800.197.268-4")
	require.NoError(t, err)
	assert.Equal(t, "800197268", got, "el dígito de verificación se comprueba y se descarta")

	withoutDV, err := company.NormalizeNIT("800197268")
	require.NoError(t, err)
	assert.Equal(t, got, withoutDV)

	got, err = company.NormalizeNIT(" 900000001 ")
	require.NoError(t, err)
	assert.Equal(t, "900000001", got, "sin dígito de verificación no se exige")

	_, err = company.NormalizeNIT("800197268-5")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = company.NormalizeNIT("80019A268")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = company.NormalizeNIT("")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFormatNIT(t *testing.T) {
	assert.Equal(t, "800197268-4", company.FormatNIT("800197268"))
	assert.Equal(t, "abc", company.FormatNIT("abc"))
}
