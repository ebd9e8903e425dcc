package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/pkg/jwt"
)

func TestGenerateParse(t *testing.T) {
	token, err := jwt.Generate("s3cret", "u1", "c1", "admin", "licencias-api", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("s3cret", "licencias-api", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "c1", claims.CompanyID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := jwt.Generate("s3cret", "u1", "c1", "admin", "licencias-api", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", "licencias-api", token)
	assert.Error(t, err, "firma incorrecta")

	_, err = jwt.Parse("s3cret", "otro-emisor", token)
	assert.Error(t, err, "emisor distinto")

	old, err := jwt.GenerateAt("s3cret", "u1", "c1", "admin", "licencias-api", 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = jwt.Parse("s3cret", "licencias-api", old)
	assert.Error(t, err, "expirado")

	_, err = jwt.Generate("", "u1", "c1", "admin", "x", 5)
	assert.Error(t, err)
}
