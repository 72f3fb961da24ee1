package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	token, claims, err := jwt.Generate(secret, "almacen-api", "user-1", "ana@example.com", "bodeguero", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, claims.ID, "cada token lleva un jti propio")

	parsed, err := jwt.Parse(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, "user-1", parsed.Subject)
	assert.Equal(t, "ana@example.com", parsed.Email)
	assert.Equal(t, "bodeguero", parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestGenerate_DistinctTokenIDs(t *testing.T) {
	_, a, err := jwt.Generate(secret, "", "u", "u@example.com", "admin", time.Hour)
	require.NoError(t, err)
	_, b, err := jwt.Generate(secret, "", "u", "u@example.com", "admin", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParse_WrongSecret(t *testing.T) {
	token, _, err := jwt.Generate(secret, "", "u", "u@example.com", "admin", time.Hour)
	require.NoError(t, err)

	_, err = jwt.Parse("otra-clave", token)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	token, _, err := jwt.Generate(secret, "", "u", "u@example.com", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = jwt.Parse(secret, token)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, _, err := jwt.Generate("", "", "u", "u@example.com", "admin", time.Hour)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)

	_, err = jwt.Parse("", "x.y.z")
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}

func TestParse_Garbage(t *testing.T) {
	_, err := jwt.Parse(secret, "no-es-un-token")
	assert.Error(t, err)
}
