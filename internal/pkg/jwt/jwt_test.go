package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiration: "1h",
		SSEExpiration:    "5m",
	})
	require.NoError(t, err)
	return svc.(*JWTService)
}

func TestNewJWTService_InvalidExpiration(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{Secret: "s", AccessExpiration: "soon", SSEExpiration: "5m"})
	assert.Error(t, err)

	_, err = NewJWTService(config.JWTConfig{Secret: "s", AccessExpiration: "1h", SSEExpiration: ""})
	assert.Error(t, err)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestService(t)
	before := time.Now()

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "EMP-1", user.RoleEmployee)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, expiresAt, before.Add(time.Hour).Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "EMP-1", claims["employee_id"])
	assert.Equal(t, "employee", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}

func TestGenerateAccessToken_WithoutEmployee(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.GenerateAccessToken("user-1", "", user.RoleOwner)
	require.NoError(t, err)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	_, ok := decoded.Get("employee_id")
	assert.False(t, ok)
}

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, expiresIn, err := svc.GenerateSSEToken("user-1", "EMP-7")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	employeeID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "EMP-7", employeeID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.GenerateAccessToken("user-1", "EMP-1", user.RoleEmployee)
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestValidateSSEToken_Expired(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.GenerateSSEToken("user-1", "EMP-1")
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestValidateSSEToken_WrongSecret(t *testing.T) {
	other, err := NewJWTService(config.JWTConfig{Secret: "other", AccessExpiration: "1h", SSEExpiration: "5m"})
	require.NoError(t, err)
	token, _, err := other.GenerateSSEToken("user-1", "EMP-1")
	require.NoError(t, err)

	_, err = newTestService(t).ValidateSSEToken(token)
	assert.Error(t, err)
}
