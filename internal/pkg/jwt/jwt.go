package jwt

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"
)

type Service interface {
	GenerateAccessToken(userID, employeeID string, role user.Role) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID, employeeID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (employeeID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	sseTokenExpiration    time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(cfg config.JWTConfig) (Service, error) {
	accessExp, err := time.ParseDuration(cfg.AccessExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration %q: %w", cfg.AccessExpiration, err)
	}
	sseExp, err := time.ParseDuration(cfg.SSEExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid SSE token expiration %q: %w", cfg.SSEExpiration, err)
	}

	return &JWTService{
		accessTokenExpiration: accessExp,
		sseTokenExpiration:    sseExp,
		tokenAuth:             jwtauth.New("HS256", []byte(cfg.Secret), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

// GenerateAccessToken issues an access token. Production tokens come from the
// HR platform's auth service; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(userID, employeeID string, role user.Role) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	}
	if employeeID != "" {
		claims["employee_id"] = employeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token bound to one employee's live stream
func (j *JWTService) GenerateSSEToken(userID, employeeID string) (token string, expiresIn int, err error) {
	expiresIn = int(j.sseTokenExpiration.Seconds())
	expiresAt := j.now().Add(j.sseTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":     userID,
		"employee_id": employeeID,
		"type":        TokenTypeSSE,
		"exp":         expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the employee it streams
func (j *JWTService) ValidateSSEToken(tokenString string) (employeeID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return "", jwt.ErrInvalidJWT()
	}

	employeeIDVal, ok := token.Get("employee_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	employeeID, ok = employeeIDVal.(string)
	if !ok || employeeID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return employeeID, nil
}
