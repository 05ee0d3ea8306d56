package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Harshitk-cp/opsconsole/internal/config"
)

var (
	// ErrTokenExpired indicates that the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken indicates that the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrAuthRequired indicates that authentication is required
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden indicates that the operator role may not change data
	ErrForbidden = errors.New("operator role not allowed")
)

// Operator roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

const tokenIssuer = "opsconsole"

// Claims represents JWT claims of an operator
type Claims struct {
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// CanMutate reports whether the operator may place orders and change stock
func (c *Claims) CanMutate() bool {
	return c.Role == RoleAdmin || c.Role == RoleOperator
}

// AuthService issues and validates operator tokens
type AuthService struct {
	config    config.AuthConfig
	jwtSecret []byte
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// Enabled reports whether mutating endpoints require a token
func (s *AuthService) Enabled() bool {
	return s.config.Enabled
}

// GenerateToken generates a new JWT token for an operator
func (s *AuthService) GenerateToken(operatorID, role string) (string, error) {
	if operatorID == "" {
		return "", fmt.Errorf("operator id is required")
	}

	now := time.Now()
	claims := &Claims{
		OperatorID: operatorID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   operatorID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.OperatorID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractTokenFromRequest extracts the bearer token from an HTTP request
func (s *AuthService) ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token, nil
		}
	}

	return "", ErrAuthRequired
}

// Authenticate extracts and validates the operator token of a request
func (s *AuthService) Authenticate(r *http.Request) (*Claims, error) {
	token, err := s.ExtractTokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	return s.ValidateToken(token)
}
