package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/toko-kasir/internal/common"
)

const (
	defaultAccessTTL = 12 * time.Hour
	defaultIssuer    = "toko-kasir"
	defaultAudience  = "toko-kasir-till"
)

var errInvalidCredentials = common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized, nil)

// Service authenticates the till operator and issues access tokens.
type Service struct {
	username     string
	passwordHash string
	secret       []byte
	accessTTL    time.Duration
	now          func() time.Time
	signer       jwa.SignatureAlgorithm
	validator    TokenValidator
	issuer       string
	audience     string
	clockSkew    time.Duration
}

// Config configures the auth service.
type Config struct {
	Username       string
	PasswordHash   string
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Operator     string    `json:"operator"`
	AccessToken  string    `json:"accessToken"`
	AccessExpiry time.Time `json:"expiresAt"`
}

// NewService validates cfg and fills in defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil, errors.New("auth: operator username is required")
	}
	if cfg.PasswordHash == "" {
		return nil, errors.New("auth: operator password hash is required")
	}
	if _, _, _, err := argon2id.DecodeHash(cfg.PasswordHash); err != nil {
		return nil, fmt.Errorf("auth: operator password hash: %w", err)
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		username:     username,
		passwordHash: cfg.PasswordHash,
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		now:          time.Now,
		signer:       jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			Role:      RoleOperator,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// HashPassword produces the argon2id hash expected in OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("auth: password must be at least 8 characters")
	}
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// Login checks the operator credentials and signs a fresh access token.
func (s *Service) Login(_ context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, errInvalidCredentials
	}
	// Always run the hash comparison so a wrong username costs the same.
	ok, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("compare password: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) != 1 || !ok {
		return LoginResult{}, errInvalidCredentials
	}

	token, expiry, err := s.signAccessToken(s.username)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{Operator: s.username, AccessToken: token, AccessExpiry: expiry}, nil
}

// ParseAccessToken validates an access token and returns the operator name.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", errors.New("auth: token must carry exactly one signature")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}

func (s *Service) signAccessToken(operator string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(operator).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(RoleClaim, RoleOperator).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
