package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

type tokenShape struct {
	issuer    string
	subject   string
	role      string
	notBefore time.Duration
	expiresIn time.Duration
}

func buildOperatorToken(t *testing.T, now time.Time, shape tokenShape) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer(shape.issuer).
		Audience([]string{"toko-kasir"}).
		IssuedAt(now).
		NotBefore(now.Add(shape.notBefore)).
		Expiration(now.Add(shape.expiresIn))
	if shape.subject != "" {
		b = b.Subject(shape.subject)
	}
	if shape.role != "" {
		b = b.Claim(RoleClaim, shape.role)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

func TestTokenValidator(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	validator := TokenValidator{
		Issuer:    "toko-kasir",
		Audience:  "toko-kasir",
		Role:      RoleOperator,
		ClockSkew: time.Second,
		Algorithm: jwa.HS256,
	}
	valid := tokenShape{issuer: "toko-kasir", subject: "kasir", role: RoleOperator, expiresIn: 15 * time.Minute}

	cases := []struct {
		name    string
		mutate  func(*tokenShape)
		alg     jwa.SignatureAlgorithm
		wantErr bool
	}{
		{name: "operator token", alg: jwa.HS256},
		{name: "foreign issuer", mutate: func(s *tokenShape) { s.issuer = "elsewhere" }, alg: jwa.HS256, wantErr: true},
		{name: "expired", mutate: func(s *tokenShape) { s.notBefore = -time.Hour; s.expiresIn = -time.Minute }, alg: jwa.HS256, wantErr: true},
		{name: "not yet valid", mutate: func(s *tokenShape) { s.notBefore = 5 * time.Minute; s.expiresIn = 10 * time.Minute }, alg: jwa.HS256, wantErr: true},
		{name: "wrong role", mutate: func(s *tokenShape) { s.role = "viewer" }, alg: jwa.HS256, wantErr: true},
		{name: "no role", mutate: func(s *tokenShape) { s.role = "" }, alg: jwa.HS256, wantErr: true},
		{name: "no subject", mutate: func(s *tokenShape) { s.subject = "" }, alg: jwa.HS256, wantErr: true},
		{name: "algorithm swap", alg: jwa.RS256, wantErr: true},
		{name: "algorithm missing", alg: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shape := valid
			if tc.mutate != nil {
				tc.mutate(&shape)
			}
			err := validator.Validate(buildOperatorToken(t, now, shape), tc.alg, now)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTokenValidatorRejectsNil(t *testing.T) {
	require.Error(t, TokenValidator{}.Validate(nil, jwa.HS256, time.Now()))
}
