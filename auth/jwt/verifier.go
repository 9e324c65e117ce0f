package jwt

import (
	"context"
	"errors"
	"fmt"

	"github.com/IA-UD-Tech/backend-boti/auth"
	getsafe "github.com/IA-UD-Tech/backend-boti/util/get_safe"
	"github.com/golang-jwt/jwt/v5"
)

type jwtVerifier struct {
	options auth.Options
	parser  *jwt.Parser
}

func (v *jwtVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	if len(token) == 0 {
		return auth.Identity{}, fmt.Errorf("%w: missing token", auth.ErrUnauthenticated)
	}

	claims := jwt.MapClaims{}

	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.options.Secret), nil
	})
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %w", auth.ErrUnauthenticated, err)
	}

	if !parsed.Valid {
		return auth.Identity{}, fmt.Errorf("%w: invalid token", auth.ErrUnauthenticated)
	}

	subject := getsafe.String(claims, "sub")
	if len(subject) == 0 {
		return auth.Identity{}, fmt.Errorf("%w: token has no subject", auth.ErrUnauthenticated)
	}

	return auth.Identity{
		Subject: subject,
		Roles:   getsafe.Strings(claims, "roles"),
	}, nil
}

func NewVerifier(opts ...auth.Option) (auth.Verifier, error) {
	options := auth.NewOptions(opts...)

	if len(options.Secret) == 0 {
		return nil, errors.New("jwt verifier: secret is required")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if len(options.Issuer) > 0 {
		parserOpts = append(parserOpts, jwt.WithIssuer(options.Issuer))
	}
	if len(options.Audience) > 0 {
		parserOpts = append(parserOpts, jwt.WithAudience(options.Audience))
	}

	v := &jwtVerifier{
		options: options,
		parser:  jwt.NewParser(parserOpts...),
	}

	return v, nil
}
