package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenExpired signals that the presented bearer token has expired.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid signals that the presented bearer token is invalid for other reasons.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// TokenVerifier verifies bearer tokens and extracts the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifierOptions tune claim extraction and standard-claim validation shared
// by the HS256 and JWKS verifiers.
type VerifierOptions struct {
	Issuer    string
	Audience  string
	RoleClaim string
}

func (o VerifierOptions) roleClaim() string {
	if strings.TrimSpace(o.RoleClaim) == "" {
		return "role"
	}
	return strings.TrimSpace(o.RoleClaim)
}

// HS256Verifier validates tokens signed with a shared HMAC secret. This is
// the scheme the identity service issues tokens with.
type HS256Verifier struct {
	secret []byte
	opts   VerifierOptions
}

// NewHS256Verifier constructs a shared-secret verifier.
func NewHS256Verifier(secret string, opts VerifierOptions) (*HS256Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	return &HS256Verifier{secret: []byte(secret), opts: opts}, nil
}

// Verify implements TokenVerifier.
func (v *HS256Verifier) Verify(_ context.Context, token string) (*Identity, error) {
	if v == nil {
		return nil, ErrTokenInvalid
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return identityFromClaims(claims, v.opts)
}

func identityFromClaims(claims jwt.MapClaims, opts VerifierOptions) (*Identity, error) {
	if issuer := strings.TrimSpace(opts.Issuer); issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrTokenInvalid)
	}
	if audience := strings.TrimSpace(opts.Audience); audience != "" && !claims.VerifyAudience(audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrTokenInvalid)
	}

	uid := stringClaim(claims, "sub")
	if uid == "" {
		// Some issuers put the user id in a non-standard claim.
		uid = stringClaim(claims, "id")
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}

	role := strings.ToLower(stringClaim(claims, opts.roleClaim()))
	if role == "" {
		role = RoleUser
	}

	return &Identity{
		UID:   uid,
		Email: stringClaim(claims, "email"),
		Name:  stringClaim(claims, "name"),
		Role:  role,
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if key == "" {
		return ""
	}
	value, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func classifyJWTError(err error) error {
	var validationErr *jwt.ValidationError
	if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
