package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints tokens accepted by a Decoder sharing the same secret.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer copies secret.
func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	return &Issuer{
		secret: append([]byte(nil), secret...),
		issuer: buildOptions(opts).issuer,
		now:    time.Now,
	}, nil
}

// Issue signs a token for subject valid for ttl.
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be positive")
	}
	now := i.now()
	claims := &Claims{
		Scope: "control",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
