// Package auth decodes and issues the HS256 bearer tokens that guard
// privileged control-plane RPCs. The shared secret is injected once at
// construction and never changes afterwards.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnauthenticated is the parent of every token failure.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrMissing   = fmt.Errorf("%w: token missing", ErrUnauthenticated)
	ErrExpired   = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrMalformed = fmt.Errorf("%w: token malformed", ErrUnauthenticated)
	ErrInvalid   = fmt.Errorf("%w: token invalid", ErrUnauthenticated)
	ErrIssuer    = fmt.Errorf("%w: unexpected issuer", ErrUnauthenticated)
)

const defaultCacheSize = 1024

// Claims carried by control-plane tokens.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

type options struct {
	issuer string
}

// Option configures a Decoder or an Issuer.
type Option func(*options)

// WithIssuer names the token issuer. An Issuer stamps it into the iss claim
// and a Decoder rejects tokens carrying any other value.
func WithIssuer(issuer string) Option {
	return func(o *options) { o.issuer = issuer }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decoder validates tokens against a fixed secret and caches successful
// decodes until the token expires. Tokens without an exp claim are rejected.
type Decoder struct {
	secret []byte
	issuer string
	cache  *lru.Cache[string, *Claims]
	now    func() time.Time
}

// NewDecoder copies secret; later changes to the caller's slice have no effect.
func NewDecoder(secret []byte, cacheSize int, opts ...Option) (*Decoder, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *Claims](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		secret: append([]byte(nil), secret...),
		issuer: buildOptions(opts).issuer,
		cache:  cache,
		now:    time.Now,
	}, nil
}

// Decode returns the claims of a valid token. Every failure wraps
// ErrUnauthenticated; see ErrMissing and its siblings for the causes.
func (d *Decoder) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissing
	}
	key := cacheKey(token)
	if c, ok := d.cache.Get(key); ok {
		if c.ExpiresAt != nil && !d.now().Before(c.ExpiresAt.Time) {
			d.cache.Remove(key)
			return nil, ErrExpired
		}
		return c, nil
	}

	claims := &Claims{}
	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(d.now),
		jwt.WithExpirationRequired(),
	}
	if d.issuer != "" {
		popts = append(popts, jwt.WithIssuer(d.issuer))
	}
	tok, err := jwt.ParseWithClaims(token, claims, d.keyFunc, popts...)
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, ErrInvalid
	}
	d.cache.Add(key, claims)
	return claims, nil
}

func (d *Decoder) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return d.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}

// cacheKey avoids keeping raw tokens in memory longer than needed.
func cacheKey(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
