// Package idtoken verifies RS256 ID tokens from an external identity provider
// (Google sign-in) against the provider's published JWKS.
package idtoken

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

	defaultLeeway       = 30 * time.Second
	defaultJWKSCacheTTL = time.Hour
)

// GoogleIssuers are the issuer values Google puts in ID tokens.
var GoogleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

var (
	ErrInvalidToken       = errors.New("invalid id token")
	ErrEmailNotVerified   = errors.New("id token email not verified")
	errUnknownKey         = errors.New("unknown token key")
	errNoUsableSigningKey = errors.New("jwks contains no usable rsa keys")
)

// Identity is the subset of ID-token claims the shop uses to build a profile.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type Config struct {
	JWKSURL string
	// Audience is the OAuth client id the token must be issued for.
	Audience   string
	Issuers    []string
	Leeway     time.Duration
	HTTPClient *http.Client
}

type claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verifier caches the JWKS until its Cache-Control max-age and refetches when a
// token names an unknown kid.
type Verifier struct {
	jwksURL    string
	audience   string
	issuers    []string
	leeway     time.Duration
	httpClient *http.Client

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	keysExpire time.Time
}

func NewVerifier(cfg Config) (*Verifier, error) {
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, errors.New("id token verifier requires audience")
	}
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		jwksURL = GoogleJWKSURL
	}
	issuers := cfg.Issuers
	if len(issuers) == 0 {
		issuers = GoogleIssuers
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Verifier{
		jwksURL:    jwksURL,
		audience:   audience,
		issuers:    issuers,
		leeway:     leeway,
		httpClient: client,
	}, nil
}

// Verify checks signature, issuer, audience and time claims and returns the identity.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	if v.keysExpired() {
		if err := v.refresh(ctx); err != nil {
			return Identity{}, err
		}
	}
	c, err := v.parse(token)
	if errors.Is(err, errUnknownKey) {
		if err := v.refresh(ctx); err != nil {
			return Identity{}, err
		}
		c, err = v.parse(token)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !v.trustedIssuer(c.Issuer) {
		return Identity{}, fmt.Errorf("%w: untrusted issuer %q", ErrInvalidToken, c.Issuer)
	}
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Email) == "" {
		return Identity{}, fmt.Errorf("%w: subject or email missing", ErrInvalidToken)
	}
	if c.EmailVerified != nil && !*c.EmailVerified {
		return Identity{}, ErrEmailNotVerified
	}
	return Identity{
		Subject: c.Subject,
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Name:    strings.TrimSpace(c.Name),
		Picture: strings.TrimSpace(c.Picture),
	}, nil
}

func (v *Verifier) parse(token string) (*claims, error) {
	c := &claims{}
	keys := v.snapshot()
	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[strings.TrimSpace(kid)]
		if !ok {
			return nil, errUnknownKey
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		if errors.Is(err, errUnknownKey) {
			return nil, errUnknownKey
		}
		return nil, err
	}
	return c, nil
}

func (v *Verifier) trustedIssuer(iss string) bool {
	for _, want := range v.issuers {
		if iss == want {
			return true
		}
	}
	return false
}

func (v *Verifier) keysExpired() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys == nil || time.Now().After(v.keysExpire)
}

func (v *Verifier) snapshot() map[string]*rsa.PublicKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		kid := strings.TrimSpace(k.Kid)
		if !strings.EqualFold(k.Kty, "RSA") || kid == "" {
			continue
		}
		pub, err := rsaPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[kid] = pub
	}
	if len(keys) == 0 {
		return errNoUsableSigningKey
	}

	ttl := maxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}
	v.mu.Lock()
	v.keys = keys
	v.keysExpire = time.Now().Add(ttl)
	v.mu.Unlock()
	return nil
}

func rsaPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 1 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		raw, ok := strings.CutPrefix(part, "max-age=")
		if !ok {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	return 0
}
