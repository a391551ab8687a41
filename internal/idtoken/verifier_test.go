package idtoken

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testClientID = "shop-client.apps.googleusercontent.com"

type jwksServer struct {
	mu     sync.Mutex
	active string
	keys   map[string]*rsa.PrivateKey
	hits   int
	srv    *httptest.Server
}

func newJWKSServer(t *testing.T, kids ...string) *jwksServer {
	t.Helper()
	s := &jwksServer{keys: map[string]*rsa.PrivateKey{}, active: kids[0]}
	for _, kid := range kids {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		s.keys[kid] = key
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hits++
		pub := s.keys[s.active].PublicKey
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": s.active,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *jwksServer) hitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *jwksServer) rotate(kid string) {
	s.mu.Lock()
	s.active = kid
	s.mu.Unlock()
}

func (s *jwksServer) sign(t *testing.T, kid string, mutate func(*claims)) string {
	t.Helper()
	now := time.Now()
	verified := true
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "google-123",
			Issuer:    "https://accounts.google.com",
			Audience:  jwt.ClaimStrings{testClientID},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:         "Ada@Example.com",
		EmailVerified: &verified,
		Name:          "Ada Obi",
		Picture:       "https://lh3.googleusercontent.com/a/ada",
	}
	if mutate != nil {
		mutate(&c)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(s.keys[kid])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func newTestVerifier(t *testing.T, s *jwksServer) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{JWKSURL: s.srv.URL, Audience: testClientID})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func TestNewVerifierRequiresAudience(t *testing.T) {
	if _, err := NewVerifier(Config{JWKSURL: "http://example"}); err == nil {
		t.Fatalf("expected missing audience to fail")
	}
}

func TestVerifyReturnsIdentity(t *testing.T) {
	s := newJWKSServer(t, "kid-1")
	v := newTestVerifier(t, s)

	id, err := v.Verify(context.Background(), s.sign(t, "kid-1", nil))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	want := Identity{Subject: "google-123", Email: "ada@example.com", Name: "Ada Obi", Picture: "https://lh3.googleusercontent.com/a/ada"}
	if id != want {
		t.Fatalf("identity = %+v, want %+v", id, want)
	}
	if _, err := v.Verify(context.Background(), s.sign(t, "kid-1", nil)); err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if hits := s.hitCount(); hits != 1 {
		t.Fatalf("jwks fetched %d times, want cached after first", hits)
	}
}

func TestVerifyRefreshesOnRotatedKey(t *testing.T) {
	s := newJWKSServer(t, "kid-1", "kid-2")
	v := newTestVerifier(t, s)
	if _, err := v.Verify(context.Background(), s.sign(t, "kid-1", nil)); err != nil {
		t.Fatalf("verify kid-1: %v", err)
	}
	s.rotate("kid-2")
	if _, err := v.Verify(context.Background(), s.sign(t, "kid-2", nil)); err != nil {
		t.Fatalf("verify after rotation: %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	s := newJWKSServer(t, "kid-1")
	v := newTestVerifier(t, s)
	unverified := false

	cases := map[string]func(*claims){
		"wrong audience": func(c *claims) { c.Audience = jwt.ClaimStrings{"someone-else"} },
		"foreign issuer": func(c *claims) { c.Issuer = "https://evil.example" },
		"expired": func(c *claims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			c.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
		},
		"future issued at": func(c *claims) { c.IssuedAt = jwt.NewNumericDate(time.Now().Add(10 * time.Minute)) },
		"missing email":    func(c *claims) { c.Email = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), s.sign(t, "kid-1", mutate))
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}

	_, err := v.Verify(context.Background(), s.sign(t, "kid-1", func(c *claims) { c.EmailVerified = &unverified }))
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("err = %v, want ErrEmailNotVerified", err)
	}
}

func TestMaxAge(t *testing.T) {
	if got := maxAge("public, max-age=120, must-revalidate"); got != 2*time.Minute {
		t.Fatalf("max-age = %s", got)
	}
	if got := maxAge("no-cache"); got != 0 {
		t.Fatalf("max-age = %s, want 0", got)
	}
}
