package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryTokenRevokerUserCutoffMonotonic(t *testing.T) {
	r := NewMemoryTokenRevoker()
	first := time.Now().UTC().Add(-time.Minute)
	second := time.Now().UTC()

	if err := r.RevokeUser("user-1", first); err != nil {
		t.Fatalf("revoke user first: %v", err)
	}
	if err := r.RevokeUser("user-1", first.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke user older cutoff: %v", err)
	}
	got, err := r.RevokedAfter("user-1")
	if err != nil {
		t.Fatalf("revoked after first: %v", err)
	}
	if !got.Equal(first) {
		t.Fatalf("expected first cutoff to be kept, got %v", got)
	}

	if err := r.RevokeUser("user-1", second); err != nil {
		t.Fatalf("revoke user second: %v", err)
	}
	got, err = r.RevokedAfter("user-1")
	if err != nil {
		t.Fatalf("revoked after second: %v", err)
	}
	if !got.Equal(second) {
		t.Fatalf("expected newest cutoff, got %v", got)
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	redis := miniredis.RunT(t)
	r := NewRedisTokenRevoker(redis.Addr(), "", time.Hour)

	if err := r.Revoke("jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := r.IsRevoked("jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected jti-1 revoked, got %v err=%v", revoked, err)
	}
	revoked, err = r.IsRevoked("jti-2")
	if err != nil || revoked {
		t.Fatalf("expected jti-2 live, got %v err=%v", revoked, err)
	}

	redis.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked("jti-1")
	if err != nil || revoked {
		t.Fatalf("expected revocation to expire, got %v err=%v", revoked, err)
	}
}

func TestRedisTokenRevokerUserCutoffMonotonic(t *testing.T) {
	redis := miniredis.RunT(t)
	r := NewRedisTokenRevoker(redis.Addr(), "", time.Hour)

	cutoff := time.UnixMilli(time.Now().UTC().UnixMilli()).UTC()
	if err := r.RevokeUser("user-1", cutoff); err != nil {
		t.Fatalf("revoke user: %v", err)
	}
	if err := r.RevokeUser("user-1", cutoff.Add(-time.Hour)); err != nil {
		t.Fatalf("revoke user older: %v", err)
	}
	got, err := r.RevokedAfter("user-1")
	if err != nil {
		t.Fatalf("revoked after: %v", err)
	}
	if !got.Equal(cutoff) {
		t.Fatalf("cutoff = %v, want %v", got, cutoff)
	}
	none, err := r.RevokedAfter("user-2")
	if err != nil || !none.IsZero() {
		t.Fatalf("expected zero cutoff for unknown user, got %v err=%v", none, err)
	}
}
