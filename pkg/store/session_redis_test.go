package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionStoreLifecycle(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Hour)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok || userID != "user-1" {
		t.Fatalf("lookup = %q ok=%v err=%v", userID, ok, err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expected deleted token to miss, ok=%v err=%v", ok, err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("deleting twice should be a no-op: %v", err)
	}
}

func TestRedisSessionStoreRevokeUserSessions(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Hour)

	a, _ := s.NewSession("user-1")
	b, _ := s.NewSession("user-1")
	other, _ := s.NewSession("user-2")
	if err := s.RevokeUserSessions("user-1", time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	for _, token := range []string{a, b} {
		if _, ok, _ := s.GetUserIDByToken(token); ok {
			t.Fatalf("token of revoked user still valid")
		}
	}
	if _, ok, _ := s.GetUserIDByToken(other); !ok {
		t.Fatalf("other user's token should survive")
	}
}

func TestRedisSessionStoreExpires(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Minute)
	token, _ := s.NewSession("user-1")
	redis.FastForward(2 * time.Minute)
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected session to expire")
	}
}
