package nav

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func detailState(t *testing.T) State {
	t.Helper()
	st, err := New().SelectMode(ModeBrowse)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	st, err = st.ShowDetails(42)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	return st
}

func TestSessionStoresRoundTrip(t *testing.T) {
	redis := miniredis.RunT(t)
	cookie, err := NewCookieSessionStore("0123456789abcdef0123", time.Minute)
	if err != nil {
		t.Fatalf("cookie store: %v", err)
	}
	stores := map[string]SessionStore{
		"memory": NewMemorySessionStore(time.Minute),
		"redis":  NewRedisSessionStore(redis.Addr(), "", time.Minute),
		"cookie": cookie,
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := detailState(t)
			token, err := s.Save(ctx, "", want)
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if token == "" {
				t.Fatalf("expected token")
			}
			got, err := s.Load(ctx, token)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got != want {
				t.Fatalf("round trip: want %+v got %+v", want, got)
			}
			if back := got.Back(); back.Mode != ModeBrowse {
				t.Fatalf("back after reload lost mode: %+v", back)
			}
		})
	}
}

func TestSessionStoresUnknownTokenYieldsInitialState(t *testing.T) {
	redis := miniredis.RunT(t)
	cookie, err := NewCookieSessionStore("0123456789abcdef0123", time.Minute)
	if err != nil {
		t.Fatalf("cookie store: %v", err)
	}
	stores := map[string]SessionStore{
		"memory": NewMemorySessionStore(time.Minute),
		"redis":  NewRedisSessionStore(redis.Addr(), "", time.Minute),
		"cookie": cookie,
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "garbage", "6f1c0f7e-8a4f-4b8e-9b35-3f6f4d2d2e11"} {
				got, err := s.Load(context.Background(), token)
				if err != nil {
					t.Fatalf("load %q: %v", token, err)
				}
				if got != New() {
					t.Fatalf("load %q: expected initial state, got %+v", token, got)
				}
			}
		})
	}
}

func TestRedisSessionStoreExpires(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Minute)
	ctx := context.Background()

	token, err := s.Save(ctx, "", detailState(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !redis.Exists(redisKeyPrefix + token) {
		t.Fatalf("expected key %s", redisKeyPrefix+token)
	}
	redis.FastForward(2 * time.Minute)
	got, err := s.Load(ctx, token)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != New() {
		t.Fatalf("expected expired session to reset, got %+v", got)
	}
}

func TestRedisSessionStoreKeepsToken(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Minute)
	ctx := context.Background()

	token, err := s.Save(ctx, "", New())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := s.Save(ctx, token, detailState(t))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if again != token {
		t.Fatalf("expected token reuse, got %q then %q", token, again)
	}
}

func TestRedisSessionStoreUnavailable(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Minute)
	token, err := s.Save(context.Background(), "", New())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	redis.Close()
	if _, err := s.Load(context.Background(), token); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestCookieSessionStoreRejectsTampering(t *testing.T) {
	s, err := NewCookieSessionStore("0123456789abcdef0123", time.Minute)
	if err != nil {
		t.Fatalf("cookie store: %v", err)
	}
	other, err := NewCookieSessionStore("another-secret-of-enough-length", time.Minute)
	if err != nil {
		t.Fatalf("other store: %v", err)
	}
	ctx := context.Background()
	token, err := other.Save(ctx, "", detailState(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, token)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != New() {
		t.Fatalf("foreign signature accepted: %+v", got)
	}

	token, _ = s.Save(ctx, "", detailState(t))
	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "x"
	if got, _ := s.Load(ctx, strings.Join(parts, ".")); got != New() {
		t.Fatalf("tampered payload accepted: %+v", got)
	}
}

func TestCookieSessionStoreRequiresSecret(t *testing.T) {
	if _, err := NewCookieSessionStore("short", time.Minute); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}

func TestMemorySessionStoreExpires(t *testing.T) {
	s := NewMemorySessionStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()
	token, err := s.Save(ctx, "", detailState(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if got, _ := s.Load(ctx, token); got != New() {
		t.Fatalf("expected expiry, got %+v", got)
	}
}
