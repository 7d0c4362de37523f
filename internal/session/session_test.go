package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("expected session cookie to be set")
	return nil
}

func TestSessionSaveAndGet(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, false)
	ctx := context.Background()

	req := httptest.NewRequest("GET", "/", nil)
	data, err := store.Load(ctx, req)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.ID != "" {
		t.Error("fresh session should not have an ID before Save")
	}

	data.CarouselIndex = 2
	w := httptest.NewRecorder()
	if err := store.Save(ctx, w, data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.Secure {
		t.Error("expected Secure=false for non-secure store")
	}
	if cookie.Value != data.ID {
		t.Errorf("cookie value %q != session id %q", cookie.Value, data.ID)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	got, err := store.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected session data, got nil")
	}
	if got.CarouselIndex != 2 {
		t.Errorf("CarouselIndex = %d, want 2", got.CarouselIndex)
	}
	if got.ID != data.ID {
		t.Errorf("ID = %q, want %q", got.ID, data.ID)
	}
}

func TestSessionSaveExistingDoesNotResetCookie(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, true)
	ctx := context.Background()

	data := &Data{}
	w := httptest.NewRecorder()
	if err := store.Save(ctx, w, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !sessionCookie(t, w).Secure {
		t.Error("expected Secure cookie for secure store")
	}

	w2 := httptest.NewRecorder()
	data.CarouselIndex = 1
	if err := store.Save(ctx, w2, data); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("saving an existing session should not set a new cookie")
	}
}

func TestSessionGetNoCookie(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, false)

	req := httptest.NewRequest("GET", "/", nil)
	data, err := store.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("Get (no cookie): %v", err)
	}
	if data != nil {
		t.Error("expected nil for request without session cookie")
	}
}

func TestSessionGetExpired(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, false)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "nonexistent-session-id"})

	data, err := store.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("Get (expired): %v", err)
	}
	if data != nil {
		t.Error("expected nil for expired/nonexistent session")
	}

	// Load falls back to a fresh session.
	fresh, err := store.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fresh == nil || fresh.ID != "" {
		t.Errorf("Load = %+v, want fresh session", fresh)
	}
}

func TestFlashesRoundTrip(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, false)
	ctx := context.Background()

	data := &Data{}
	data.AddFlash("error", "포스트를 찾을 수 없습니다")
	w := httptest.NewRecorder()
	if err := store.Save(ctx, w, data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(t, w))
	got, _ := store.Get(ctx, req)
	flashes := got.PopFlashes()
	if len(flashes) != 1 || flashes[0].Message != "포스트를 찾을 수 없습니다" {
		t.Fatalf("flashes = %+v", flashes)
	}
	if err := store.Save(ctx, httptest.NewRecorder(), got); err != nil {
		t.Fatalf("Save after pop: %v", err)
	}

	again, _ := store.Get(ctx, req)
	if len(again.Flashes) != 0 {
		t.Errorf("flashes should be consumed, got %+v", again.Flashes)
	}
}

func TestPopFlashesClears(t *testing.T) {
	d := &Data{}
	d.AddFlash("info", "a")
	d.AddFlash("error", "b")

	got := d.PopFlashes()
	if len(got) != 2 || got[0].Message != "a" || got[1].Level != "error" {
		t.Errorf("PopFlashes = %+v", got)
	}
	if len(d.PopFlashes()) != 0 {
		t.Error("second PopFlashes should be empty")
	}
}

func TestGenerateID(t *testing.T) {
	id1, err := generateID()
	if err != nil {
		t.Fatalf("generateID: %v", err)
	}
	id2, _ := generateID()

	if len(id1) != idLength*2 {
		t.Errorf("id length = %d, want %d", len(id1), idLength*2)
	}
	if id1 == id2 {
		t.Error("two generated IDs should differ")
	}
}
