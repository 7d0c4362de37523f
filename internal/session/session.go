// Package session provides Valkey-backed visitor sessions.
// Sessions are identified by a secure cookie and stored as JSON in Valkey
// with automatic TTL expiry. A visitor session carries per-visitor view
// state (the carousel position) and one-shot flash notices.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "eb_session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Flash is a notice shown once on the next rendered page.
type Flash struct {
	Level   string `json:"level"` // "info" or "error"
	Message string `json:"message"`
}

// Data holds the session payload stored in Valkey.
type Data struct {
	ID            string    `json:"-"`
	CarouselIndex int       `json:"carousel_index"`
	Flashes       []Flash   `json:"flashes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AddFlash queues a notice for the next render.
func (d *Data) AddFlash(level, message string) {
	d.Flashes = append(d.Flashes, Flash{Level: level, Message: message})
}

// PopFlashes returns the queued notices and clears them. The caller must
// save the session for the removal to persist.
func (d *Data) PopFlashes() []Flash {
	f := d.Flashes
	d.Flashes = nil
	return f
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure controls the cookie's Secure flag and should be true behind TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err == redis.Nil {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	data.ID = cookie.Value

	return &data, nil
}

// Load is like Get but returns a fresh, unsaved session when the visitor
// has none. The fresh session gets an ID on its first Save.
func (s *Store) Load(ctx context.Context, r *http.Request) (*Data, error) {
	data, err := s.Get(ctx, r)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = &Data{CreatedAt: time.Now()}
	}
	return data, nil
}

// Save writes the session to Valkey and resets its TTL. A session without
// an ID is assigned one and the cookie is set on the response.
func (s *Store) Save(ctx context.Context, w http.ResponseWriter, data *Data) error {
	if data.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("session create: %w", err)
		}
		data.ID = id
		if data.CreatedAt.IsZero() {
			data.CreatedAt = time.Now()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(s.ttl.Seconds()),
		})
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+data.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
