package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/session"
)

const flashCookie = "equipx_flash"

// CookieStore is a request-scoped [session.Store] backed by an HttpOnly cookie.
//
// Writes are applied to the response immediately and remembered so later
// loads in the same request see them.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	mu      sync.Mutex
	token   string
	written bool
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure}
}

func (s *CookieStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written {
		return s.token, nil
	}
	c, err := s.r.Cookie(session.TokenKey)
	if err != nil {
		return "", nil
	}
	return c.Value, nil
}

func (s *CookieStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.written = token, true

	c := s.cookie(token)
	if claims, err := session.Decode(token); err == nil {
		if exp := claims.Expiry(); !exp.IsZero() {
			c.Expires = exp
		}
	}
	http.SetCookie(s.w, c)
	return nil
}

func (s *CookieStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.written = "", true

	c := s.cookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(s.w, c)
	return nil
}

func (s *CookieStore) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     session.TokenKey,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

var _ session.Store = (*CookieStore)(nil)

type flash struct {
	Kind    notify.Kind `json:"type"`
	Message string      `json:"message"`
}

// setFlash queues toasts to show on the next rendered page.
func setFlash(w http.ResponseWriter, secure bool, ttl time.Duration, toasts ...flash) {
	if len(toasts) == 0 {
		return
	}
	data, err := json.Marshal(toasts)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   max(int(ttl.Seconds())*4, 10),
	})
}

// takeFlash reads and clears the pending toasts.
func takeFlash(w http.ResponseWriter, r *http.Request) []flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, Expires: time.Unix(0, 0)})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var out []flash
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
