package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifier_IssueAndVerify(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := v.Issue("u-1", "owner@hotel.test", "owner", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	s, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if s.UserID != "u-1" || s.Email != "owner@hotel.test" || s.Role != "owner" {
		t.Errorf("unexpected session %+v", s)
	}
	if s.ExpiresAt.IsZero() {
		t.Error("expected expiry to be set")
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("s3cret")
	expired := NewVerifier("s3cret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue("u-1", "", "", time.Hour)
	other, _ := NewVerifier("other").Issue("u-1", "", "", time.Hour)
	noSubject, _ := v.Issue("", "", "", time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}).SignedString([]byte("s3cret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", old},
		{"wrong secret", other},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifier_NoSecret(t *testing.T) {
	if _, err := NewVerifier("").Verify("x"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
	if _, err := NewVerifier("").Issue("u", "", "", time.Minute); !errors.Is(err, ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}

func TestMonitor_NotifiesOnChange(t *testing.T) {
	m := NewMonitor()
	var events []bool
	unsubscribe := m.Subscribe(func(_ Session, ok bool) { events = append(events, ok) })

	if m.Authenticated() {
		t.Fatal("new monitor should not be authenticated")
	}
	m.Observe(Session{UserID: "u-1"})
	m.Observe(Session{UserID: "u-1"})
	m.Observe(Session{UserID: "u-2"})
	m.SignOut()
	m.SignOut()

	if len(events) != 3 || !events[0] || !events[1] || events[2] {
		t.Fatalf("unexpected events %v", events)
	}
	s, ok := m.CurrentSession(context.Background())
	if ok || s.UserID != "" {
		t.Fatalf("expected signed out, got %+v", s)
	}

	unsubscribe()
	m.Observe(Session{UserID: "u-3"})
	if len(events) != 3 {
		t.Fatal("listener called after unsubscribe")
	}
	if !m.Authenticated() {
		t.Fatal("expected authenticated after Observe")
	}
}

func TestMonitor_ExpiredSessionSignsOut(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor()
	m.now = func() time.Time { return now }
	var events []bool
	m.Subscribe(func(_ Session, ok bool) { events = append(events, ok) })

	m.Observe(Session{UserID: "u-1", ExpiresAt: now.Add(time.Minute)})
	if !m.Authenticated() {
		t.Fatal("expected authenticated before expiry")
	}
	now = now.Add(time.Minute)
	if m.Authenticated() {
		t.Fatal("expected signed out at expiry")
	}
	if _, ok := m.CurrentSession(context.Background()); ok {
		t.Fatal("expired session still current")
	}
	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestMiddleware_RejectedTokenSignsOut(t *testing.T) {
	v := NewVerifier("s3cret")
	good, _ := v.Issue("u-1", "", "", time.Hour)
	m := NewMonitor()
	var signedOut bool
	m.Subscribe(func(_ Session, ok bool) { signedOut = !ok })
	h := Middleware(v, m, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, tok := range []string{good, "stale"} {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if m.Authenticated() || !signedOut {
		t.Fatalf("expected sign-out after rejected token, authenticated=%v", m.Authenticated())
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("s3cret")
	good, _ := v.Issue("u-1", "", "", time.Hour)

	var seen Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		required bool
		header   string
		want     int
		wantUser string
	}{
		{"optional without header", false, "", http.StatusNoContent, ""},
		{"required without header", true, "", http.StatusUnauthorized, ""},
		{"valid token", true, "Bearer " + good, http.StatusNoContent, "u-1"},
		{"lowercase scheme", true, "bearer " + good, http.StatusNoContent, "u-1"},
		{"bad scheme", false, "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", false, "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Session{}
			m := NewMonitor()
			h := Middleware(v, m, tt.required)(next)
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if seen.UserID != tt.wantUser {
				t.Errorf("session user = %q, want %q", seen.UserID, tt.wantUser)
			}
			if tt.wantUser != "" && !m.Authenticated() {
				t.Error("monitor should observe the verified session")
			}
		})
	}
}
