package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// fakeSession is a programmable Session for exercising the chain.
type fakeSession struct {
	mu            sync.Mutex
	authenticated bool
	refreshErr    error
	refreshCalls  int
	onRefresh     func()
	handledErrs   []error
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeSession) RefreshToken(ctx context.Context) error {
	f.mu.Lock()
	f.refreshCalls++
	cb := f.onRefresh
	err := f.refreshErr
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
	return err
}

func (f *fakeSession) HandleAuthError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handledErrs = append(f.handledErrs, err)
}

func chainClient(t *testing.T, srv *httptest.Server, sess Session) *http.Client {
	t.Helper()

	chain := NewChain(nil, zerolog.Nop())
	if sess != nil {
		chain.BindSession(sess)
	}
	return &http.Client{Transport: chain}
}

func TestMarkerHeaderOnAuthenticatedRequests(t *testing.T) {
	var gotMarker string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMarker = r.Header.Get("X-Requested-With")
	}))
	defer srv.Close()

	client := chainClient(t, srv, &fakeSession{authenticated: true})
	resp, err := client.Get(srv.URL + "/api/v1/drafts/modes")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if gotMarker != "XMLHttpRequest" {
		t.Errorf("expected XHR marker header, got %q", gotMarker)
	}
}

func TestExemptPathsNeverGetAugmented(t *testing.T) {
	paths := []string{"/auth/login", "/auth/status", "/oauth2/callback", "/login/oauth2/code/rso"}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			var marker, csrf string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				marker = r.Header.Get("X-Requested-With")
				csrf = r.Header.Get("X-XSRF-TOKEN")
			}))
			defer srv.Close()

			client := chainClient(t, srv, &fakeSession{authenticated: true})
			req, _ := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader([]byte("{}")))
			req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if marker != "" {
				t.Errorf("exempt path %s got marker header %q", path, marker)
			}
			// OAuth paths are exempt from CSRF as well.
			if (path == "/oauth2/callback" || path == "/login/oauth2/code/rso") && csrf != "" {
				t.Errorf("oauth path %s got CSRF header %q", path, csrf)
			}
		})
	}
}

func TestCSRFPromotion(t *testing.T) {
	var gotCSRF string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get("X-XSRF-TOKEN")
		gotMethod = r.Method
	}))
	defer srv.Close()

	client := chainClient(t, srv, &fakeSession{authenticated: true})

	// POST with the cookie gets the header.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/drafts", bytes.NewReader([]byte("{}")))
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "csrf-val"})
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if gotCSRF != "csrf-val" || gotMethod != http.MethodPost {
		t.Errorf("expected CSRF header on POST, got %q (%s)", gotCSRF, gotMethod)
	}

	// GET never gets the header even with the cookie present.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/v1/drafts/abc", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "csrf-val"})
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if gotCSRF != "" {
		t.Errorf("GET must not carry CSRF header, got %q", gotCSRF)
	}

	// POST without the cookie proceeds without the header.
	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/api/v1/drafts", bytes.NewReader([]byte("{}")))
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if gotCSRF != "" {
		t.Errorf("missing cookie must mean missing header, got %q", gotCSRF)
	}
}

func TestRetryAfterRefreshSuccess(t *testing.T) {
	var mu sync.Mutex
	refreshed := false
	requests := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		requests++
		if !refreshed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sess := &fakeSession{authenticated: true}
	sess.onRefresh = func() {
		mu.Lock()
		refreshed = true
		mu.Unlock()
	}

	client := chainClient(t, srv, sess)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/drafts", bytes.NewReader([]byte(`{"blueTeamName":"Alpha"}`)))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected retried request to succeed, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("retry result not returned to caller: %q", body)
	}

	if sess.refreshCalls != 1 {
		t.Errorf("expected exactly one refresh, got %d", sess.refreshCalls)
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 2 {
		t.Errorf("expected original + one retry, got %d requests", requests)
	}
}

func TestNoRetryWhenRefreshFails(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := &fakeSession{authenticated: true, refreshErr: errors.New("refresh rejected")}
	client := chainClient(t, srv, sess)

	resp, err := client.Get(srv.URL + "/api/v1/drafts/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 to propagate, got %d", resp.StatusCode)
	}
	mu.Lock()
	if requests != 1 {
		t.Errorf("failed refresh must not retry, got %d requests", requests)
	}
	mu.Unlock()
	if sess.refreshCalls != 1 {
		t.Errorf("expected one refresh attempt, got %d", sess.refreshCalls)
	}
	if len(sess.handledErrs) != 1 {
		t.Errorf("refresh failure must be classified, got %d handled errors", len(sess.handledErrs))
	}
}

func TestNoRefreshWhenAlreadyUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := &fakeSession{authenticated: false}
	client := chainClient(t, srv, sess)

	resp, err := client.Get(srv.URL + "/api/v1/drafts/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if sess.refreshCalls != 0 {
		t.Errorf("unauthenticated caller must skip refresh, got %d calls", sess.refreshCalls)
	}
	if len(sess.handledErrs) != 1 {
		t.Errorf("401 must still be classified, got %d handled errors", len(sess.handledErrs))
	}
}

func TestRefreshEndpoint401DoesNotRecurse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := &fakeSession{authenticated: true}
	client := chainClient(t, srv, sess)

	resp, err := client.Post(srv.URL+"/auth/refresh", "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if sess.refreshCalls != 0 {
		t.Errorf("a 401 from the refresh endpoint must not trigger refresh, got %d calls", sess.refreshCalls)
	}
}

func TestRequestIDStamped(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	client := chainClient(t, srv, nil)
	resp, err := client.Get(srv.URL + "/api/v1/drafts/modes")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if len(gotID) != 26 {
		t.Errorf("expected a ULID request id, got %q", gotID)
	}
}
