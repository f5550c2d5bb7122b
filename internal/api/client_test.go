package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api/apierror"
	"github.com/wttnguyen/draftolio/internal/drafts"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return ts
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, zerolog.Nop())
}

func TestStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(AuthStatus{
			Authenticated: true,
			Subject:       "summoner-1",
			CPID:          "NA1",
			Authorities:   []string{"ROLE_USER"},
		})
	}))

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Authenticated || status.CPID != "NA1" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestMeRejectsInvalidPayload(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing the required id/subject fields.
		w.Write([]byte(`{"active": true}`))
	}))

	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("expected validation error for payload missing required fields")
	}
}

func TestErrorClassification(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"session expired"}`))
	}))

	_, err := c.Me(context.Background())
	if !apierror.IsUnauthorized(err) {
		t.Fatalf("expected 401 classification, got %v", err)
	}
	if msg := apierror.UserMessage(err); msg != "session expired" {
		t.Errorf("expected backend message, got %q", msg)
	}
}

func TestNetworkErrorClassification(t *testing.T) {
	c := New("http://127.0.0.1:1", zerolog.Nop())

	_, err := c.Status(context.Background())
	if !apierror.IsNetwork(err) {
		t.Fatalf("expected network classification, got %v", err)
	}
}

func TestCreateDraftAttachesPlaceholderIdentity(t *testing.T) {
	var gotUserID string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Header.Get("X-User-Id")
		json.NewEncoder(w).Encode(drafts.Draft{
			ID:           "01J00000000000000000000000",
			BlueTeamName: "Alpha",
			RedTeamName:  "Beta",
			Status:       drafts.StatusCreated,
			Mode:         "TOURNAMENT",
			CreatedAt:    mustTime(t, "2025-06-01T12:00:00Z"),
		})
	}))
	c.SetUserIDProvider(func() string { return "placeholder-id" })

	draft, err := c.CreateDraft(context.Background(), drafts.CreateRequest{
		BlueTeamName: "Alpha",
		RedTeamName:  "Beta",
		Mode:         "TOURNAMENT",
	})
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}
	if gotUserID != "placeholder-id" {
		t.Errorf("expected X-User-Id header, got %q", gotUserID)
	}
	if draft.Status != drafts.StatusCreated {
		t.Errorf("expected CREATED status, got %s", draft.Status)
	}
}

func TestCreateDraftValidatesRequestLocally(t *testing.T) {
	called := false
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.CreateDraft(context.Background(), drafts.CreateRequest{
		BlueTeamName: "Alpha",
		// RedTeamName missing, Mode invalid.
		Mode: "RANKED",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Error("invalid request must not reach the backend")
	}
}

func TestSpectateFetchOmitsIdentity(t *testing.T) {
	var gotUserID string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Header.Get("X-User-Id")
		json.NewEncoder(w).Encode(drafts.Draft{
			ID:           "01J00000000000000000000001",
			BlueTeamName: "Alpha",
			RedTeamName:  "Beta",
			Status:       drafts.StatusInProgress,
			Mode:         "FEARLESS",
			CreatedAt:    mustTime(t, "2025-06-01T12:00:00Z"),
		})
	}))
	c.SetUserIDProvider(func() string { return "placeholder-id" })

	if _, err := c.GetDraftBySpectateToken(context.Background(), "tok"); err != nil {
		t.Fatalf("GetDraftBySpectateToken returned error: %v", err)
	}
	if gotUserID != "" {
		t.Errorf("spectate fetch must not carry X-User-Id, got %q", gotUserID)
	}
}
