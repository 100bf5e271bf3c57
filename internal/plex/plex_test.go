package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRefreshLibrary(t *testing.T) {
	t.Parallel()

	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("X-Plex-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok123", "2")
	if err := c.RefreshLibrary(context.Background()); err != nil {
		t.Fatalf("RefreshLibrary: %v", err)
	}
	if gotPath != "/library/sections/2/refresh" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotToken != "tok123" {
		t.Errorf("unexpected token %q", gotToken)
	}
}

func TestRefreshLibraryServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", "1")
	if err := c.RefreshLibrary(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestRefreshLibraryUnconfigured(t *testing.T) {
	t.Parallel()

	c := NewClient("", "", "")
	if c.Configured() {
		t.Error("empty client reports configured")
	}
	if err := c.RefreshLibrary(context.Background()); err != nil {
		t.Errorf("unconfigured refresh should be a no-op: %v", err)
	}
}
