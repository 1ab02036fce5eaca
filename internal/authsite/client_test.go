package authsite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/centlink/centlink/internal/config"
)

const loginPage = `<html><body><form method="post">
<input type="hidden" name="__RequestVerificationToken" value="tok-123"/>
<input name="Input.EmailOrUsername"/><input name="Input.Password" type="password"/>
</form></body></html>`

// newAuthServer simulates the account site: GET serves the login form, POST
// redirects to /dashboard on good credentials and back to the login page on
// bad ones.
func newAuthServer(t *testing.T, gets *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if gets != nil {
				atomic.AddInt32(gets, 1)
			}
			fmt.Fprint(w, loginPage)
			return
		}
		if r.FormValue("__RequestVerificationToken") != "tok-123" {
			http.Error(w, "bad token", http.StatusBadRequest)
			return
		}
		if r.FormValue("Input.Password") == "correct" {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "welcome")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(serverURL string) config.AuthSiteConfig {
	return config.AuthSiteConfig{
		BaseURL:  serverURL + "/",
		LoginURL: serverURL + "/login",
		Timeout:  5 * time.Second,
	}
}

func TestVerifySuccessOnRedirectAway(t *testing.T) {
	server := newAuthServer(t, nil)
	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	result, err := client.Verify(context.Background(), "alice", "correct")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if result != Verified {
		t.Errorf("expected Verified, got %v", result)
	}
}

func TestVerifyFailureOnLoginPageRedirect(t *testing.T) {
	server := newAuthServer(t, nil)
	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	result, err := client.Verify(context.Background(), "alice", "wrong")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if result != NotVerified {
		t.Errorf("expected NotVerified, got %v", result)
	}
}

func TestTokenCachedAcrossCalls(t *testing.T) {
	var gets int32
	server := newAuthServer(t, &gets)

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	// Successful logins redirect to /dashboard, so /login GETs below are
	// token fetches only.
	for i := 0; i < 2; i++ {
		if _, err := client.Verify(context.Background(), "alice", "correct"); err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
	}
	if n := atomic.LoadInt32(&gets); n != 1 {
		t.Errorf("expected 1 token fetch on a retained session, got %d", n)
	}

	// A fresh client re-acquires.
	fresh, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := fresh.Verify(context.Background(), "alice", "correct"); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if n := atomic.LoadInt32(&gets); n != 2 {
		t.Errorf("expected 2 token fetches across two sessions, got %d", n)
	}
}

func TestTokenMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>maintenance</body></html>")
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, err = client.Verify(context.Background(), "alice", "correct")
	if !errors.Is(err, ErrTokenMissing) {
		t.Errorf("expected ErrTokenMissing, got %v", err)
	}
}

func TestTokenFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, err = client.Verify(context.Background(), "alice", "correct")
	if !errors.Is(err, ErrTokenFetch) {
		t.Errorf("expected ErrTokenFetch, got %v", err)
	}
}

func TestSubmitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, loginPage)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, err = client.Verify(context.Background(), "alice", "correct")
	if !errors.Is(err, ErrSubmit) {
		t.Errorf("expected ErrSubmit, got %v", err)
	}
}
