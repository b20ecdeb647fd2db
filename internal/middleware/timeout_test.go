package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeout_FastHandlerPassesThrough(t *testing.T) {
	handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec.Body.String() != "done" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestTimeout_SlowHandlerGets504(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	handler := Timeout(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		// block until after the middleware has already sent the 504
		<-release
		if _, err := w.Write([]byte("too late")); err != http.ErrHandlerTimeout {
			t.Errorf("expected ErrHandlerTimeout on late write, got %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// ServeHTTP has returned, so the 504 is written; now let the handler
	// attempt its late write
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("handler goroutine never finished")
	}

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"error":"gateway_timeout"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestTimeout_ResponseAlreadyStartedStands(t *testing.T) {
	finished := make(chan struct{})
	handler := Timeout(100*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("handler goroutine never finished")
	}

	// a started response cannot be replaced by the 504
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the handler's 200 to stand, got %d", rec.Code)
	}
	if rec.Body.String() != "partial" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
