package reservanto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("UserName") != "merchant" || r.PostFormValue("Password") != "tajneheslo" {
			http.Error(w, "wrong credentials", http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "session-1", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/Calendar/Feed", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("ASP.NET_SessionId")
		if err != nil || cookie.Value != "session-1" {
			http.Error(w, "not logged in", http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("rsIds") != "36459" {
			http.Error(w, "unexpected resource ids", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
			http.Error(w, "missing window", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"title":"Vstupní vyšetření","createdAt":"2025-01-01T08:00:00Z","start":"2025-01-02T10:00:00Z","end":"2025-01-02T11:00:00Z","bookingNote":"1/3","customerId":42,"customer":"Jana Nováková","customerContact":"+420 123 456 789","hasCustomerNote":true,"isFreeTime":false,"noShowStatus":0}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var (
	windowFrom = time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	windowTo   = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
)

func TestFetchVisits(t *testing.T) {
	srv := newPortal(t)
	client, err := NewClient("merchant", "tajneheslo", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raws, err := client.FetchVisits(context.Background(), windowFrom, windowTo)
	if err != nil {
		t.Fatalf("FetchVisits: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 row, got %d", len(raws))
	}
	if raws[0].Customer != "Jana Nováková" || raws[0].CustomerID != 42 {
		t.Fatalf("unexpected row: %+v", raws[0])
	}
	if raws[0].BookingNote != "1/3" {
		t.Fatalf("unexpected booking note: %q", raws[0].BookingNote)
	}
}

func TestLoginFailureSurfacesStatus(t *testing.T) {
	srv := newPortal(t)
	client, err := NewClient("merchant", "spatne", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Login(context.Background()); err == nil {
		t.Fatal("expected login error for wrong password")
	}
}

func TestFetchVisitsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Account/Login" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient("merchant", "tajneheslo", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.FetchVisits(context.Background(), windowFrom, windowTo); err == nil {
		t.Fatal("expected malformed payload error")
	}
}

func TestFetchVisitsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Account/Login" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "gone fishing", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient("merchant", "tajneheslo", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.FetchVisits(context.Background(), windowFrom, windowTo); err == nil {
		t.Fatal("expected transport error for non-200 feed response")
	}
}
