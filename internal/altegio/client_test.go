package altegio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListStaff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/staff/42" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer partner, User user" {
			t.Errorf("authorization: got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.api.v2+json" {
			t.Errorf("accept: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[
			{"id":101,"name":"Olena","specialization":"Stylist","phone":"+380501112233","email":"o@example.com"},
			{"id":102,"name":"Iryna","specialization":"Colorist"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "42", "partner", "user", srv.Client())
	staff, err := c.ListStaff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(staff) != 2 {
		t.Fatalf("expected 2 staff, got %d", len(staff))
	}
	if staff[0].ID.String() != "101" || staff[0].Name != "Olena" {
		t.Errorf("unexpected first staff: %+v", staff[0])
	}
	if staff[1].Phone != "" {
		t.Errorf("missing phone should decode as empty, got %q", staff[1].Phone)
	}
}

func TestListStaff_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"meta":{"message":"Partner authentication error"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "42", "partner", "user", srv.Client())
	_, err := c.ListStaff(context.Background())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
}

func TestListStaff_NotConfigured(t *testing.T) {
	c := NewClient("http://unused", "", "partner", "user", nil)
	if _, err := c.ListStaff(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}
