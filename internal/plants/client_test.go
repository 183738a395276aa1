package plants

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func noSleep(time.Duration) {}

func TestFetchUserPlantsSuccess(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"user_id":7,"name":"Tomato","type":"vegetable"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, withSleep(noSleep))
	got, err := c.FetchUserPlants(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Tomato" {
		t.Fatalf("unexpected plants: %+v", got)
	}
	if gotPath != "/api/plants" {
		t.Fatalf("expected path /api/plants, got %q", gotPath)
	}
	if gotQuery != "userId=7" {
		t.Fatalf("expected query userId=7, got %q", gotQuery)
	}
}

func TestFetchUserPlantsRetriesThenSucceeds(t *testing.T) {
	var calls int
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, withSleep(noSleep))
	plantsOut, err := c.FetchUserPlants(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plantsOut == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if gotPath != "/api/plants" || gotQuery != "userId=1" {
		t.Fatalf("expected /api/plants?userId=1, got %s?%s", gotPath, gotQuery)
	}
}

func TestFetchUserPlantsExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, withSleep(noSleep))
	_, err := c.FetchUserPlants(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 total attempts, got %d", calls)
	}
}

func TestFetchUserReturnsBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, withSleep(noSleep))
	_, err := c.FetchUser(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
}
