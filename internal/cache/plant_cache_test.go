package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"garden-alert-service/internal/models"
	"garden-alert-service/internal/plants"
)

func TestGetMissesOnAbsentEntry(t *testing.T) {
	c := NewPlantCache(plants.NewClient("http://unused"), nil)
	_, ok := c.Get(1)
	if ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestRefreshPopulatesThenGetFresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"user_id":5,"name":"Basil","type":"herb"}]`))
	}))
	defer srv.Close()

	c := NewPlantCache(plants.NewClient(srv.URL), nil)
	c.ttl = time.Hour

	if _, err := c.Refresh(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := c.Get(5)
	if !ok {
		t.Fatal("expected fresh hit after refresh")
	}
	if len(got) != 1 || got[0].Name != "Basil" {
		t.Fatalf("unexpected plants: %+v", got)
	}
}

func TestGetMissesOnStaleEntryEvenThoughRefreshFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPlantCache(plants.NewClient(srv.URL), nil)
	c.ttl = time.Hour
	c.entries[9] = entry{
		plants:    []models.Plant{{ID: 1, UserID: 9, Name: "Fern", Type: "default"}},
		fetchedAt: time.Now().Add(-2 * time.Hour),
	}

	if _, ok := c.Get(9); ok {
		t.Fatal("expected fresh Get to miss on a stale entry")
	}

	got, err := c.Refresh(context.Background(), 9)
	if err != nil {
		t.Fatalf("expected stale-fallback refresh to succeed, got: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected stale plants returned via fallback, got: %+v", got)
	}
}

func TestRefreshWithNoPriorEntryPropagatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPlantCache(plants.NewClient(srv.URL), nil)
	_, err := c.Refresh(context.Background(), 42)
	if err == nil {
		t.Fatal("expected error when no prior entry exists to fall back on")
	}
}
