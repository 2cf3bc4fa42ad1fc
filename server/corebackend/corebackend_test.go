package corebackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchable(t *testing.T) {
	require.True(t, Fetchable("/api/v1/kpis/branch/A?date=today"))
	require.True(t, Fetchable("/api/v1/tasks"))
	require.False(t, Fetchable("/chitchat"))
	require.False(t, Fetchable("/unknown"))
	require.False(t, Fetchable(""))
}

func TestFetchObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/kpis/branch/A", r.URL.Path)
		require.Equal(t, "today", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": [{"traffic_index": 0.8}], "Count": 1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Fetch(context.Background(), "/api/v1/kpis/branch/A?date=today")
	require.NoError(t, err)
	require.Equal(t, float64(1), got["Count"])
	require.Len(t, got["value"], 1)
}

func TestFetchWrapsNonObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1, 2, 3]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Fetch(context.Background(), "/api/v1/events")
	require.NoError(t, err)
	require.Len(t, got["value"], 3)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), "/api/v1/tasks")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestFetchNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), "/api/v1/tasks")
	require.Error(t, err)
}

func TestFetchRejectsSentinelPaths(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.Fetch(context.Background(), "/chitchat")
	require.Error(t, err)
}
