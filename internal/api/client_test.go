package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_DecodesCaseInsensitively(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Clan/GetAllClans", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Write([]byte(`[{"GroupId": 7, "Name": "Alpha"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", time.Second, WithAPIKey("X-API-Key", "secret"))
	var out []struct {
		GroupID int64  `json:"groupId"`
		Name    string `json:"name"`
	}
	require.NoError(t, c.Get(context.Background(), "Clan/GetAllClans", &out))
	require.Len(t, out, 1)
	assert.EqualValues(t, 7, out[0].GroupID)
	assert.Equal(t, "Alpha", out[0].Name)
}

func TestGet_Non2xxIsErrStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out any
	err := NewClient(srv.URL, time.Second).Get(context.Background(), "Event/GetAllEvents", &out)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "502")
}

func TestGet_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(srv.URL, time.Second).Get(context.Background(), "x", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestGet_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`true`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bool
	assert.Error(t, NewClient(srv.URL, time.Second, WithRateLimit(1)).Get(ctx, "x", &out))
}
