// internal/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupride/convoy/pkg/core"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:5000", "secret123", 5*time.Second)

	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret123", c.apiKey)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestNew_TrimsTrailingSlashAndDefaultsTimeout(t *testing.T) {
	c := New("http://localhost:5000/", "", 0)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthcheck", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "", time.Second)
	assert.NoError(t, c.Healthcheck(context.Background()))
}

func TestHealthcheck_ServerDown(t *testing.T) {
	c := New("http://127.0.0.1:1", "", time.Second)
	err := c.Healthcheck(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "", time.Second)
	err := c.Healthcheck(context.Background())

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.Status)
}

func TestSync_SendsReportAndParsesLocations(t *testing.T) {
	var received map[string]any
	var apiKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/locations", r.URL.Path)
		apiKey = r.Header.Get("X-Api-Key")

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"locations":[
			{"id":"a","latitude":47.1,"longitude":8.5,"timestamp":"2026-05-01T08:00:00Z"},
			{"id":"b","latitude":-33.9,"longitude":151.2}
		]}`))
	}))
	defer server.Close()

	c := New(server.URL, "k3y", time.Second)
	set, err := c.Sync(context.Background(), core.Report{
		Device:   "dev-1",
		Position: &core.Coordinate{Latitude: 1.5, Longitude: 2.5},
	})
	require.NoError(t, err)

	assert.Equal(t, "k3y", apiKey)
	assert.Equal(t, "dev-1", received["device"])
	assert.Equal(t, 1.5, received["latitude"])
	assert.Equal(t, 2.5, received["longitude"])

	require.Len(t, set, 2)
	assert.Equal(t, 47.1, set["a"].Latitude)
	require.NotNil(t, set["a"].Timestamp)
	assert.Equal(t, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), *set["a"].Timestamp)
	assert.Nil(t, set["b"].Timestamp)
}

func TestSync_OmitsCoordinatesWithoutPosition(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		_, _ = w.Write([]byte(`{"locations":[]}`))
	}))
	defer server.Close()

	c := New(server.URL, "", time.Second)
	set, err := c.Sync(context.Background(), core.Report{Device: "dev-1"})
	require.NoError(t, err)
	assert.Empty(t, set)

	assert.Equal(t, map[string]any{"device": "dev-1"}, received)
}

func TestSync_DuplicateIdentifiersLastWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"locations":[
			{"id":"a","latitude":1,"longitude":1},
			{"id":"a","latitude":2,"longitude":2}
		]}`))
	}))
	defer server.Close()

	set, err := New(server.URL, "", time.Second).Sync(context.Background(), core.Report{Device: "d"})
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, 2.0, set["a"].Latitude)
}

func TestSync_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.Equal(t, http.StatusBadGateway, serverErr.Status)
				assert.Equal(t, "server", Reason(err))
			},
		},
		{name: "invalid json", status: http.StatusOK, body: `{"locations":`},
		{name: "missing locations", status: http.StatusOK, body: `{}`},
		{name: "missing id", status: http.StatusOK, body: `{"locations":[{"latitude":1,"longitude":1}]}`},
		{name: "missing latitude", status: http.StatusOK, body: `{"locations":[{"id":"a","longitude":1}]}`},
		{name: "latitude out of range", status: http.StatusOK, body: `{"locations":[{"id":"a","latitude":91,"longitude":1}]}`},
		{name: "longitude out of range", status: http.StatusOK, body: `{"locations":[{"id":"a","latitude":1,"longitude":-181}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			set, err := New(server.URL, "", time.Second).Sync(context.Background(), core.Report{Device: "d"})
			require.Error(t, err)
			assert.Nil(t, set)
			if tt.check != nil {
				tt.check(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, "malformed", Reason(err))
		})
	}
}

func TestSync_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(server.URL, "", 50*time.Millisecond).Sync(context.Background(), core.Report{Device: "d"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.Equal(t, "network", Reason(err))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "other", Reason(errors.New("boom")))
}
