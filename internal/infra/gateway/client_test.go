// internal/infra/gateway/client_test.go
package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mintapp "storefront/internal/application/mint"
)

func TestRequestTokenStreamsUntilActive(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			n := atomic.AddInt32(&polls, 1)
			w.Header().Set("Content-Type", "application/json")
			if n < 3 {
				_, _ = w.Write([]byte(`{"state":"pending"}`))
				return
			}
			_, _ = w.Write([]byte(`{"state":"active"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "CaptchaNet")
	c.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	statuses, err := c.RequestToken(ctx, "Wa11etAAAA")
	require.NoError(t, err)

	var seen []mintapp.GatewayStatus
	for st := range statuses {
		seen = append(seen, st)
	}

	require.NotEmpty(t, seen)
	assert.Equal(t, mintapp.GatewayNotRequested, seen[0])
	assert.Equal(t, mintapp.GatewayActive, seen[len(seen)-1])
}

func TestRequestTokenIssuanceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "CaptchaNet")

	_, err := c.RequestToken(context.Background(), "Wa11etAAAA")
	assert.Error(t, err)
}

func TestStatusMapping(t *testing.T) {
	state := "expired"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"state":"` + state + `"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "CaptchaNet")

	st, err := c.readStatus(context.Background(), "Wa11etAAAA")
	require.NoError(t, err)
	assert.Equal(t, mintapp.GatewayRefreshRequired, st)

	state = "something-new"
	st, err = c.readStatus(context.Background(), "Wa11etAAAA")
	require.NoError(t, err)
	assert.Equal(t, mintapp.GatewayUnknown, st)
}

func TestStatusNotFoundMeansNotRequested(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "CaptchaNet")

	st, err := c.readStatus(context.Background(), "Wa11etAAAA")
	require.NoError(t, err)
	assert.Equal(t, mintapp.GatewayNotRequested, st)
}
