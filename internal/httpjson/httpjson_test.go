package httpjson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	c := &Client{BaseURL: srv.URL + "/v1/", Service: "test"}
	require.NoError(t, c.Post(context.Background(), "/things", map[string]string{"a": "b"}, &out))
	assert.True(t, out.OK)
}

func TestClient_StatusErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error field", body: `{"error": "boom"}`, want: "test /x: status 400: boom"},
		{name: "detail field", body: `{"detail": "bad input"}`, want: "test /x: status 400: bad input"},
		{name: "no body", body: ``, want: "test /x: status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := (&Client{BaseURL: srv.URL, Service: "test"}).Post(context.Background(), "/x", nil, &struct{}{})
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.EqualError(t, statusErr, tt.want)
		})
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := (&Client{BaseURL: srv.URL, MaxRetries: 5}).Post(ctx, "/slow", nil, &struct{}{})
	assert.Error(t, err)
}
