package tei

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/internal/httpjson"
)

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "no acute findings", req.Inputs)
		require.NotNil(t, req.Normalize)
		assert.False(t, *req.Normalize)

		_ = json.NewEncoder(w).Encode([][]float64{{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	vec, err := NewClient(srv.URL+"/").Embed(context.Background(), "no acute findings")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestClient_EmbedTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed_all", r.URL.Path)
		_ = json.NewEncoder(w).Encode([][][]float64{{{9, 9}, {1, 0}, {0, 1}, {8, 8}}})
	}))
	defer srv.Close()

	tokens, err := NewClient(srv.URL).EmbedTokens(context.Background(), "clear lungs")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, tokens)

	tokens, err = NewClient(srv.URL, WithSpecialTokens()).EmbedTokens(context.Background(), "clear lungs")
	require.NoError(t, err)
	assert.Len(t, tokens, 4)
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"error":"input too long","error_type":"Validation"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Embed(context.Background(), "x")
	require.Error(t, err)

	var statusErr *httpjson.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusErr.StatusCode)
	assert.Equal(t, "input too long", statusErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([][]float64{{1}})
	}))
	defer srv.Close()

	vec, err := NewClient(srv.URL, WithMaxRetries(2)).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ServerErrorIsFatalByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[[0.1, 0.2]]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Embed(context.Background(), "x")
	require.Error(t, err)
	var statusErr *httpjson.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, WithMaxRetries(0)).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
