// Package tei is a client for a Hugging Face text-embeddings-inference server.
// It provides sentence embeddings (/embed) and per-token embeddings
// (/embed_all) for BERTScore.
package tei

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/httpjson"
)

// Client calls a text-embeddings-inference server
type Client struct {
	conn        httpjson.Client
	keepSpecial bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.conn.HTTPClient = c
	}
}

// WithMaxRetries sets how often a request is retried on 429 and 5xx
// responses. Requests are not retried by default.
func WithMaxRetries(n uint64) Option {
	return func(cl *Client) {
		cl.conn.MaxRetries = n
	}
}

// WithSpecialTokens keeps the first and last token vectors returned by
// /embed_all, which are dropped by default.
func WithSpecialTokens() Option {
	return func(cl *Client) {
		cl.keepSpecial = true
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		conn: httpjson.Client{
			BaseURL:    baseURL,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
			Service:    "tei",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	Inputs    string `json:"inputs"`
	Truncate  bool   `json:"truncate"`
	Normalize *bool  `json:"normalize,omitempty"`
}

// Embed implements api.Embedder using /embed
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	normalize := false
	var out [][]float64
	if err := c.conn.Post(ctx, "/embed", embedRequest{Inputs: text, Truncate: true, Normalize: &normalize}, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, fmt.Errorf("empty embedding vector")
	}
	return out[0], nil
}

// EmbedTokens implements api.TokenEmbedder using /embed_all
func (c *Client) EmbedTokens(ctx context.Context, text string) ([][]float64, error) {
	var out [][][]float64
	if err := c.conn.Post(ctx, "/embed_all", embedRequest{Inputs: text, Truncate: true}, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no token embeddings returned")
	}

	tokens := out[0]
	if !c.keepSpecial {
		if len(tokens) < 2 {
			return nil, nil
		}
		tokens = tokens[1 : len(tokens)-1]
	}
	return tokens, nil
}

var (
	_ api.Embedder      = (*Client)(nil)
	_ api.TokenEmbedder = (*Client)(nil)
)
