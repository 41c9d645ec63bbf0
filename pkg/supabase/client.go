// Package supabase talks to a hosted Supabase project: PostgREST for the
// counters table and GoTrue for accounts.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pokecounter/pokecounter/pkg/whttp"
	"github.com/tidwall/gjson"
)

const DefaultTable = "pokemon_counters"

type Config struct {
	URL     string
	AnonKey string
	Table   string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	anonKey string
	table   string

	// reads may be retried; writes are sent once so a mutation is never
	// applied twice behind the caller's back.
	reads  *retryablehttp.Client
	writes *retryablehttp.Client
}

// APIError is a non-2xx answer from Supabase.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: HTTP %d", e.Status)
	}
	return e.Message
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("supabase url is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase anon key is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		anonKey: cfg.AnonKey,
		table:   table,
		reads:   whttp.NewClient(2, timeout),
		writes:  whttp.NewClient(0, timeout),
	}, nil
}

// do sends a request with the project headers. bearer falls back to the anon key.
func (c *Client) do(ctx context.Context, client *retryablehttp.Client, method, path, bearer string, body []byte, extra ...whttp.WHTTPHeader) (*whttp.WHTTPRes, error) {
	if bearer == "" {
		bearer = c.anonKey
	}
	headers := append([]whttp.WHTTPHeader{
		{Name: "apikey", Value: c.anonKey},
		{Name: "Authorization", Value: "Bearer " + bearer},
	}, extra...)

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		URL:     c.baseURL + path,
		Method:  method,
		Headers: headers,
		Body:    body,
	}, client)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, apiError(res)
	}
	return res, nil
}

func apiError(res *whttp.WHTTPRes) error {
	msg := ""
	if gjson.Valid(res.BodyString) {
		for _, path := range []string{"message", "error_description", "msg", "error"} {
			if v := gjson.Get(res.BodyString, path); v.Exists() && v.String() != "" {
				msg = v.String()
				break
			}
		}
	}
	if msg == "" && res.StatusCode == http.StatusUnauthorized {
		msg = "not authorized"
	}
	return &APIError{Status: res.StatusCode, Message: msg}
}
