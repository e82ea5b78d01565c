// Package omdb forwards catalog queries to the OMDb metadata API.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// ErrUnavailable is returned when the upstream cannot be reached, answers
// with a non-2xx status, or answers with something that is not JSON.
var ErrUnavailable = errors.New("omdb upstream unavailable")

// maxBodyBytes caps how much of an upstream response is relayed.
const maxBodyBytes = 4 << 20

// Response is a successful upstream answer relayed verbatim to the caller.
type Response struct {
	Body []byte
}

// Client issues GET requests against the OMDb API with an injected API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client with a bounded per-request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch forwards query to the upstream, overriding any client-supplied apikey.
func (c *Client) Fetch(ctx context.Context, query url.Values) (Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, oops.Code("OMDB_BAD_BASE_URL").Wrap(err))
	}
	params := url.Values{}
	for k, vs := range query {
		params[k] = append([]string(nil), vs...)
	}
	params.Set("apikey", c.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	if len(body) > maxBodyBytes {
		return Response{}, fmt.Errorf("%w: body exceeds %d bytes", ErrUnavailable, maxBodyBytes)
	}
	if !json.Valid(body) {
		return Response{}, fmt.Errorf("%w: non-JSON body", ErrUnavailable)
	}
	return Response{Body: body}, nil
}
