package backendsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core"
)

// sentinel errors mapped from backend response codes
var (
	ErrUnauthorized = errors.New("backend: not authenticated")
	ErrForbidden    = errors.New("backend: permission denied")
	ErrNotFound     = errors.New("backend: not found")
)

type ctxKey string

const ctxBearerToken ctxKey = "bearerToken"

// NewContext returns a context carrying the caller's bearer token.
// Every client call forwards it to the backend; the backend is the security
// boundary, this client never caches or mints credentials.
func NewContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxBearerToken, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxBearerToken).(string)
	return token
}

// Client is a JSON client over the remote IESA backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  core.Logger
}

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Backend.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Backend.Timeout},
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) patch(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, in, out)
}

func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshaling request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return c.responseError(res, method, path)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, fmt.Sprintf("decoding %s %s response", method, path))
	}
	return nil
}

func (c *Client) responseError(res *http.Response, method, path string) error {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&payload)
	detail := payload.Detail
	if detail == "" {
		detail = payload.Error
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	if detail == "" {
		detail = res.Status
	}
	return errors.New(fmt.Sprintf("%s %s: %s", method, path, detail))
}
