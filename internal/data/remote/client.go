// Package remote talks to the workspace store and compile service over HTTP.
//
// The collaborator is a server-rendered web application: mutations are HTML
// forms guarded by a CSRF token, tree mutations answer with small JSON
// objects, and file and compile views answer with rendered markup.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/logging"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
)

const (
	maxBody         = 8 << 20
	csrfCookie      = "csrftoken"
	csrfHeader      = "X-CSRFToken"
	requestIDHeader = "X-Request-ID"
)

// Page is a rendered Source Document with the sections it was tagged with.
type Page struct {
	Document section.Document
	Sections []section.Section
}

// Client performs session requests against the remote collaborator.
// It is safe for concurrent use.
type Client struct {
	base       *url.URL
	http       *http.Client
	headers    map[string]string
	sourceName string
	docs       *lru.Cache[int, Page]
	log        zerolog.Logger
}

var _ session.Executor = (*Client)(nil)

// New builds a client for cfg that keeps up to documents rendered pages.
func New(cfg config.ServerConfig, documents int) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	docs, err := lru.New[int, Page](max(documents, 1))
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}

	return &Client{
		base:       base,
		http:       &http.Client{Jar: jar, Timeout: cfg.Timeout},
		headers:    cfg.Headers,
		sourceName: cfg.SourceName,
		docs:       docs,
		log:        logging.Component("remote"),
	}, nil
}

// Cached returns the cached page of a file, if any.
func (c *Client) Cached(fileID int) (Page, bool) {
	return c.docs.Get(fileID)
}

// Invalidate drops the cached page of a file so the next open refetches it.
func (c *Client) Invalidate(fileID int) {
	c.docs.Remove(fileID)
}

type reply struct {
	body        []byte
	contentType string
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (reply, error) {
	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return reply{}, fmt.Errorf("create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	id := logging.GetRequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set(requestIDHeader, id)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(csrfHeader, token)
		}
		req.Header.Set("Referer", c.base.String())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return reply{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close response body")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return reply{}, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.log.Debug().Ctx(ctx).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("exchange")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return reply{}, newStatusError(method, path, resp.StatusCode, data)
	}
	return reply{body: data, contentType: resp.Header.Get("Content-Type")}, nil
}

func (c *Client) get(ctx context.Context, path string) (reply, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

func (c *Client) postForm(ctx context.Context, path string, values url.Values) (reply, error) {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

// submit fetches the form served at path, fills it with values and posts it
// back to its action. Hidden inputs of the served form, such as the CSRF
// token, are carried over.
func (c *Client) submit(ctx context.Context, path string, values url.Values, upload *session.Upload) (reply, error) {
	page, err := c.get(ctx, path)
	if err != nil {
		return reply{}, err
	}
	f, err := parseForm(page.body)
	if err != nil {
		return reply{}, fmt.Errorf("form at %s: %w", path, err)
	}

	target := f.target(path)
	for k, vs := range values {
		f.values[k] = vs
	}
	if upload == nil {
		return c.postForm(ctx, target, f.values)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range f.values {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return reply{}, fmt.Errorf("write field %s: %w", k, err)
			}
		}
	}
	part, err := w.CreateFormFile(upload.Field, upload.Name)
	if err != nil {
		return reply{}, fmt.Errorf("attach %s: %w", upload.Name, err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return reply{}, fmt.Errorf("attach %s: %w", upload.Name, err)
	}
	if err := w.Close(); err != nil {
		return reply{}, fmt.Errorf("close multipart body: %w", err)
	}
	return c.do(ctx, http.MethodPost, target, &buf, w.FormDataContentType())
}

func (c *Client) csrfToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == csrfCookie {
			return ck.Value
		}
	}
	return ""
}
