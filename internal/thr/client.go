// Package thr talks to THR, the remote service that owns book content and
// teacher identities.
package thr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/sharedreader/internal/config"
)

const userAgent = "SharedReader/1.0"

// maxPayloadBytes caps how much of a THR response is read.
const maxPayloadBytes = 16 << 20

var (
	ErrUpstream     = errors.New("THR request failed")
	ErrBookNotFound = errors.New("book not found on THR")
	ErrRejected     = errors.New("THR rejected the login")
)

// Page is one page of a THR book.
type Page struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Book is the content returned by book-as-json.
type Book struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Pages  []Page `json:"pages"`

	// Raw is the payload exactly as received.
	Raw json.RawMessage `json:"-"`
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	sharedMarker string
}

func NewClient(cfg config.THR) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	marker := cfg.SharedMarker
	if marker == "" {
		marker = "2"
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		sharedMarker: marker,
	}
}

// FetchBook downloads a book by its THR slug.
func (c *Client) FetchBook(ctx context.Context, slug string) (*Book, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: empty slug", ErrBookNotFound)
	}

	body, status, err := c.get(ctx, "book-as-json", url.Values{"slug": {slug}})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, slug)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: book-as-json returned status %d", ErrUpstream, status)
	}

	var book Book
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("%w: decode book %s: %v", ErrUpstream, slug, err)
	}
	if len(book.Pages) == 0 {
		return nil, fmt.Errorf("%w: book %s has no pages", ErrUpstream, slug)
	}
	book.Raw = json.RawMessage(body)
	return &book, nil
}

// ValidateLogin asks THR whether token is a valid login for name with role.
func (c *Client) ValidateLogin(ctx context.Context, name, role, token string) error {
	body, status, err := c.get(ctx, "login", url.Values{
		"shared": {c.sharedMarker},
		"login":  {name},
		"role":   {role},
		"hash":   {token},
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: login returned status %d", ErrUpstream, status)
	}

	var resp struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: decode login response: %v", ErrUpstream, err)
	}
	if !resp.OK {
		return ErrRejected
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	target := c.baseURL + "/" + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read %s: %v", ErrUpstream, path, err)
	}
	return bytes.TrimSpace(body), resp.StatusCode, nil
}
