// Package github implements repositories.DocumentStore over the GitHub
// repository contents REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/ratelimit"

	"bookora/internal/domain"
	"bookora/internal/domain/repositories"
	"bookora/internal/repository/codec"
)

const defaultAPIURL = "https://api.github.com"

// Config holds the contents API settings
type Config struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string // empty uses the repository default branch
	APIURL  string
	RPS     int // outbound requests per second, <= 0 disables pacing
	Timeout time.Duration
}

// Client talks to /repos/{owner}/{repo}/contents. It performs no retries.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter ratelimit.Limiter
	logger  *slog.Logger
}

// contentResponse is the GET contents payload for a single file
type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
}

type writeRequest struct {
	Message string  `json:"message"`
	Content string  `json:"content"`
	SHA     *string `json:"sha,omitempty"`
	Branch  string  `json:"branch,omitempty"`
}

type deleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

type writeResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

// NewClient builds a contents API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	// ratelimit.New panics on a zero rate
	limiter := ratelimit.NewUnlimited()
	if cfg.RPS > 0 {
		limiter = ratelimit.New(cfg.RPS)
	}

	return &Client{
		cfg:     cfg,
		http:    rc,
		limiter: limiter,
		logger:  logger,
	}
}

// IsConfigured is true only when token, owner and repo are all present
func (c *Client) IsConfigured() bool {
	return c.cfg.Token != "" && c.cfg.Owner != "" && c.cfg.Repo != ""
}

// Read fetches a file. Large files whose content is not inlined are fetched
// again through the git blobs endpoint using the file sha.
func (c *Client) Read(ctx context.Context, path string) (*repositories.Document, error) {
	if !c.IsConfigured() {
		return nil, domain.ErrNotConfigured
	}

	var body contentResponse
	req := c.request(ctx).SetResult(&body)
	if c.cfg.Branch != "" {
		req.SetQueryParam("ref", c.cfg.Branch)
	}
	resp, err := req.Get(c.contentsURL(path))
	if err := c.check(resp, err, path); err != nil {
		return nil, err
	}

	if body.Type != "" && body.Type != "file" {
		return nil, &domain.TransportError{Status: resp.StatusCode(), Message: fmt.Sprintf("%s is a %s, not a file", path, body.Type)}
	}

	encoded := body.Content
	if body.Encoding == "none" || (encoded == "" && body.Size > 0) {
		c.logger.Debug("content not inlined, fetching blob", "path", path, "size", body.Size, "sha", body.SHA)
		encoded, err = c.readBlob(ctx, path, body.SHA)
		if err != nil {
			return nil, err
		}
	}

	content, err := codec.Decode(encoded)
	if err != nil {
		return nil, withPath(err, path)
	}
	return &repositories.Document{Content: []byte(content), SHA: body.SHA}, nil
}

func (c *Client) readBlob(ctx context.Context, path, sha string) (string, error) {
	var blob blobResponse
	resp, err := c.request(ctx).SetResult(&blob).Get(c.repoURL("git", "blobs", sha))
	if err := c.check(resp, err, path); err != nil {
		return "", err
	}
	if blob.Encoding != "" && blob.Encoding != "base64" {
		return codec.Encode(blob.Content), nil
	}
	return blob.Content, nil
}

// Write stores value as indented JSON. A nil sha creates the file.
// Returns the new file sha.
func (c *Client) Write(ctx context.Context, path string, value any, sha *string, message string) (string, error) {
	if !c.IsConfigured() {
		return "", domain.ErrNotConfigured
	}

	data, err := codec.Marshal(path, value)
	if err != nil {
		return "", err
	}

	var out writeResponse
	resp, err := c.request(ctx).
		SetBody(writeRequest{
			Message: message,
			Content: codec.EncodeBytes(data),
			SHA:     sha,
			Branch:  c.cfg.Branch,
		}).
		SetResult(&out).
		Put(c.contentsURL(path))
	if err := c.check(resp, err, path); err != nil {
		return "", err
	}

	c.logger.Debug("document written", "path", path, "sha", out.Content.SHA, "created", sha == nil)
	return out.Content.SHA, nil
}

// Remove deletes path if sha is its current version
func (c *Client) Remove(ctx context.Context, path string, sha string, message string) error {
	if !c.IsConfigured() {
		return domain.ErrNotConfigured
	}

	resp, err := c.request(ctx).
		SetBody(deleteRequest{Message: message, SHA: sha, Branch: c.cfg.Branch}).
		Delete(c.contentsURL(path))
	if err := c.check(resp, err, path); err != nil {
		return err
	}

	c.logger.Debug("document removed", "path", path)
	return nil
}

// List returns the entries of a directory
func (c *Client) List(ctx context.Context, path string) ([]repositories.Entry, error) {
	if !c.IsConfigured() {
		return nil, domain.ErrNotConfigured
	}

	var entries []repositories.Entry
	req := c.request(ctx).SetResult(&entries)
	if c.cfg.Branch != "" {
		req.SetQueryParam("ref", c.cfg.Branch)
	}
	resp, err := req.Get(c.contentsURL(path))
	if err := c.check(resp, err, path); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	c.limiter.Take()
	return c.http.R().SetContext(ctx).SetError(&apiError{})
}

func (c *Client) repoURL(parts ...string) string {
	segments := []string{"repos", url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo)}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return "/" + strings.Join(segments, "/")
}

func (c *Client) contentsURL(path string) string {
	escaped := make([]string, 0)
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			escaped = append(escaped, url.PathEscape(seg))
		}
	}
	return c.repoURL("contents") + "/" + strings.Join(escaped, "/")
}

// check maps transport failures and API statuses onto the domain taxonomy
func (c *Client) check(resp *resty.Response, err error, path string) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		var synErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &synErr) || errors.As(err, &typeErr) {
			return &domain.SerializationError{Path: path, Err: err}
		}
		return &domain.TransportError{Message: err.Error()}
	}

	switch status := resp.StatusCode(); {
	case resp.IsSuccess():
		return nil
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return &domain.ConflictError{
			Message:      fmt.Sprintf("stale version for %s: %s", path, errorMessage(resp)),
			ResourceType: "document",
			ResourceID:   path,
		}
	default:
		c.logger.Warn("contents api error", "path", path, "status", status, "message", errorMessage(resp))
		return &domain.TransportError{Status: status, Message: errorMessage(resp)}
	}
}

func errorMessage(resp *resty.Response) string {
	if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
		return e.Message
	}
	return resp.Status()
}

func withPath(err error, path string) error {
	var serr *domain.SerializationError
	if errors.As(err, &serr) && serr.Path == "" {
		serr.Path = path
	}
	return err
}
