// Package meta provides a client for the Meta Graph API endpoints used to
// publish page content: photo upload and feed post creation. Calls are
// form-encoded POSTs carrying the page access token. Each call is a single
// attempt with a fixed timeout; the Graph API reports business errors in
// the response envelope even on non-2xx statuses, so the body is always
// parsed before the HTTP status is considered.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v18.0"
	defaultTimeout = 60 * time.Second

	permalinkBase = "https://www.facebook.com/"
)

// APIError is a business error reported by the Graph API envelope.
// Error() returns the platform's own message so callers can surface it
// verbatim.
type APIError struct {
	Message   string
	Type      string
	Code      int
	FBTraceID string
}

func (e *APIError) Error() string {
	return e.Message
}

// apiResponse is the generic Graph API response envelope.
type apiResponse struct {
	ID    string  `json:"id"`
	Error *apiErr `json:"error,omitempty"`
}

type apiErr struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

// Client publishes photos and posts to a Facebook page.
type Client struct {
	httpClient  *http.Client
	pageID      string
	accessToken string
	baseURL     string
}

type Option func(*Client)

func NewClient(pageID, accessToken string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		pageID:      pageID,
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// PublishPhoto uploads a single photo with caption to the page.
// scheduledAt is a Unix timestamp for a scheduled publish, or 0 to publish
// immediately. Returns the created post id.
func (c *Client) PublishPhoto(ctx context.Context, imageURL, caption string, scheduledAt int64) (string, error) {
	params := url.Values{
		"url":     {imageURL},
		"caption": {caption},
	}
	applySchedule(params, scheduledAt)

	resp, err := c.postForm(ctx, fmt.Sprintf("/%s/photos", c.pageID), params)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UploadUnpublishedPhoto uploads a photo without publishing it, for use as
// attached media on a multi-photo feed post. Returns the photo id.
func (c *Client) UploadUnpublishedPhoto(ctx context.Context, imageURL string) (string, error) {
	params := url.Values{
		"url":       {imageURL},
		"published": {"false"},
	}

	resp, err := c.postForm(ctx, fmt.Sprintf("/%s/photos", c.pageID), params)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// PublishFeed creates one feed post referencing previously uploaded photo
// ids. scheduledAt behaves as in PublishPhoto. Returns the created post id.
func (c *Client) PublishFeed(ctx context.Context, message string, photoIDs []string, scheduledAt int64) (string, error) {
	attached := make([]map[string]string, 0, len(photoIDs))
	for _, id := range photoIDs {
		attached = append(attached, map[string]string{"media_fbid": id})
	}
	attachedJSON, err := json.Marshal(attached)
	if err != nil {
		return "", fmt.Errorf("encode attached media: %w", err)
	}

	params := url.Values{
		"message":        {message},
		"attached_media": {string(attachedJSON)},
	}
	applySchedule(params, scheduledAt)

	resp, err := c.postForm(ctx, fmt.Sprintf("/%s/feed", c.pageID), params)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Permalink derives the public URL of a published post.
func Permalink(postID string) string {
	return permalinkBase + postID
}

func applySchedule(params url.Values, scheduledAt int64) {
	if scheduledAt > 0 {
		params.Set("published", "false")
		params.Set("scheduled_publish_time", fmt.Sprintf("%d", scheduledAt))
	}
}

// postForm sends a form-encoded POST and decodes the Graph API envelope.
func (c *Client) postForm(ctx context.Context, endpoint string, params url.Values) (*apiResponse, error) {
	params.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w (body: %s)", err, truncate(string(body), 200))
	}

	if resp.Error != nil {
		return nil, &APIError{
			Message:   resp.Error.Message,
			Type:      resp.Error.Type,
			Code:      resp.Error.Code,
			FBTraceID: resp.Error.FBTraceID,
		}
	}

	if resp.ID == "" {
		return nil, fmt.Errorf("unexpected response: no id returned (body: %s)", truncate(string(body), 200))
	}

	return &resp, nil
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
