// Package airtable is a minimal client for the two Airtable tables this
// service touches: the Contents table holding records to publish and the
// append-only Logs table. Field names are the fixed localized labels of
// the base and must not be changed here without changing the base itself.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.airtable.com/v0"
	defaultTimeout = 30 * time.Second

	// TableContents holds the content records to publish.
	TableContents = "Contents"
	// TableLogs is the append-only audit log.
	TableLogs = "Logs"
)

// Localized field labels of the Contents table.
const (
	FieldStatus         = "發布狀態"
	FieldPostID         = "FB_Post_ID"
	FieldRejectReason   = "拒絕原因"
	FieldConfirmPublish = "確認發布"
)

// Status values of the 發布狀態 single-select field.
const (
	StatusPublished = "已發布"
	StatusScheduled = "已排程"
	StatusFailed    = "發布失敗"
)

// APIError is a non-2xx response from the Airtable API.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable returned status: %d", e.StatusCode)
}

// Attachment is one entry of an Airtable attachment field.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// ContentFields are the fields of one Contents record this service reads.
type ContentFields struct {
	Body          string       `json:"內容"`
	Platform      string       `json:"發布平台"`
	Attachments   []Attachment `json:"圖片預覽"`
	Status        string       `json:"發布狀態"`
	PostID        string       `json:"FB_Post_ID"`
	RejectReason  string       `json:"拒絕原因"`
	ScheduledDate string       `json:"排程日期"`
	ScheduledTime string       `json:"排程時間"`
}

// Record is one row of the Contents table.
type Record struct {
	ID     string        `json:"id"`
	Fields ContentFields `json:"fields"`
}

// LogEntry is one audit log row describing a publish attempt outcome.
type LogEntry struct {
	RecordID  string
	Platform  string
	Action    string
	PostID    string
	Error     string
	Timestamp time.Time
}

// Client talks to the Airtable REST API for a single base.
type Client struct {
	baseURL    string
	baseID     string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func NewClient(baseID, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		baseID:     baseID,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
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

// GetContentRecord reads one record from the Contents table by id.
func (c *Client) GetContentRecord(ctx context.Context, recordID string) (*Record, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%s", TableContents, recordID), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &record, nil
}

// UpdateContentRecord patches a subset of fields on one Contents record.
func (c *Client) UpdateContentRecord(ctx context.Context, recordID string, fields map[string]interface{}) error {
	resp, err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("%s/%s", TableContents, recordID),
		map[string]interface{}{"fields": fields})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// AppendLog appends one row to the Logs table.
func (c *Client) AppendLog(ctx context.Context, entry LogEntry) error {
	fields := map[string]interface{}{
		"Record ID": entry.RecordID,
		"Platform":  entry.Platform,
		"Action":    entry.Action,
		"Timestamp": entry.Timestamp.UTC().Format(time.RFC3339),
	}
	if entry.PostID != "" {
		fields["Post ID"] = entry.PostID
	}
	if entry.Error != "" {
		fields["Error"] = entry.Error
	}

	resp, err := c.doJSON(ctx, http.MethodPost, TableLogs, map[string]interface{}{"fields": fields})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, endpoint)

	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return resp, nil
}
