package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient("12345", "test-token",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
}

func TestPublishPhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/12345/photos") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		_ = r.ParseForm()
		if r.Form.Get("url") != "https://example.com/photo.jpg" {
			t.Errorf("unexpected url: %s", r.Form.Get("url"))
		}
		if r.Form.Get("caption") != "hello" {
			t.Errorf("unexpected caption: %s", r.Form.Get("caption"))
		}
		if r.Form.Get("access_token") != "test-token" {
			t.Errorf("unexpected access_token: %s", r.Form.Get("access_token"))
		}
		if r.Form.Get("published") != "" || r.Form.Get("scheduled_publish_time") != "" {
			t.Error("expected no scheduling params for immediate publish")
		}

		_ = json.NewEncoder(w).Encode(apiResponse{ID: "photo-post-1"})
	}))
	defer server.Close()

	id, err := newTestClient(server).PublishPhoto(context.Background(), "https://example.com/photo.jpg", "hello", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "photo-post-1" {
		t.Errorf("expected photo-post-1, got %s", id)
	}
}

func TestPublishPhotoScheduled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("published") != "false" {
			t.Errorf("expected published=false, got %q", r.Form.Get("published"))
		}
		if r.Form.Get("scheduled_publish_time") != "4102444800" {
			t.Errorf("unexpected scheduled_publish_time: %s", r.Form.Get("scheduled_publish_time"))
		}

		_ = json.NewEncoder(w).Encode(apiResponse{ID: "photo-post-2"})
	}))
	defer server.Close()

	id, err := newTestClient(server).PublishPhoto(context.Background(), "https://example.com/photo.jpg", "hello", 4102444800)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "photo-post-2" {
		t.Errorf("expected photo-post-2, got %s", id)
	}
}

func TestUploadUnpublishedPhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("published") != "false" {
			t.Errorf("expected published=false, got %q", r.Form.Get("published"))
		}
		if r.Form.Get("caption") != "" {
			t.Error("expected no caption on unpublished upload")
		}

		_ = json.NewEncoder(w).Encode(apiResponse{ID: "photo-77"})
	}))
	defer server.Close()

	id, err := newTestClient(server).UploadUnpublishedPhoto(context.Background(), "https://example.com/photo.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "photo-77" {
		t.Errorf("expected photo-77, got %s", id)
	}
}

func TestPublishFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/12345/feed") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		_ = r.ParseForm()
		if r.Form.Get("message") != "three photos" {
			t.Errorf("unexpected message: %s", r.Form.Get("message"))
		}

		var attached []map[string]string
		if err := json.Unmarshal([]byte(r.Form.Get("attached_media")), &attached); err != nil {
			t.Errorf("invalid attached_media: %v", err)
		}
		if len(attached) != 3 || attached[0]["media_fbid"] != "p1" || attached[2]["media_fbid"] != "p3" {
			t.Errorf("unexpected attached media: %v", attached)
		}

		_ = json.NewEncoder(w).Encode(apiResponse{ID: "feed-post-1"})
	}))
	defer server.Close()

	id, err := newTestClient(server).PublishFeed(context.Background(), "three photos", []string{"p1", "p2", "p3"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "feed-post-1" {
		t.Errorf("expected feed-post-1, got %s", id)
	}
}

func TestAPIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Graph API business errors arrive as 4xx with the error envelope.
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).PublishPhoto(context.Background(), "https://example.com/photo.jpg", "hello", 0)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Error() != "Invalid OAuth access token" {
		t.Errorf("expected the platform's message verbatim, got %q", apiErr.Error())
	}
	if apiErr.Code != 190 {
		t.Errorf("expected code 190, got %d", apiErr.Code)
	}
}

func TestMissingIDIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).PublishPhoto(context.Background(), "https://example.com/photo.jpg", "hello", 0)
	if err == nil {
		t.Fatal("expected error for response without id")
	}
	if !strings.Contains(err.Error(), "no id returned") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPermalink(t *testing.T) {
	if got := Permalink("123_456"); got != "https://www.facebook.com/123_456" {
		t.Errorf("unexpected permalink: %s", got)
	}
}
