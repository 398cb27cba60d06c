package pipeline

import (
	"testing"

	"metabridge/internal/airtable"
)

func TestDirectImageURLDriveRewrite(t *testing.T) {
	got := DirectImageURL("https://drive.google.com/file/d/1AbC_dEf/view?usp=sharing")
	want := "https://drive.google.com/uc?export=download&id=1AbC_dEf"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDirectImageURLDriveWithoutFileSegment(t *testing.T) {
	raw := "https://drive.google.com/drive/folders/xyz"
	if got := DirectImageURL(raw); got != raw {
		t.Fatalf("expected unrecognized drive URL unchanged, got %q", got)
	}
}

func TestDirectImageURLAirtableCDNPassThrough(t *testing.T) {
	raw := "https://v5.airtableusercontent.com/v3/u/abc/def.jpg"
	if got := DirectImageURL(raw); got != raw {
		t.Fatalf("expected CDN URL unchanged, got %q", got)
	}
}

func TestDirectImageURLOtherPassThrough(t *testing.T) {
	raw := "https://example.com/image.png"
	if got := DirectImageURL(raw); got != raw {
		t.Fatalf("expected URL unchanged, got %q", got)
	}
}

func TestResolveImageURLsSkipsEmpty(t *testing.T) {
	urls := ResolveImageURLs([]airtable.Attachment{
		{URL: "https://example.com/a.jpg"},
		{URL: ""},
		{URL: "https://drive.google.com/file/d/id42/view"},
	})
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}
	if urls[1] != "https://drive.google.com/uc?export=download&id=id42" {
		t.Fatalf("expected rewritten drive URL, got %q", urls[1])
	}
}

func TestResolveImageURLsEmptyInput(t *testing.T) {
	if urls := ResolveImageURLs(nil); len(urls) != 0 {
		t.Fatalf("expected no urls, got %v", urls)
	}
}
