package pipeline

import (
	"strings"

	"metabridge/internal/airtable"
)

const driveDownloadURL = "https://drive.google.com/uc?export=download&id="

// ResolveImageURLs extracts directly fetchable image URLs from attachment
// descriptors. Airtable CDN URLs are already public; Google Drive share
// links are rewritten to their direct-download form; anything else passes
// through unchanged.
func ResolveImageURLs(attachments []airtable.Attachment) []string {
	urls := make([]string, 0, len(attachments))
	for _, att := range attachments {
		if att.URL == "" {
			continue
		}
		urls = append(urls, DirectImageURL(att.URL))
	}
	return urls
}

// DirectImageURL normalizes a single image URL.
func DirectImageURL(raw string) string {
	if strings.Contains(raw, "airtableusercontent.com") {
		return raw
	}
	if strings.Contains(raw, "drive.google.com") {
		return driveURLToDirect(raw)
	}
	return raw
}

// driveURLToDirect turns a Drive share link into a direct download link by
// extracting the file id from the /file/d/{id} path segment.
func driveURLToDirect(raw string) string {
	_, rest, found := strings.Cut(raw, "/file/d/")
	if !found {
		return raw
	}
	fileID, _, _ := strings.Cut(rest, "/")
	if fileID == "" {
		return raw
	}
	return driveDownloadURL + fileID
}
