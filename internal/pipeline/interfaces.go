package pipeline

import (
	"context"

	"metabridge/internal/airtable"
)

// ContentStore reads and patches content records and appends audit rows.
type ContentStore interface {
	GetContentRecord(ctx context.Context, recordID string) (*airtable.Record, error)
	UpdateContentRecord(ctx context.Context, recordID string, fields map[string]interface{}) error
	AppendLog(ctx context.Context, entry airtable.LogEntry) error
}

// Publisher creates content on the target social platform.
type Publisher interface {
	PublishPhoto(ctx context.Context, imageURL, caption string, scheduledAt int64) (string, error)
	UploadUnpublishedPhoto(ctx context.Context, imageURL string) (string, error)
	PublishFeed(ctx context.Context, message string, photoIDs []string, scheduledAt int64) (string, error)
}
