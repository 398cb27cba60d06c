// Package pipeline implements the publish workflow: fetch a content record,
// guard against duplicate publishes, resolve media URLs, compute the
// schedule, dispatch to the platform and write the outcome back.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"metabridge/internal/airtable"
	"metabridge/internal/meta"
	"metabridge/pkg/logging"
)

const (
	reasonNoImages     = "no images available"
	reasonUploadFailed = "failed to upload images"

	actionPublish  = "publish"
	actionSchedule = "schedule"

	platformFacebook = "Facebook"
)

// Config carries the pipeline's fixed parameters, built once at startup.
type Config struct {
	// Timezone is the fixed-offset zone schedule fields are entered in.
	Timezone *time.Location
	// MinLead is the minimum lead time a schedule must be in the future;
	// anything nearer falls back to an immediate publish.
	MinLead time.Duration
	// MaxImages caps how many photos one multi-image post may carry.
	MaxImages int
}

// Result is the outcome of processing one webhook trigger. It is returned
// verbatim as the response body.
type Result struct {
	RecordID string          `json:"record_id"`
	Skipped  bool            `json:"skipped,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Facebook *PublishOutcome `json:"facebook,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// PublishOutcome is the per-platform publish result.
type PublishOutcome struct {
	Success   bool   `json:"success"`
	PostID    string `json:"post_id,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Scheduled bool   `json:"scheduled,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Pipeline processes publish triggers end to end. One invocation handles
// one record synchronously; the idempotency guard is check-then-act, so
// two concurrent triggers for the same record can race past it. The
// content store offers no conditional update, so that stays an accepted
// limitation.
type Pipeline struct {
	store     ContentStore
	publisher Publisher
	cfg       Config
	logger    logging.Logger
}

func New(store ContentStore, publisher Publisher, cfg Config, logger logging.Logger) *Pipeline {
	if cfg.Timezone == nil {
		cfg.Timezone = time.FixedZone("UTC+8", 8*60*60)
	}
	if cfg.MinLead <= 0 {
		cfg.MinLead = 15 * time.Minute
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 10
	}
	return &Pipeline{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Process runs the full pipeline for one record id.
func (p *Pipeline) Process(ctx context.Context, recordID string) Result {
	result := Result{RecordID: recordID}

	record, err := p.store.GetContentRecord(ctx, recordID)
	if err != nil {
		p.logger.WithFields(logging.Fields{
			"record_id": recordID,
			"error":     err.Error(),
		}).Error("Failed to fetch content record")

		var apiErr *airtable.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			result.Error = "record not found"
		} else {
			result.Error = "failed to fetch record"
		}
		return result
	}

	if reason, skip := shouldSkip(record.Fields); skip {
		p.logger.WithFields(logging.Fields{
			"record_id": recordID,
			"reason":    reason,
		}).Info("Skipping already-processed record")
		result.Skipped = true
		result.Reason = reason
		return result
	}

	imageURLs := ResolveImageURLs(record.Fields.Attachments)
	if len(imageURLs) == 0 {
		p.writeFailure(ctx, recordID, record.Fields.Platform, reasonNoImages)
		result.Error = reasonNoImages
		return result
	}

	scheduledAt := ResolveSchedule(
		record.Fields.ScheduledDate,
		record.Fields.ScheduledTime,
		time.Now().In(p.cfg.Timezone),
		p.cfg.Timezone,
		p.cfg.MinLead,
	)

	platform := record.Fields.Platform
	if platform == "" {
		platform = platformFacebook
	}

	if !isFacebook(platform) {
		p.logger.WithFields(logging.Fields{
			"record_id": recordID,
			"platform":  platform,
		}).Warn("Record targets an unsupported platform; nothing dispatched")
		return result
	}

	outcome := p.publishToFacebook(ctx, record.Fields.Body, imageURLs, scheduledAt)
	result.Facebook = &outcome

	if outcome.Success {
		p.writeSuccess(ctx, recordID, platform, outcome)
	} else {
		p.writeFailure(ctx, recordID, platform, outcome.Error)
	}

	return result
}

// shouldSkip reports whether the record already carries a terminal publish
// state. This is the idempotency guard against retriggered automations.
func shouldSkip(fields airtable.ContentFields) (string, bool) {
	switch fields.Status {
	case airtable.StatusPublished:
		return "already published", true
	case airtable.StatusScheduled:
		return "already scheduled", true
	}
	if fields.PostID != "" {
		return "post id already recorded", true
	}
	return "", false
}

func isFacebook(platform string) bool {
	lower := strings.ToLower(platform)
	return strings.Contains(lower, "facebook") || strings.Contains(lower, "fb")
}

// publishToFacebook dispatches one or more photos to the page. A single
// image becomes one photo post; multiple images are uploaded unpublished
// and combined into one feed post.
func (p *Pipeline) publishToFacebook(ctx context.Context, caption string, imageURLs []string, scheduledAt int64) PublishOutcome {
	var postID string
	var err error

	if len(imageURLs) == 1 {
		postID, err = p.publisher.PublishPhoto(ctx, imageURLs[0], caption, scheduledAt)
	} else {
		postID, err = p.publishMultiPhoto(ctx, caption, imageURLs, scheduledAt)
	}

	if err != nil {
		return PublishOutcome{Success: false, Error: err.Error()}
	}

	return PublishOutcome{
		Success:   true,
		PostID:    postID,
		Permalink: meta.Permalink(postID),
		Scheduled: scheduledAt > 0,
	}
}

func (p *Pipeline) publishMultiPhoto(ctx context.Context, caption string, imageURLs []string, scheduledAt int64) (string, error) {
	if len(imageURLs) > p.cfg.MaxImages {
		imageURLs = imageURLs[:p.cfg.MaxImages]
	}

	photoIDs := make([]string, 0, len(imageURLs))
	for _, imageURL := range imageURLs {
		photoID, err := p.publisher.UploadUnpublishedPhoto(ctx, imageURL)
		if err != nil {
			p.logger.WithFields(logging.Fields{
				"image_url": imageURL,
				"error":     err.Error(),
			}).Warn("Photo upload failed")
			continue
		}
		photoIDs = append(photoIDs, photoID)
	}

	if len(photoIDs) == 0 {
		return "", errors.New(reasonUploadFailed)
	}

	return p.publisher.PublishFeed(ctx, caption, photoIDs, scheduledAt)
}

// writeSuccess patches the record's terminal state and appends an audit
// row. Write-back failures are logged but do not change the publish
// outcome already achieved on the platform.
func (p *Pipeline) writeSuccess(ctx context.Context, recordID, platform string, outcome PublishOutcome) {
	status := airtable.StatusPublished
	action := actionPublish
	if outcome.Scheduled {
		status = airtable.StatusScheduled
		action = actionSchedule
	}

	fields := map[string]interface{}{
		airtable.FieldStatus: status,
		// Uncheck the automation trigger so the record is not re-run.
		airtable.FieldConfirmPublish: false,
		airtable.FieldPostID:         outcome.PostID,
	}
	if err := p.store.UpdateContentRecord(ctx, recordID, fields); err != nil {
		p.logger.WithFields(logging.Fields{
			"record_id": recordID,
			"error":     err.Error(),
		}).Error("Status write-back failed after successful publish")
	}

	p.appendLog(ctx, airtable.LogEntry{
		RecordID:  recordID,
		Platform:  platform,
		Action:    action,
		PostID:    outcome.PostID,
		Timestamp: time.Now(),
	})
}

func (p *Pipeline) writeFailure(ctx context.Context, recordID, platform, reason string) {
	fields := map[string]interface{}{
		airtable.FieldStatus:         airtable.StatusFailed,
		airtable.FieldConfirmPublish: false,
		airtable.FieldRejectReason:   reason,
	}
	if err := p.store.UpdateContentRecord(ctx, recordID, fields); err != nil {
		p.logger.WithFields(logging.Fields{
			"record_id": recordID,
			"error":     err.Error(),
		}).Error("Status write-back failed")
	}

	if platform == "" {
		platform = platformFacebook
	}
	p.appendLog(ctx, airtable.LogEntry{
		RecordID:  recordID,
		Platform:  platform,
		Action:    actionPublish,
		Error:     reason,
		Timestamp: time.Now(),
	})
}

// appendLog is best-effort: a failed audit append never fails the request.
func (p *Pipeline) appendLog(ctx context.Context, entry airtable.LogEntry) {
	if err := p.store.AppendLog(ctx, entry); err != nil {
		p.logger.WithFields(logging.Fields{
			"record_id": entry.RecordID,
			"error":     err.Error(),
		}).Warn("Audit log append failed")
	}
}
