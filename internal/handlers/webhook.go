package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"metabridge/internal/pipeline"
	"metabridge/pkg/logging"
)

// processTimeout bounds one full pipeline run: one record fetch, up to ten
// photo uploads and the write-back.
const processTimeout = 2 * time.Minute

type PublishRequest struct {
	RecordID string `json:"record_id"`
}

type WebhookHandler struct {
	pipeline PublishPipeline
	logger   logging.Logger
	metrics  *WebhookMetrics
}

func NewWebhookHandler(p PublishPipeline, logger logging.Logger, metrics *WebhookMetrics) *WebhookHandler {
	return &WebhookHandler{
		pipeline: p,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handle processes one publish trigger. Business-logic failures still
// return 200 with the failure embedded, so the triggering automation does
// not retry; only malformed requests get a 4xx.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var req PublishRequest
	// The original automation sends bodies that occasionally fail to parse;
	// treat those the same as an empty body.
	_ = c.ShouldBindJSON(&req)

	if strings.TrimSpace(req.RecordID) == "" {
		h.metrics.IncPublish("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing record_id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), processTimeout)
	defer cancel()

	result := h.pipeline.Process(ctx, req.RecordID)
	h.metrics.IncPublish(resultStatus(result))

	h.logger.WithFields(logging.Fields{
		"record_id": req.RecordID,
		"status":    resultStatus(result),
	}).Info("Publish trigger processed")

	c.JSON(http.StatusOK, result)
}

func resultStatus(result pipeline.Result) string {
	switch {
	case result.Skipped:
		return "skipped"
	case result.Error != "":
		return "failed"
	case result.Facebook == nil:
		return "no_dispatch"
	case !result.Facebook.Success:
		return "publish_failed"
	case result.Facebook.Scheduled:
		return "scheduled"
	default:
		return "published"
	}
}
