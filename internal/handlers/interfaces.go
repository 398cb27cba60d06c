package handlers

import (
	"context"

	"metabridge/internal/pipeline"
)

type PublishPipeline interface {
	Process(ctx context.Context, recordID string) pipeline.Result
}
