package transcoder

import (
	"context"
	"io"

	"github.com/guardian/videoflipper/common/models"
)

/**
schedules a deferred call of Submit or Check for a video
*/
type Scheduler interface {
	Enqueue(op models.TaskOperation, videoId int64) error
	//drops any pending tasks of this kind for the video. Returns how many were dropped
	Cancel(op models.TaskOperation, videoId int64) (int, error)
}

type StorageGateway interface {
	Exists(ctx context.Context, bucket string, key string) (bool, error)
	PutStream(ctx context.Context, bucket string, key string, content io.Reader) error
	SetPublic(ctx context.Context, bucket string, key string) error
}

type TranscoderGateway interface {
	CreateJob(ctx context.Context, spec *models.TranscodeJobSpec) (*models.JobResult, error)
	ReadJob(ctx context.Context, jobId string) (*models.JobResult, error)
}

/**
called once a record has been completed and saved
*/
type CompletionHook interface {
	OnProcessingComplete(rec *models.VideoRecord) error
}
