package awsclient

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/elastictranscoder"
	"github.com/aws/aws-sdk-go/service/elastictranscoder/elastictranscoderiface"
	"github.com/davecgh/go-spew/spew"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type ElasticTranscoder struct {
	client elastictranscoderiface.ElasticTranscoderAPI
}

func NewElasticTranscoder(sess *session.Session) *ElasticTranscoder {
	return &ElasticTranscoder{client: elastictranscoder.New(sess)}
}

func NewElasticTranscoderWithClient(client elastictranscoderiface.ElasticTranscoderAPI) *ElasticTranscoder {
	return &ElasticTranscoder{client: client}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return aws.String(value)
}

func buildCreateJobInput(spec *models.TranscodeJobSpec) *elastictranscoder.CreateJobInput {
	outputs := make([]*elastictranscoder.CreateJobOutput, len(spec.Outputs))
	for i, out := range spec.Outputs {
		outputs[i] = &elastictranscoder.CreateJobOutput{
			Key:              aws.String(out.Key),
			PresetId:         aws.String(out.PresetId),
			ThumbnailPattern: optionalString(out.ThumbnailPattern),
			SegmentDuration:  optionalString(out.SegmentDuration),
		}
	}

	input := &elastictranscoder.CreateJobInput{
		PipelineId: aws.String(spec.PipelineId),
		Input: &elastictranscoder.JobInput{
			Key: aws.String(spec.InputKey),
		},
		Outputs: outputs,
	}

	if spec.Playlist != nil {
		if len(spec.Playlist.OutputKeys) == 0 {
			log.Printf("WARNING: Playlist %s has no outputs, not requesting it", spec.Playlist.Name)
		} else {
			input.Playlists = []*elastictranscoder.CreateJobPlaylist{
				{
					Format:     aws.String(spec.Playlist.Format),
					Name:       aws.String(spec.Playlist.Name),
					OutputKeys: aws.StringSlice(spec.Playlist.OutputKeys),
				},
			}
		}
	}
	return input
}

func jobResultFromSdk(job *elastictranscoder.Job) (*models.JobResult, error) {
	if job == nil {
		return nil, errors.New("transcoder returned no job")
	}
	raw, convErr := models.ToRawMap(job)
	if convErr != nil {
		log.Printf("ERROR: Could not convert job description: %s. Offending data was %s", convErr, spew.Sdump(job))
		return nil, convErr
	}
	return models.JobResultFromMap(raw)
}

func (e *ElasticTranscoder) CreateJob(ctx context.Context, spec *models.TranscodeJobSpec) (*models.JobResult, error) {
	response, err := e.client.CreateJobWithContext(ctx, buildCreateJobInput(spec))
	if err != nil {
		log.Printf("ERROR: Could not create transcode job for %s: %s", spec.InputKey, err)
		return nil, err
	}
	return jobResultFromSdk(response.Job)
}

func (e *ElasticTranscoder) ReadJob(ctx context.Context, jobId string) (*models.JobResult, error) {
	response, err := e.client.ReadJobWithContext(ctx, &elastictranscoder.ReadJobInput{
		Id: aws.String(jobId),
	})
	if err != nil {
		log.Printf("ERROR: Could not read transcode job %s: %s", jobId, err)
		return nil, err
	}
	return jobResultFromSdk(response.Job)
}
