package awsclient

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/elastictranscoder"
	"github.com/aws/aws-sdk-go/service/elastictranscoder/elastictranscoderiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/davecgh/go-spew/spew"
	"github.com/guardian/videoflipper/common/models"
)

type S3Mock struct {
	s3iface.S3API
	Existing  map[string]bool
	HeadErr   error
	AclInputs []*s3.PutObjectAclInput
}

func (m *S3Mock) HeadObjectWithContext(ctx aws.Context, input *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error) {
	if m.HeadErr != nil {
		return nil, m.HeadErr
	}
	if m.Existing[*input.Bucket+"/"+*input.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "request-id")
}

func (m *S3Mock) PutObjectAclWithContext(ctx aws.Context, input *s3.PutObjectAclInput, opts ...request.Option) (*s3.PutObjectAclOutput, error) {
	m.AclInputs = append(m.AclInputs, input)
	return &s3.PutObjectAclOutput{}, nil
}

type UploaderMock struct {
	Inputs  []*s3manager.UploadInput
	Content [][]byte
}

func (u *UploaderMock) Upload(input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return u.UploadWithContext(context.Background(), input, opts...)
}

func (u *UploaderMock) UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	content, err := ioutil.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	u.Inputs = append(u.Inputs, input)
	u.Content = append(u.Content, content)
	return &s3manager.UploadOutput{}, nil
}

func TestS3Exists(t *testing.T) {
	mock := &S3Mock{Existing: map[string]bool{"bucket/there.mp4": true}}
	storage := NewS3StorageWithClients(mock, &UploaderMock{})

	there, err := storage.Exists(context.Background(), "bucket", "there.mp4")
	if err != nil || !there {
		t.Errorf("expected there.mp4 to exist, got %t %v", there, err)
	}

	notThere, err := storage.Exists(context.Background(), "bucket", "missing.mp4")
	if err != nil || notThere {
		t.Errorf("a 404 should be reported as not existing, got %t %v", notThere, err)
	}

	mock.HeadErr = awserr.NewRequestFailure(awserr.New("Forbidden", "Forbidden", nil), 403, "request-id")
	_, forbiddenErr := storage.Exists(context.Background(), "bucket", "there.mp4")
	if forbiddenErr == nil {
		t.Error("a 403 should be reported as an error")
	}
}

func TestS3PutStreamSniffsContentType(t *testing.T) {
	uploader := &UploaderMock{}
	storage := NewS3StorageWithClients(&S3Mock{}, uploader)

	//ftyp box with an isom brand, enough for filetype to spot an mp4
	mp4Header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	content := append(mp4Header, bytes.Repeat([]byte{0x01}, 1024)...)

	err := storage.PutStream(context.Background(), "bucket", "lecture.mov", bytes.NewReader(content))
	if err != nil {
		t.Fatal("PutStream failed unexpectedly: ", err)
	}
	if len(uploader.Inputs) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploader.Inputs))
	}
	if *uploader.Inputs[0].ContentType != "video/mp4" {
		t.Errorf("expected sniffed content type video/mp4, got %s", *uploader.Inputs[0].ContentType)
	}
	if !bytes.Equal(uploader.Content[0], content) {
		t.Error("uploaded content was not the full source, sniffing must not consume it")
	}
}

func TestS3PutStreamFallsBackToExtension(t *testing.T) {
	uploader := &UploaderMock{}
	storage := NewS3StorageWithClients(&S3Mock{}, uploader)

	err := storage.PutStream(context.Background(), "bucket", "lecture.webm", strings.NewReader("short"))
	if err != nil {
		t.Fatal("PutStream failed unexpectedly: ", err)
	}
	if *uploader.Inputs[0].ContentType != "video/webm" {
		t.Errorf("expected content type from extension video/webm, got %s", *uploader.Inputs[0].ContentType)
	}
	if string(uploader.Content[0]) != "short" {
		t.Errorf("short content was not uploaded intact, got %s", string(uploader.Content[0]))
	}
}

func TestS3SetPublic(t *testing.T) {
	mock := &S3Mock{}
	storage := NewS3StorageWithClients(mock, &UploaderMock{})
	if err := storage.SetPublic(context.Background(), "bucket", "clip.mp4"); err != nil {
		t.Fatal("SetPublic failed unexpectedly: ", err)
	}
	if len(mock.AclInputs) != 1 || *mock.AclInputs[0].ACL != "public-read" || *mock.AclInputs[0].Key != "clip.mp4" {
		t.Errorf("wrong ACL request: %s", spew.Sdump(mock.AclInputs))
	}
}

type ElasticTranscoderMock struct {
	elastictranscoderiface.ElasticTranscoderAPI
	CreateInputs []*elastictranscoder.CreateJobInput
	ReadJobs     map[string]*elastictranscoder.Job
	ReadErr      error
}

func (m *ElasticTranscoderMock) CreateJobWithContext(ctx aws.Context, input *elastictranscoder.CreateJobInput, opts ...request.Option) (*elastictranscoder.CreateJobResponse, error) {
	m.CreateInputs = append(m.CreateInputs, input)
	return &elastictranscoder.CreateJobResponse{
		Job: &elastictranscoder.Job{
			Id:         aws.String("1351620000001-abcde"),
			Status:     aws.String("Submitted"),
			PipelineId: input.PipelineId,
		},
	}, nil
}

func (m *ElasticTranscoderMock) ReadJobWithContext(ctx aws.Context, input *elastictranscoder.ReadJobInput, opts ...request.Option) (*elastictranscoder.ReadJobOutput, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return &elastictranscoder.ReadJobOutput{Job: m.ReadJobs[*input.Id]}, nil
}

func TestElasticTranscoderCreateJob(t *testing.T) {
	mock := &ElasticTranscoderMock{}
	et := NewElasticTranscoderWithClient(mock)

	spec := &models.TranscodeJobSpec{
		PipelineId: "pipe-1",
		InputKey:   "clip.mov",
		Outputs: []models.OutputSpec{
			{Key: "clip-720p.mp4", PresetId: "A", ThumbnailPattern: "clip-{count}"},
			{Key: "clip-hls2m", PresetId: "B", SegmentDuration: "10"},
		},
		Playlist: &models.PlaylistSpec{Format: "HLSv3", Name: "clip", OutputKeys: []string{"clip-hls2m"}},
	}

	result, err := et.CreateJob(context.Background(), spec)
	if err != nil {
		t.Fatal("CreateJob failed unexpectedly: ", err)
	}
	if result.Id != "1351620000001-abcde" || result.Raw["PipelineId"] != "pipe-1" {
		t.Errorf("wrong job result: %s", spew.Sdump(result))
	}

	input := mock.CreateInputs[0]
	if *input.Input.Key != "clip.mov" || *input.PipelineId != "pipe-1" {
		t.Errorf("wrong input: %s", spew.Sdump(input))
	}
	if *input.Outputs[0].ThumbnailPattern != "clip-{count}" || input.Outputs[0].SegmentDuration != nil {
		t.Errorf("first output wrong: %s", spew.Sdump(input.Outputs[0]))
	}
	if input.Outputs[1].ThumbnailPattern != nil || *input.Outputs[1].SegmentDuration != "10" {
		t.Errorf("second output wrong: %s", spew.Sdump(input.Outputs[1]))
	}
	if len(input.Playlists) != 1 || *input.Playlists[0].OutputKeys[0] != "clip-hls2m" {
		t.Errorf("playlist wrong: %s", spew.Sdump(input.Playlists))
	}
}

func TestElasticTranscoderEmptyPlaylistSkipped(t *testing.T) {
	input := buildCreateJobInput(&models.TranscodeJobSpec{
		PipelineId: "pipe-1",
		InputKey:   "clip.mov",
		Outputs:    []models.OutputSpec{{Key: "clip.mp4", PresetId: "A"}},
		Playlist:   &models.PlaylistSpec{Format: "HLSv3", Name: "clip"},
	})
	if len(input.Playlists) != 0 {
		t.Errorf("a playlist with no outputs should not be requested: %s", spew.Sdump(input.Playlists))
	}
}

func TestElasticTranscoderReadJob(t *testing.T) {
	mock := &ElasticTranscoderMock{ReadJobs: map[string]*elastictranscoder.Job{
		"job-1": {
			Id:     aws.String("job-1"),
			Status: aws.String("Complete"),
			Output: &elastictranscoder.JobOutput{Key: aws.String("clip-720p.mp4"), Duration: aws.Int64(93)},
			Outputs: []*elastictranscoder.JobOutput{
				{Key: aws.String("clip-720p.mp4"), PresetId: aws.String("A"), ThumbnailPattern: aws.String("clip-{count}"), Duration: aws.Int64(93)},
				{Key: aws.String("clip-hls2m"), PresetId: aws.String("B")},
			},
			Playlists: []*elastictranscoder.Playlist{{Name: aws.String("clip")}},
		},
	}}
	et := NewElasticTranscoderWithClient(mock)

	result, err := et.ReadJob(context.Background(), "job-1")
	if err != nil {
		t.Fatal("ReadJob failed unexpectedly: ", err)
	}
	if result.Status != "Complete" || len(result.Outputs) != 2 || len(result.Playlists) != 1 {
		t.Errorf("wrong job result: %s", spew.Sdump(result))
	}
	if result.Outputs[0].ThumbnailPattern != "clip-{count}" || result.Outputs[1].PresetId != "B" {
		t.Errorf("outputs decoded wrongly: %s", spew.Sdump(result.Outputs))
	}
	duration, found := models.IntAtPath(result.Raw, "Output.Duration")
	if !found || duration != 93 {
		t.Errorf("expected the raw job to carry Output.Duration 93, got %d", duration)
	}

	mock.ReadErr = errors.New("throttled")
	if _, readErr := et.ReadJob(context.Background(), "job-1"); readErr == nil {
		t.Error("expected a read failure to be passed back")
	}
}
