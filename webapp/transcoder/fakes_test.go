package transcoder

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"sync"

	"github.com/guardian/videoflipper/common/models"
)

type scheduledTask struct {
	Op      models.TaskOperation
	VideoId int64
}

type SchedulerMock struct {
	mutex     sync.Mutex
	Scheduled []scheduledTask
	Err       error
}

func (s *SchedulerMock) Enqueue(op models.TaskOperation, videoId int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Scheduled = append(s.Scheduled, scheduledTask{op, videoId})
	return nil
}

func (s *SchedulerMock) Cancel(op models.TaskOperation, videoId int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	kept := make([]scheduledTask, 0, len(s.Scheduled))
	for _, t := range s.Scheduled {
		if t.Op != op || t.VideoId != videoId {
			kept = append(kept, t)
		}
	}
	removed := len(s.Scheduled) - len(kept)
	s.Scheduled = kept
	return removed, nil
}

func (s *SchedulerMock) CountOf(op models.TaskOperation) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	count := 0
	for _, t := range s.Scheduled {
		if t.Op == op {
			count++
		}
	}
	return count
}

type StorageMock struct {
	Objects    map[string]map[string][]byte
	Uploaded   []string
	Published  []string
	ExistsErr  error
	PublishErr error
}

func NewStorageMock() *StorageMock {
	return &StorageMock{Objects: map[string]map[string][]byte{}}
}

func (s *StorageMock) AddObject(bucket string, key string) {
	if s.Objects[bucket] == nil {
		s.Objects[bucket] = map[string][]byte{}
	}
	s.Objects[bucket][key] = []byte("content")
}

func (s *StorageMock) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}
	_, haveIt := s.Objects[bucket][key]
	return haveIt, nil
}

func (s *StorageMock) PutStream(ctx context.Context, bucket string, key string, content io.Reader) error {
	data, readErr := ioutil.ReadAll(content)
	if readErr != nil {
		return readErr
	}
	if s.Objects[bucket] == nil {
		s.Objects[bucket] = map[string][]byte{}
	}
	s.Objects[bucket][key] = data
	s.Uploaded = append(s.Uploaded, bucket+"/"+key)
	return nil
}

func (s *StorageMock) SetPublic(ctx context.Context, bucket string, key string) error {
	if s.PublishErr != nil {
		return s.PublishErr
	}
	if _, haveIt := s.Objects[bucket][key]; !haveIt {
		return errors.New("SetPublic called on a missing object")
	}
	s.Published = append(s.Published, bucket+"/"+key)
	return nil
}

type TranscoderMock struct {
	Created   []*models.TranscodeJobSpec
	Jobs      map[string]map[string]interface{}
	NextJobId string
	CreateErr error
	ReadErr   error
}

func NewTranscoderMock() *TranscoderMock {
	return &TranscoderMock{Jobs: map[string]map[string]interface{}{}, NextJobId: "1351620000001-abcde"}
}

func (t *TranscoderMock) CreateJob(ctx context.Context, spec *models.TranscodeJobSpec) (*models.JobResult, error) {
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	t.Created = append(t.Created, spec)
	raw := map[string]interface{}{
		"Id":         t.NextJobId,
		"Status":     "Submitted",
		"PipelineId": spec.PipelineId,
	}
	t.Jobs[t.NextJobId] = raw
	return models.JobResultFromMap(raw)
}

func (t *TranscoderMock) ReadJob(ctx context.Context, jobId string) (*models.JobResult, error) {
	if t.ReadErr != nil {
		return nil, t.ReadErr
	}
	raw, haveIt := t.Jobs[jobId]
	if !haveIt {
		return nil, errors.New("no such job")
	}
	return models.JobResultFromMap(raw)
}

type HookMock struct {
	Called []int64
	Err    error
}

func (h *HookMock) OnProcessingComplete(rec *models.VideoRecord) error {
	h.Called = append(h.Called, rec.Id)
	return h.Err
}

/**
a RecordStore whose Persist can be made to fail
*/
type FlakyStore struct {
	models.RecordStore
	PersistErr error
}

func (s *FlakyStore) Persist(rec *models.VideoRecord) error {
	if s.PersistErr != nil {
		return s.PersistErr
	}
	return s.RecordStore.Persist(rec)
}
