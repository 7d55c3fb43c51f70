package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/common/naming"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

const (
	STATUS_COMPLETE = "complete"
	STATUS_ERROR    = "error"
)

type Orchestrator struct {
	store      models.RecordStore
	scheduler  Scheduler
	storage    StorageGateway
	transcoder TranscoderGateway
	hook       CompletionHook
	logger     logrus.FieldLogger
	settings   Settings
}

func NewOrchestrator(store models.RecordStore, scheduler Scheduler, storage StorageGateway, transcoder TranscoderGateway, hook CompletionHook, logger logrus.FieldLogger, settings Settings) *Orchestrator {
	return &Orchestrator{
		store:      store,
		scheduler:  scheduler,
		storage:    storage,
		transcoder: transcoder,
		hook:       hook,
		logger:     logger,
		settings:   settings,
	}
}

func (o *Orchestrator) recordLogger(rec *models.VideoRecord) logrus.FieldLogger {
	return o.logger.WithFields(logrus.Fields{
		"videoId":    rec.Id,
		"sourcePath": o.settings.ResolveSource(rec.SourceFile),
	})
}

func (o *Orchestrator) findRecord(id int64) (*models.VideoRecord, error) {
	rec, err := o.store.FindByID(id)
	if err == models.ErrRecordNotFound {
		return nil, &NotFoundError{VideoId: id}
	} else if err != nil {
		return nil, fmt.Errorf("could not load video %d: %w", id, err)
	}
	return rec, nil
}

/**
move the record to a new state, giving an InvalidStateError if the state machine doesn't allow it
*/
func (o *Orchestrator) transition(rec *models.VideoRecord, to models.VideoState) error {
	from := rec.State
	if err := rec.TransitionTo(to); err != nil {
		return &InvalidStateError{VideoId: rec.Id, Reason: fmt.Sprintf("can't move from %s to %s", from, to)}
	}
	return nil
}

/**
queue another check after an error that may clear up, so the record is never left waiting with nothing polling it
*/
func (o *Orchestrator) requeueCheck(recLogger logrus.FieldLogger, id int64, cause error) error {
	if queueErr := o.scheduler.Enqueue(models.OP_CHECK, id); queueErr != nil {
		recLogger.Errorf("%s and the next check could not be queued: %s", cause, queueErr)
		return fmt.Errorf("%s, and the next check could not be queued: %w", cause, queueErr)
	}
	recLogger.Warnf("%s, checking again later", cause)
	return &RequeuedError{VideoId: id, Err: cause}
}

/**
to be called whenever a record has been written. If it has a source and has never been submitted, it is flagged as
submitted and a submit is scheduled. The flag is set through the store's check-and-set so only one caller ever
schedules. Returns true if this call scheduled the submit.
*/
func (o *Orchestrator) QueueIfNeeded(rec *models.VideoRecord) (bool, error) {
	if !rec.HasSource() || rec.Submitted {
		return false, nil
	}

	changed, markErr := o.store.MarkSubmitted(rec.Id)
	if markErr != nil {
		return false, fmt.Errorf("could not mark video %d as submitted: %w", rec.Id, markErr)
	}
	rec.Submitted = true
	if !changed {
		return false, nil
	}
	//mirrors what MarkSubmitted stored
	rec.State = models.STATE_SUBMITTED

	if err := o.scheduler.Enqueue(models.OP_SUBMIT, rec.Id); err != nil {
		o.recordLogger(rec).Errorf("Video was marked submitted but the submit task could not be queued: %s", err)
		return false, fmt.Errorf("could not queue submit for video %d: %w", rec.Id, err)
	}
	o.recordLogger(rec).Info("Queued for transcoding")
	return true, nil
}

/**
upload the source (unless an object with the same name is already there), create the transcode job, record it and
schedule the first check
*/
func (o *Orchestrator) Submit(ctx context.Context, id int64) error {
	rec, findErr := o.findRecord(id)
	if findErr != nil {
		return findErr
	}
	recLogger := o.recordLogger(rec)
	if rec.State != models.STATE_SUBMITTED {
		return &InvalidStateError{VideoId: id, Reason: fmt.Sprintf("can't submit while %s", rec.State)}
	}
	sourcePath := o.settings.ResolveSource(rec.SourceFile)
	inputKey := naming.BaseName(rec.SourceFile)

	alreadyThere, existsErr := o.storage.Exists(ctx, o.settings.SourceBucket, inputKey)
	if existsErr != nil {
		return fmt.Errorf("could not check for %s in %s: %w", inputKey, o.settings.SourceBucket, existsErr)
	}
	if alreadyThere {
		recLogger.Infof("%s is already in %s, not uploading again", inputKey, o.settings.SourceBucket)
	} else {
		if uploadErr := o.upload(ctx, sourcePath, inputKey); uploadErr != nil {
			return uploadErr
		}
	}

	spec := BuildJobSpec(o.settings, rec.SourceFile)
	job, createErr := o.transcoder.CreateJob(ctx, spec)
	if createErr != nil {
		recLogger.Errorf("Could not create transcode job: %s", createErr)
		return fmt.Errorf("could not create transcode job for video %d: %w", id, createErr)
	}

	if transErr := o.transition(rec, models.STATE_AWAITING_TRANSCODE); transErr != nil {
		recLogger.Errorf("Transcode job %s was created but the video can't take it: %s", job.Id, transErr)
		return transErr
	}
	rec.SetJobData(job.Raw)
	rec.CheckAttempts = 0
	rec.ErrorMessage = ""
	if persistErr := o.store.Persist(rec); persistErr != nil {
		recLogger.Errorf("Transcode job %s was created but could not be saved: %s", job.Id, persistErr)
		return fmt.Errorf("could not save job data for video %d: %w", id, persistErr)
	}

	recLogger.Infof("Submitted as transcode job %s", job.Id)
	return o.scheduler.Enqueue(models.OP_CHECK, id)
}

func (o *Orchestrator) upload(ctx context.Context, sourcePath string, inputKey string) error {
	f, openErr := os.Open(sourcePath)
	if openErr != nil {
		return fmt.Errorf("could not open source %s: %w", sourcePath, openErr)
	}
	defer f.Close()

	if putErr := o.storage.PutStream(ctx, o.settings.SourceBucket, inputKey, f); putErr != nil {
		return fmt.Errorf("could not upload %s to %s: %w", sourcePath, o.settings.SourceBucket, putErr)
	}
	return nil
}

/**
poll the transcoder for the record's job. Complete jobs are completed, errored jobs fail the record and anything else
schedules another check. If the transcoder or the store can't be reached the check is queued again without
counting as an attempt
*/
func (o *Orchestrator) Check(ctx context.Context, id int64) error {
	rec, findErr := o.findRecord(id)
	if findErr != nil {
		return findErr
	}
	if rec.State != models.STATE_AWAITING_TRANSCODE && rec.State != models.STATE_COMPLETE {
		return &InvalidStateError{VideoId: id, Reason: fmt.Sprintf("can't check while %s", rec.State)}
	}
	jobId := rec.JobId()
	if jobId == "" {
		return &InvalidStateError{VideoId: id, Reason: "no transcode job has been recorded"}
	}
	recLogger := o.recordLogger(rec).WithField("jobId", jobId)
	waiting := rec.State == models.STATE_AWAITING_TRANSCODE

	job, readErr := o.transcoder.ReadJob(ctx, jobId)
	if readErr != nil {
		cause := fmt.Errorf("could not read transcode job %s for video %d: %w", jobId, id, readErr)
		if waiting {
			return o.requeueCheck(recLogger, id, cause)
		}
		return cause
	}

	//a Caser keeps state, so one per call
	switch cases.Fold().String(job.Status) {
	case STATUS_COMPLETE:
		completeErr := o.Complete(ctx, rec, job)
		var notSaved *saveError
		if waiting && errors.As(completeErr, &notSaved) {
			return o.requeueCheck(recLogger, id, completeErr)
		}
		return completeErr
	case STATUS_ERROR:
		if transErr := o.transition(rec, models.STATE_FAILED); transErr != nil {
			return transErr
		}
		rec.SetJobData(job.Raw)
		rec.ErrorMessage = fmt.Sprintf("transcode job %s reported an error", jobId)
		if persistErr := o.store.Persist(rec); persistErr != nil {
			return o.requeueCheck(recLogger, id, fmt.Errorf("could not save failed state for video %d: %w", id, persistErr))
		}
		recLogger.Errorf("Transcode failed. Job data was %s", spew.Sdump(job.Raw))
		return &TranscodeFailedError{VideoId: id, SourcePath: o.settings.ResolveSource(rec.SourceFile), JobId: jobId}
	default:
		rec.CheckAttempts += 1
		if o.settings.MaxCheckAttempts > 0 && rec.CheckAttempts >= o.settings.MaxCheckAttempts {
			if transErr := o.transition(rec, models.STATE_STUCK); transErr != nil {
				return transErr
			}
			rec.ErrorMessage = fmt.Sprintf("job %s still %s after %d checks", jobId, job.Status, rec.CheckAttempts)
			if persistErr := o.store.Persist(rec); persistErr != nil {
				return o.requeueCheck(recLogger, id, fmt.Errorf("could not save stuck state for video %d: %w", id, persistErr))
			}
			recLogger.Errorf("Giving up on transcode, last status was %s", job.Status)
			return &StuckError{VideoId: id, SourcePath: o.settings.ResolveSource(rec.SourceFile), Attempts: rec.CheckAttempts}
		}

		if transErr := o.transition(rec, models.STATE_AWAITING_TRANSCODE); transErr != nil {
			return transErr
		}
		if persistErr := o.store.Persist(rec); persistErr != nil {
			return o.requeueCheck(recLogger, id, fmt.Errorf("could not save check count for video %d: %w", id, persistErr))
		}
		recLogger.Debugf("Job is %s, checking again later", job.Status)
		return o.scheduler.Enqueue(models.OP_CHECK, id)
	}
}

/**
record the job's artifacts on the video, make each one public and fire the completion hook.
Every artifact is overwritten, so running this twice for the same job gives the same result
*/
func (o *Orchestrator) Complete(ctx context.Context, rec *models.VideoRecord, job *models.JobResult) error {
	recLogger := o.recordLogger(rec)
	if transErr := o.transition(rec, models.STATE_COMPLETE); transErr != nil {
		return transErr
	}

	outputs := ExtractVideoOutputs(job, o.settings)
	duration := ExtractDuration(job, o.settings)
	thumbnail := ExtractThumbnail(job, o.settings)
	playlist := ExtractPlaylist(job, o.settings)

	rec.SetOutputs(outputs, playlist, thumbnail, duration)
	rec.SetJobData(job.Raw)
	rec.ErrorMessage = ""
	if persistErr := o.store.Persist(rec); persistErr != nil {
		recLogger.Errorf("Could not save outputs: %s", persistErr)
		return &saveError{err: fmt.Errorf("could not save outputs for video %d: %w", rec.Id, persistErr)}
	}

	toPublish := append([]string{}, outputs...)
	if playlist != "" {
		toPublish = append(toPublish, playlist)
	}
	if thumbnail != "" {
		toPublish = append(toPublish, thumbnail)
	}

	var firstErr error
	for _, key := range toPublish {
		if pubErr := o.Publish(ctx, key); pubErr != nil {
			recLogger.Errorf("Could not publish %s: %s", key, pubErr)
			if firstErr == nil {
				firstErr = pubErr
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("could not publish every artifact for video %d: %w", rec.Id, firstErr)
	}

	recLogger.Infof("Transcode complete with %d outputs", len(outputs))
	if o.hook != nil {
		if hookErr := o.hook.OnProcessingComplete(rec); hookErr != nil {
			recLogger.Warnf("Completion hook failed: %s", hookErr)
			return hookErr
		}
	}
	return nil
}

/**
make the given key in the output bucket public. A key that isn't there is skipped
*/
func (o *Orchestrator) Publish(ctx context.Context, key string) error {
	exists, existsErr := o.storage.Exists(ctx, o.settings.OutputBucket, key)
	if existsErr != nil {
		return fmt.Errorf("could not check for %s in %s: %w", key, o.settings.OutputBucket, existsErr)
	}
	if !exists {
		o.logger.Debugf("%s is not in %s, not publishing", key, o.settings.OutputBucket)
		return nil
	}
	return o.storage.SetPublic(ctx, o.settings.OutputBucket, key)
}

/**
operator resubmit: drop any pending tasks for the record, clear all job state and queue it again.
Works from any state, so a record left in flight by an outage can be recovered
*/
func (o *Orchestrator) Reset(id int64) (*models.VideoRecord, error) {
	rec, findErr := o.findRecord(id)
	if findErr != nil {
		return nil, findErr
	}
	if rec.State != models.STATE_NEW && !rec.State.CanTransitionTo(models.STATE_NEW) {
		return nil, &InvalidStateError{VideoId: id, Reason: fmt.Sprintf("can't resubmit while %s", rec.State)}
	}

	for _, op := range []models.TaskOperation{models.OP_SUBMIT, models.OP_CHECK} {
		dropped, cancelErr := o.scheduler.Cancel(op, id)
		if cancelErr != nil {
			return nil, fmt.Errorf("could not clear pending %s tasks for video %d: %w", op, id, cancelErr)
		}
		if dropped > 0 {
			o.recordLogger(rec).Infof("Dropped %d pending %s tasks before resubmitting", dropped, op)
		}
	}

	rec.Reset()
	if persistErr := o.store.Persist(rec); persistErr != nil {
		return nil, fmt.Errorf("could not reset video %d: %w", id, persistErr)
	}
	if _, queueErr := o.QueueIfNeeded(rec); queueErr != nil {
		return nil, queueErr
	}
	return rec, nil
}

func (o *Orchestrator) Settings() Settings {
	return o.settings
}
