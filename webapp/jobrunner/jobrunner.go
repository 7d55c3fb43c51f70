package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/webapp/transcoder"
	"github.com/sirupsen/logrus"
)

/**
the operations a queued task can call
*/
type Dispatcher interface {
	Submit(ctx context.Context, videoId int64) error
	Check(ctx context.Context, videoId int64) error
}

type TaskRunner struct {
	redisClient  redis.Cmdable
	dispatcher   Dispatcher
	logger       logrus.FieldLogger
	pollInterval time.Duration
	taskTimeout  time.Duration
	maxTasks     int
	shutdownChan chan bool
	doneChan     chan bool
}

/**
create a new TaskRunner. Call Start() to begin processing
*/
func NewTaskRunner(redisClient redis.Cmdable, dispatcher Dispatcher, logger logrus.FieldLogger, pollInterval time.Duration, taskTimeout time.Duration, maxTasks int) *TaskRunner {
	return &TaskRunner{
		redisClient:  redisClient,
		dispatcher:   dispatcher,
		logger:       logger,
		pollInterval: pollInterval,
		taskTimeout:  taskTimeout,
		maxTasks:     maxTasks,
		shutdownChan: make(chan bool),
		doneChan:     make(chan bool),
	}
}

func (r *TaskRunner) Start() {
	go r.requestProcessor()
}

/**
stop the processing loop, waiting for any tick in progress to finish
*/
func (r *TaskRunner) Stop() {
	close(r.shutdownChan)
	<-r.doneChan
}

/**
goroutine to process queued tasks
*/
func (r *TaskRunner) requestProcessor() {
	r.logger.Info("Started task runner")
	queuePollTicker := time.NewTicker(r.pollInterval)
	defer queuePollTicker.Stop()
	defer close(r.doneChan)

	for {
		select {
		case <-queuePollTicker.C:
			r.Tick(time.Now())
		case <-r.shutdownChan:
			r.logger.Info("Task runner shutting down")
			return
		}
	}
}

/**
one pass of the runner: promote deferred tasks that are due, then run ready tasks up to the per-tick limit.
Returns the number of tasks run
*/
func (r *TaskRunner) Tick(now time.Time) int {
	r.deferredQueueTick(now)
	return r.readyQueueTick()
}

func (r *TaskRunner) deferredQueueTick(now time.Time) {
	token, acquired, lockErr := models.SetQueueLock(r.redisClient, models.DEFERRED_QUEUE, r.pollInterval*5)
	if lockErr != nil {
		r.logger.Errorf("Could not lock deferred queue: %s", lockErr)
		return
	}
	if !acquired {
		r.logger.Debug("Deferred queue is locked, not promoting tasks")
		return
	}
	defer models.ReleaseQueueLock(r.redisClient, models.DEFERRED_QUEUE, token)

	promoted, promoteErr := models.PromoteDueEntries(r.redisClient, now)
	if promoteErr != nil {
		r.logger.Errorf("Could not promote deferred tasks: %s", promoteErr)
	}
	if promoted > 0 {
		r.logger.Debugf("Promoted %d deferred tasks", promoted)
	}
}

func (r *TaskRunner) readyQueueTick() int {
	ran := 0
	for ran < r.maxTasks {
		entry, popErr := models.PopFromQueue(r.redisClient)
		if popErr != nil {
			r.logger.Errorf("Could not get next task: %s", popErr)
			break
		}
		if entry == nil {
			break
		}
		r.RunTask(entry)
		ran++
	}
	return ran
}

/**
run a single task with a timeout. A failing or panicking task is logged and dropped, it is never re-queued here.
Tasks that queued their own retry are only logged as warnings
*/
func (r *TaskRunner) RunTask(entry *models.TaskQueueEntry) (err error) {
	taskLogger := r.logger.WithFields(logrus.Fields{
		"videoId":   entry.VideoId,
		"taskId":    entry.TaskId.String(),
		"operation": string(entry.Operation),
	})

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
		var requeued *transcoder.RequeuedError
		if errors.As(err, &requeued) {
			taskLogger.Warnf("Task failed and has been queued again: %s", err)
		} else if err != nil {
			taskLogger.Errorf("Task failed: %s", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.taskTimeout)
	defer cancel()

	switch entry.Operation {
	case models.OP_SUBMIT:
		return r.dispatcher.Submit(ctx, entry.VideoId)
	case models.OP_CHECK:
		return r.dispatcher.Check(ctx, entry.VideoId)
	default:
		return fmt.Errorf("unknown operation '%s'", entry.Operation)
	}
}
