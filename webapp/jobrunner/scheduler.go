package jobrunner

import (
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

/**
Scheduler that queues tasks in redis for a TaskRunner to pick up. Checks are always deferred by checkDelay,
submits only if submitDelay is set
*/
type RedisScheduler struct {
	redisClient redis.Cmdable
	submitDelay time.Duration
	checkDelay  time.Duration
}

func NewRedisScheduler(redisClient redis.Cmdable, submitDelay time.Duration, checkDelay time.Duration) *RedisScheduler {
	return &RedisScheduler{
		redisClient: redisClient,
		submitDelay: submitDelay,
		checkDelay:  checkDelay,
	}
}

func (s *RedisScheduler) Enqueue(op models.TaskOperation, videoId int64) error {
	entry := models.NewTaskQueueEntry(op, videoId)

	delay := s.submitDelay
	if op == models.OP_CHECK {
		delay = s.checkDelay
	}

	if delay <= 0 {
		return models.AddToQueue(s.redisClient, entry)
	}
	return models.DeferEntry(s.redisClient, entry, time.Now().Add(delay))
}

/**
remove every pending task of the given operation for the video, deferred or ready.
The deferred queue is scanned first so an entry promoted part way through is still caught on the ready queue
*/
func (s *RedisScheduler) Cancel(op models.TaskOperation, videoId int64) (int, error) {
	removed := 0
	for _, queueName := range []models.QueueName{models.DEFERRED_QUEUE, models.READY_QUEUE} {
		entries, snapErr := models.SnapshotQueue(s.redisClient, queueName)
		if snapErr != nil {
			return removed, snapErr
		}
		for _, entry := range entries {
			if entry.Operation != op || entry.VideoId != videoId {
				continue
			}
			removeErr := models.RemoveFromQueue(s.redisClient, queueName, entry)
			if removeErr == models.ErrNotInQueue {
				//already picked up or promoted
				continue
			} else if removeErr != nil {
				log.Printf("ERROR: Could not cancel %s for video %d: %s", op, videoId, removeErr)
				return removed, removeErr
			}
			removed++
		}
	}
	return removed, nil
}
