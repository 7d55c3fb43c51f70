package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type QueueName string

const (
	READY_QUEUE    QueueName = "taskreadyqueue"
	DEFERRED_QUEUE QueueName = "taskdeferredqueue"
)

type TaskOperation string

const (
	OP_SUBMIT TaskOperation = "submit"
	OP_CHECK  TaskOperation = "check"
)

var ErrNotInQueue = errors.New("could not find item to remove from queue")

func queueKey(queueName QueueName) string {
	return fmt.Sprintf("videoflipper:%s", queueName)
}

func queueLockKey(queueName QueueName) string {
	return fmt.Sprintf("videoflipper:%s:lock", queueName)
}

/** -----------------
queue entry data
----------------
*/
type TaskQueueEntry struct {
	TaskId    uuid.UUID
	Operation TaskOperation
	VideoId   int64
}

func NewTaskQueueEntry(op TaskOperation, videoId int64) TaskQueueEntry {
	return TaskQueueEntry{
		TaskId:    uuid.New(),
		Operation: op,
		VideoId:   videoId,
	}
}

func (e TaskQueueEntry) Marshal() string {
	return e.TaskId.String() + "|" + string(e.Operation) + "|" + strconv.FormatInt(e.VideoId, 10)
}

func UnmarshalTaskQueueEntry(from string) (TaskQueueEntry, error) {
	parts := strings.Split(from, "|")
	if len(parts) != 3 {
		return TaskQueueEntry{}, errors.New("incorrect data, did not have 3 sections")
	}
	taskId, taskIdErr := uuid.Parse(parts[0])
	if taskIdErr != nil {
		return TaskQueueEntry{}, taskIdErr
	}
	op := TaskOperation(parts[1])
	if op != OP_SUBMIT && op != OP_CHECK {
		return TaskQueueEntry{}, fmt.Errorf("unknown operation '%s'", parts[1])
	}
	videoId, idErr := strconv.ParseInt(parts[2], 10, 64)
	if idErr != nil {
		return TaskQueueEntry{}, idErr
	}

	return TaskQueueEntry{
		TaskId:    taskId,
		Operation: op,
		VideoId:   videoId,
	}, nil
}

/** -----------------
queue manipulation
----------------
*/
func GetQueueLength(client redis.Cmdable, queueName QueueName) (int64, error) {
	jobKey := queueKey(queueName)
	var count int64
	var err error
	if queueName == DEFERRED_QUEUE {
		count, err = client.ZCard(jobKey).Result()
	} else {
		count, err = client.LLen(jobKey).Result()
	}
	if err != nil {
		log.Printf("Could not retrieve queue length for %s: %s", queueName, err)
	}
	return count, err
}

/**
get a 'snapshot' of the ready queue at this moment in time.
*/
func SnapshotQueue(client redis.Cmdable, queueName QueueName) ([]TaskQueueEntry, error) {
	jobKey := queueKey(queueName)

	var rawData []string
	var err error
	if queueName == DEFERRED_QUEUE {
		rawData, err = client.ZRange(jobKey, 0, -1).Result()
	} else {
		rawData, err = client.LRange(jobKey, 0, -1).Result()
	}
	if err != nil {
		log.Printf("Could not range %s: %s", jobKey, err)
		return nil, err
	}

	result := make([]TaskQueueEntry, len(rawData))
	for i, rawEntry := range rawData {
		ent, parseErr := UnmarshalTaskQueueEntry(rawEntry)
		if parseErr != nil {
			log.Printf("ERROR: Bad data in the %s queue: %s. Offending data was %s.", jobKey, parseErr, rawEntry)
			return nil, parseErr
		}
		result[i] = ent
	}
	return result, nil
}

func RemoveFromQueue(client redis.Cmdable, queueName QueueName, entry TaskQueueEntry) error {
	jobKey := queueKey(queueName)
	var removed int64
	var err error
	if queueName == DEFERRED_QUEUE {
		removed, err = client.ZRem(jobKey, entry.Marshal()).Result()
	} else {
		removed, err = client.LRem(jobKey, 0, entry.Marshal()).Result()
	}
	if err != nil {
		log.Printf("Could not remove %s from %s: %s", entry.Marshal(), jobKey, err)
		return err
	}
	if removed == 0 {
		log.Printf("WARNING: Could not find item %s to remove from queue %s", entry.Marshal(), jobKey)
		return ErrNotInQueue
	}
	return nil
}

/**
push an entry onto the end of the ready queue
*/
func AddToQueue(client redis.Cmdable, entry TaskQueueEntry) error {
	_, err := client.RPush(queueKey(READY_QUEUE), entry.Marshal()).Result()
	if err != nil {
		log.Printf("Could not push %s to %s: %s", entry.Marshal(), READY_QUEUE, err)
	}
	return err
}

/**
pop the next entry from the ready queue. Returns nil with no error if the queue is empty
*/
func PopFromQueue(client redis.Cmdable) (*TaskQueueEntry, error) {
	jobKey := queueKey(READY_QUEUE)
	content, getErr := client.LPop(jobKey).Result()
	if getErr == redis.Nil {
		return nil, nil
	} else if getErr != nil {
		log.Print("ERROR: Could not get next item from task queue: ", getErr)
		return nil, getErr
	}

	ent, parseErr := UnmarshalTaskQueueEntry(content)
	if parseErr != nil {
		//it's already been removed by the LPOP operation
		log.Printf("ERROR: Could not decode item from task queue: %s. Offending data was %s", parseErr, content)
		return nil, parseErr
	}
	return &ent, nil
}

/**
schedule an entry to become ready at the given time. Due times are kept to the millisecond
*/
func DeferEntry(client redis.Cmdable, entry TaskQueueEntry, dueAt time.Time) error {
	_, err := client.ZAdd(queueKey(DEFERRED_QUEUE), &redis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: entry.Marshal(),
	}).Result()
	if err != nil {
		log.Printf("Could not defer %s: %s", entry.Marshal(), err)
	}
	return err
}

/**
move every deferred entry that is due at or before `now` onto the ready queue.
each member is ZREM'd before it is pushed and only pushed if this caller removed it, so two promoters racing
can't both push the same entry. Returns the number promoted
*/
func PromoteDueEntries(client redis.Cmdable, now time.Time) (int, error) {
	jobKey := queueKey(DEFERRED_QUEUE)
	due, rangeErr := client.ZRangeByScore(jobKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if rangeErr != nil {
		log.Printf("Could not range deferred tasks: %s", rangeErr)
		return 0, rangeErr
	}

	promoted := 0
	for _, member := range due {
		removed, remErr := client.ZRem(jobKey, member).Result()
		if remErr != nil {
			log.Printf("ERROR: Could not claim deferred task %s: %s", member, remErr)
			return promoted, remErr
		}
		if removed == 0 {
			continue
		}
		if _, pushErr := client.RPush(queueKey(READY_QUEUE), member).Result(); pushErr != nil {
			log.Printf("ERROR: Could not promote deferred task %s, it has been lost: %s", member, pushErr)
			return promoted, pushErr
		}
		promoted++
	}
	return promoted, nil
}

/** -----------------
locking functions
----------------
*/

/**
check if the given queue lock is set
*/
func CheckQueueLock(client redis.Cmdable, queueName QueueName) (bool, error) {
	result, err := client.Exists(queueLockKey(queueName)).Result()
	if err != nil {
		log.Printf("Could not check lock for %s: %s", queueName, err)
		return true, err
	}
	return result > 0, nil
}

/**
try to take the given queue lock. Returns the token to release it with and true if we now hold it.
the lock expires on its own after `ttl`
*/
func SetQueueLock(client redis.Cmdable, queueName QueueName, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	acquired, err := client.SetNX(queueLockKey(queueName), token, ttl).Result()
	if err != nil {
		log.Printf("Could not set lock for %s: %s", queueName, err)
		return "", false, err
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

//only deletes the key if it still holds our token
const releaseLockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

/**
release the given queue lock if we still hold it. Returns false if it had expired and been taken by someone else
*/
func ReleaseQueueLock(client redis.Cmdable, queueName QueueName, token string) (bool, error) {
	released, err := client.Eval(releaseLockScript, []string{queueLockKey(queueName)}, token).Int64()
	if err != nil {
		log.Printf("Could not release lock for %s: %s", queueName, err)
		return false, err
	}
	if released == 0 {
		log.Printf("WARNING: Lock for %s had already expired, not releasing", queueName)
	}
	return released > 0, nil
}
