package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-redis/redis/v7"
	log "github.com/sirupsen/logrus"
)

const (
	REDIS_NEXTID_KEY   = "videoflipper:VideoRecord:nextid"
	REDIDX_STATE_BASE  = "videoflipper:VideoRecord:stateindex"
	markSubmittedTries = 5
)

func keyForVideoId(id int64) string {
	return fmt.Sprintf("videoflipper:VideoRecord:%d", id)
}

func stateIndexKey(state VideoState) string {
	return fmt.Sprintf("%s:%d", REDIDX_STATE_BASE, int(state))
}

/**
RecordStore that keeps each record as a json blob, with a sorted set per state as an index.
Index scores are the ids, which are handed out in creation order
*/
type RedisRecordStore struct {
	client *redis.Client
}

func NewRedisRecordStore(client *redis.Client) *RedisRecordStore {
	return &RedisRecordStore{client: client}
}

/**
queue the commands to write the record and move it into the right state index onto the given pipeline
*/
func writeRecord(pipe redis.Pipeliner, rec *VideoRecord, content []byte) {
	idString := strconv.FormatInt(rec.Id, 10)
	pipe.Set(keyForVideoId(rec.Id), string(content), 0)
	for _, s := range AllStates {
		if s != rec.State {
			pipe.ZRem(stateIndexKey(s), idString)
		}
	}
	pipe.ZAdd(stateIndexKey(rec.State), &redis.Z{
		Score:  float64(rec.Id),
		Member: idString,
	})
}

func (s *RedisRecordStore) Create(rec *VideoRecord) error {
	newId, incrErr := s.client.Incr(REDIS_NEXTID_KEY).Result()
	if incrErr != nil {
		log.Printf("ERROR: Could not allocate a new video id: %s", incrErr)
		return incrErr
	}
	rec.Id = newId
	nowTime := time.Now()
	rec.CreatedAt = nowTime
	rec.UpdatedAt = nowTime
	return s.store(rec)
}

func (s *RedisRecordStore) Persist(rec *VideoRecord) error {
	if rec.Id == 0 {
		return errors.New("can't persist a record that has not been created")
	}
	rec.UpdatedAt = time.Now()
	return s.store(rec)
}

func (s *RedisRecordStore) store(rec *VideoRecord) error {
	content, marshalErr := json.Marshal(rec)
	if marshalErr != nil {
		log.Printf("Could not marshal data for video %d: %s", rec.Id, marshalErr)
		return marshalErr
	}

	_, saveErr := s.client.TxPipelined(func(pipe redis.Pipeliner) error {
		writeRecord(pipe, rec, content)
		return nil
	})
	if saveErr != nil {
		log.Printf("Could not save data for video %d: %s", rec.Id, saveErr)
		return saveErr
	}
	return nil
}

func decodeRecord(content string) (*VideoRecord, error) {
	var rec VideoRecord
	marshalErr := json.Unmarshal([]byte(content), &rec)
	if marshalErr != nil {
		log.Printf("Could not unmarshal data from store: %s. Offending data was: %s", marshalErr, content)
		return nil, marshalErr
	}
	return &rec, nil
}

func (s *RedisRecordStore) FindByID(id int64) (*VideoRecord, error) {
	content, getErr := s.client.Get(keyForVideoId(id)).Result()
	if getErr == redis.Nil {
		return nil, ErrRecordNotFound
	} else if getErr != nil {
		log.Printf("Could not retrieve video with id %d: %s", id, getErr)
		return nil, getErr
	}
	return decodeRecord(content)
}

/**
atomically flag the record as submitted. The record key is WATCHed so that a concurrent writer makes the transaction
fail, in which case we re-read and try again
*/
func (s *RedisRecordStore) MarkSubmitted(id int64) (bool, error) {
	dbKey := keyForVideoId(id)

	for attempt := 0; attempt < markSubmittedTries; attempt++ {
		changed := false
		err := s.client.Watch(func(tx *redis.Tx) error {
			content, getErr := tx.Get(dbKey).Result()
			if getErr == redis.Nil {
				return ErrRecordNotFound
			} else if getErr != nil {
				return getErr
			}

			rec, decodeErr := decodeRecord(content)
			if decodeErr != nil {
				return decodeErr
			}
			if rec.Submitted {
				return nil
			}
			rec.Submitted = true
			rec.State = STATE_SUBMITTED
			rec.UpdatedAt = time.Now()
			updated, marshalErr := json.Marshal(rec)
			if marshalErr != nil {
				return marshalErr
			}

			_, pipeErr := tx.TxPipelined(func(pipe redis.Pipeliner) error {
				writeRecord(pipe, rec, updated)
				return nil
			})
			if pipeErr == nil {
				changed = true
			}
			return pipeErr
		}, dbKey)

		if err == redis.TxFailedErr {
			log.Printf("WARNING: video %d changed while marking it submitted, retrying", id)
			continue
		}
		return changed, err
	}
	return false, fmt.Errorf("could not mark video %d as submitted after %d attempts", id, markSubmittedTries)
}

/**
returns up to `limit` records in the given state, oldest first. A limit of 0 returns everything.
*/
func (s *RedisRecordStore) ListByState(state VideoState, limit int) ([]*VideoRecord, error) {
	stop := int64(limit) - 1
	ids, rangeErr := s.client.ZRange(stateIndexKey(state), 0, stop).Result()
	if rangeErr != nil {
		log.Printf("Could not range index for state %s: %s", state, rangeErr)
		return nil, rangeErr
	}

	rtn := make([]*VideoRecord, 0, len(ids))
	for _, idString := range ids {
		id, parseErr := strconv.ParseInt(idString, 10, 64)
		if parseErr != nil {
			log.Printf("ERROR: Bad data in the %s index: %s", state, spew.Sdump(idString))
			continue
		}
		rec, getErr := s.FindByID(id)
		if getErr == ErrRecordNotFound {
			log.Printf("WARNING: Index for %s refers to missing video %d", state, id)
			continue
		} else if getErr != nil {
			return nil, getErr
		}
		rtn = append(rtn, rec)
	}
	return rtn, nil
}
