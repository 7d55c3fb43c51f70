package jobrunner

import (
	"net/http"

	"github.com/go-redis/redis/v7"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type QueueStatsHandler struct {
	redisClient redis.Cmdable
}

func NewQueueStatsHandler(redisClient redis.Cmdable) QueueStatsHandler {
	return QueueStatsHandler{redisClient: redisClient}
}

func (h QueueStatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result := make(map[string]int64, 2)
	for _, queueName := range []models.QueueName{models.READY_QUEUE, models.DEFERRED_QUEUE} {
		length, getErr := models.GetQueueLength(h.redisClient, queueName)
		if getErr != nil {
			log.Printf("ERROR: QueueStatsHandler could not get queue stats: %s", getErr)
			helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "db_error", Detail: getErr.Error()}, w, 500)
			return
		}
		result[string(queueName)] = length
	}

	locked, lockErr := models.CheckQueueLock(h.redisClient, models.DEFERRED_QUEUE)
	if lockErr != nil {
		log.Printf("ERROR: QueueStatsHandler could not check the deferred queue lock: %s", lockErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "db_error", Detail: lockErr.Error()}, w, 500)
		return
	}

	helpers.WriteJsonContent(map[string]interface{}{
		"status":         "ok",
		"queues":         result,
		"deferredLocked": locked,
	}, w, 200)
}
