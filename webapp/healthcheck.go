package main

import (
	"net/http"

	"github.com/go-redis/redis/v7"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type HealthcheckHandler struct {
	redisClient redis.Cmdable
	store       models.RecordStore
}

func (h HealthcheckHandler) ServeHTTP(w http.ResponseWriter, request *http.Request) {
	_, err := h.redisClient.Ping().Result()
	if err != nil {
		log.Printf("HEALTHCHECK FAILED: %s connecting to Redis", err)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not contact redis db"}, w, 500)
		return
	}

	_, storeErr := h.store.ListByState(models.STATE_NEW, 1)
	if storeErr != nil {
		log.Printf("HEALTHCHECK FAILED: %s reading the record store", storeErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not read record store"}, w, 500)
		return
	}
	helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "ok", Detail: "healthy"}, w, 200)
}
