package videos

import (
	"net/http"

	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type CreateVideoRequest struct {
	SourceFile             string `json:"sourceFile"`
	DeleteSourceOnComplete *bool  `json:"deleteSourceOnComplete"`
}

type CreateVideoHandler struct {
	store        models.RecordStore
	processor    VideoProcessor
	videoBaseUrl string
}

func (h CreateVideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var rq CreateVideoRequest
	if readErr := helpers.ReadJsonBody(r.Body, &rq); readErr != nil {
		log.Printf("ERROR: CreateVideoHandler could not understand request: %s", readErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "bad_request", Detail: "invalid json"}, w, 400)
		return
	}

	if rq.SourceFile == "" {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "bad_request", Detail: "sourceFile is required"}, w, 400)
		return
	}
	if helpers.ItemTypeForFilepath(rq.SourceFile) != helpers.ITEM_TYPE_VIDEO {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "bad_request", Detail: "sourceFile is not a video"}, w, 400)
		return
	}

	rec := models.NewVideoRecord(rq.SourceFile)
	if rq.DeleteSourceOnComplete != nil {
		rec.DeleteSourceOnComplete = *rq.DeleteSourceOnComplete
	}

	if createErr := h.store.Create(rec); createErr != nil {
		log.Printf("ERROR: CreateVideoHandler could not save new record for %s: %s", rq.SourceFile, createErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "db_error", Detail: "could not save record"}, w, 500)
		return
	}

	if _, queueErr := h.processor.QueueIfNeeded(rec); queueErr != nil {
		log.Printf("ERROR: CreateVideoHandler saved video %d but could not queue it: %s", rec.Id, queueErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "queue_error", Detail: "video was saved but could not be queued"}, w, 500)
		return
	}

	response, buildErr := NewVideoResponse(rec, h.videoBaseUrl, false)
	if buildErr != nil {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not build response"}, w, 500)
		return
	}
	helpers.WriteJsonContent(map[string]interface{}{"status": "ok", "entry": response}, w, 201)
}
