package videos

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type GetVideoHandler struct {
	store        models.RecordStore
	videoBaseUrl string
}

func (h GetVideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoId, errResponse := helpers.ParseVideoId(mux.Vars(r)["id"])
	if errResponse != nil {
		helpers.WriteJsonContent(errResponse, w, 400)
		return
	}

	rec, getErr := h.store.FindByID(videoId)
	if getErr == models.ErrRecordNotFound {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "not_found", Detail: "no such video"}, w, 404)
		return
	} else if getErr != nil {
		log.Printf("ERROR: GetVideoHandler could not retrieve video %d: %s", videoId, getErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "db_error", Detail: "could not retrieve entry"}, w, 500)
		return
	}

	response, buildErr := NewVideoResponse(rec, h.videoBaseUrl, true)
	if buildErr != nil {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not build response"}, w, 500)
		return
	}
	helpers.WriteJsonContent(map[string]interface{}{"status": "ok", "entry": response}, w, 200)
}
