package videos

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/webapp/transcoder"
	log "github.com/sirupsen/logrus"
)

/**
operator endpoint to clear a finished or failed video and send it round again
*/
type ResubmitVideoHandler struct {
	processor    VideoProcessor
	videoBaseUrl string
}

func (h ResubmitVideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoId, errResponse := helpers.ParseVideoId(mux.Vars(r)["id"])
	if errResponse != nil {
		helpers.WriteJsonContent(errResponse, w, 400)
		return
	}

	rec, resetErr := h.processor.Reset(videoId)
	if resetErr != nil {
		var notFound *transcoder.NotFoundError
		var invalidState *transcoder.InvalidStateError
		switch {
		case errors.As(resetErr, &notFound):
			helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "not_found", Detail: "no such video"}, w, 404)
		case errors.As(resetErr, &invalidState):
			helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "conflict", Detail: invalidState.Error()}, w, 409)
		default:
			log.Printf("ERROR: ResubmitVideoHandler could not reset video %d: %s", videoId, resetErr)
			helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not resubmit"}, w, 500)
		}
		return
	}

	response, buildErr := NewVideoResponse(rec, h.videoBaseUrl, false)
	if buildErr != nil {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not build response"}, w, 500)
		return
	}
	helpers.WriteJsonContent(map[string]interface{}{"status": "ok", "entry": response}, w, 200)
}
