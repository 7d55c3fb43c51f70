package videos

import (
	"net/http"

	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

const defaultListLimit = 100

type ListVideoHandler struct {
	store        models.RecordStore
	videoBaseUrl string
}

func (h ListVideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	queryParams, paramsErr := helpers.GetQueryParams(r.RequestURI)
	if paramsErr != nil {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "bad_request", Detail: paramsErr.Error()}, w, 400)
		return
	}

	stateName := queryParams.Get("state")
	if stateName == "" {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "bad_request", Detail: "state is required"}, w, 400)
		return
	}
	state, stateErr := models.VideoStateFromString(stateName)
	if stateErr != nil {
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "bad_request", Detail: stateErr.Error()}, w, 400)
		return
	}

	limit, limitErr := helpers.GetIntParam(queryParams, "limit", defaultListLimit)
	if limitErr != nil {
		helpers.WriteJsonContent(limitErr, w, 400)
		return
	}

	records, listErr := h.store.ListByState(state, limit)
	if listErr != nil {
		log.Printf("ERROR: ListVideoHandler could not list videos in state %s: %s", state, listErr)
		helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "db_error", Detail: "could not list entries"}, w, 500)
		return
	}

	entries := make([]*VideoResponse, 0, len(records))
	for _, rec := range records {
		response, buildErr := NewVideoResponse(rec, h.videoBaseUrl, false)
		if buildErr != nil {
			helpers.WriteJsonContent(helpers.GenericErrorResponse{Status: "error", Detail: "could not build response"}, w, 500)
			return
		}
		entries = append(entries, response)
	}
	helpers.WriteJsonContent(map[string]interface{}{"status": "ok", "entries": entries}, w, 200)
}
