package videos

import (
	"github.com/gorilla/mux"
	"github.com/guardian/videoflipper/common/models"
)

/**
the orchestrator operations the HTTP layer needs
*/
type VideoProcessor interface {
	QueueIfNeeded(rec *models.VideoRecord) (bool, error)
	Reset(id int64) (*models.VideoRecord, error)
}

type VideoEndpoints struct {
	CreateHandler   CreateVideoHandler
	GetHandler      GetVideoHandler
	ListHandler     ListVideoHandler
	ResubmitHandler ResubmitVideoHandler
}

func NewVideoEndpoints(store models.RecordStore, processor VideoProcessor, videoBaseUrl string) VideoEndpoints {
	return VideoEndpoints{
		CreateHandler:   CreateVideoHandler{store: store, processor: processor, videoBaseUrl: videoBaseUrl},
		GetHandler:      GetVideoHandler{store: store, videoBaseUrl: videoBaseUrl},
		ListHandler:     ListVideoHandler{store: store, videoBaseUrl: videoBaseUrl},
		ResubmitHandler: ResubmitVideoHandler{processor: processor, videoBaseUrl: videoBaseUrl},
	}
}

func (e VideoEndpoints) WireUp(router *mux.Router, baseUrlPath string) {
	router.Handle(baseUrlPath, e.CreateHandler).Methods("POST")
	router.Handle(baseUrlPath, e.ListHandler).Methods("GET")
	router.Handle(baseUrlPath+"/{id}", e.GetHandler).Methods("GET")
	router.Handle(baseUrlPath+"/{id}/resubmit", e.ResubmitHandler).Methods("POST")
}
