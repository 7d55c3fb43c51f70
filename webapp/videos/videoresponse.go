package videos

import (
	"time"

	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	"github.com/jinzhu/copier"
	log "github.com/sirupsen/logrus"
)

/**
what the API gives back for a video record. Hosted* and Fallbacks are only filled in when there is something to point to
*/
type VideoResponse struct {
	Id                     int64                  `json:"id"`
	SourceFile             string                 `json:"sourceFile"`
	OriginalName           string                 `json:"originalName"`
	Submitted              bool                   `json:"submitted"`
	State                  models.VideoState      `json:"state"`
	StateName              string                 `json:"stateName"`
	Outputs                []string               `json:"outputs"`
	Playlist               string                 `json:"playlist"`
	Thumbnail              string                 `json:"thumbnail"`
	Duration               int                    `json:"duration"`
	JobData                map[string]interface{} `json:"jobData,omitempty"`
	DeleteSourceOnComplete bool                   `json:"deleteSourceOnComplete"`
	CheckAttempts          int                    `json:"checkAttempts"`
	ErrorMessage           string                 `json:"errorMessage,omitempty"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`

	HostedThumbnail string            `json:"hostedThumbnail,omitempty"`
	HostedPlaylist  string            `json:"hostedPlaylist,omitempty"`
	Fallbacks       map[string]string `json:"fallbacks,omitempty"`
}

func hostedUrl(videoBaseUrl string, key string) string {
	return videoBaseUrl + "/" + key
}

func NewVideoResponse(rec *models.VideoRecord, videoBaseUrl string, withJobData bool) (*VideoResponse, error) {
	var response VideoResponse
	if copyErr := copier.Copy(&response, rec); copyErr != nil {
		log.Printf("ERROR: Could not build response for video %d: %s", rec.Id, copyErr)
		return nil, copyErr
	}
	if !withJobData {
		response.JobData = nil
	}
	response.StateName = rec.State.String()

	if rec.Thumbnail != "" {
		response.HostedThumbnail = hostedUrl(videoBaseUrl, rec.Thumbnail)
	}
	if rec.Playlist != "" {
		response.HostedPlaylist = hostedUrl(videoBaseUrl, rec.Playlist)
	}
	if len(rec.Outputs) > 0 {
		response.Fallbacks = make(map[string]string, len(rec.Outputs))
		for _, output := range rec.Outputs {
			response.Fallbacks[helpers.TypeFromExt(output)] = hostedUrl(videoBaseUrl, output)
		}
	}
	return &response, nil
}
