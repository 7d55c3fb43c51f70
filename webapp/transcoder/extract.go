package transcoder

import (
	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/common/naming"
)

/**
keys of every rendition in job order, leaving out the ones that only exist to feed the playlist
*/
func ExtractVideoOutputs(job *models.JobResult, settings Settings) []string {
	rtn := make([]string, 0, len(job.Outputs))
	for _, out := range job.Outputs {
		if settings.isPlaylistPreset(out.PresetId) {
			continue
		}
		rtn = append(rtn, out.Key)
	}
	return rtn
}

/**
duration in whole seconds, read from DurationField under the job's primary output. 0 if not configured or not present
*/
func ExtractDuration(job *models.JobResult, settings Settings) int {
	if settings.DurationField == "" || job.Raw == nil {
		return 0
	}

	primary, isMap := job.Raw["Output"].(map[string]interface{})
	if !isMap {
		outputList, isList := job.Raw["Outputs"].([]interface{})
		if !isList || len(outputList) == 0 {
			return 0
		}
		primary, isMap = outputList[0].(map[string]interface{})
		if !isMap {
			return 0
		}
	}

	duration, found := models.IntAtPath(primary, settings.DurationField)
	if !found {
		return 0
	}
	return duration
}

/**
re-derive the first thumbnail from the first output that asked for thumbnails. Empty if none did
*/
func ExtractThumbnail(job *models.JobResult, settings Settings) string {
	for _, out := range job.Outputs {
		if out.ThumbnailPattern != "" {
			return naming.ThumbnailName(out.ThumbnailPattern, out.Key, settings.ThumbnailNumber, settings.ThumbnailExtension)
		}
	}
	return ""
}

func ExtractPlaylist(job *models.JobResult, settings Settings) string {
	if len(job.Playlists) == 0 || job.Playlists[0].Name == "" {
		return ""
	}
	return naming.PlaylistName(job.Playlists[0].Name, settings.PlaylistExtension)
}
