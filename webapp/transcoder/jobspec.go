package transcoder

import (
	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/common/naming"
)

/**
build the job request for the given source file.
{name} is the source's filename without extension. The playlist takes the rendered keys of every output whose
preset is listed in the playlist presets, in output order
*/
func BuildJobSpec(settings Settings, sourceFile string) *models.TranscodeJobSpec {
	inputKey := naming.BaseName(sourceFile)
	baseName := naming.StripExtension(inputKey)

	outputs := make([]models.OutputSpec, 0, len(settings.Outputs))
	playlistKeys := make([]string, 0)

	for _, preset := range settings.Outputs {
		out := models.OutputSpec{
			Key:             naming.RenderOutputKey(preset.Key, baseName, settings.UseDirectory),
			PresetId:        preset.PresetId,
			SegmentDuration: preset.SegmentDuration,
		}
		if preset.ThumbnailPattern != "" {
			out.ThumbnailPattern = naming.RenderOutputKey(preset.ThumbnailPattern, baseName, settings.UseDirectory)
		}
		outputs = append(outputs, out)

		if settings.isPlaylistPreset(preset.PresetId) {
			playlistKeys = append(playlistKeys, out.Key)
		}
	}

	spec := &models.TranscodeJobSpec{
		PipelineId: settings.PipelineId,
		InputKey:   inputKey,
		Outputs:    outputs,
	}

	if settings.Playlist != nil {
		nameTemplate := settings.Playlist.Name
		if nameTemplate == "" {
			nameTemplate = "{" + naming.PLACEHOLDER_NAME + "}"
		}
		spec.Playlist = &models.PlaylistSpec{
			Format:     settings.Playlist.Format,
			Name:       naming.RenderOutputKey(nameTemplate, baseName, settings.UseDirectory),
			OutputKeys: playlistKeys,
		}
	}
	return spec
}
