package transcoder

import (
	"path/filepath"

	mapset "github.com/deckarep/golang-set"
	"github.com/guardian/videoflipper/common/helpers"
)

type Settings struct {
	SourceBucket       string
	OutputBucket       string
	PipelineId         string
	Outputs            helpers.PresetOutputs
	Playlist           *helpers.PlaylistConfig
	PlaylistPresets    mapset.Set
	ThumbnailExtension string
	ThumbnailNumber    int
	PlaylistExtension  string
	DurationField      string
	UseDirectory       bool
	SourceRoot         string
	MaxCheckAttempts   int
}

func SettingsFromConfig(config *helpers.Config) Settings {
	playlistPresets := mapset.NewSet()
	if config.Playlist != nil {
		for _, presetId := range config.Playlist.Presets {
			playlistPresets.Add(presetId)
		}
	}

	return Settings{
		SourceBucket:       config.Bucket,
		OutputBucket:       config.TranscodedBucket,
		PipelineId:         config.Pipeline,
		Outputs:            config.Outputs,
		Playlist:           config.Playlist,
		PlaylistPresets:    playlistPresets,
		ThumbnailExtension: config.ThumbnailExtension,
		ThumbnailNumber:    *config.ThumbnailNumber,
		PlaylistExtension:  config.PlaylistExtension,
		DurationField:      config.DurationField,
		UseDirectory:       config.UseDirectory,
		SourceRoot:         config.SourceRoot,
		MaxCheckAttempts:   config.Runner.MaxCheckAttempts,
	}
}

/**
relative source paths are taken to be under SourceRoot
*/
func (s Settings) ResolveSource(sourceFile string) string {
	if filepath.IsAbs(sourceFile) || s.SourceRoot == "" {
		return sourceFile
	}
	return filepath.Join(s.SourceRoot, sourceFile)
}

func (s Settings) isPlaylistPreset(presetId string) bool {
	return s.PlaylistPresets != nil && s.PlaylistPresets.Contains(presetId)
}
