package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/common/naming"
)

func PlaylistKey(spec *models.TranscodeJobSpec) string {
	return naming.PlaylistName(spec.Playlist.Name, "m3u8")
}

/**
relative uri of a variant playlist, as seen from the master playlist's directory
*/
func variantUri(playlistKey string, variantKey string) string {
	rel, err := filepath.Rel(path.Dir(playlistKey), variantKey)
	if err != nil {
		return variantKey
	}
	return filepath.ToSlash(rel)
}

/**
an HLS master playlist pointing at each of the playlist's segmented outputs
*/
func MasterPlaylist(spec *models.TranscodeJobSpec, presets Presets) string {
	playlistKey := PlaylistKey(spec)
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	for _, outputKey := range spec.Playlist.OutputKeys {
		presetId := ""
		for _, out := range spec.Outputs {
			if out.Key == outputKey {
				presetId = out.PresetId
			}
		}
		sb.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d\n", presets.BandwidthFor(presetId)))
		sb.WriteString(variantUri(playlistKey, outputKey+".m3u8") + "\n")
	}
	return sb.String()
}

func WriteMasterPlaylist(spec *models.TranscodeJobSpec, presets Presets, outDir string) (string, error) {
	key := PlaylistKey(spec)
	localPath := LocalPathFor(outDir, key)
	if mkErr := os.MkdirAll(filepath.Dir(localPath), 0755); mkErr != nil {
		return "", mkErr
	}
	return key, ioutil.WriteFile(localPath, []byte(MasterPlaylist(spec, presets)), 0644)
}
