package helpers

import (
	"mime"
	"regexp"
	"strings"
	"sync"
)

type ItemType string

const (
	ITEM_TYPE_VIDEO ItemType = "video"
	ITEM_TYPE_AUDIO ItemType = "audio"
	ITEM_TYPE_IMAGE ItemType = "image"
	ITEM_TYPE_OTHER ItemType = "other"
)

var FileExtensionExtractor = regexp.MustCompile("(\\.[^\\./]+)$")
var once sync.Once

func registerExtraTypes() {
	once.Do(func() {
		mime.AddExtensionType(".mp4", "video/mp4")
		mime.AddExtensionType(".m4v", "video/mp4")
		mime.AddExtensionType(".mov", "video/quicktime")
		mime.AddExtensionType(".webm", "video/webm")
		mime.AddExtensionType(".mkv", "video/x-matroska")
		mime.AddExtensionType(".avi", "video/x-msvideo")
		mime.AddExtensionType(".mp3", "audio/mpeg")
		mime.AddExtensionType(".mxf", "video/x-material-exchange-format")
		mime.AddExtensionType(".mts", "video/x-mpeg-transport-stream")
		mime.AddExtensionType(".m3u8", "application/vnd.apple.mpegurl")
		mime.AddExtensionType(".ts", "video/mp2t")
	})
}

/**
works out the broad kind of media the given path holds, from its file extension.
used to reject records that are not pointing at video
*/
func ItemTypeForFilepath(filepath string) ItemType {
	registerExtraTypes()

	matches := FileExtensionExtractor.FindStringSubmatch(filepath)
	if matches == nil {
		return ITEM_TYPE_OTHER
	}

	mimeType := mime.TypeByExtension(strings.ToLower(matches[1]))
	if strings.HasPrefix(mimeType, "video/") {
		return ITEM_TYPE_VIDEO
	} else if strings.HasPrefix(mimeType, "audio/") {
		return ITEM_TYPE_AUDIO
	} else if strings.HasPrefix(mimeType, "image/") {
		return ITEM_TYPE_IMAGE
	} else {
		return ITEM_TYPE_OTHER
	}
}

/**
the MIME type that a player should be told for a rendition, used to build the "fallbacks" list.
webm is the only container we distinguish; everything else is served as mp4
*/
func TypeFromExt(filepath string) string {
	matches := FileExtensionExtractor.FindStringSubmatch(filepath)
	if matches != nil && strings.ToLower(matches[1]) == ".webm" {
		return "video/webm"
	}
	return "video/mp4"
}

/**
content type to send when uploading the given file, falling back to a generic binary type
*/
func ContentTypeForFilepath(filepath string) string {
	registerExtraTypes()
	matches := FileExtensionExtractor.FindStringSubmatch(filepath)
	if matches != nil {
		if mimeType := mime.TypeByExtension(strings.ToLower(matches[1])); mimeType != "" {
			return mimeType
		}
	}
	return "application/octet-stream"
}
