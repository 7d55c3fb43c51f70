package helpers

import "testing"

func TestItemTypeForFilepath(t *testing.T) {
	//ItemTypeForFilepath should return ITEM_TYPE_VIDEO for a known video extension
	result := ItemTypeForFilepath("path/to/some/video.mp4")
	if result != ITEM_TYPE_VIDEO {
		t.Errorf("ItemTypeForFilepath returned incorrect type %s for mp4", result)
	}

	upperResult := ItemTypeForFilepath("path/to/some/LECTURE.MXF")
	if upperResult != ITEM_TYPE_VIDEO {
		t.Errorf("ItemTypeForFilepath returned incorrect type %s for upper-case MXF", upperResult)
	}

	aResult := ItemTypeForFilepath("path/to/some/audio.mp3")
	if aResult != ITEM_TYPE_AUDIO {
		t.Errorf("ItemTypeForFilepath returned incorrect type %s for mp3", aResult)
	}

	iResult := ItemTypeForFilepath("path/to/some/image.jpg")
	if iResult != ITEM_TYPE_IMAGE {
		t.Errorf("ItemTypeForFilepath returned incorrect type %s for jpg", iResult)
	}

	oResult := ItemTypeForFilepath("path/to/some/meta.xml")
	if oResult != ITEM_TYPE_OTHER {
		t.Errorf("ItemTypeForFilepath returned incorrect type %s for xml", oResult)
	}

	nResult := ItemTypeForFilepath("path.with.dots/noextension")
	if nResult != ITEM_TYPE_OTHER {
		t.Errorf("ItemTypeForFilepath returned incorrect type %s for a file with no extension", nResult)
	}
}

func TestTypeFromExt(t *testing.T) {
	if result := TypeFromExt("lecture/lecture.webm"); result != "video/webm" {
		t.Errorf("TypeFromExt gave %s for webm, expected video/webm", result)
	}
	if result := TypeFromExt("lecture/lecture-720p.mp4"); result != "video/mp4" {
		t.Errorf("TypeFromExt gave %s for mp4, expected video/mp4", result)
	}
	if result := TypeFromExt("lecture/lecture-hls2m"); result != "video/mp4" {
		t.Errorf("TypeFromExt gave %s for a name with no extension, expected video/mp4", result)
	}
}

func TestContentTypeForFilepath(t *testing.T) {
	if result := ContentTypeForFilepath("clip.m3u8"); result != "application/vnd.apple.mpegurl" {
		t.Errorf("ContentTypeForFilepath gave %s for m3u8", result)
	}
	if result := ContentTypeForFilepath("clip.unknownext"); result != "application/octet-stream" {
		t.Errorf("ContentTypeForFilepath gave %s for an unknown extension", result)
	}
}
