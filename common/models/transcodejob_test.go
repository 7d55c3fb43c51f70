package models

import (
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

const sampleJobJson = `{
	"Id": "1351620000001-abcde",
	"Status": "Complete",
	"PipelineId": "pipe-1",
	"Output": {"Key": "lecture-720p.mp4", "PresetId": "720p", "Duration": 93, "Width": 1280},
	"Outputs": [
		{"Key": "lecture-720p.mp4", "PresetId": "720p", "ThumbnailPattern": "lecture-{count}", "Duration": 93},
		{"Key": "lecture-hls2m", "PresetId": "hls2m", "ThumbnailPattern": null, "SegmentDuration": "10"}
	],
	"Playlists": [{"Name": "lecture", "Format": "HLSv3"}]
}`

func TestJobResultFromMap(t *testing.T) {
	var raw map[string]interface{}
	json.Unmarshal([]byte(sampleJobJson), &raw)

	result, err := JobResultFromMap(raw)
	if err != nil {
		t.Fatal("JobResultFromMap failed unexpectedly: ", err)
	}
	if result.Id != "1351620000001-abcde" || result.Status != "Complete" {
		t.Errorf("got wrong id/status: %s", spew.Sdump(result))
	}
	if len(result.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(result.Outputs))
	}
	if result.Outputs[0].ThumbnailPattern != "lecture-{count}" || result.Outputs[1].ThumbnailPattern != "" {
		t.Errorf("thumbnail patterns decoded wrongly: %s", spew.Sdump(result.Outputs))
	}
	if result.Outputs[1].PresetId != "hls2m" {
		t.Errorf("preset id decoded wrongly: %s", result.Outputs[1].PresetId)
	}
	if len(result.Playlists) != 1 || result.Playlists[0].Name != "lecture" {
		t.Errorf("playlists decoded wrongly: %s", spew.Sdump(result.Playlists))
	}
	if result.Raw["PipelineId"] != "pipe-1" {
		t.Error("raw data was not kept")
	}
}

func TestJobResultFromMapNumericId(t *testing.T) {
	result, err := JobResultFromMap(map[string]interface{}{"Id": float64(12345), "Status": "Progressing"})
	if err != nil {
		t.Fatal("JobResultFromMap failed unexpectedly: ", err)
	}
	if result.Id != "12345" {
		t.Errorf("expected numeric id to become '12345', got '%s'", result.Id)
	}
}

func TestJobResultFromMapNoId(t *testing.T) {
	_, err := JobResultFromMap(map[string]interface{}{"Status": "Complete"})
	if err == nil {
		t.Error("JobResultFromMap should reject a description with no id")
	}
}

func TestIntAtPath(t *testing.T) {
	var raw map[string]interface{}
	json.Unmarshal([]byte(sampleJobJson), &raw)

	duration, found := IntAtPath(raw, "Output.Duration")
	if !found || duration != 93 {
		t.Errorf("expected 93 from Output.Duration, got %d (found %t)", duration, found)
	}

	_, missing := IntAtPath(raw, "Output.DurationMillis")
	if missing {
		t.Error("expected a missing field not to be found")
	}

	_, notNumber := IntAtPath(raw, "Output.Key")
	if notNumber {
		t.Error("expected a non-numeric field not to be found")
	}

	_, throughString := IntAtPath(raw, "PipelineId.Something")
	if throughString {
		t.Error("expected a path through a string not to be found")
	}

	fromString, found := IntAtPath(map[string]interface{}{"Duration": "61.7"}, "Duration")
	if !found || fromString != 61 {
		t.Errorf("expected 61 from a string duration, got %d", fromString)
	}
}

func TestToRawMap(t *testing.T) {
	type jobLike struct {
		Id     *string
		Status *string
	}
	id := "abc"
	status := "Submitted"
	raw, err := ToRawMap(jobLike{Id: &id, Status: &status})
	if err != nil {
		t.Fatal("ToRawMap failed unexpectedly: ", err)
	}
	if raw["Id"] != "abc" || raw["Status"] != "Submitted" {
		t.Errorf("ToRawMap gave wrong content: %s", spew.Sdump(raw))
	}
}
