package models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
)

/**
one rendition to ask the transcoder for. Key and ThumbnailPattern have already had {name} filled in
*/
type OutputSpec struct {
	Key              string `json:"key"`
	PresetId         string `json:"presetId"`
	ThumbnailPattern string `json:"thumbnailPattern,omitempty"`
	SegmentDuration  string `json:"segmentDuration,omitempty"`
}

type PlaylistSpec struct {
	Format     string   `json:"format"`
	Name       string   `json:"name"`
	OutputKeys []string `json:"outputKeys"`
}

/**
everything needed to submit one transcode. Built at submission time and not persisted
*/
type TranscodeJobSpec struct {
	PipelineId string        `json:"pipelineId"`
	InputKey   string        `json:"inputKey"`
	Outputs    []OutputSpec  `json:"outputs"`
	Playlist   *PlaylistSpec `json:"playlist,omitempty"`
}

type JobOutputResult struct {
	Key              string `mapstructure:"Key"`
	PresetId         string `mapstructure:"PresetId"`
	ThumbnailPattern string `mapstructure:"ThumbnailPattern"`
}

type PlaylistResult struct {
	Name string `mapstructure:"Name"`
}

/**
a transcoder's description of a job. Raw holds the full description as returned, and is what gets stored
as the record's job data
*/
type JobResult struct {
	Id        string                 `mapstructure:"Id"`
	Status    string                 `mapstructure:"Status"`
	Outputs   []JobOutputResult      `mapstructure:"Outputs"`
	Playlists []PlaylistResult       `mapstructure:"Playlists"`
	Raw       map[string]interface{} `mapstructure:"-"`
}

/**
decode a raw job description (as unmarshalled from json) into a JobResult
*/
func JobResultFromMap(raw map[string]interface{}) (*JobResult, error) {
	var result JobResult
	decodeErr := CustomisedMapStructureDecode(raw, &result)
	if decodeErr != nil {
		log.Printf("ERROR: Could not decode job description: %s. Offending data was %s", decodeErr, spew.Sdump(raw))
		return nil, decodeErr
	}
	if result.Id == "" {
		log.Printf("ERROR: Job description had no Id. Offending data was %s", spew.Sdump(raw))
		return nil, errors.New("job description had no Id")
	}
	result.Raw = raw
	return &result, nil
}

/**
convert any json-able struct (e.g. an SDK response) into the generic map form used for job data
*/
func ToRawMap(from interface{}) (map[string]interface{}, error) {
	content, marshalErr := json.Marshal(from)
	if marshalErr != nil {
		return nil, marshalErr
	}
	var rtn map[string]interface{}
	unmarshalErr := json.Unmarshal(content, &rtn)
	return rtn, unmarshalErr
}

/**
walk a dotted path ("Output.Duration") through nested maps
*/
func LookupPath(raw map[string]interface{}, dottedPath string) (interface{}, bool) {
	if raw == nil || dottedPath == "" {
		return nil, false
	}
	var current interface{} = raw
	for _, part := range strings.Split(dottedPath, ".") {
		asMap, isMap := current.(map[string]interface{})
		if !isMap {
			return nil, false
		}
		next, haveIt := asMap[part]
		if !haveIt || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

/**
read a whole number of seconds from the value at dottedPath. Anything missing or non-numeric counts as not found
*/
func IntAtPath(raw map[string]interface{}, dottedPath string) (int, bool) {
	value, found := LookupPath(raw, dottedPath)
	if !found {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return int(math.Floor(v)), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		parsed, parseErr := strconv.ParseFloat(v, 64)
		if parseErr != nil {
			return 0, false
		}
		return int(math.Floor(parsed)), true
	default:
		return 0, false
	}
}
