package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type TranscodeResult struct {
	Key          string  `json:"key"`
	TimeTaken    float64 `json:"timeTaken"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

/**
retrieve the job spec passed in by the webapp
*/
func ParseSpec(rawString string) (*models.TranscodeJobSpec, error) {
	var s models.TranscodeJobSpec
	marshalErr := json.Unmarshal([]byte(rawString), &s)
	if marshalErr != nil {
		log.Printf("Could not understand passed spec: %s. Offending data was: %s", marshalErr, rawString)
		return nil, marshalErr
	}
	if s.InputKey == "" || len(s.Outputs) == 0 {
		return nil, fmt.Errorf("spec must have an input key and at least one output")
	}
	return &s, nil
}

func isSegmented(out models.OutputSpec) bool {
	return out.SegmentDuration != ""
}

/**
the key the transcoded file ends up at. Segmented outputs are written as an HLS playlist named after the key
*/
func ProducedKey(out models.OutputSpec) string {
	if isSegmented(out) {
		return out.Key + ".m3u8"
	}
	return out.Key
}

/**
build the ffmpeg argument list for one output, writing under outDir
*/
func BuildTranscodeArgs(inputPath string, out models.OutputSpec, preset PresetSettings, outDir string) []string {
	localPath := LocalPathFor(outDir, out.Key)

	commandArgs := []string{"-i", inputPath}
	commandArgs = append(commandArgs, preset.Args...)
	if isSegmented(out) {
		commandArgs = append(commandArgs,
			"-f", "hls",
			"-hls_time", out.SegmentDuration,
			"-hls_playlist_type", "vod",
			"-hls_segment_filename", localPath+"%05d.ts",
		)
	}
	return append(commandArgs, "-y", LocalPathFor(outDir, ProducedKey(out)))
}

func RunTranscode(inputPath string, out models.OutputSpec, presets Presets, outDir string) TranscodeResult {
	preset, havePreset := presets[out.PresetId]
	if !havePreset {
		return TranscodeResult{Key: out.Key, ErrorMessage: fmt.Sprintf("no settings for preset %s", out.PresetId)}
	}

	localPath := LocalPathFor(outDir, ProducedKey(out))
	if mkErr := os.MkdirAll(filepath.Dir(localPath), 0755); mkErr != nil {
		return TranscodeResult{Key: out.Key, ErrorMessage: fmt.Sprintf("could not create output directory: %s", mkErr)}
	}

	startTime := time.Now()
	cmd := exec.Command("ffmpeg", BuildTranscodeArgs(inputPath, out, preset, outDir)...)
	_, _, runErr := RunCommand(cmd)
	duration := time.Since(startTime).Seconds()

	if runErr != nil {
		log.Printf("Could not execute command: %s", runErr)
		return TranscodeResult{
			Key:          out.Key,
			TimeTaken:    duration,
			ErrorMessage: fmt.Sprintf("Could not execute command: %s", runErr),
		}
	}

	if _, statErr := os.Stat(localPath); statErr != nil {
		log.Printf("Transcode completed but could not find output file: %s", statErr)
		return TranscodeResult{
			Key:          out.Key,
			TimeTaken:    duration,
			ErrorMessage: fmt.Sprintf("output file missing: %s", statErr),
		}
	}

	return TranscodeResult{
		Key:       ProducedKey(out),
		TimeTaken: duration,
	}
}
