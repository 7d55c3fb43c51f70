package main

import (
	"encoding/json"
	"math"
	"os/exec"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
)

type FormatAnalysis struct {
	StreamCount    int16  `json:"nb_streams"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
}

type AnalysisResult struct {
	Format FormatAnalysis `json:"format"`
}

/**
whole seconds of media, rounded down. 0 if ffprobe could not tell
*/
func (a *AnalysisResult) DurationSeconds() int {
	parsed, err := strconv.ParseFloat(a.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return int(math.Floor(parsed))
}

func ParseAnalysis(outContent []byte) (*AnalysisResult, error) {
	var result AnalysisResult
	unmarshalErr := json.Unmarshal(outContent, &result)
	if unmarshalErr != nil {
		log.Print("Offending content was ", string(outContent))
		log.Print("Could not unmarshal content from subprocess: ", unmarshalErr)
		return nil, unmarshalErr
	}
	return &result, nil
}

func RunAnalysis(fileName string) (*AnalysisResult, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-of", "json", "-show_format", fileName)

	outContent, _, err := RunCommand(cmd)
	if err != nil {
		return nil, err
	}

	result, parseErr := ParseAnalysis(outContent)
	if parseErr != nil {
		return nil, parseErr
	}
	log.Debugf("format result was: %s", spew.Sdump(result.Format))
	return result, nil
}
