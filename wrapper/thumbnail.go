package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/common/naming"
	log "github.com/sirupsen/logrus"
)

/**
key of the first thumbnail for an output, matching what the webapp expects to find after the job
*/
func ThumbnailKey(out models.OutputSpec, extension string) string {
	return naming.ThumbnailName(out.ThumbnailPattern, out.Key, 1, extension)
}

func RunVideoThumbnail(inputPath string, out models.OutputSpec, extension string, outDir string, atSecond int) TranscodeResult {
	key := ThumbnailKey(out, extension)
	outFileName := LocalPathFor(outDir, key)
	if mkErr := os.MkdirAll(filepath.Dir(outFileName), 0755); mkErr != nil {
		return TranscodeResult{Key: key, ErrorMessage: mkErr.Error()}
	}

	cmd := exec.Command("ffmpeg", "-ss", fmt.Sprint(atSecond), "-i", inputPath, "-vframes", "1", "-an", "-y", outFileName)

	startTime := time.Now()
	_, errContent, err := RunCommand(cmd)
	duration := time.Since(startTime).Seconds()

	if err != nil {
		log.Printf("Thumbnail command failed")
		if _, fileErr := os.Stat(outFileName); !os.IsNotExist(fileErr) {
			log.Printf("Removing intermediate file %s", outFileName)
			os.Remove(outFileName)
		}
		return TranscodeResult{Key: key, TimeTaken: duration, ErrorMessage: string(errContent)}
	}
	return TranscodeResult{Key: key, TimeTaken: duration}
}
