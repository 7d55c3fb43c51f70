package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/webapp/awsclient"
	"github.com/guardian/videoflipper/webapp/k8srunner"
	log "github.com/sirupsen/logrus"
)

func envOrDefault(name string, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}

func GetThumbnailSecond() int {
	stringVal := os.Getenv("THUMBNAIL_SECOND")
	if stringVal == "" {
		return 1
	}
	value, err := strconv.ParseInt(stringVal, 10, 32)
	if err != nil {
		log.Fatalf("Invalid value for THUMBNAIL_SECOND (not an integer): %s", err)
	}
	return int(value)
}

/**
runs inside the kubernetes job created by the webapp. We expect the following environment variables to be set:
TRANSCODE_SPEC={json}  [the transcode job spec]
INPUT_BUCKET, OUTPUT_BUCKET
JOB_ID={uuid-string}
PRESETS_FILE={path}  [yaml of preset id -> ffmpeg settings]
THUMBNAIL_EXTENSION, THUMBNAIL_SECOND, AWS_REGION, LOG_LEVEL  [optional]
*/
func main() {
	workDirPtr := flag.String("workdir", "/tmp/videoflipper", "scratch directory for downloaded and transcoded media")
	flag.Parse()

	helpers.SetupLogger(envOrDefault("LOG_LEVEL", "info"))

	spec, specErr := ParseSpec(os.Getenv("TRANSCODE_SPEC"))
	if specErr != nil {
		log.Fatal("No usable transcode spec, can't continue: ", specErr)
	}
	presets, presetsErr := LoadPresets(envOrDefault("PRESETS_FILE", "/etc/videoflipper/presets.yaml"))
	if presetsErr != nil {
		log.Fatal("No preset settings, can't continue")
	}

	sess, sessErr := awsclient.NewSession(&helpers.AWSConfig{
		Key:    os.Getenv(helpers.ENV_AWS_KEY),
		Secret: os.Getenv(helpers.ENV_AWS_SECRET),
		Region: envOrDefault("AWS_REGION", "ap-southeast-2"),
	})
	if sessErr != nil {
		log.Fatal("Could not set up AWS session: ", sessErr)
	}

	ctx := context.Background()
	inDir := filepath.Join(*workDirPtr, "in")
	outDir := filepath.Join(*workDirPtr, "out")

	inputPath, dlErr := DownloadInput(ctx, s3manager.NewDownloader(sess), os.Getenv("INPUT_BUCKET"), spec, inDir)
	if dlErr != nil {
		log.Fatal(dlErr)
	}

	thumbnailExtension := envOrDefault("THUMBNAIL_EXTENSION", "png")
	thumbnailSecond := GetThumbnailSecond()
	results := make([]TranscodeResult, 0, len(spec.Outputs))
	failed := false
	for _, out := range spec.Outputs {
		result := RunTranscode(inputPath, out, presets, outDir)
		results = append(results, result)
		failed = failed || result.ErrorMessage != ""

		if out.ThumbnailPattern != "" {
			thumbResult := RunVideoThumbnail(inputPath, out, thumbnailExtension, outDir, thumbnailSecond)
			results = append(results, thumbResult)
			failed = failed || thumbResult.ErrorMessage != ""
		}
	}
	if spec.Playlist != nil && len(spec.Playlist.OutputKeys) > 0 {
		if _, playlistErr := WriteMasterPlaylist(spec, presets, outDir); playlistErr != nil {
			log.Printf("ERROR: Could not write playlist: %s", playlistErr)
			failed = true
		}
	}

	summary, _ := json.Marshal(results)
	log.Printf("Transcode results: %s", string(summary))
	if failed {
		log.Fatal("One or more outputs failed, not uploading anything")
	}

	if _, uploadErr := UploadOutputs(ctx, awsclient.NewS3Storage(sess), os.Getenv("OUTPUT_BUCKET"), outDir); uploadErr != nil {
		log.Fatal("Could not upload outputs: ", uploadErr)
	}

	analysis, analysisErr := RunAnalysis(inputPath)
	if analysisErr != nil {
		log.Printf("WARNING: Could not determine media duration: %s", analysisErr)
		return
	}
	k8Client, cliErr := k8srunner.InClusterClient()
	if cliErr != nil {
		log.Printf("WARNING: Not running in a cluster, can't report duration")
		return
	}
	jobClient, jobCliErr := k8srunner.GetJobClient(k8Client, os.Getenv("POD_NAMESPACE"))
	if jobCliErr != nil {
		log.Printf("WARNING: Can't report duration: %s", jobCliErr)
		return
	}
	if reportErr := ReportDuration(os.Getenv("JOB_ID"), analysis.DurationSeconds(), jobClient); reportErr != nil {
		log.Printf("WARNING: Can't report duration: %s", reportErr)
	}
}
