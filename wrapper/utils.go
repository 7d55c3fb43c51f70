package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
)

type Uploader interface {
	PutStream(ctx context.Context, bucket string, key string, content io.Reader) error
}

/**
where a bucket key lives under the given local directory
*/
func LocalPathFor(baseDir string, key string) string {
	return filepath.Join(baseDir, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}

/**
every file under outDir as a bucket key, sorted
*/
func CollectOutputKeys(outDir string) ([]string, error) {
	keys := make([]string, 0)
	walkErr := filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(outDir, path)
		if relErr != nil {
			return relErr
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(keys)
	return keys, walkErr
}

func UploadOutputs(ctx context.Context, uploader Uploader, bucket string, outDir string) ([]string, error) {
	keys, collectErr := CollectOutputKeys(outDir)
	if collectErr != nil {
		return nil, collectErr
	}

	for _, key := range keys {
		f, openErr := os.Open(LocalPathFor(outDir, key))
		if openErr != nil {
			return nil, openErr
		}
		putErr := uploader.PutStream(ctx, bucket, key, f)
		f.Close()
		if putErr != nil {
			log.Printf("ERROR: Could not upload %s to %s: %s", key, bucket, putErr)
			return nil, putErr
		}
		log.Printf("Uploaded %s to %s", key, bucket)
	}
	return keys, nil
}

func DownloadInput(ctx context.Context, downloader s3manageriface.DownloaderAPI, bucket string, spec *models.TranscodeJobSpec, inDir string) (string, error) {
	localPath := LocalPathFor(inDir, spec.InputKey)
	if mkErr := os.MkdirAll(filepath.Dir(localPath), 0755); mkErr != nil {
		return "", mkErr
	}
	f, createErr := os.Create(localPath)
	if createErr != nil {
		return "", createErr
	}
	defer f.Close()

	bytesRead, dlErr := downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(spec.InputKey),
	})
	if dlErr != nil {
		return "", fmt.Errorf("could not download s3://%s/%s: %w", bucket, spec.InputKey, dlErr)
	}
	log.Printf("Downloaded %d bytes from s3://%s/%s", bytesRead, bucket, spec.InputKey)
	return localPath, nil
}
