package awsclient

import (
	"bufio"
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/h2non/filetype"
	log "github.com/sirupsen/logrus"
)

//filetype needs at most this many bytes to recognise a container
const sniffLength = 261

type S3Storage struct {
	client   s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

func NewS3Storage(sess *session.Session) *S3Storage {
	return &S3Storage{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}
}

func NewS3StorageWithClients(client s3iface.S3API, uploader s3manageriface.UploaderAPI) *S3Storage {
	return &S3Storage{client: client, uploader: uploader}
}

func (s *S3Storage) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if reqErr, isReqErr := err.(awserr.RequestFailure); isReqErr && reqErr.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	log.Printf("ERROR: Could not check for s3://%s/%s: %s", bucket, key, err)
	return false, err
}

/**
stream the content up to the bucket. The content type is sniffed from the first bytes, and guessed from the key if
that doesn't work
*/
func (s *S3Storage) PutStream(ctx context.Context, bucket string, key string, content io.Reader) error {
	buffered := bufio.NewReaderSize(content, sniffLength*2)
	head, peekErr := buffered.Peek(sniffLength)
	if peekErr != nil && peekErr != io.EOF && peekErr != bufio.ErrBufferFull {
		log.Printf("ERROR: Could not read content for s3://%s/%s: %s", bucket, key, peekErr)
		return peekErr
	}

	contentType := helpers.ContentTypeForFilepath(key)
	kind, matchErr := filetype.Match(head)
	if matchErr == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	_, uploadErr := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        buffered,
		ContentType: aws.String(contentType),
	})
	if uploadErr != nil {
		log.Printf("ERROR: Could not upload to s3://%s/%s: %s", bucket, key, uploadErr)
		return uploadErr
	}
	log.Printf("Uploaded s3://%s/%s as %s", bucket, key, contentType)
	return nil
}

func (s *S3Storage) SetPublic(ctx context.Context, bucket string, key string) error {
	_, err := s.client.PutObjectAclWithContext(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		ACL:    aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		log.Printf("ERROR: Could not make s3://%s/%s public: %s", bucket, key, err)
	}
	return err
}
