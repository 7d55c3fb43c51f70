package awsclient

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guardian/videoflipper/common/helpers"
	log "github.com/sirupsen/logrus"
)

/**
build an AWS session from config. If no key is configured the SDK's default credential chain is used
*/
func NewSession(config *helpers.AWSConfig) (*session.Session, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.Key != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.Key, config.Secret, "")
	} else {
		log.Printf("WARNING: No AWS key configured, falling back to the default credential chain")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		log.Printf("ERROR: Could not establish AWS session: %s", err)
		return nil, err
	}
	return sess, nil
}
