package transcoder

import (
	"os"

	"github.com/guardian/videoflipper/common/models"
	"github.com/sirupsen/logrus"
)

/**
CompletionHook that deletes the local source upload once a video is done, if the record asks for that
*/
type SourceCleaner struct {
	settings Settings
	logger   logrus.FieldLogger
}

func NewSourceCleaner(settings Settings, logger logrus.FieldLogger) *SourceCleaner {
	return &SourceCleaner{settings: settings, logger: logger}
}

func (c *SourceCleaner) OnProcessingComplete(rec *models.VideoRecord) error {
	if !rec.DeleteSourceOnComplete || !rec.HasSource() {
		return nil
	}
	sourcePath := c.settings.ResolveSource(rec.SourceFile)
	err := os.Remove(sourcePath)
	if os.IsNotExist(err) {
		c.logger.WithField("videoId", rec.Id).Warnf("Source %s was already gone", sourcePath)
		return nil
	} else if err != nil {
		return err
	}
	c.logger.WithField("videoId", rec.Id).Infof("Removed source %s", sourcePath)
	return nil
}
