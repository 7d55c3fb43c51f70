package transcoder

import "fmt"

type NotFoundError struct {
	VideoId int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no video record with id %d", e.VideoId)
}

type InvalidStateError struct {
	VideoId int64
	Reason  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("video %d is in the wrong state: %s", e.VideoId, e.Reason)
}

/**
the transcoder reported that the job failed. Not retried
*/
type TranscodeFailedError struct {
	VideoId    int64
	SourcePath string
	JobId      string
}

func (e *TranscodeFailedError) Error() string {
	return fmt.Sprintf("transcode job %s for video %d (%s) failed", e.JobId, e.VideoId, e.SourcePath)
}

/**
the job was polled maxCheckAttempts times without finishing
*/
type StuckError struct {
	VideoId    int64
	SourcePath string
	Attempts   int
}

func (e *StuckError) Error() string {
	return fmt.Sprintf("video %d (%s) still not transcoded after %d checks, giving up", e.VideoId, e.SourcePath, e.Attempts)
}

/**
a check hit an error that may go away (transcoder or store unreachable) and another check has been queued.
Doesn't count towards maxCheckAttempts
*/
type RequeuedError struct {
	VideoId int64
	Err     error
}

func (e *RequeuedError) Error() string {
	return fmt.Sprintf("check for video %d failed, checking again later: %s", e.VideoId, e.Err)
}

func (e *RequeuedError) Unwrap() error {
	return e.Err
}

/**
the record could not be saved. Used to tell a retryable Complete failure from a publish failure
*/
type saveError struct {
	err error
}

func (e *saveError) Error() string {
	return e.err.Error()
}

func (e *saveError) Unwrap() error {
	return e.err
}
