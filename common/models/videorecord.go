package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/guardian/videoflipper/common/naming"
)

type VideoState int

const (
	STATE_NEW VideoState = iota
	STATE_SUBMITTED
	STATE_AWAITING_TRANSCODE
	STATE_COMPLETE
	STATE_FAILED
	STATE_STUCK
)

var AllStates = []VideoState{STATE_NEW, STATE_SUBMITTED, STATE_AWAITING_TRANSCODE, STATE_COMPLETE, STATE_FAILED, STATE_STUCK}

func (s VideoState) String() string {
	switch s {
	case STATE_NEW:
		return "New"
	case STATE_SUBMITTED:
		return "Submitted"
	case STATE_AWAITING_TRANSCODE:
		return "AwaitingTranscode"
	case STATE_COMPLETE:
		return "Complete"
	case STATE_FAILED:
		return "Failed"
	case STATE_STUCK:
		return "Stuck"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

func (s VideoState) IsTerminal() bool {
	return s == STATE_COMPLETE || s == STATE_FAILED || s == STATE_STUCK
}

/**
parse a state name as returned by String(), case-sensitively
*/
func VideoStateFromString(name string) (VideoState, error) {
	for _, s := range AllStates {
		if s.String() == name {
			return s, nil
		}
	}
	return STATE_NEW, fmt.Errorf("'%s' is not a recognised state", name)
}

/**
returns true if a record may move from state `s` to state `to`.
AwaitingTranscode may loop back onto itself while polling and Complete onto itself when a check is redelivered.
Any known state may go back to New, which is the operator reset
*/
func (s VideoState) CanTransitionTo(to VideoState) bool {
	switch s {
	case STATE_NEW:
		return to == STATE_SUBMITTED
	case STATE_SUBMITTED:
		return to == STATE_AWAITING_TRANSCODE || to == STATE_FAILED || to == STATE_NEW
	case STATE_AWAITING_TRANSCODE:
		return to == STATE_AWAITING_TRANSCODE || to == STATE_COMPLETE || to == STATE_FAILED || to == STATE_STUCK || to == STATE_NEW
	case STATE_COMPLETE:
		return to == STATE_COMPLETE || to == STATE_NEW
	case STATE_FAILED, STATE_STUCK:
		return to == STATE_NEW
	default:
		return false
	}
}

var ErrRecordNotFound = errors.New("video record not found")

type VideoRecord struct {
	Id                     int64                  `json:"id" gorm:"primaryKey;autoIncrement"`
	SourceFile             string                 `json:"sourceFile"`
	OriginalName           string                 `json:"originalName"`
	Submitted              bool                   `json:"submitted" gorm:"index"`
	State                  VideoState             `json:"state" gorm:"index"`
	Outputs                []string               `json:"outputs" gorm:"serializer:json"`
	Playlist               string                 `json:"playlist"`
	Thumbnail              string                 `json:"thumbnail"`
	Duration               int                    `json:"duration"`
	JobData                map[string]interface{} `json:"jobData" gorm:"serializer:json"`
	DeleteSourceOnComplete bool                   `json:"deleteSourceOnComplete"`
	CheckAttempts          int                    `json:"checkAttempts"`
	ErrorMessage           string                 `json:"errorMessage"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

/**
create a new, unsaved record pointing at the given source file
*/
func NewVideoRecord(sourceFile string) *VideoRecord {
	return &VideoRecord{
		SourceFile:             sourceFile,
		OriginalName:           naming.BaseName(sourceFile),
		State:                  STATE_NEW,
		Outputs:                []string{},
		DeleteSourceOnComplete: true,
	}
}

func (r *VideoRecord) HasSource() bool {
	return r.SourceFile != ""
}

/**
overwrite every completion artifact in one go. Nothing from a previous job is kept
*/
func (r *VideoRecord) SetOutputs(outputs []string, playlist string, thumbnail string, duration int) {
	if outputs == nil {
		outputs = []string{}
	}
	r.Outputs = outputs
	r.Playlist = playlist
	r.Thumbnail = thumbnail
	r.Duration = duration
}

func (r *VideoRecord) SetJobData(data map[string]interface{}) {
	r.JobData = data
}

/**
the transcoder's job identifier, or an empty string if no job has been recorded
*/
func (r *VideoRecord) JobId() string {
	if r.JobData == nil {
		return ""
	}
	if id, isStr := r.JobData["Id"].(string); isStr {
		return id
	}
	return ""
}

/**
move to a new state, refusing illegal transitions
*/
func (r *VideoRecord) TransitionTo(to VideoState) error {
	if !r.State.CanTransitionTo(to) {
		return fmt.Errorf("video %d can't move from %s to %s", r.Id, r.State, to)
	}
	r.State = to
	return nil
}

/**
clear all job and output state so the record can be submitted again
*/
func (r *VideoRecord) Reset() {
	r.Submitted = false
	r.State = STATE_NEW
	r.JobData = nil
	r.CheckAttempts = 0
	r.ErrorMessage = ""
	r.SetOutputs(nil, "", "", 0)
}

/**
persistence for video records. Implementations must make MarkSubmitted an atomic check-and-set
*/
type RecordStore interface {
	Create(rec *VideoRecord) error
	FindByID(id int64) (*VideoRecord, error)
	Persist(rec *VideoRecord) error
	//sets submitted=true and state=Submitted only if submitted was false. Returns whether this call made the change
	MarkSubmitted(id int64) (bool, error)
	ListByState(state VideoState, limit int) ([]*VideoRecord, error)
}
