package k8srunner

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/guardian/videoflipper/common/models"
	log "github.com/sirupsen/logrus"
	v1batch "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	batchv1 "k8s.io/client-go/kubernetes/typed/batch/v1"
)

const (
	LABEL_JOB_ID        = "videoflipper.jobId"
	ANNOTATION_SPEC     = "videoflipper/spec"
	ANNOTATION_DURATION = "videoflipper/duration"

	STATUS_SUBMITTED   = "Submitted"
	STATUS_PROGRESSING = "Progressing"
	STATUS_COMPLETE    = "Complete"
	STATUS_ERROR       = "Error"
)

/**
TranscoderGateway that runs each transcode as a Kubernetes Job built from a manifest template.
The container gets the job spec as json in TRANSCODE_SPEC and is expected to read from INPUT_BUCKET and write every
output key into OUTPUT_BUCKET
*/
type K8sTranscoder struct {
	jobClient    batchv1.JobInterface
	templateFile string
	inputBucket  string
	outputBucket string
}

func NewK8sTranscoder(jobClient batchv1.JobInterface, templateFile string, inputBucket string, outputBucket string) *K8sTranscoder {
	return &K8sTranscoder{
		jobClient:    jobClient,
		templateFile: templateFile,
		inputBucket:  inputBucket,
		outputBucket: outputBucket,
	}
}

func (k *K8sTranscoder) CreateJob(ctx context.Context, spec *models.TranscodeJobSpec) (*models.JobResult, error) {
	jobId := uuid.New().String()

	specJson, marshalErr := json.Marshal(spec)
	if marshalErr != nil {
		return nil, marshalErr
	}

	jobPtr, loadErr := LoadFromTemplate(k.templateFile)
	if loadErr != nil {
		log.Printf("ERROR: Could not load job template %s: %s", k.templateFile, loadErr)
		return nil, loadErr
	}

	currentLabels := jobPtr.GetLabels()
	if currentLabels == nil {
		currentLabels = make(map[string]string)
	}
	currentLabels[LABEL_JOB_ID] = jobId
	jobPtr.SetLabels(currentLabels)

	currentAnnotations := jobPtr.GetAnnotations()
	if currentAnnotations == nil {
		currentAnnotations = make(map[string]string)
	}
	currentAnnotations[ANNOTATION_SPEC] = string(specJson)
	jobPtr.SetAnnotations(currentAnnotations)

	envVars := map[string]string{
		"TRANSCODE_SPEC": string(specJson),
		"INPUT_BUCKET":   k.inputBucket,
		"OUTPUT_BUCKET":  k.outputBucket,
		"JOB_ID":         jobId,
	}
	vars := make([]corev1.EnvVar, 0, len(envVars))
	for _, name := range []string{"TRANSCODE_SPEC", "INPUT_BUCKET", "OUTPUT_BUCKET", "JOB_ID"} {
		vars = append(vars, corev1.EnvVar{Name: name, Value: envVars[name]})
	}
	for _, v := range jobPtr.Spec.Template.Spec.Containers[0].Env {
		if _, haveOverwrite := envVars[v.Name]; !haveOverwrite {
			vars = append(vars, v)
		}
	}
	jobPtr.Spec.Template.Spec.Containers[0].Env = vars

	jobPtr.ObjectMeta.Name = ""
	jobPtr.ObjectMeta.GenerateName = "videoflipper-transcode-"

	_, createErr := k.jobClient.Create(jobPtr)
	if createErr != nil {
		log.Printf("ERROR: Can't create transcode job for %s: %s", spec.InputKey, createErr)
		return nil, createErr
	}

	return models.JobResultFromMap(rawJobDescription(jobId, STATUS_SUBMITTED, spec, nil))
}

/**
build a job description in the same shape the managed transcoder gives back, so the rest of the system does not care
which one ran the job
*/
func rawJobDescription(jobId string, status string, spec *models.TranscodeJobSpec, duration *int) map[string]interface{} {
	raw := map[string]interface{}{
		"Id":     jobId,
		"Status": status,
	}
	if spec == nil {
		return raw
	}
	raw["PipelineId"] = spec.PipelineId
	raw["Input"] = map[string]interface{}{"Key": spec.InputKey}

	outputs := make([]interface{}, len(spec.Outputs))
	for i, out := range spec.Outputs {
		entry := map[string]interface{}{
			"Key":      out.Key,
			"PresetId": out.PresetId,
		}
		if out.ThumbnailPattern != "" {
			entry["ThumbnailPattern"] = out.ThumbnailPattern
		}
		if duration != nil {
			entry["Duration"] = float64(*duration)
		}
		outputs[i] = entry
	}
	raw["Outputs"] = outputs
	if len(outputs) > 0 {
		raw["Output"] = outputs[0]
	}

	if spec.Playlist != nil && len(spec.Playlist.OutputKeys) > 0 {
		raw["Playlists"] = []interface{}{
			map[string]interface{}{"Name": spec.Playlist.Name, "Format": spec.Playlist.Format},
		}
	}
	return raw
}

func statusForJob(job *v1batch.Job) string {
	for _, cond := range job.Status.Conditions {
		if cond.Status != corev1.ConditionTrue {
			continue
		}
		if cond.Type == v1batch.JobFailed {
			return STATUS_ERROR
		} else if cond.Type == v1batch.JobComplete {
			return STATUS_COMPLETE
		}
	}
	if job.Status.Succeeded > 0 {
		return STATUS_COMPLETE
	}
	return STATUS_PROGRESSING
}

/**
find every Kubernetes job carrying the given transcode id, following list pagination
*/
func FindJobsFor(jobId string, jobClient batchv1.JobInterface) ([]v1batch.Job, error) {
	continueToken := ""
	rtn := make([]v1batch.Job, 0)

	for {
		listOpts := metav1.ListOptions{
			LabelSelector: fmt.Sprintf("%s=%s", LABEL_JOB_ID, jobId),
			Continue:      continueToken,
		}
		result, err := jobClient.List(listOpts)
		if err != nil {
			log.Printf("ERROR: Could not list k8s jobs for %s: %s", jobId, err)
			return nil, err
		}
		rtn = append(rtn, result.Items...)
		if result.Continue == "" {
			return rtn, nil
		}
		continueToken = result.Continue
	}
}

func (k *K8sTranscoder) ReadJob(ctx context.Context, jobId string) (*models.JobResult, error) {
	jobs, err := FindJobsFor(jobId, k.jobClient)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		log.Printf("WARNING: No k8s job found for transcode %s, treating it as failed", jobId)
		return models.JobResultFromMap(rawJobDescription(jobId, STATUS_ERROR, nil, nil))
	}

	job := jobs[0]
	var spec *models.TranscodeJobSpec
	if specJson, haveSpec := job.Annotations[ANNOTATION_SPEC]; haveSpec {
		var decoded models.TranscodeJobSpec
		if unmarshalErr := json.Unmarshal([]byte(specJson), &decoded); unmarshalErr != nil {
			log.Printf("ERROR: Job %s has a corrupted spec annotation: %s", job.Name, unmarshalErr)
		} else {
			spec = &decoded
		}
	}

	var duration *int
	if durationString, haveDuration := job.Annotations[ANNOTATION_DURATION]; haveDuration {
		if parsed, parseErr := strconv.Atoi(durationString); parseErr == nil {
			duration = &parsed
		}
	}

	return models.JobResultFromMap(rawJobDescription(jobId, statusForJob(&job), spec, duration))
}

/**
delete all kubernetes job objects associated with the given transcode. Jobs that are still running are left alone.
*/
func DeleteK8Job(jobId string, jobClient batchv1.JobInterface, dryRun bool) (int, error) {
	matchingJobs, err := FindJobsFor(jobId, jobClient)
	if err != nil {
		return 0, err
	}

	var dryRunValue []string
	if dryRun {
		dryRunValue = []string{metav1.DryRunAll}
	}
	policy := metav1.DeletePropagationBackground

	deleted := 0
	for _, k8job := range matchingJobs {
		if statusForJob(&k8job) == STATUS_PROGRESSING {
			log.Printf("%s seems to still be active, not removing it.", k8job.Name)
			continue
		}
		delErr := jobClient.Delete(k8job.Name, &metav1.DeleteOptions{
			DryRun:            dryRunValue,
			PropagationPolicy: &policy,
		})
		if delErr != nil {
			//not a fatal error
			log.Printf("ERROR: Could not delete k8 job %s for transcode %s: %s", k8job.Name, jobId, delErr)
		} else {
			deleted++
		}
	}
	return deleted, nil
}
