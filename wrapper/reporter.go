package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/guardian/videoflipper/webapp/k8srunner"
	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/types"
	batchv1 "k8s.io/client-go/kubernetes/typed/batch/v1"
)

/**
record the media duration on our own job so the webapp can pick it up when it reads the job
*/
func ReportDuration(jobId string, seconds int, jobClient batchv1.JobInterface) error {
	jobs, findErr := k8srunner.FindJobsFor(jobId, jobClient)
	if findErr != nil {
		return findErr
	}
	if len(jobs) == 0 {
		return fmt.Errorf("could not find a kubernetes job for %s", jobId)
	}

	patch := map[string]interface{}{
		"metadata": map[string]interface{}{
			"annotations": map[string]string{
				k8srunner.ANNOTATION_DURATION: strconv.Itoa(seconds),
			},
		},
	}
	patchBytes, marshalErr := json.Marshal(patch)
	if marshalErr != nil {
		return marshalErr
	}

	_, patchErr := jobClient.Patch(jobs[0].Name, types.MergePatchType, patchBytes)
	if patchErr != nil {
		log.Printf("ERROR: Could not annotate job %s with duration: %s", jobs[0].Name, patchErr)
		return patchErr
	}
	return nil
}
