package k8srunner

import (
	"errors"

	v1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
)

/**
in-memory stand-in for the batch Jobs client. List honours an exact "key=value" label selector
*/
type JobInterfaceMock struct {
	CreateErr   error
	JobsCreated []*v1.Job
	Existing    []v1.Job

	ListCalledWith []metav1.ListOptions
	ListError      error

	Deleted   []string
	DeleteErr error

	Patches  map[string][]byte
	PatchErr error
}

func (j *JobInterfaceMock) Create(newJob *v1.Job) (*v1.Job, error) {
	if j.CreateErr != nil {
		return nil, j.CreateErr
	}
	j.JobsCreated = append(j.JobsCreated, newJob)
	return newJob, nil
}

func (j *JobInterfaceMock) Update(*v1.Job) (*v1.Job, error) {
	return nil, errors.New("JobInterfaceMock does not implement this")
}

func (j *JobInterfaceMock) UpdateStatus(*v1.Job) (*v1.Job, error) {
	return nil, errors.New("JobInterfaceMock does not implement this")
}

func (j *JobInterfaceMock) Delete(name string, options *metav1.DeleteOptions) error {
	if j.DeleteErr != nil {
		return j.DeleteErr
	}
	j.Deleted = append(j.Deleted, name)
	return nil
}

func (j *JobInterfaceMock) DeleteCollection(options *metav1.DeleteOptions, listOptions metav1.ListOptions) error {
	return errors.New("JobInterfaceMock does not implement this")
}

func (j *JobInterfaceMock) Get(name string, options metav1.GetOptions) (*v1.Job, error) {
	for _, job := range j.Existing {
		if job.Name == name {
			rtn := job
			return &rtn, nil
		}
	}
	return nil, errors.New("not found")
}

func (j *JobInterfaceMock) List(opts metav1.ListOptions) (*v1.JobList, error) {
	j.ListCalledWith = append(j.ListCalledWith, opts)
	if j.ListError != nil {
		return nil, j.ListError
	}

	selector, parseErr := metav1.ParseToLabelSelector(opts.LabelSelector)
	if parseErr != nil {
		return nil, parseErr
	}
	result := &v1.JobList{}
	for _, job := range j.Existing {
		matches := true
		for k, v := range selector.MatchLabels {
			if job.Labels[k] != v {
				matches = false
			}
		}
		if matches {
			result.Items = append(result.Items, job)
		}
	}
	return result, nil
}

func (j *JobInterfaceMock) Watch(opts metav1.ListOptions) (watch.Interface, error) {
	return nil, errors.New("JobInterfaceMock does not implement this")
}

func (j *JobInterfaceMock) Patch(name string, pt types.PatchType, data []byte, subresources ...string) (result *v1.Job, err error) {
	if j.PatchErr != nil {
		return nil, j.PatchErr
	}
	if j.Patches == nil {
		j.Patches = make(map[string][]byte)
	}
	j.Patches[name] = data
	return j.Get(name, metav1.GetOptions{})
}
