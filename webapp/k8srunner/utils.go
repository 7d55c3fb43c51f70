package k8srunner

// see https://github.com/kubernetes/client-go/blob/master/examples/in-cluster-client-configuration/main.go

import (
	"errors"
	"io/ioutil"
	"os"
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"
	v1batch "k8s.io/api/batch/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	v1 "k8s.io/client-go/kubernetes/typed/batch/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	//
	// Uncomment to load all auth plugins
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

const namespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

/**
initialise connection to Kubernetes from a pod within the cluster
*/
func InClusterClient() (*kubernetes.Clientset, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		log.Print("Could not establish cluster connection: ", err)
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		log.Print("Could not establish cluster connection: ", err)
		return nil, err
	}

	return clientset, nil
}

/**
initialise a connection to Kubernetes from outside the cluster. This requires a kubeconfig file (e.g. for kubectl)
to describe how to connect and authorise to the cluster
*/
func OutOfClusterClient(kubeConfigPath string) (*kubernetes.Clientset, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	if err != nil {
		log.Print("Could not build out-of-cluster config: ", err)
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		log.Print("Could not establish cluster connection: ", err)
		return nil, err
	}

	return clientset, nil
}

/**
in-cluster if no kubeconfig path is given, otherwise out-of-cluster
*/
func GetK8Client(kubeConfigPath string) (*kubernetes.Clientset, error) {
	if kubeConfigPath == "" {
		return InClusterClient()
	}
	return OutOfClusterClient(kubeConfigPath)
}

/**
determine the namespace that we are running in. An explicitly configured namespace wins; otherwise this
assumes that it is running inside a cluster
*/
func GetMyNamespace(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	_, statErr := os.Stat(namespaceFile)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			log.Printf("Not running in a cluster and no namespace configured")
			return "", errors.New("no namespace available")
		}
		log.Print("ERROR asserting kubernetes namespace: ", statErr)
		return "", statErr
	}

	content, readErr := ioutil.ReadFile(namespaceFile)
	if readErr != nil {
		log.Print("Could not read in k8s namespace: ", readErr)
		return "", readErr
	}
	return strings.TrimSpace(string(content)), nil
}

/**
helper function to get a "Jobs" client from the clientset
*/
func GetJobClient(k8client *kubernetes.Clientset, namespace string) (v1.JobInterface, error) {
	ns, nsErr := GetMyNamespace(namespace)
	if nsErr != nil {
		return nil, nsErr
	}
	return k8client.BatchV1().Jobs(ns), nil
}

/**
Loads up the job manifest used for each transcode
*/
func LoadFromTemplate(fileName string) (*v1batch.Job, error) {
	bytes, readErr := ioutil.ReadFile(fileName)
	if readErr != nil {
		return nil, readErr
	}
	//THIS is the right way to read k8s manifests.... https://github.com/kubernetes/client-go/issues/193
	decode := scheme.Codecs.UniversalDeserializer()

	obj, _, err := decode.Decode(bytes, nil, nil)
	if err != nil {
		return nil, err
	}

	switch typed := obj.(type) {
	case *v1batch.Job:
		if len(typed.Spec.Template.Spec.Containers) == 0 {
			return nil, errors.New("job template has no containers")
		}
		return typed, nil
	default:
		log.Printf("Expected to get a job from template %s but got %s instead", fileName, reflect.TypeOf(obj).String())
		return nil, errors.New("Wrong manifest type")
	}
}
