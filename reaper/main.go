package main

import (
	"flag"
	"time"

	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/webapp/k8srunner"
	log "github.com/sirupsen/logrus"
	v1 "k8s.io/client-go/kubernetes/typed/batch/v1"
)

var reapableStates = []models.VideoState{models.STATE_COMPLETE, models.STATE_FAILED, models.STATE_STUCK}

/**
remove the kubernetes jobs for a finished video if it was last touched before the cutoff.
Returns the number of kubernetes jobs removed
*/
func ProcessRecord(rec *models.VideoRecord, cutoffTime time.Time, dryRun bool, jobClient v1.JobInterface) (int, error) {
	if !rec.State.IsTerminal() || !rec.UpdatedAt.Before(cutoffTime) {
		return 0, nil
	}
	jobId := rec.JobId()
	if jobId == "" {
		return 0, nil
	}

	log.Printf("Removing old transcode job %s for video %d", jobId, rec.Id)
	return k8srunner.DeleteK8Job(jobId, jobClient, dryRun)
}

/**
go through every finished video and clear out old kubernetes jobs
*/
func Reap(store models.RecordStore, cutoffTime time.Time, dryRun bool, jobClient v1.JobInterface) (int, error) {
	total := 0
	for _, state := range reapableStates {
		records, listErr := store.ListByState(state, 0)
		if listErr != nil {
			log.Printf("ERROR: Could not list videos in state %s: %s", state, listErr)
			return total, listErr
		}
		for _, rec := range records {
			removed, procErr := ProcessRecord(rec, cutoffTime, dryRun, jobClient)
			if procErr != nil {
				return total, procErr
			}
			total += removed
		}
	}
	return total, nil
}

func main() {
	maxAgeHours := flag.Int64("maxage", 36, "delete jobs for videos that finished longer than this many hours ago")
	dryRun := flag.Bool("dryrun", true, "don't actually delete anything")
	configPath := flag.String("config", "config/serverconfig.yaml", "path to the server configuration file")
	kubeConfigPath := flag.String("kubeconfig", "", ".kubeconfig file for running out of cluster. If not specified then in-cluster initialisation will be tried")

	flag.Parse()

	log.Printf("Reading config from %s", *configPath)
	config, configReadErr := helpers.ReadConfig(*configPath)
	if configReadErr != nil {
		log.Fatal("No configuration, can't continue")
	}
	helpers.SetupLogger(config.LogLevel)
	log.Print("Done.")

	if config.Transcoder.Backend != helpers.TRANSCODER_KUBERNETES {
		log.Printf("Transcoder backend is %s, there are no kubernetes jobs to reap", config.Transcoder.Backend)
		return
	}

	log.Printf("Dryrun is %t", *dryRun)
	redisClient, redisErr := helpers.SetupRedis(&config.Redis)
	if redisErr != nil {
		log.Fatal("Could not connect to redis")
	}
	store, storeErr := models.OpenRecordStore(config.Store.Backend, config.Store.SqlitePath, redisClient)
	if storeErr != nil {
		log.Fatalf("Could not open %s record store: %s", config.Store.Backend, storeErr)
	}

	kubeConfig := *kubeConfigPath
	if kubeConfig == "" {
		kubeConfig = config.Transcoder.KubeConfig
	}
	k8Client, cliErr := k8srunner.GetK8Client(kubeConfig)
	if cliErr != nil {
		log.Fatalf("ERROR: Can't establish communication with Kubernetes: %s", cliErr)
	}
	jobClient, jobCliErr := k8srunner.GetJobClient(k8Client, config.Transcoder.Namespace)
	if jobCliErr != nil {
		log.Fatalf("Could not get job client: %s", jobCliErr)
	}

	startTime := time.Now()
	log.Printf("Reaping of old data starting at %s", startTime)

	cutoffTime := startTime.Add(-time.Duration(*maxAgeHours) * time.Hour)
	log.Printf("Cutoff time is %s", cutoffTime)

	removed, reapErr := Reap(store, cutoffTime, *dryRun, jobClient)
	if reapErr != nil {
		log.Fatal(reapErr)
	}

	endTime := time.Now()
	log.Printf("Reaping run removed %d jobs, completed at %s and took %d seconds", removed, endTime, endTime.Unix()-startTime.Unix())
}
