package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/gorilla/mux"
	"github.com/guardian/videoflipper/common/helpers"
	"github.com/guardian/videoflipper/common/models"
	"github.com/guardian/videoflipper/webapp/awsclient"
	"github.com/guardian/videoflipper/webapp/jobrunner"
	"github.com/guardian/videoflipper/webapp/k8srunner"
	"github.com/guardian/videoflipper/webapp/transcoder"
	"github.com/guardian/videoflipper/webapp/videos"
	log "github.com/sirupsen/logrus"
)

type MyHttpApp struct {
	healthcheck HealthcheckHandler
	queueStats  jobrunner.QueueStatsHandler
	videos      videos.VideoEndpoints
}

func SetupTranscoder(config *helpers.Config, awsSession *session.Session) (transcoder.TranscoderGateway, error) {
	if config.Transcoder.Backend != helpers.TRANSCODER_KUBERNETES {
		return awsclient.NewElasticTranscoder(awsSession), nil
	}

	k8Client, cliErr := k8srunner.GetK8Client(config.Transcoder.KubeConfig)
	if cliErr != nil {
		log.Printf("ERROR: Can't establish communication with Kubernetes: %s", cliErr)
		return nil, cliErr
	}
	jobClient, jobCliErr := k8srunner.GetJobClient(k8Client, config.Transcoder.Namespace)
	if jobCliErr != nil {
		return nil, jobCliErr
	}
	return k8srunner.NewK8sTranscoder(jobClient, config.Transcoder.TemplateFile, config.Bucket, config.TranscodedBucket), nil
}

func main() {
	var app MyHttpApp
	configPath := flag.String("config", "config/serverconfig.yaml", "path to the server configuration file")
	flag.Parse()

	/*
		read in config and establish connection to persistence layer
	*/
	log.Printf("Reading config from %s", *configPath)
	config, configReadErr := helpers.ReadConfig(*configPath)
	if configReadErr != nil {
		log.Fatal("No configuration, can't continue")
	}
	if validateErr := config.Validate(); validateErr != nil {
		log.Fatalf("Configuration is not valid: %s", validateErr)
	}
	logger := helpers.SetupLogger(config.LogLevel)
	log.Print("Done.")

	redisClient, redisErr := helpers.SetupRedis(&config.Redis)
	if redisErr != nil {
		log.Fatal("Could not connect to redis")
	}

	store, storeErr := models.OpenRecordStore(config.Store.Backend, config.Store.SqlitePath, redisClient)
	if storeErr != nil {
		log.Fatalf("Could not open %s record store: %s", config.Store.Backend, storeErr)
	}

	awsSession, sessErr := awsclient.NewSession(&config.AWS)
	if sessErr != nil {
		log.Fatalf("Could not set up AWS session: %s", sessErr)
	}

	transcodeGateway, transcoderErr := SetupTranscoder(config, awsSession)
	if transcoderErr != nil {
		log.Fatalf("Could not set up %s transcoder: %s", config.Transcoder.Backend, transcoderErr)
	}

	settings := transcoder.SettingsFromConfig(config)
	scheduler := jobrunner.NewRedisScheduler(
		redisClient,
		time.Duration(config.Runner.SubmitDelaySeconds)*time.Second,
		time.Duration(config.Runner.CheckDelaySeconds)*time.Second,
	)
	orchestrator := transcoder.NewOrchestrator(
		store,
		scheduler,
		awsclient.NewS3Storage(awsSession),
		transcodeGateway,
		transcoder.NewSourceCleaner(settings, logger),
		logger,
		settings,
	)

	runner := jobrunner.NewTaskRunner(
		redisClient,
		orchestrator,
		logger,
		time.Duration(config.Runner.PollIntervalSeconds)*time.Second,
		time.Duration(config.Runner.TaskTimeoutSeconds)*time.Second,
		config.Runner.MaxTasksPerTick,
	)
	runner.Start()

	app.healthcheck = HealthcheckHandler{redisClient: redisClient, store: store}
	app.queueStats = jobrunner.NewQueueStatsHandler(redisClient)
	app.videos = videos.NewVideoEndpoints(store, orchestrator, config.VideoBaseUrl)

	router := mux.NewRouter()
	router.Handle("/healthcheck", app.healthcheck).Methods("GET")
	router.Handle("/api/queue/stats", app.queueStats).Methods("GET")
	app.videos.WireUp(router, "/api/video")

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Print("Shutting down")
		runner.Stop()
		os.Exit(0)
	}()

	log.Printf("Starting server on %s", config.Listen)
	startServerErr := http.ListenAndServe(config.Listen, router)

	if startServerErr != nil {
		log.Fatal(startServerErr)
	}
}
