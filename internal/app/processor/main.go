package processor

import (
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/audio"
	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/insights"
	"bitbucket.org/airenas/callsight/internal/pkg/mongo"
	"bitbucket.org/airenas/callsight/internal/pkg/queue"
	"bitbucket.org/airenas/callsight/internal/pkg/status"
	"bitbucket.org/airenas/callsight/internal/pkg/transcriber"
	"github.com/spf13/cobra"

	"github.com/heptiolabs/healthcheck"
)

var rootCmd = &cobra.Command{
	Use:   "processorService",
	Short: "CallSight Call Processing Service",
	Long:  `Worker service to transcribe and analyze uploaded calls`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8003)
	cmdapp.Config.SetDefault("fileStorage.path", "/data/audio.in/")
	cmdapp.Config.SetDefault("backlog.interval", time.Minute)
	cmdapp.Config.SetDefault("duration.attempts", 2)
	cmdapp.Config.SetDefault("transcriber.detailed", true)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting processorService")
	var data ServiceData
	var err error
	data.health = healthcheck.NewHandler()

	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	callStore, err := mongo.NewCallStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init call store")
	transcriptStore, err := mongo.NewTranscriptStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init transcript store")
	insightsStore, err := mongo.NewInsightsStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init insights store")
	tenantStore, err := mongo.NewTenantStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init tenant store")

	blobStore, err := blob.NewLocalStore(cmdapp.Config.GetString("fileStorage.path"))
	cmdapp.CheckOrPanic(err, "Can't init blob storage")

	trClient, err := transcriber.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init speech client")
	adapter, err := transcriber.NewAdapter(trClient)
	cmdapp.CheckOrPanic(err, "Can't init transcription adapter")

	generator := insights.NewGeneratorFromConfig()

	worker, err := NewWorker(callStore, transcriptStore, insightsStore, tenantStore,
		blobStore, adapter, generator, NewDurationExtractorFromConfig())
	cmdapp.CheckOrPanic(err, "Can't init worker")
	data.Worker = worker

	data.Queue, err = queue.NewService(NewPipelineProcessor(worker))
	cmdapp.CheckOrPanic(err, "Can't init queue")
	defer data.Queue.Stop()

	stopBacklog := startBacklogLoop(callStore, data.Queue,
		cmdapp.Config.GetDuration("backlog.interval"))
	defer close(stopBacklog)

	data.Port = cmdapp.Config.GetInt("port")
	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

//NewDurationExtractorFromConfig prepares the duration client, nil disables extraction
func NewDurationExtractorFromConfig() DurationExtractor {
	urlStr := cmdapp.Config.GetString("duration.url")
	if urlStr == "" {
		cmdapp.Log.Warn("No duration service configured")
		return nil
	}
	client, err := audio.NewDurationClient(urlStr)
	if err != nil {
		cmdapp.Log.Warnf("Can't init duration client: %v", err)
		return nil
	}
	attempts := cmdapp.Config.GetInt("duration.attempts")
	return func(store blob.Store, bucket, key, fileName string) (int, error) {
		return audio.ExtractWithRetry(client, store, bucket, key, fileName, attempts)
	}
}

//startBacklogLoop enqueues calls left in PROCESSING state, on startup and periodically
func startBacklogLoop(calls CallStore, q *queue.Service, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		enqueueBacklog(calls, q)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				enqueueBacklog(calls, q)
			case <-stop:
				return
			}
		}
	}()
	return stop
}

func enqueueBacklog(calls CallStore, q *queue.Service) {
	waiting, err := calls.ListByStatus(status.Name(status.Processing))
	if err != nil {
		cmdapp.Log.Errorf("Can't list waiting calls: %v", err)
		return
	}
	if len(waiting) > 0 {
		cmdapp.Log.Infof("Enqueuing %d waiting calls", len(waiting))
	}
	for _, call := range waiting {
		q.Enqueue(call.ID)
	}
}
