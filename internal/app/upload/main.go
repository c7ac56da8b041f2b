package upload

import (
	"time"

	"bitbucket.org/airenas/callsight/internal/app/processor"
	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/insights"
	"bitbucket.org/airenas/callsight/internal/pkg/metrics"
	"bitbucket.org/airenas/callsight/internal/pkg/mongo"
	"bitbucket.org/airenas/callsight/internal/pkg/queue"
	"bitbucket.org/airenas/callsight/internal/pkg/transcriber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/heptiolabs/healthcheck"
)

var rootCmd = &cobra.Command{
	Use:   "uploadService",
	Short: "CallSight Upload Audio File Service",
	Long:  `HTTP server to listen and upload call recordings for analysis`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8001)
	cmdapp.Config.SetDefault("fileStorage.path", "/data/audio.in/")
	cmdapp.Config.SetDefault("transcriber.detailed", true)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting uploadService")
	var data ServiceData
	var err error
	data.health = healthcheck.NewHandler()

	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	callStore, err := mongo.NewCallStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init call store")
	data.CallSaver = callStore
	transcriptStore, err := mongo.NewTranscriptStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init transcript store")
	insightsStore, err := mongo.NewInsightsStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init insights store")
	tenantStore, err := mongo.NewTenantStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init tenant store")
	data.Tenants = tenantStore

	blobStore, err := blob.NewLocalStore(cmdapp.Config.GetString("fileStorage.path"))
	cmdapp.CheckOrPanic(err, "Can't init blob storage")
	data.Blobs = blobStore

	trClient, err := transcriber.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init speech client")
	adapter, err := transcriber.NewAdapter(trClient)
	cmdapp.CheckOrPanic(err, "Can't init transcription adapter")

	generator := insights.NewGeneratorFromConfig()
	worker, err := processor.NewWorker(callStore, transcriptStore, insightsStore,
		tenantStore, blobStore, adapter, generator, processor.NewDurationExtractorFromConfig())
	cmdapp.CheckOrPanic(err, "Can't init worker")

	q, err := queue.NewService(processor.NewPipelineProcessor(worker))
	cmdapp.CheckOrPanic(err, "Can't init queue")
	defer q.Stop()
	data.Queue = q

	err = initMetrics(&data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	data.Port = cmdapp.Config.GetInt("port")
	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initMetrics(data *ServiceData) error {
	namespace := "upload_service"
	data.metrics.uploadResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_durations_seconds",
			Help:      "Upload request latency distributions.",
		}, nil)
	err := metrics.Register(data.metrics.uploadResponseDur)
	if err != nil {
		return err
	}
	data.metrics.uploadRequestSize = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "request_size_bytes",
			Help:      "Upload request size in bytes."}, nil)
	return metrics.Register(data.metrics.uploadRequestSize)
}
