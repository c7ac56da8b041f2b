package scan

import (
	"time"

	"bitbucket.org/airenas/callsight/internal/app/processor"
	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/insights"
	"bitbucket.org/airenas/callsight/internal/pkg/mongo"
	"bitbucket.org/airenas/callsight/internal/pkg/queue"
	"bitbucket.org/airenas/callsight/internal/pkg/transcriber"
	"github.com/spf13/cobra"

	"github.com/heptiolabs/healthcheck"
)

var appName = "CallSight Storage Scan Service"

var rootCmd = &cobra.Command{
	Use:   "scanService",
	Short: appName,
	Long:  `Service to discover new call recordings in tenant storage`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8005)
	cmdapp.Config.SetDefault("fileStorage.path", "/data/audio.in/")
	cmdapp.Config.SetDefault("scan.interval", time.Minute*5)
	cmdapp.Config.SetDefault("transcriber.detailed", true)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)

	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()

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
	worker, err := processor.NewWorker(callStore, transcriptStore, insightsStore,
		tenantStore, blobStore, adapter, generator, processor.NewDurationExtractorFromConfig())
	cmdapp.CheckOrPanic(err, "Can't init worker")

	q, err := queue.NewService(processor.NewPipelineProcessor(worker))
	cmdapp.CheckOrPanic(err, "Can't init queue")
	defer q.Stop()

	data, err := newServiceData(tenantStore, callStore, blobStore, q,
		cmdapp.Config.GetDuration("scan.interval"))
	cmdapp.CheckOrPanic(err, "Can't init scan service")
	err = startScanTimer(data)
	cmdapp.CheckOrPanic(err, "Can't start scan timer")
	defer func() {
		close(data.qChan)
		<-data.workWaitChan
	}()

	webData := &WebData{Port: cmdapp.Config.GetInt("port")}
	webData.health = healthcheck.NewHandler()
	webData.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	err = StartWebServer(webData)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}
