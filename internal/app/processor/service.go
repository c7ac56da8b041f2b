package processor

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/queue"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heptiolabs/healthcheck"
)

// ServiceData keeps data required for service work
type ServiceData struct {
	Queue  *queue.Service
	Worker *Worker

	Port   int
	health healthcheck.Handler
}

//QueueState - queue endpoint response in JSON
type QueueState struct {
	Depth   int  `json:"depth"`
	Running bool `json:"running"`
}

//PipelineProcessor runs the worker and the repair pass after every call
type PipelineProcessor struct {
	worker *Worker
}

//NewPipelineProcessor wraps the worker for the queue
func NewPipelineProcessor(worker *Worker) *PipelineProcessor {
	return &PipelineProcessor{worker: worker}
}

//Process handles one queued call
func (p *PipelineProcessor) Process(callID int64) error {
	err := p.worker.Process(callID)
	if procErr, ok := err.(*ProcError); ok {
		cmdapp.Log.Errorf("Call %d ended with %s failure", callID, procErr.Kind)
	}
	p.worker.SafetyPass()
	return err
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Methods("GET").Path("/queue").Handler(queueHandler{data: data})
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	return router
}

type queueHandler struct {
	data *ServiceData
}

func (h queueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result := QueueState{Depth: h.data.Queue.Depth(), Running: h.data.Queue.Running()}
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err := encoder.Encode(&result)
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}
