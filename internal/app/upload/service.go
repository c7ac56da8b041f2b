package upload

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"bitbucket.org/airenas/callsight/internal/pkg/status"
	"bitbucket.org/airenas/callsight/internal/pkg/utils"
	"github.com/badoux/checkmail"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heptiolabs/healthcheck"
)

//Form parameter names
const (
	PrmFile      = "file"
	PrmTenant    = "tenant"
	PrmUser      = "user"
	PrmLanguage  = "language"
	PrmTranslate = "translate"
	PrmEmail     = "email"
)

//CallSaver registers new calls
type CallSaver interface {
	Insert(call *persistence.Call) error
}

//TenantProvider gives tenant records
type TenantProvider interface {
	Get(id int64) (*persistence.Tenant, error)
}

//Enqueuer passes a registered call to the worker
type Enqueuer interface {
	Enqueue(callID int64)
	Depth() int
	Running() bool
}

type serviceMetric struct {
	uploadResponseDur prometheus.ObserverVec
	uploadRequestSize prometheus.ObserverVec
}

// ServiceData keeps data required for service work
type ServiceData struct {
	CallSaver CallSaver
	Tenants   TenantProvider
	Blobs     blob.Provider
	Queue     Enqueuer

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

// CallResult - post method response in JSON
type CallResult struct {
	ID int64 `json:"id"`
}

//QueueState - queue endpoint response in JSON
type QueueState struct {
	Depth   int  `json:"depth"`
	Running bool `json:"running"`
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
		ReadTimeout:       180 * time.Second,
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
	uh := http.Handler(uploadHandler{data: data})
	if data.metrics.uploadResponseDur != nil {
		uh = promhttp.InstrumentHandlerDuration(data.metrics.uploadResponseDur,
			promhttp.InstrumentHandlerRequestSize(data.metrics.uploadRequestSize, uh))
	}
	router.Methods("POST").Path("/upload").Handler(uh)
	router.Methods("GET").Path("/queue").Handler(queueHandler{data: data})
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	return router
}

type uploadHandler struct {
	data *ServiceData
}

func (h uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Saving file from %s", r.Host)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		http.Error(w, "Can't parse MultipartForm", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't parse MultipartForm"))
		return
	}
	defer cleanFiles(r.MultipartForm)

	email := r.FormValue(PrmEmail)
	if email != "" {
		err := checkmail.ValidateFormat(email)
		if err != nil {
			http.Error(w, "Wrong email", http.StatusBadRequest)
			cmdapp.Log.Errorf("Wrong email")
			return
		}
	}

	tenantID, err := strconv.ParseInt(r.FormValue(PrmTenant), 10, 64)
	if err != nil {
		http.Error(w, "No tenant", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	tenant, err := h.data.Tenants.Get(tenantID)
	if err != nil {
		http.Error(w, "Can't check tenant", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	if tenant == nil {
		http.Error(w, "Unknown tenant", http.StatusBadRequest)
		cmdapp.Log.Errorf("Unknown tenant %d", tenantID)
		return
	}
	userID, _ := strconv.ParseInt(r.FormValue(PrmUser), 10, 64)

	file, handler, err := r.FormFile(PrmFile)
	if err != nil {
		http.Error(w, "No file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	defer file.Close()

	fileName := utils.SanitizeName(handler.Filename)
	ext := strings.ToLower(filepath.Ext(fileName))
	if !utils.SupportedAudioExt(ext) {
		http.Error(w, "Unsupported audio file type "+ext, http.StatusBadRequest)
		cmdapp.Log.Errorf("Unsupported audio file type %s", ext)
		return
	}

	fData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Can't read file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}

	store, err := h.data.Blobs.ForTenant(tenant)
	if err != nil {
		http.Error(w, "Can't open storage", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	blobKey := blob.CallsPrefix + uuid.New().String() + ext
	err = store.Put(tenant.Bucket, blobKey, fData)
	if err != nil {
		http.Error(w, "Can not save file", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}

	call := &persistence.Call{UserID: userID, TenantID: tenantID,
		FileName: fileName, BlobKey: blobKey,
		Status:     status.Name(status.Processing),
		Language:   r.FormValue(PrmLanguage),
		Translate:  r.FormValue(PrmTranslate) == "true",
		Uploaded:   time.Now(),
		UploadedBy: persistence.UploadManual}
	err = h.data.CallSaver.Insert(call)
	if err != nil {
		http.Error(w, "Can not save call to DB", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}

	h.data.Queue.Enqueue(call.ID)

	result := CallResult{ID: call.ID}
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err = encoder.Encode(&result)
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
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

func cleanFiles(f *multipart.Form) {
	if f != nil {
		cmdapp.LogIf(f.RemoveAll())
	}
}
