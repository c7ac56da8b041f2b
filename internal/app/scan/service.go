package scan

import (
	"path/filepath"
	"strings"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/metrics"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"bitbucket.org/airenas/callsight/internal/pkg/status"
	"bitbucket.org/airenas/callsight/internal/pkg/utils"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

//TenantLister returns tenants whose storage is scanned
type TenantLister interface {
	ListActive() ([]*persistence.Tenant, error)
}

//CallRegistry checks and registers discovered calls
type CallRegistry interface {
	ExistsByBlobKey(tenantID int64, blobKey string) (bool, error)
	Insert(call *persistence.Call) error
}

//Enqueuer passes a registered call to the worker
type Enqueuer interface {
	Enqueue(callID int64)
}

type serviceData struct {
	tenants  TenantLister
	calls    CallRegistry
	blobs    blob.Provider
	queue    Enqueuer
	runEvery time.Duration

	discovered prometheus.Counter
	enqueued   prometheus.Counter

	qChan        chan struct{}
	workWaitChan chan struct{}
}

func newServiceData(tenants TenantLister, calls CallRegistry, blobs blob.Provider,
	queue Enqueuer, runEvery time.Duration) (*serviceData, error) {
	if tenants == nil || calls == nil || blobs == nil || queue == nil {
		return nil, errors.New("Missing scan dependency")
	}
	res := &serviceData{tenants: tenants, calls: calls, blobs: blobs, queue: queue,
		runEvery: runEvery,
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "callsight_scan_discovered_total",
			Help: "Count of audio objects seen in tenant storage"}),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "callsight_scan_enqueued_total",
			Help: "Count of newly registered calls"}),
		qChan:        make(chan struct{}),
		workWaitChan: make(chan struct{})}
	err := metrics.Register(res.discovered)
	if err != nil {
		return nil, err
	}
	err = metrics.Register(res.enqueued)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func startScanTimer(data *serviceData) error {
	cmdapp.Log.Infof("Starting scan service every %v", data.runEvery)
	go serviceLoop(data)
	return nil
}

func serviceLoop(data *serviceData) {
	ticker := time.NewTicker(data.runEvery)
	// run on startup
	doScan(data)
mainloop:
	for {
		select {
		case <-ticker.C:
			doScan(data)
		case <-data.qChan:
			ticker.Stop()
			break mainloop
		}
	}
	cmdapp.Log.Infof("Stopped scan service")
	close(data.workWaitChan)
}

func doScan(data *serviceData) {
	cmdapp.Log.Info("Scanning tenant storage")
	tenants, err := data.tenants.ListActive()
	if err != nil {
		cmdapp.Log.Error(err)
		return
	}
	cmdapp.Log.Infof("Got %d tenants to scan", len(tenants))
	for _, tenant := range tenants {
		err = scanTenant(data, tenant)
		if err != nil {
			cmdapp.Log.Error(err)
		}
	}
}

func scanTenant(data *serviceData, tenant *persistence.Tenant) error {
	store, err := data.blobs.ForTenant(tenant)
	if err != nil {
		return errors.Wrapf(err, "Can't open storage for tenant %d", tenant.ID)
	}
	prefix := tenant.Prefix
	if prefix == "" {
		prefix = blob.CallsPrefix
	}
	objects, err := store.List(tenant.Bucket, prefix)
	if err != nil {
		return errors.Wrapf(err, "Can't list storage for tenant %d", tenant.ID)
	}
	for _, object := range objects {
		ext := strings.ToLower(filepath.Ext(object.Key))
		if !utils.SupportedAudioExt(ext) {
			continue
		}
		data.discovered.Inc()
		exists, err := data.calls.ExistsByBlobKey(tenant.ID, object.Key)
		if err != nil {
			return errors.Wrapf(err, "Can't check call %s", object.Key)
		}
		if exists {
			continue
		}
		call := &persistence.Call{TenantID: tenant.ID,
			FileName: utils.SanitizeName(filepath.Base(object.Key)),
			BlobKey:  object.Key,
			Status:   status.Name(status.Processing),
			Uploaded: time.Now(), UploadedBy: persistence.UploadAutomatic}
		if err := data.calls.Insert(call); err != nil {
			return errors.Wrapf(err, "Can't register call %s", object.Key)
		}
		cmdapp.Log.Infof("Registered call %d for %s", call.ID, object.Key)
		data.queue.Enqueue(call.ID)
		data.enqueued.Inc()
	}
	return nil
}
