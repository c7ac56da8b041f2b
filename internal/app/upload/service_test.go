package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"bitbucket.org/airenas/callsight/internal/pkg/status"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCallSaver struct {
	saved *persistence.Call
	err   error
}

func (f *fakeCallSaver) Insert(call *persistence.Call) error {
	if f.err != nil {
		return f.err
	}
	call.ID = 7
	f.saved = call
	return nil
}

type fakeTenants struct {
	tenant *persistence.Tenant
}

func (f *fakeTenants) Get(id int64) (*persistence.Tenant, error) {
	return f.tenant, nil
}

type fakeQueue struct {
	ids []int64
}

func (f *fakeQueue) Enqueue(callID int64) { f.ids = append(f.ids, callID) }
func (f *fakeQueue) Depth() int           { return len(f.ids) }
func (f *fakeQueue) Running() bool        { return false }

func newTestServiceData() (*ServiceData, *fakeCallSaver, *fakeQueue, *blob.MemoryStore) {
	cs := &fakeCallSaver{}
	q := &fakeQueue{}
	store := blob.NewMemoryStore()
	data := &ServiceData{CallSaver: cs,
		Tenants: &fakeTenants{tenant: &persistence.Tenant{ID: 2, Bucket: "b"}},
		Blobs:   store, Queue: q, health: healthcheck.NewHandler()}
	return data, cs, q, store
}

func newUploadRequest(fileName string, params map[string]string) *httptest.ResponseRecorder {
	data, _, _, _ := newTestServiceData()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		part, _ := writer.CreateFormFile(PrmFile, fileName)
		_, _ = io.Copy(part, strings.NewReader("audio data"))
	}
	for k, v := range params {
		_ = writer.WriteField(k, v)
	}
	writer.Close()
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	NewRouter(data).ServeHTTP(resp, req)
	return resp
}

func TestWrongPath(t *testing.T) {
	Convey("Given a HTTP request for /invalid", t, func() {
		req := httptest.NewRequest("GET", "/invalid", nil)
		resp := httptest.NewRecorder()
		data, _, _, _ := newTestServiceData()

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 404", func() {
				So(resp.Code, ShouldEqual, 404)
			})
		})
	})
}

func TestNoFile(t *testing.T) {
	Convey("Given a POST request without a file", t, func() {
		resp := newUploadRequest("", map[string]string{PrmTenant: "2"})

		Convey("Then the response should be a 400", func() {
			So(resp.Code, ShouldEqual, 400)
		})
	})
}

func TestWrongExtension(t *testing.T) {
	Convey("Given a POST request with a text file", t, func() {
		resp := newUploadRequest("f.txt", map[string]string{PrmTenant: "2"})

		Convey("Then the response should be a 400", func() {
			So(resp.Code, ShouldEqual, 400)
		})
	})
}

func TestNoTenant(t *testing.T) {
	Convey("Given a POST request without a tenant", t, func() {
		resp := newUploadRequest("f.mp3", map[string]string{})

		Convey("Then the response should be a 400", func() {
			So(resp.Code, ShouldEqual, 400)
		})
	})
}

func TestWrongEmail(t *testing.T) {
	Convey("Given a POST request with a malformed email", t, func() {
		resp := newUploadRequest("f.mp3", map[string]string{PrmTenant: "2", PrmEmail: "olia"})

		Convey("Then the response should be a 400", func() {
			So(resp.Code, ShouldEqual, 400)
		})
	})
}

func TestPOST(t *testing.T) {
	Convey("Given a valid upload request", t, func() {
		data, cs, q, store := newTestServiceData()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile(PrmFile, "call.mp3")
		_, _ = io.Copy(part, strings.NewReader("audio data"))
		_ = writer.WriteField(PrmTenant, "2")
		_ = writer.WriteField(PrmLanguage, "english")
		_ = writer.WriteField(PrmTranslate, "true")
		writer.Close()
		req := httptest.NewRequest("POST", "/upload", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the call is registered and queued", func() {
				So(resp.Code, ShouldEqual, 200)
				var result CallResult
				So(json.Unmarshal(resp.Body.Bytes(), &result), ShouldBeNil)
				So(result.ID, ShouldEqual, 7)
				So(cs.saved, ShouldNotBeNil)
				So(cs.saved.Status, ShouldEqual, status.Name(status.Processing))
				So(cs.saved.Language, ShouldEqual, "english")
				So(cs.saved.Translate, ShouldBeTrue)
				So(cs.saved.UploadedBy, ShouldEqual, persistence.UploadManual)
				So(q.ids, ShouldResemble, []int64{7})
				saved, err := store.Get("b", cs.saved.BlobKey)
				So(err, ShouldBeNil)
				So(string(saved), ShouldEqual, "audio data")
			})
		})
	})
}

func TestPOST_SaveFails(t *testing.T) {
	Convey("Given an upload when the DB fails", t, func() {
		data, cs, q, _ := newTestServiceData()
		cs.err = errors.New("olia")
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile(PrmFile, "call.mp3")
		_, _ = io.Copy(part, strings.NewReader("audio data"))
		_ = writer.WriteField(PrmTenant, "2")
		writer.Close()
		req := httptest.NewRequest("POST", "/upload", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 500 and nothing queued", func() {
				So(resp.Code, ShouldEqual, 500)
				So(len(q.ids), ShouldEqual, 0)
			})
		})
	})
}

func TestQueueEndpoint(t *testing.T) {
	Convey("Given a HTTP request for /queue", t, func() {
		data, _, q, _ := newTestServiceData()
		q.ids = []int64{1, 2}
		req := httptest.NewRequest("GET", "/queue", nil)
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the queue state is returned", func() {
				So(resp.Code, ShouldEqual, 200)
				var result QueueState
				So(json.Unmarshal(resp.Body.Bytes(), &result), ShouldBeNil)
				So(result.Depth, ShouldEqual, 2)
				So(result.Running, ShouldBeFalse)
			})
		})
	})
}
