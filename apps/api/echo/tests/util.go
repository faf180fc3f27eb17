package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fileobj"
	"github.com/trezcool/darasa/core/leave"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/objectstore"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

type testEnv struct {
	conf     *core.Config
	app      Server
	srv      *httptest.Server
	store     *objectstore.InmemStore
	foRepo    fileobj.Repository
	leaveRepo leave.Repository
	foSvc     *fileobj.Service
	leaveSvc  *leave.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		SecretKey: "test-secret",
		Upload: core.UploadConfig{
			ExpireSeconds:  900,
			RequestTimeout: 5 * time.Second,
			PutTimeout:     5 * time.Second,
		},
	}

	validate := validator.New()
	core.InitValidators(validate, newTranslator())

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	foRepo := inmemdb.NewFileObjectRepository(db)
	leaveRepo := inmemdb.NewLeaveRepository(db)

	// set up services
	store := objectstore.NewInmemStore(conf)
	foSvc := fileobj.NewService(foRepo, store, conf)
	leaveSvc := leave.NewService(leaveRepo)

	// set up server
	app := NewServer(&Options{
		Conf:           conf,
		Logger:         logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)),
		DisableReqLogs: true,
		FileObjSvc:     foSvc,
		LeaveSvc:       leaveSvc,
		Validate:       validate,
		ObjectHandler:  store.Handler(),
	})
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	store.SetBaseURL(srv.URL + "/objects")
	conf.Upload.BaseURL = srv.URL

	return &testEnv{
		conf:      conf,
		app:       app,
		srv:       srv,
		store:     store,
		foRepo:    foRepo,
		leaveRepo: leaveRepo,
		foSvc:     foSvc,
		leaveSvc:  leaveSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
