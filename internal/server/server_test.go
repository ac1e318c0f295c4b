package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/motionsense/internal/config"
	"github.com/yourorg/motionsense/internal/inference"
	"github.com/yourorg/motionsense/internal/upload"
)

type fakeService struct {
	srv   *httptest.Server
	calls int32
}

func newFakeService(t *testing.T, handler http.HandlerFunc) *fakeService {
	t.Helper()
	fs := &fakeService{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fs.calls, 1)
		handler(w, r)
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func sessionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/predict":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"predictions":       []string{"sitting", "sitting", "walking", "standing"},
			"confidence_scores": []float64{95, 92, 40, 88},
			"total_windows":     4,
		})
	case "/activities":
		_, _ = w.Write([]byte(`{"available_activities":["WALKING_UPSTAIRS","LAYING"]}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestServer(t *testing.T, svc *fakeService) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Inference.BaseURL = svc.srv.URL
	cfg.Upload.MaxSizeMB = 1

	client := inference.NewClient(cfg.Inference.BaseURL, zerolog.Nop())
	orch := upload.New(client, upload.Options{
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxSizeBytes:      cfg.MaxSizeBytes(),
		ProgressInterval:  time.Millisecond,
		Timeout:           5 * time.Second,
		Logger:            zerolog.Nop(),
	})
	srv, err := New(cfg, orch, client, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func multipartRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeReturnsSummary(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, "/api/analyze", "walk.csv", []byte("1 2 3 4 5 6\n")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Filename       string `json:"filename"`
		Accuracy       int    `json:"accuracy"`
		RiskLevel      string `json:"risk_level"`
		Classification string `json:"classification"`
		TotalWindows   int    `json:"total_windows"`
		Activities     []struct {
			Label   string `json:"label"`
			Percent int    `json:"percent"`
		} `json:"activities"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "walk.csv", got.Filename)
	assert.Equal(t, 79, got.Accuracy)
	assert.Equal(t, "medium", got.RiskLevel)
	assert.Equal(t, "Sitting", got.Classification)
	assert.Equal(t, 4, got.TotalWindows)
	require.Len(t, got.Activities, 3)
	assert.Equal(t, "sitting", got.Activities[0].Label)
	assert.Equal(t, 50, got.Activities[0].Percent)
}

func TestAnalyzeRejectsWrongType(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, "/api/analyze", "report.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_type", body.Kind)
	assert.Zero(t, atomic.LoadInt32(&svc.calls))
}

func TestAnalyzeRejectsLargeFile(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, "/api/analyze", "big.csv", make([]byte, 1024*1024+1)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, atomic.LoadInt32(&svc.calls))
}

func TestAnalyzeSurfacesServiceDetail(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Prediction error: bad shape"}`))
	})
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, "/api/analyze", "walk.txt", []byte("x")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Prediction error: bad shape", body.Error)
	assert.Equal(t, "request_failed", body.Kind)

	stateRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(stateRec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var state stateView
	require.NoError(t, json.NewDecoder(stateRec.Body).Decode(&state))
	assert.Equal(t, "error", state.Phase)
	assert.Equal(t, "Prediction error: bad shape", state.Error)
	assert.False(t, state.IsProcessing)
}

func TestUploadThenPollState(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, "/api/upload", "walk.csv", []byte("x")))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		AttemptID string    `json:"attempt_id"`
		State     stateView `json:"state"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&accepted))
	assert.NotEmpty(t, accepted.AttemptID)

	var state stateView
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		state = stateView{}
		return json.NewDecoder(rec.Body).Decode(&state) == nil && state.Phase == "success"
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, accepted.AttemptID, state.AttemptID)
	assert.Equal(t, 100, state.Progress)
	require.NotNil(t, state.Result)
	assert.Equal(t, 79, state.Result.Accuracy)
}

func TestActivities(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/activities", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Activities []string `json:"activities"`
		Names      []string `json:"names"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"Walking Upstairs", "Laying"}, body.Names)
}

func TestMethodAndCORS(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/upload", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	svc := newFakeService(t, sessionHandler)
	srv := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "motionsense_uploads_in_flight")
}
