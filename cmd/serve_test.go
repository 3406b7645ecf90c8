package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/pipeline"
	"github.com/sells-group/tender-cli/internal/report"
	"github.com/sells-group/tender-cli/internal/rubric"
	"github.com/sells-group/tender-cli/internal/store"
)

type executeCall struct {
	RunID  string
	Inputs []pipeline.ArchiveInput
	Date   time.Time
}

// fakeExecutor records Execute calls instead of evaluating.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []executeCall
}

func (f *fakeExecutor) Execute(_ context.Context, runID string, inputs []pipeline.ArchiveInput, referenceDate time.Time) (*model.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, executeCall{RunID: runID, Inputs: inputs, Date: referenceDate})
	return &model.Evaluation{RunID: runID}, nil
}

func newTestServer(t *testing.T) (*server, store.Store, *fakeExecutor) {
	t.Helper()
	st := newTestStore(t)
	exec := &fakeExecutor{}
	s := &server{
		ctx:       context.Background(),
		store:     st,
		exec:      exec,
		rubric:    rubric.Default(),
		report:    report.Options{Currency: "OMR"},
		origins:   []string{"*"},
		maxUpload: 1 << 20,
		now:       func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) },
	}
	return s, st, exec
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("archives", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestServer_Health(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestServer_CreateEvaluation(t *testing.T) {
	s, st, exec := newTestServer(t)

	body, ct := multipartBody(t,
		map[string]string{"reference_date": "2026-01-15"},
		map[string][]byte{"acme.zip": []byte("PK-acme"), "globex.zip": []byte("PK-globex")},
	)
	req := httptest.NewRequest(http.MethodPost, "/evaluations", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)
	s.wait()

	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	require.NotEmpty(t, resp["run_id"])

	run, err := st.GetRun(context.Background(), resp["run_id"])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acme.zip", "globex.zip"}, run.Archives)

	require.Len(t, exec.calls, 1)
	call := exec.calls[0]
	assert.Equal(t, resp["run_id"], call.RunID)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), call.Date)
	require.Len(t, call.Inputs, 2)
	byName := map[string]string{}
	for _, in := range call.Inputs {
		byName[in.Name] = string(in.Data)
	}
	assert.Equal(t, "PK-acme", byName["acme.zip"])
	assert.Equal(t, "PK-globex", byName["globex.zip"])
}

func TestServer_CreateEvaluation_DefaultsReferenceDate(t *testing.T) {
	s, _, exec := newTestServer(t)

	body, ct := multipartBody(t, nil, map[string][]byte{"acme.zip": []byte("PK")})
	req := httptest.NewRequest(http.MethodPost, "/evaluations", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)
	s.wait()

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), exec.calls[0].Date)
}

func TestServer_CreateEvaluation_BadRequests(t *testing.T) {
	s, _, exec := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		files  map[string][]byte
		status int
	}{
		{name: "no archives", fields: map[string]string{"reference_date": "2026-01-15"}, status: http.StatusBadRequest},
		{name: "bad date", fields: map[string]string{"reference_date": "15/01/2026"}, files: map[string][]byte{"a.zip": []byte("PK")}, status: http.StatusBadRequest},
		{name: "too large", files: map[string][]byte{"big.zip": make([]byte, 2<<20)}, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/evaluations", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			s.routes().ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/evaluations", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		s.routes().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	s.wait()
	assert.Empty(t, exec.calls)
}

func TestServer_GetEvaluation(t *testing.T) {
	s, st, _ := newTestServer(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, []string{"acme.zip"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations/"+run.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunStatusQueued, got.Status)
}

func TestServer_GetEvaluation_NotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, path := range []string{"/evaluations/nope", "/evaluations/nope/report", "/evaluations/nope/phases"} {
		rr := httptest.NewRecorder()
		s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestServer_ListEvaluations(t *testing.T) {
	s, st, _ := newTestServer(t)
	ctx := context.Background()

	done, err := st.CreateRun(ctx, []string{"acme.zip"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunResult(ctx, done.ID, sampleEvaluation(rubric.Default())))
	_, err = st.CreateRun(ctx, []string{"globex.zip"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations?status=complete", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, done.ID, runs[0].ID)
	assert.Nil(t, runs[0].Result)

	rr = httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_Phases(t *testing.T) {
	s, st, _ := newTestServer(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, []string{"acme.zip"})
	require.NoError(t, err)
	_, err = st.CreatePhase(ctx, run.ID, "extract")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations/"+run.ID+"/phases", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var phases []model.RunPhase
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &phases))
	require.Len(t, phases, 1)
	assert.Equal(t, "extract", phases[0].Name)
}

func TestServer_Report(t *testing.T) {
	s, st, _ := newTestServer(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, []string{"acme.zip", "globex.zip"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, sampleEvaluation(rubric.Default())))

	tests := []struct {
		query       string
		status      int
		contentType string
		contains    string
	}{
		{query: "", status: http.StatusOK, contentType: "text/html", contains: "Acme Pipes LLC"},
		{query: "?format=md", status: http.StatusOK, contentType: "text/markdown", contains: "| Acme Pipes LLC"},
		{query: "?format=xlsx", status: http.StatusOK, contentType: "spreadsheetml", contains: "PK"},
		{query: "?format=pdf", status: http.StatusBadRequest, contentType: "application/json", contains: "format must be"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations/"+run.ID+"/report"+tt.query, nil))

			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rr.Body.String(), tt.contains)
		})
	}
}

func TestServer_Report_NotComplete(t *testing.T) {
	s, st, _ := newTestServer(t)

	run, err := st.CreateRun(context.Background(), []string{"acme.zip"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations/"+run.ID+"/report", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "run is queued")
}

func TestServer_CORS(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/evaluations", nil)
	req.Header.Set("Origin", "https://procurement.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
