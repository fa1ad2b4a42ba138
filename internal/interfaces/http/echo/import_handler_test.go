package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/asset-import/internal/application/importing"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	httpecho "github.com/mohammadpnp/asset-import/internal/interfaces/http/echo"
)

type fakeStartImport struct {
	mu   sync.Mutex
	in   app.StartImportInput
	body string
	out  app.StartImportOutput
	err  error
}

func (f *fakeStartImport) Execute(ctx context.Context, in app.StartImportInput) (app.StartImportOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in = in
	if in.Body != nil {
		raw, _ := io.ReadAll(in.Body)
		f.body = string(raw)
	}
	if f.err != nil {
		return app.StartImportOutput{}, f.err
	}
	return f.out, nil
}

type fakeAnalyzeImport struct {
	in      app.AnalyzeImportInput
	report  app.AnalysisReport
	preview app.PreviewOutput
	err     error
}

func (f *fakeAnalyzeImport) Execute(ctx context.Context, in app.AnalyzeImportInput) (app.AnalysisReport, error) {
	f.in = in
	return f.report, f.err
}

func (f *fakeAnalyzeImport) Preview(ctx context.Context, in app.PreviewInput) (app.PreviewOutput, error) {
	return f.preview, f.err
}

type fakeRunner struct {
	submitted []app.ExecuteImportInput
	ran       []app.ExecuteImportInput
	report    domain.OutcomeReport
	err       error
}

func (f *fakeRunner) Submit(ctx context.Context, in app.ExecuteImportInput) error {
	f.submitted = append(f.submitted, in)
	return f.err
}

func (f *fakeRunner) Run(ctx context.Context, in app.ExecuteImportInput) (domain.OutcomeReport, error) {
	f.ran = append(f.ran, in)
	return f.report, f.err
}

type fakeJobReader struct {
	job domain.ImportJob
	err error
}

func (f *fakeJobReader) Get(ctx context.Context, jobID uuid.UUID) (domain.ImportJob, error) {
	if f.err != nil {
		return domain.ImportJob{}, f.err
	}
	return f.job, nil
}

type fakeLimits struct{}

func (fakeLimits) Config(ctx context.Context) app.ImportConfig {
	return app.ImportConfig{AllowedExtensions: []string{".csv", ".json", ".xlsx", ".xls"}, MaxUploadMB: 10}
}

type importFixture struct {
	start   *fakeStartImport
	analyze *fakeAnalyzeImport
	runner  *fakeRunner
	jobs    *fakeJobReader
}

func newImportServer(f *importFixture) *echo.Echo {
	if f.start == nil {
		f.start = &fakeStartImport{}
	}
	if f.analyze == nil {
		f.analyze = &fakeAnalyzeImport{}
	}
	if f.runner == nil {
		f.runner = &fakeRunner{}
	}
	if f.jobs == nil {
		f.jobs = &fakeJobReader{}
	}
	e := echo.New()
	handler := httpecho.NewImportHandler(f.start, f.analyze, f.runner, f.jobs, fakeLimits{})
	httpecho.RegisterRoutes(e, httpecho.Handlers{Imports: handler})
	return e
}

func multipartUpload(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	return got
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	body, ok := decodeEnvelope(t, rec)["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error payload: %s", rec.Body.String())
	}
	code, _ := body["code"].(string)
	return code
}

func TestUploadAssetsCreatesJob(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	actor := uuid.New()
	f := &importFixture{start: &fakeStartImport{out: app.StartImportOutput{
		JobID:    jobID,
		Status:   domain.StatusPending,
		Filename: "assets.csv",
	}}}
	e := newImportServer(f)

	req := multipartUpload(t, "/api/v1/imports/assets", "assets.csv", "name,serial\nLaptop,S1\n")
	req.Header.Set(httpecho.HeaderUserID, actor.String())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.start.in.Kind != domain.KindAssetImport {
		t.Fatalf("unexpected kind: %q", f.start.in.Kind)
	}
	if f.start.in.Filename != "assets.csv" {
		t.Fatalf("unexpected filename: %q", f.start.in.Filename)
	}
	if f.start.in.UploadedBy == nil || *f.start.in.UploadedBy != actor {
		t.Fatalf("unexpected uploader: %v", f.start.in.UploadedBy)
	}
	if !strings.Contains(f.start.body, "Laptop,S1") {
		t.Fatalf("upload body not forwarded: %q", f.start.body)
	}

	data, ok := decodeEnvelope(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %s", rec.Body.String())
	}
	if data["job_id"] != jobID.String() {
		t.Fatalf("unexpected job_id: %#v", data["job_id"])
	}
}

func TestUploadUsersUsesUserKind(t *testing.T) {
	t.Parallel()

	f := &importFixture{}
	e := newImportServer(f)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, multipartUpload(t, "/api/v1/imports/users", "users.json", `[{"email":"a@b.c"}]`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if f.start.in.Kind != domain.KindUserImport {
		t.Fatalf("unexpected kind: %q", f.start.in.Kind)
	}
	if f.start.in.UploadedBy != nil {
		t.Fatalf("expected anonymous upload, got %v", f.start.in.UploadedBy)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/assets", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadRejectsMalformedActor(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{})

	req := multipartUpload(t, "/api/v1/imports/assets", "assets.csv", "name\nx\n")
	req.Header.Set(httpecho.HeaderUserID, "not-a-uuid")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_user_id" {
		t.Fatalf("unexpected code: %q", code)
	}
}

func TestUploadErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"too large", domain.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
		{"unsupported", domain.ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
		{"invalid", app.ErrInvalidUpload, http.StatusBadRequest, "invalid_upload"},
		{"unexpected", app.ErrCreateJob, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newImportServer(&importFixture{start: &fakeStartImport{err: tc.err}})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, multipartUpload(t, "/api/v1/imports/assets", "assets.csv", "a\n1\n"))

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if code := errorCode(t, rec); code != tc.code {
				t.Fatalf("unexpected code: %q", code)
			}
		})
	}
}

func TestImportConfig(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["max_upload_mb"] != float64(10) {
		t.Fatalf("unexpected max_upload_mb: %#v", data["max_upload_mb"])
	}
}

func TestAnalyzeForwardsOptions(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	setID := uuid.New()
	f := &importFixture{analyze: &fakeAnalyzeImport{report: app.AnalysisReport{
		Kind:      domain.KindAssetImport,
		Headers:   []string{"Name", "Color"},
		NewFields: []string{"Color"},
		TotalRows: 2,
	}}}
	e := newImportServer(f)

	body := `{"asset_set_id":"` + setID.String() + `","mapping":{"Name":"name"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+jobID.String()+"/analyze?use_ai=true", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	in := f.analyze.in
	if in.JobID == nil || *in.JobID != jobID {
		t.Fatalf("unexpected job id: %v", in.JobID)
	}
	if in.SetID == nil || *in.SetID != setID {
		t.Fatalf("unexpected set id: %v", in.SetID)
	}
	if !in.UseAI {
		t.Fatalf("expected use_ai to be forwarded")
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["total_rows"] != float64(2) {
		t.Fatalf("unexpected total_rows: %#v", data["total_rows"])
	}
}

func TestAnalyzeRejectsBadJobID(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/nope/analyze", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_job_id" {
		t.Fatalf("unexpected code: %q", code)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{analyze: &fakeAnalyzeImport{err: domain.ErrFileNotFound}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+uuid.NewString()+"/analyze", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPreviewReturnsRows(t *testing.T) {
	t.Parallel()

	f := &importFixture{analyze: &fakeAnalyzeImport{preview: app.PreviewOutput{
		Headers:   []string{"Name"},
		Rows:      []map[string]any{{"Name": "Laptop"}},
		TotalRows: 1,
	}}}
	e := newImportServer(f)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+uuid.NewString()+"/preview", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	rows, ok := data["preview"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("unexpected preview rows: %#v", data["preview"])
	}
}

func TestExecuteQueuesJob(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	matched := uuid.New()
	f := &importFixture{}
	e := newImportServer(f)

	body := `{"strategy":"NEW_SET","new_set_name":"Spring","mapping":{"Name":"name"},"user_matches":{"Jane Doe":"` + matched.String() + `"},"origin":"ai"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+jobID.String()+"/execute", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.runner.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(f.runner.submitted))
	}
	in := f.runner.submitted[0]
	if in.JobID != jobID || in.Strategy != domain.StrategyNewSet {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.Options.NewSetName != "Spring" {
		t.Fatalf("unexpected set name: %q", in.Options.NewSetName)
	}
	if in.Options.UserMatches["Jane Doe"] != matched {
		t.Fatalf("unexpected user matches: %v", in.Options.UserMatches)
	}
	if in.Origin != "ai" {
		t.Fatalf("unexpected origin: %q", in.Origin)
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["status"] != string(domain.StatusPending) {
		t.Fatalf("unexpected status: %#v", data["status"])
	}
}

func TestExecuteSyncReturnsReport(t *testing.T) {
	t.Parallel()

	f := &importFixture{runner: &fakeRunner{report: domain.OutcomeReport{Success: true, Imported: 3, Created: 3, TotalRows: 3}}}
	e := newImportServer(f)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+uuid.NewString()+"/execute?sync=true", strings.NewReader(`{"strategy":"GLOBAL"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.runner.ran) != 1 || len(f.runner.submitted) != 0 {
		t.Fatalf("expected inline run, got ran=%d submitted=%d", len(f.runner.ran), len(f.runner.submitted))
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["imported"] != float64(3) {
		t.Fatalf("unexpected imported: %#v", data["imported"])
	}
}

func TestExecuteValidation(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing strategy", `{}`, http.StatusBadRequest, "validation_error"},
		{"unknown strategy", `{"strategy":"REPLACE"}`, http.StatusBadRequest, "validation_error"},
		{"bad user match", `{"strategy":"MERGE","user_matches":{"x":"nope"}}`, http.StatusBadRequest, "validation_error"},
		{"job mismatch", `{"strategy":"MERGE","job_id":"` + uuid.NewString() + `"}`, http.StatusUnprocessableEntity, "job_id_mismatch"},
		{"broken json", `{"strategy":`, http.StatusBadRequest, "bad_request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := &importFixture{}
			e := newImportServer(f)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+jobID.String()+"/execute", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tc.code {
				t.Fatalf("unexpected code: %q", code)
			}
			if len(f.runner.submitted) != 0 {
				t.Fatalf("nothing should be queued")
			}
		})
	}
}

func TestExecuteQueueFull(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{runner: &fakeRunner{err: app.ErrQueueFull}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+uuid.NewString()+"/execute", strings.NewReader(`{"strategy":"MERGE"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestGetJob(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	e := newImportServer(&importFixture{jobs: &fakeJobReader{job: domain.ImportJob{
		ID:     jobID,
		Kind:   domain.KindAssetImport,
		Status: domain.StatusCompleted,
		Result: &domain.OutcomeReport{Success: true, Imported: 1},
	}}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/jobs/"+jobID.String(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["status"] != string(domain.StatusCompleted) {
		t.Fatalf("unexpected status: %#v", data["status"])
	}
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	e := newImportServer(&importFixture{jobs: &fakeJobReader{err: domain.ErrJobNotFound}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/jobs/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "job_not_found" {
		t.Fatalf("unexpected code: %q", code)
	}
}

func TestExecuteFinishedJobConflicts(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"", "?sync=true"} {
		e := newImportServer(&importFixture{runner: &fakeRunner{err: domain.ErrJobNotPending}})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+uuid.NewString()+"/execute"+target, strings.NewReader(`{"strategy":"MERGE"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("%q: expected 409, got %d", target, rec.Code)
		}
		if code := errorCode(t, rec); code != "job_not_pending" {
			t.Fatalf("%q: unexpected code: %q", target, code)
		}
	}
}
