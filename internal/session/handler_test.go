package session

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"ats-checker/internal/analyses"
	"ats-checker/internal/documents"
	"ats-checker/internal/shared/server/respond"
)

func newTestRouter(ex *fakeExtractor, an *fakeAnalyzer) (*gin.Engine, *Manager) {
	gin.SetMode(gin.TestMode)
	m := NewManager(ex, an, nil, 0)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewHandler(m))
	return r, m
}

func multipartBody(t *testing.T, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func do(r http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) Snapshot {
	t.Helper()
	var snap Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, w.Body.String())
	}
	return snap
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()
	var resp respond.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v (%s)", err, w.Body.String())
	}
	return resp.Error
}

func TestHandlerUploadAndAnalyze(t *testing.T) {
	an := &fakeAnalyzer{configured: true, result: analyses.Result{
		Score:           intPtr(64),
		Problems:        []string{},
		Recommendations: []string{"Use standard headings"},
		Tier:            analyses.TierStructuredJSON,
	}}
	r, _ := newTestRouter(&fakeExtractor{outcome: textOutcome("Jane Doe")}, an)

	w := do(r, http.MethodPost, "/api/v1/sessions", nil, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}
	id := decodeSnapshot(t, w).SessionID

	body, ct := multipartBody(t, "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	w = do(r, http.MethodPost, "/api/v1/sessions/"+id+"/document?wait=true", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if snap := decodeSnapshot(t, w); snap.State != StateReady || snap.Extraction.Preview != "Jane Doe" {
		t.Fatalf("unexpected upload snapshot: %+v", snap)
	}

	w = do(r, http.MethodPost, "/api/v1/sessions/"+id+"/analyze?wait=true",
		bytes.NewBufferString(`{"jobTitle":"Data Engineer","jobDescriptionRef":"https://jobs.example.com/1"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	snap := decodeSnapshot(t, w)
	if snap.State != StateScored || snap.Result == nil || *snap.Result.Score != 64 {
		t.Fatalf("unexpected analyze snapshot: %+v", snap)
	}
	if snap.Result.ScoreBand != analyses.BandGood || snap.Result.JobTitle != "Data Engineer" {
		t.Fatalf("unexpected result info: %+v", snap.Result)
	}
	if an.requests[0].JobDescriptionRef != "https://jobs.example.com/1" {
		t.Fatalf("unexpected request: %+v", an.requests[0])
	}
}

func TestHandlerRejectsUnsupportedUpload(t *testing.T) {
	ex := &fakeExtractor{}
	r, m := newTestRouter(ex, &fakeAnalyzer{configured: true})
	s := m.Create()

	body, ct := multipartBody(t, "cv.png", "image/png", []byte{0x89, 0x50})
	w := do(r, http.MethodPost, "/api/v1/sessions/"+s.ID()+"/document", body, ct)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != "unsupported_type" {
		t.Fatalf("unexpected error body: %+v", e)
	}
	if s.Snapshot().State != StateErrored || ex.callCount() != 0 {
		t.Fatalf("expected errored session without extraction")
	}
}

func TestHandlerBusyUpload(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r, m := newTestRouter(&fakeExtractor{outcome: textOutcome("x"), release: release}, &fakeAnalyzer{configured: true})
	s := m.Create()

	body, ct := multipartBody(t, "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	if w := do(r, http.MethodPost, "/api/v1/sessions/"+s.ID()+"/document", body, ct); w.Code != http.StatusAccepted {
		t.Fatalf("first upload: expected 202, got %d", w.Code)
	}
	body, ct = multipartBody(t, "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := do(r, http.MethodPost, "/api/v1/sessions/"+s.ID()+"/document", body, ct)
	if w.Code != http.StatusConflict {
		t.Fatalf("second upload: expected 409, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != "busy" {
		t.Fatalf("unexpected error body: %+v", e)
	}
}

func TestHandlerAnalyzeWithoutCredential(t *testing.T) {
	r, m := newTestRouter(&fakeExtractor{outcome: textOutcome("text")}, &fakeAnalyzer{configured: false})
	s := m.Create()
	done, err := s.StartExtraction(t.Context(), pdfDoc())
	if err != nil {
		t.Fatalf("StartExtraction: %v", err)
	}
	waitSnap(t, done)

	w := do(r, http.MethodPost, "/api/v1/sessions/"+s.ID()+"/analyze", bytes.NewBufferString(`{"jobTitle":"Dev"}`), "application/json")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != "configuration_error" {
		t.Fatalf("unexpected error body: %+v", e)
	}
}

func TestHandlerUnknownSession(t *testing.T) {
	r, _ := newTestRouter(&fakeExtractor{}, &fakeAnalyzer{})
	w := do(r, http.MethodGet, "/api/v1/sessions/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandlerResetAndDelete(t *testing.T) {
	r, m := newTestRouter(&fakeExtractor{outcome: textOutcome("text")}, &fakeAnalyzer{})
	s := m.Create()

	w := do(r, http.MethodPost, "/api/v1/sessions/"+s.ID()+"/reset", nil, "")
	if w.Code != http.StatusOK || decodeSnapshot(t, w).State != StateIdle {
		t.Fatalf("reset: unexpected response %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodDelete, "/api/v1/sessions/"+s.ID(), nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no sessions after delete")
	}
}

func TestOversizedBodyReportsDeclaredLength(t *testing.T) {
	tests := []struct {
		name          string
		contentLength int64
		wantSize      int64
	}{
		{name: "unknown length", contentLength: -1, wantSize: 0},
		{name: "declared length", contentLength: 30 << 20, wantSize: 30 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := oversizedBody(tt.contentLength)
			if err.Size != tt.wantSize {
				t.Fatalf("expected size %d, got %d", tt.wantSize, err.Size)
			}
			if err.Limit != documents.MaxPDFBytes {
				t.Fatalf("unexpected limit %d", err.Limit)
			}
			if ErrorCode(err) != "too_large" {
				t.Fatalf("unexpected code %q", ErrorCode(err))
			}
		})
	}
}
