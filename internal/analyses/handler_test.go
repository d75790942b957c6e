package analyses

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/extract"
	"skillgap-backend/internal/identity"
	"skillgap-backend/internal/llm"
	"skillgap-backend/internal/shared/server/middleware"
)

const analysisPayload = `{
	"match_score": 57,
	"strengths": ["Go experience", "Cloud background", "Team leadership"],
	"missing_skills": ["Kubernetes"],
	"improvement_suggestions": ["Add metrics to projects"],
	"summary": "Solid backend candidate with some infrastructure gaps."
}`

var testJobDescription = strings.Repeat("We are hiring a senior backend engineer with Go expertise. ", 3)

type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, idToken string) (identity.User, error) {
	if idToken != "good-token" {
		return identity.User{}, identity.ErrInvalidToken
	}
	return identity.User{UID: "u-1", Email: "jane@example.com", Name: "Jane"}, nil
}

type fakeLLM struct {
	calls    int
	response string
	err      error
}

func (f *fakeLLM) Analyze(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.response), nil
}

func newTestRouter(client llm.Client, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewHandler(&Service{LLM: client}, &extract.Extractor{}, Limits{
		MaxUploadBytes:    maxUpload,
		MaxJobDescription: 10000,
		MinExtractChars:   300,
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(fakeVerifier{}))
	limiter := middleware.NewSlidingWindowLimiter(100, time.Hour, nil)
	api.Use(middleware.RateLimit(limiter))
	h.RegisterRoutes(api)
	return r
}

func buildResumeDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func analyzeRequest(t *testing.T, jobDescription, filename string, fileData []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if jobDescription != "" {
		if err := mw.WriteField("job_description", jobDescription); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("cv_file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer good-token")
	return req
}

func decodeError(t *testing.T, body *bytes.Buffer) (code, message string) {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return payload.Error.Code, payload.Error.Message
}

func TestAnalyzeRequiresAuth(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	req := analyzeRequest(t, testJobDescription, "cv.docx", buildResumeDocx(t, "Jane Doe, senior Go engineer with a decade of backend work."))
	req.Header.Del("Authorization")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if client.calls != 0 {
		t.Fatalf("expected no LLM calls, got %d", client.calls)
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	cv := buildResumeDocx(t,
		"Jane Doe, senior Go engineer.",
		"Ten years of experience building backend services and APIs in production.")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, testJobDescription, "cv.docx", cv))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 LLM call, got %d", client.calls)
	}

	var payload struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
		} `json:"user"`
		Analysis Result `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success {
		t.Fatalf("expected success true")
	}
	if payload.User.Email != "jane@example.com" {
		t.Fatalf("expected user email, got %q", payload.User.Email)
	}
	if payload.Analysis.MatchScore != 57 {
		t.Fatalf("expected match_score 57, got %d", payload.Analysis.MatchScore)
	}
	if len(payload.Analysis.Strengths) != 3 {
		t.Fatalf("expected 3 strengths, got %d", len(payload.Analysis.Strengths))
	}
}

func TestAnalyzeMissingJobDescription(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, "", "cv.docx", buildResumeDocx(t, "Jane Doe")))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	code, _ := decodeError(t, resp.Body)
	if code != ErrorCodeValidation {
		t.Fatalf("expected validation_error, got %q", code)
	}
	if client.calls != 0 {
		t.Fatalf("expected no LLM calls, got %d", client.calls)
	}
}

func TestAnalyzeShortJobDescription(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, "too short", "cv.docx", buildResumeDocx(t, "Jane Doe")))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAnalyzeOversizedFileRejectedBeforeExtraction(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 1024)

	big := bytes.Repeat([]byte("x"), 4096)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, testJobDescription, "cv.docx", big))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	_, message := decodeError(t, resp.Body)
	if !strings.Contains(message, "too large") {
		t.Fatalf("expected size message, got %q", message)
	}
	if client.calls != 0 {
		t.Fatalf("expected no LLM calls, got %d", client.calls)
	}
}

func TestAnalyzeUnsupportedFileType(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, testJobDescription, "cv.exe", []byte("MZ binary")))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	code, _ := decodeError(t, resp.Body)
	if code != ErrorCodeValidation {
		t.Fatalf("expected validation_error, got %q", code)
	}
}

func TestAnalyzeSchemaMismatchIs502(t *testing.T) {
	client := &fakeLLM{response: `{"summary": "no score at all"}`}
	r := newTestRouter(client, 2<<20)

	cv := buildResumeDocx(t, "Jane Doe, senior Go engineer with a decade of production backend work.")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, testJobDescription, "cv.docx", cv))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	code, _ := decodeError(t, resp.Body)
	if code != ErrorCodeLLMSchema {
		t.Fatalf("expected llm_schema_mismatch, got %q", code)
	}
}

func TestAnalyzeTimeoutIs502(t *testing.T) {
	client := &fakeLLM{err: llm.ErrTimeout}
	r := newTestRouter(client, 2<<20)

	cv := buildResumeDocx(t, "Jane Doe, senior Go engineer with a decade of production backend work.")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t, testJobDescription, "cv.docx", cv))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	code, _ := decodeError(t, resp.Body)
	if code != ErrorCodeLLMTimeout {
		t.Fatalf("expected llm_timeout, got %q", code)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := &fakeLLM{response: analysisPayload}

	r := gin.New()
	h := NewHandler(&Service{LLM: client}, &extract.Extractor{}, Limits{
		MaxUploadBytes:    2 << 20,
		MaxJobDescription: 10000,
		MinExtractChars:   300,
	})
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(fakeVerifier{}))
	api.Use(middleware.RateLimit(middleware.NewSlidingWindowLimiter(1, time.Hour, nil)))
	h.RegisterRoutes(api)

	cv := buildResumeDocx(t, "Jane Doe, senior Go engineer with a decade of production backend work.")

	resp1 := httptest.NewRecorder()
	r.ServeHTTP(resp1, analyzeRequest(t, testJobDescription, "cv.docx", cv))
	if resp1.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d: %s", resp1.Code, resp1.Body.String())
	}

	resp2 := httptest.NewRecorder()
	r.ServeHTTP(resp2, analyzeRequest(t, testJobDescription, "cv.docx", cv))
	if resp2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp2.Code)
	}
	if client.calls != 1 {
		t.Fatalf("expected LLM untouched on limited request, got %d calls", client.calls)
	}
}

func TestExtractTextEndpoint(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	long := strings.Repeat("Backend engineer role requiring Go, SQL and cloud deployment skills. ", 6)
	jd := buildResumeDocx(t, long)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("jd_file", "posting.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(jd); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-text", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer good-token")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Success       bool   `json:"success"`
		ExtractedText string `json:"extracted_text"`
		CharCount     int    `json:"char_count"`
		Filename      string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success {
		t.Fatalf("expected success true")
	}
	if payload.CharCount != len(payload.ExtractedText) {
		t.Fatalf("char_count %d does not match text length %d", payload.CharCount, len(payload.ExtractedText))
	}
	if payload.CharCount < 300 {
		t.Fatalf("expected at least 300 chars, got %d", payload.CharCount)
	}
	if payload.Filename != "posting.docx" {
		t.Fatalf("unexpected filename %q", payload.Filename)
	}
}

func TestExtractTextTooShort(t *testing.T) {
	client := &fakeLLM{response: analysisPayload}
	r := newTestRouter(client, 2<<20)

	jd := buildResumeDocx(t, "Short posting.")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("jd_file", "posting.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(jd); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-text", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer good-token")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	code, _ := decodeError(t, resp.Body)
	if code != ErrorCodeValidation {
		t.Fatalf("expected validation_error, got %q", code)
	}
}
