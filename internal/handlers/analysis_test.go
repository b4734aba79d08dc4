package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/repos/testutil"
	"github.com/yeah-genie/chalk-backend/internal/services"
)

type fakeAnalysisService struct {
	result *services.AnalysisResult
	err    error
}

func (f *fakeAnalysisService) AnalyzeSession(ctx context.Context, input services.AnalyzeSessionInput) (*services.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAnalysisService) Progress(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	return nil, nil
}

func analysisTestRouter(t *testing.T, svc services.AnalysisService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAnalysisHandler(testutil.Logger(t), svc)
	router.POST("/sessions/analyze", h.AnalyzeSession)
	return router
}

func analyzeRequest(t *testing.T, studentID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if studentID != "" {
		if err := w.WriteField("student_id", studentID); err != nil {
			t.Fatalf("write student_id: %v", err)
		}
	}
	fw, err := w.CreateFormFile("audio", "recording.wav")
	if err != nil {
		t.Fatalf("create audio part: %v", err)
	}
	if _, err := fw.Write([]byte("fake-audio")); err != nil {
		t.Fatalf("write audio part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/sessions/analyze", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAnalyzeSessionMapsInvalidInputToBadRequest(t *testing.T) {
	svcErr := fmt.Errorf("%w: student %s not found", services.ErrInvalidAnalysisInput, uuid.New())
	router := analysisTestRouter(t, &fakeAnalysisService{err: svcErr})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, analyzeRequest(t, uuid.NewString()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != "invalid_request" {
		t.Fatalf("code = %q, want invalid_request", envelope.Error.Code)
	}
}

func TestAnalyzeSessionMapsUpstreamFailureToBadGateway(t *testing.T) {
	router := analysisTestRouter(t, &fakeAnalysisService{err: fmt.Errorf("transcription failed: upstream overloaded")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, analyzeRequest(t, uuid.NewString()))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != "analysis_failed" {
		t.Fatalf("code = %q, want analysis_failed", envelope.Error.Code)
	}
}

func TestAnalyzeSessionRequiresStudentID(t *testing.T) {
	router := analysisTestRouter(t, &fakeAnalysisService{result: &services.AnalysisResult{}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, analyzeRequest(t, ""))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
