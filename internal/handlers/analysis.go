package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/services"
)

// Cap on evidence images accepted per analysis request.
const maxEvidenceImages = 5

type AnalysisHandler struct {
	log             *logger.Logger
	analysisService services.AnalysisService
}

func NewAnalysisHandler(log *logger.Logger, analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log.With("handler", "AnalysisHandler"),
		analysisService: analysisService,
	}
}

// POST /api/sessions/analyze
// multipart form: student_id, audio (file), images (files, optional)
func (ah *AnalysisHandler) AnalyzeSession(c *gin.Context) {
	studentID, err := uuid.Parse(c.PostForm("student_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("student_id is required"))
		return
	}

	audioHeader, err := c.FormFile("audio")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("audio recording is required"))
		return
	}
	audio, mime, err := readUpload(audioHeader)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	var images []services.InlineImage
	if form, fErr := c.MultipartForm(); fErr == nil && form != nil {
		files := form.File["images"]
		if len(files) > maxEvidenceImages {
			files = files[:maxEvidenceImages]
		}
		for _, fh := range files {
			data, imgMime, rErr := readUpload(fh)
			if rErr != nil {
				RespondError(c, http.StatusBadRequest, "invalid_request", rErr)
				return
			}
			images = append(images, services.InlineImage{MimeType: imgMime, Data: data})
		}
	}

	result, err := ah.analysisService.AnalyzeSession(c.Request.Context(), services.AnalyzeSessionInput{
		StudentID: studentID,
		Audio:     audio,
		AudioMime: mime,
		Images:    images,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAnalysisInput) {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		RespondError(c, http.StatusBadGateway, "analysis_failed", err)
		return
	}
	RespondOK(c, result)
}

// GET /api/sessions/:id/analysis-progress
func (ah *AnalysisHandler) Progress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid session id"))
		return
	}
	steps, err := ah.analysisService.Progress(c.Request.Context(), sessionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "progress_failed", err)
		return
	}
	RespondOK(c, gin.H{"steps": steps})
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, fh.Header.Get("Content-Type"), nil
}
