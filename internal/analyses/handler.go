package analyses

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/extract"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/server/middleware"
	"skillgap-backend/internal/shared/server/respond"
	"skillgap-backend/internal/shared/telemetry"
)

const (
	minJobDescriptionChars = 100
	minResumeChars         = 50
)

// Limits are the request validation ceilings, loaded from config.
type Limits struct {
	MaxUploadBytes    int64
	MaxJobDescription int
	MinExtractChars   int
}

// Handler wires the analyze and extract-text endpoints.
type Handler struct {
	Svc       *Service
	Extractor *extract.Extractor
	Limits    Limits
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, extractor *extract.Extractor, limits Limits) *Handler {
	return &Handler{Svc: svc, Extractor: extractor, Limits: limits}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/extract-text", h.extractText)
}

// analyze handles the main flow: validate the job description text,
// validate and extract the résumé file, run the match analysis.
func (h *Handler) analyze(c *gin.Context) {
	userEmail := middleware.UserEmailFromContext(c)

	jobDescription := strings.TrimSpace(c.PostForm("job_description"))
	if jobDescription == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Job description is required. Please paste or extract text first.", nil)
		return
	}
	if len(jobDescription) < minJobDescriptionChars {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Job description is too short. Please provide more details.", nil)
		return
	}
	if len(jobDescription) > h.Limits.MaxJobDescription {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation,
			fmt.Sprintf("Job description exceeds maximum length of %d characters", h.Limits.MaxJobDescription), nil)
		return
	}

	data, filename, ok := h.readUpload(c, "cv_file")
	if !ok {
		return
	}

	resumeText, err := h.Extractor.Text(c.Request.Context(), data, filename)
	if err != nil {
		h.respondExtractError(c, err)
		return
	}
	if len(strings.TrimSpace(resumeText)) < minResumeChars {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation,
			"CV text is too short or empty. Please ensure the CV file contains readable text.", nil)
		return
	}

	result, err := h.Svc.Analyze(c.Request.Context(), resumeText, jobDescription)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	telemetry.Info("analysis.complete", map[string]any{
		"request_id":  middleware.RequestIDFromContext(c),
		"user_id":     middleware.UserIDFromContext(c),
		"match_score": result.MatchScore,
	})

	respond.OK(c, gin.H{
		"success": true,
		"user": gin.H{
			"email": userEmail,
			"name":  middleware.UserNameFromContext(c),
		},
		"analysis": result,
	})
}

// extractText extracts job-description text from an uploaded file for
// user review before analysis.
func (h *Handler) extractText(c *gin.Context) {
	data, filename, ok := h.readUpload(c, "jd_file")
	if !ok {
		return
	}

	text, err := h.Extractor.Text(c.Request.Context(), data, filename)
	if err != nil {
		h.respondExtractError(c, err)
		return
	}
	if err := extract.RequireMinLength(text, h.Limits.MinExtractChars); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
		return
	}

	telemetry.Info("extract.complete", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"user_id":    middleware.UserIDFromContext(c),
		"chars":      len(text),
	})

	respond.OK(c, gin.H{
		"success":        true,
		"extracted_text": text,
		"char_count":     len(text),
		"filename":       filename,
	})
}

// readUpload fetches a multipart file and enforces the size ceiling
// before any extraction work happens.
func (h *Handler) readUpload(c *gin.Context, field string) ([]byte, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation,
			fmt.Sprintf("No file uploaded. Please select a file for %q.", field), nil)
		return nil, "", false
	}

	if fileHeader.Size > h.Limits.MaxUploadBytes {
		maxMB := float64(h.Limits.MaxUploadBytes) / (1 << 20)
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation,
			fmt.Sprintf("File is too large. Maximum allowed size is %.0fMB.", maxMB), nil)
		return nil, "", false
	}
	if fileHeader.Size == 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "The uploaded file is empty.", nil)
		return nil, "", false
	}

	data, err := readAll(fileHeader, h.Limits.MaxUploadBytes)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "Failed to read uploaded file.", nil)
		return nil, "", false
	}
	return data, fileHeader.Filename, true
}

func readAll(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

func (h *Handler) respondExtractError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, extract.ErrCorruptFile),
		errors.Is(err, extract.ErrEmptyFile),
		errors.Is(err, extract.ErrTooShort),
		errors.Is(err, extract.ErrOCRUnavailable):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
	default:
		// OCR engine or transport failure upstream of us.
		metrics.IncExtractionFailed()
		telemetry.Error("extract.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"err":        err.Error(),
		})
		respond.Error(c, http.StatusBadGateway, ErrorCodeUpstream, "Failed to process the file due to an upstream error. Please try again later.", nil)
	}
}

func (h *Handler) respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		respond.Error(c, http.StatusBadGateway, ErrorCodeLLMTimeout, "Analysis timed out. Please try again later.", nil)
	case errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrMissingField):
		respond.Error(c, http.StatusBadGateway, ErrorCodeLLMSchema, "Analysis produced an invalid result. Please try again.", nil)
	default:
		telemetry.Error("analysis.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"err":        err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "An unexpected error occurred during analysis", nil)
	}
}
