package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"torchserved/internal/extract"
	"torchserved/internal/generate"
	"torchserved/pkg/types"
)

// multipart parts above this size spill to temp files.
const uploadMemoryBytes = 8 << 20

// extractText godoc
// @Summary      Extract text from a PDF
// @Tags         collaborators
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file  true  "PDF document"
// @Success      200  {object}  types.ExtractResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      413  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /extract/text [post]
func (s *server) extractText(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	if r.ContentLength > limit {
		s.metrics.reject("upload_too_large")
		writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(min(limit, uploadMemoryBytes)); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.metrics.reject("upload_too_large")
			writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	log := s.opts.Logger.With().Str("filename", hdr.Filename).Str("content_type", hdr.Header.Get("Content-Type")).Logger()
	if !extract.IsPDF(hdr.Header.Get("Content-Type")) {
		s.metrics.reject("content_type")
		writeJSONError(w, http.StatusBadRequest, "Invalid file type. Please upload a PDF.")
		return
	}
	text, err := extract.Text(file, hdr.Size)
	if err != nil {
		log.Error().Err(err).Msg("extract text")
		writeJSONError(w, http.StatusInternalServerError, "Failed to parse file")
		return
	}
	log.Debug().Int("chars", len(text)).Msg("extracted text")
	writeJSON(w, http.StatusOK, types.ExtractResponse{ExtractedText: text})
}

// generateText godoc
// @Summary      Complete a prompt with the configured upstream model
// @Tags         collaborators
// @Accept       json
// @Produce      json
// @Param        request  body  types.GenerateRequest  true  "Prompt"
// @Success      200  {string}  string
// @Failure      400  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /generate-text [post]
func (s *server) generateText(w http.ResponseWriter, r *http.Request) {
	if s.opts.Generator == nil {
		writeJSONError(w, http.StatusServiceUnavailable, generate.ErrNotConfigured.Error())
		return
	}
	var req types.GenerateRequest
	if !decodeJSONBody(w, r, s.opts.MaxBodyBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	// Join the server base context with the request context so shutdown
	// cancels the upstream call too.
	ctx, cancel := joinContexts(s.opts.BaseContext, r.Context())
	defer cancel()
	text, err := s.opts.Generator.Complete(ctx, req.Prompt, req.MaxTokens)
	if err != nil {
		if errors.Is(err, generate.ErrNotConfigured) {
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.opts.Logger.Error().Err(err).Msg("generate text")
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, text)
}
