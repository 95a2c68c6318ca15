package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/ingest"
	"github.com/optiflow-ai/optiflow-engine/pkg/services"
)

// UploadRequest carries raw file text plus the filename and declared size.
type UploadRequest struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

// UploadResponse describes the parsed dataset.
type UploadResponse struct {
	SourceName  string   `json:"source_name"`
	Headers     []string `json:"headers"`
	PreviewRows int      `json:"preview_rows"`
}

// UploadHandler parses uploaded tabular data and records it in the
// session conversation. Parse failures come back as user-facing messages,
// never as unhandled errors.
type UploadHandler struct {
	ingestor *ingest.Ingestor
	session  *services.Session
	logger   *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(ingestor *ingest.Ingestor, session *services.Session, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{ingestor: ingestor, session: session, logger: logger}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", h.Upload)
}

// Upload handles POST /api/upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Filename == "" {
		h.writeError(w, http.StatusBadRequest, "missing_filename", "Filename is required")
		return
	}
	if req.Size == 0 {
		req.Size = int64(len(req.Content))
	}

	dataset, err := h.ingestor.Parse(req.Content, ingest.FileMeta{
		Name:        req.Filename,
		Size:        req.Size,
		ContentType: req.ContentType,
	})
	if err != nil {
		var pe *ingest.ParseError
		if errors.As(err, &pe) {
			h.writeError(w, http.StatusBadRequest, string(pe.Code), pe.Message)
			return
		}
		h.logger.Error("unexpected parse failure", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to parse file")
		return
	}

	h.session.Engine.RecordUpload(dataset)

	data := UploadResponse{
		SourceName:  dataset.SourceName,
		Headers:     dataset.Headers,
		PreviewRows: dataset.RowCount(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *UploadHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
