package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// maxExtractBodyBytes leaves room for a full-length text after JSON escaping
const maxExtractBodyBytes = 512 << 10

// ExtractionServiceInterface defines the extraction service contract
type ExtractionServiceInterface interface {
	Extract(ctx context.Context, email, text string) (*models.Extraction, error)
}

// ExtractionHandler serves the gated URL extractor
type ExtractionHandler struct {
	service ExtractionServiceInterface
	logger  *slog.Logger
}

// NewExtractionHandler creates a new ExtractionHandler
func NewExtractionHandler(service ExtractionServiceInterface, logger *slog.Logger) *ExtractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionHandler{service: service, logger: logger}
}

// ExtractRequest is the body of extract
type ExtractRequest struct {
	Text string `json:"text" validate:"required,max=100000"`
}

// ExtractResponse carries the capped URL list and the tier that capped it
type ExtractResponse struct {
	OK bool `json:"ok"`
	models.Extraction
}

// Extract handles POST /api/extract
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.IdentifyUser(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Sign in required")
		return
	}

	var req ExtractRequest
	if err := decodeJSONLimit(w, r, &req, maxExtractBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.service.Extract(r.Context(), email, req.Text)
	if err != nil {
		writeServiceError(w, h.logger, "extract", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ExtractResponse{OK: true, Extraction: *out})
}
