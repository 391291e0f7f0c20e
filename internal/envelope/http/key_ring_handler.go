// Package http provides HTTP handlers for key ring management and envelope
// encryption.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/envelope/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
	"github.com/allisson/envelope/internal/httputil"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// KeyRingHandler handles HTTP requests for key ring management operations.
type KeyRingHandler struct {
	keyRingUseCase envelopeUseCase.KeyRingUseCase
	logger         *slog.Logger
}

// NewKeyRingHandler creates a new key ring handler with required dependencies.
func NewKeyRingHandler(keyRingUseCase envelopeUseCase.KeyRingUseCase, logger *slog.Logger) *KeyRingHandler {
	return &KeyRingHandler{
		keyRingUseCase: keyRingUseCase,
		logger:         logger,
	}
}

// CreateHandler creates a new key ring with version 1.
// POST /v1/key-rings
// Returns 201 Created with key ring metadata.
func (h *KeyRingHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateKeyRingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ring, err := h.keyRingUseCase.Create(
		c.Request.Context(),
		req.KeyName,
		req.Description,
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapKeyRingToResponse(ring))
}

// GetHandler returns a key ring with the metadata of all its versions.
// GET /v1/key-rings/:key_name
func (h *KeyRingHandler) GetHandler(c *gin.Context) {
	ring, err := h.keyRingUseCase.Get(c.Request.Context(), c.Param("key_name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapKeyRingToResponse(ring))
}

// ListHandler retrieves key rings with pagination support.
// GET /v1/key-rings?offset=0&limit=50
func (h *KeyRingHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	rings, err := h.keyRingUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapKeyRingsToListResponse(rings))
}

// RotateHandler adds a new current version to a key ring.
// POST /v1/key-rings/:key_name/rotate
func (h *KeyRingHandler) RotateHandler(c *gin.Context) {
	ring, err := h.keyRingUseCase.Rotate(c.Request.Context(), c.Param("key_name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("key ring rotated",
		slog.String("key_name", ring.KeyName()),
		slog.Int("version", int(ring.CurrentVersion())),
	)
	c.JSON(http.StatusOK, dto.MapKeyRingToResponse(ring))
}

// RetireHandler stops a key ring from encrypting. Existing envelopes still decrypt.
// POST /v1/key-rings/:key_name/retire
func (h *KeyRingHandler) RetireHandler(c *gin.Context) {
	ring, err := h.keyRingUseCase.Retire(c.Request.Context(), c.Param("key_name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("key ring retired", slog.String("key_name", ring.KeyName()))
	c.JSON(http.StatusOK, dto.MapKeyRingToResponse(ring))
}
