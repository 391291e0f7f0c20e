package http

import (
	"log/slog"
	"net/http"

	"github.com/awnumar/memguard"
	"github.com/gin-gonic/gin"

	"github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
	"github.com/allisson/envelope/internal/httputil"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// EnvelopeHandler handles HTTP requests for envelope encryption and decryption.
type EnvelopeHandler struct {
	envelopeUseCase envelopeUseCase.EnvelopeUseCase
	logger          *slog.Logger
}

// NewEnvelopeHandler creates a new envelope handler with required dependencies.
func NewEnvelopeHandler(envelopeUseCase envelopeUseCase.EnvelopeUseCase, logger *slog.Logger) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeUseCase: envelopeUseCase,
		logger:          logger,
	}
}

// EncryptHandler encrypts data under the current version of a key ring.
// POST /v1/envelope/:key_name/encrypt
// Returns 200 OK with the base64-encoded envelope.
func (h *EnvelopeHandler) EncryptHandler(c *gin.Context) {
	var req dto.EncryptRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := customValidation.DecodeBase64(req.Plaintext)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	defer memguard.WipeBytes(plaintext)

	envelope, err := h.envelopeUseCase.Encrypt(c.Request.Context(), c.Param("key_name"), plaintext)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	header, err := domain.ParseEnvelopeHeader(envelope)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.EncryptResponse{
		Ciphertext: envelope,
		KeyName:    header.KeyName(),
		Version:    header.Version(),
	})
}

// DecryptHandler opens an envelope with the key version named in its header.
// POST /v1/envelope/decrypt
// Returns 200 OK with the base64-encoded plaintext. SECURITY: Plaintext is zeroed after response.
func (h *EnvelopeHandler) DecryptHandler(c *gin.Context) {
	var req dto.DecryptRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	envelope, err := customValidation.DecodeBase64(req.Ciphertext)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	plaintext, header, err := h.envelopeUseCase.Decrypt(c.Request.Context(), envelope)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer memguard.WipeBytes(plaintext)

	c.JSON(http.StatusOK, dto.MapDecryptResponse(plaintext, header))
}
