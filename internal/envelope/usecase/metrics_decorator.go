package usecase

import (
	"context"
	"time"

	"github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/metrics"
)

func operationStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// keyRingUseCaseWithMetrics decorates KeyRingUseCase with metrics instrumentation.
type keyRingUseCaseWithMetrics struct {
	next    KeyRingUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyRingUseCaseWithMetrics wraps a KeyRingUseCase with metrics recording.
func NewKeyRingUseCaseWithMetrics(useCase KeyRingUseCase, m metrics.BusinessMetrics) KeyRingUseCase {
	return &keyRingUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (k *keyRingUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := operationStatus(err)
	k.metrics.RecordOperation(ctx, metrics.DomainKeyRings, operation, status)
	k.metrics.RecordDuration(ctx, metrics.DomainKeyRings, operation, time.Since(start), status)
}

// Create records metrics for key ring creation and reports the new version.
func (k *keyRingUseCaseWithMetrics) Create(
	ctx context.Context,
	keyName, description string,
	ttl time.Duration,
) (*domain.KeyRing, error) {
	start := time.Now()
	ring, err := k.next.Create(ctx, keyName, description, ttl)
	k.record(ctx, "key_ring_create", start, err)

	if err == nil {
		k.metrics.RecordKeyRingVersion(ctx, ring.KeyName(), ring.CurrentVersion())
	}
	return ring, err
}

// Rotate records metrics for key ring rotation and reports the new version.
func (k *keyRingUseCaseWithMetrics) Rotate(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	start := time.Now()
	ring, err := k.next.Rotate(ctx, keyName)
	k.record(ctx, "key_ring_rotate", start, err)

	if err == nil {
		k.metrics.RecordKeyRingVersion(ctx, ring.KeyName(), ring.CurrentVersion())
	}
	return ring, err
}

// Retire records metrics for key ring retirement.
func (k *keyRingUseCaseWithMetrics) Retire(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	start := time.Now()
	ring, err := k.next.Retire(ctx, keyName)
	k.record(ctx, "key_ring_retire", start, err)
	return ring, err
}

// Get records metrics for key ring lookups.
func (k *keyRingUseCaseWithMetrics) Get(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	start := time.Now()
	ring, err := k.next.Get(ctx, keyName)
	k.record(ctx, "key_ring_get", start, err)
	return ring, err
}

// List records metrics for key ring listing.
func (k *keyRingUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error) {
	start := time.Now()
	rings, err := k.next.List(ctx, offset, limit)
	k.record(ctx, "key_ring_list", start, err)
	return rings, err
}

// LoadAll records metrics for the startup load and reports every loaded version.
func (k *keyRingUseCaseWithMetrics) LoadAll(ctx context.Context) ([]*domain.KeyRing, error) {
	start := time.Now()
	rings, err := k.next.LoadAll(ctx)
	k.record(ctx, "key_ring_load_all", start, err)

	for _, ring := range rings {
		k.metrics.RecordKeyRingVersion(ctx, ring.KeyName(), ring.CurrentVersion())
	}
	return rings, err
}

// envelopeUseCaseWithMetrics decorates EnvelopeUseCase with metrics instrumentation.
type envelopeUseCaseWithMetrics struct {
	next    EnvelopeUseCase
	metrics metrics.BusinessMetrics
}

// NewEnvelopeUseCaseWithMetrics wraps an EnvelopeUseCase with metrics recording.
func NewEnvelopeUseCaseWithMetrics(useCase EnvelopeUseCase, m metrics.BusinessMetrics) EnvelopeUseCase {
	return &envelopeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Encrypt records metrics for envelope encryption.
func (e *envelopeUseCaseWithMetrics) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	start := time.Now()
	envelope, err := e.next.Encrypt(ctx, keyName, plaintext)

	status := operationStatus(err)
	e.metrics.RecordOperation(ctx, metrics.DomainEnvelope, "envelope_encrypt", status)
	e.metrics.RecordDuration(ctx, metrics.DomainEnvelope, "envelope_encrypt", time.Since(start), status)

	return envelope, err
}

// Decrypt records metrics for envelope decryption.
func (e *envelopeUseCaseWithMetrics) Decrypt(
	ctx context.Context,
	envelope []byte,
) ([]byte, domain.EnvelopeHeader, error) {
	start := time.Now()
	plaintext, header, err := e.next.Decrypt(ctx, envelope)

	status := operationStatus(err)
	e.metrics.RecordOperation(ctx, metrics.DomainEnvelope, "envelope_decrypt", status)
	e.metrics.RecordDuration(ctx, metrics.DomainEnvelope, "envelope_decrypt", time.Since(start), status)

	return plaintext, header, err
}
