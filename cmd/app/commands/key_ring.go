package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
)

// listPageSize is the page size used when list-key-rings walks the table.
const listPageSize = 100

// RunCreateKeyRing creates the ring of keyName with a freshly generated
// version 1. A zero ttl selects KEY_DEFAULT_TTL.
//
// Requirements: Database must be migrated.
func RunCreateKeyRing(
	ctx context.Context,
	keyRingUseCase envelopeUseCase.KeyRingUseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyName, description string,
	ttl time.Duration,
) error {
	if ttl < 0 {
		return fmt.Errorf("ttl must not be negative, got: %s", ttl)
	}

	logger.Info("creating key ring", slog.String("key_name", keyName))

	ring, err := keyRingUseCase.Create(ctx, keyName, description, ttl)
	if err != nil {
		return fmt.Errorf("failed to create key ring: %w", err)
	}

	logger.Info("key ring created",
		slog.String("key_name", ring.KeyName()),
		slog.Int("version", int(ring.CurrentVersion())),
	)

	_, _ = fmt.Fprintln(writer, "Key ring created successfully!")
	outputKeyRingText(writer, ring)
	return nil
}

// RunRotateKeyRing adds a new current version to the ring of keyName. The
// previous version keeps decrypting existing envelopes.
func RunRotateKeyRing(
	ctx context.Context,
	keyRingUseCase envelopeUseCase.KeyRingUseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyName string,
) error {
	logger.Info("rotating key ring", slog.String("key_name", keyName))

	ring, err := keyRingUseCase.Rotate(ctx, keyName)
	if err != nil {
		return fmt.Errorf("failed to rotate key ring: %w", err)
	}

	logger.Info("key ring rotated",
		slog.String("key_name", ring.KeyName()),
		slog.Int("version", int(ring.CurrentVersion())),
	)

	_, _ = fmt.Fprintln(writer, "Key ring rotated successfully!")
	outputKeyRingText(writer, ring)
	return nil
}

// RunRetireKeyRing stops the ring of keyName from encrypting.
func RunRetireKeyRing(
	ctx context.Context,
	keyRingUseCase envelopeUseCase.KeyRingUseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyName string,
) error {
	logger.Info("retiring key ring", slog.String("key_name", keyName))

	ring, err := keyRingUseCase.Retire(ctx, keyName)
	if err != nil {
		return fmt.Errorf("failed to retire key ring: %w", err)
	}

	logger.Info("key ring retired", slog.String("key_name", ring.KeyName()))

	_, _ = fmt.Fprintln(writer, "Key ring retired successfully!")
	outputKeyRingText(writer, ring)
	return nil
}

// RunListKeyRings prints every key ring ordered by key name in text or json format.
func RunListKeyRings(
	ctx context.Context,
	keyRingUseCase envelopeUseCase.KeyRingUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	var rings []*domain.KeyRing
	for offset := 0; ; offset += listPageSize {
		page, err := keyRingUseCase.List(ctx, offset, listPageSize)
		if err != nil {
			return fmt.Errorf("failed to list key rings: %w", err)
		}
		rings = append(rings, page...)
		if len(page) < listPageSize {
			break
		}
	}

	logger.Info("key rings listed", slog.Int("count", len(rings)))

	if format == "json" {
		return writeJSON(writer, dto.MapKeyRingsToListResponse(rings))
	}

	if len(rings) == 0 {
		_, _ = fmt.Fprintln(writer, "No key rings found.")
		return nil
	}
	for i, ring := range rings {
		if i > 0 {
			_, _ = fmt.Fprintln(writer)
		}
		outputKeyRingText(writer, ring)
	}
	return nil
}

// outputKeyRingText outputs a ring in human-readable text format. Secrets are never printed.
func outputKeyRingText(writer io.Writer, ring *domain.KeyRing) {
	_, _ = fmt.Fprintf(writer, "Key Name: %s\n", ring.KeyName())
	_, _ = fmt.Fprintf(writer, "Status: %s\n", ring.Status())
	_, _ = fmt.Fprintf(writer, "Current Version: %d\n", ring.CurrentVersion())
	if ring.Description() != "" {
		_, _ = fmt.Fprintf(writer, "Description: %s\n", ring.Description())
	}
	_, _ = fmt.Fprintf(writer, "TTL: %s\n", ring.TTL())

	versions := make([]string, 0, ring.VersionCount())
	for _, key := range ring.Versions() {
		versions = append(versions, fmt.Sprintf("%d (%s)", key.Version(), key.Status()))
	}
	_, _ = fmt.Fprintf(writer, "Versions: %s\n", strings.Join(versions, ", "))
}
