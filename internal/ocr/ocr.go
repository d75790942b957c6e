package ocr

import (
	"context"
	"errors"
	"strings"

	"skillgap-backend/internal/shared/telemetry"
)

// ErrUnavailable is returned when no OCR engine is configured.
var ErrUnavailable = errors.New("image text extraction is not configured")

// ErrNoText is returned when an engine finds no readable text.
var ErrNoText = errors.New("no readable text detected in image")

// Engine extracts plain text from an image.
type Engine interface {
	Name() string
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Chain tries engines in order, one attempt each, and returns the first
// non-empty result. No retries within an engine.
type Chain struct {
	engines []Engine
}

// NewChain builds a Chain from the given engines. Nil engines are skipped.
func NewChain(engines ...Engine) *Chain {
	c := &Chain{}
	for _, e := range engines {
		if e != nil {
			c.engines = append(c.engines, e)
		}
	}
	return c
}

// Name identifies the chain in logs.
func (c *Chain) Name() string { return "chain" }

// ExtractText runs each engine once until one succeeds.
func (c *Chain) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(c.engines) == 0 {
		return "", ErrUnavailable
	}

	var lastErr error
	for _, e := range c.engines {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := e.ExtractText(ctx, image)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err == nil {
			err = ErrNoText
		}
		telemetry.Warn("ocr.engine.failed", map[string]any{
			"engine": e.Name(),
			"err":    err.Error(),
		})
		lastErr = err
	}
	return "", lastErr
}

var _ Engine = (*Chain)(nil)
