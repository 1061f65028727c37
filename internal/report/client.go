package report

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Client guards a Generator so that only one report is produced at a time and
// callers always receive displayable text.
type Client struct {
	gen         Generator
	logger      *zap.Logger
	temperature float64
	inFlight    atomic.Bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for generation failures.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// NewClient wraps gen.
func NewClient(gen Generator, opts ...ClientOption) *Client {
	c := &Client{gen: gen, logger: zap.NewNop(), temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("report")
	return c
}

// Busy reports whether a generation is in progress.
func (c *Client) Busy() bool { return c.inFlight.Load() }

// Generate asks for a report on snapshot. A second call while one is running
// returns ErrBusy. Generation failures and empty answers yield Fallback with a
// nil error.
func (c *Client) Generate(ctx context.Context, prompt string, snapshot Snapshot) (string, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.inFlight.Store(false)

	start := time.Now()
	text, err := c.gen.Generate(ctx, Request{
		Prompt:            prompt,
		SystemInstruction: SystemInstruction(snapshot),
		Temperature:       c.temperature,
		Snapshot:          snapshot,
	})
	if err != nil {
		c.logger.Error("report generation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Fallback, nil
	}
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("report generation returned no text", zap.Duration("elapsed", time.Since(start)))
		return Fallback, nil
	}
	c.logger.Debug("report generated", zap.Int("chars", len(text)), zap.Duration("elapsed", time.Since(start)))
	return text, nil
}
