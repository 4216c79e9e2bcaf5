package airline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/usecase"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
)

// ErrChannelSkipped is returned by a channel that cannot serve the input
// and wants the next channel tried
var ErrChannelSkipped = errors.New("channel skipped")

// Channel is one way of filing an ecredit request with an airline
type Channel interface {
	Name() string
	// Timeout bounds a single Submit call; zero means no own bound
	Timeout() time.Duration
	Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error)
}

// ChannelError is a submission failure attributed to a channel
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return e.Err.Error()
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ChannelName returns the channel that produced the failure
func (e *ChannelError) ChannelName() string {
	return e.Channel
}

// ChannelHandler tries its channels in order and stops at the first success
type ChannelHandler struct {
	code     string
	channels []Channel
	metrics  *metrics.Metrics
	logger   logger.Logger
}

var _ usecase.AirlineHandler = (*ChannelHandler)(nil)

// NewChannelHandler creates a handler for the airline code
func NewChannelHandler(code string, channels []Channel, metrics *metrics.Metrics, logger logger.Logger) *ChannelHandler {
	return &ChannelHandler{
		code:     strings.ToUpper(code),
		channels: channels,
		metrics:  metrics,
		logger:   logger.With("airline", strings.ToUpper(code)),
	}
}

// Code returns the airline code the handler serves
func (h *ChannelHandler) Code() string {
	return h.code
}

// Submit files the request through each channel until one issues a credit.
// Missing credentials end the submission at once. Otherwise the error of
// the last channel tried is returned.
func (h *ChannelHandler) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	if input.Flight == nil || input.Request == nil {
		return nil, errors.New("submission needs a flight and a request")
	}

	var lastErr error
	for _, channel := range h.channels {
		credit, err := h.try(ctx, channel, input)
		if errors.Is(err, ErrChannelSkipped) {
			h.record(channel, "skipped")
			continue
		}
		if err == nil {
			h.record(channel, "success")
			h.logger.Info("Ecredit issued",
				"requestId", input.Request.ID,
				"channel", channel.Name(),
				"code", credit.Code,
				"amount", credit.Amount)
			return credit, nil
		}

		h.record(channel, "failure")
		h.logger.Warn("Submission channel failed",
			"requestId", input.Request.ID,
			"channel", channel.Name(),
			"error", err)
		lastErr = &ChannelError{Channel: channel.Name(), Err: err}

		if errors.Is(err, entity.ErrMissingCredentials) || ctx.Err() != nil {
			return nil, lastErr
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no submission channel available for %s", h.code)
	}
	return nil, lastErr
}

func (h *ChannelHandler) try(ctx context.Context, channel Channel, input entity.SubmissionInput) (*entity.Credit, error) {
	callCtx := ctx
	if timeout := channel.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	credit, err := channel.Submit(callCtx, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out", channel.Name())
		}
		return nil, err
	}
	if credit == nil {
		return nil, fmt.Errorf("%s returned no credit", channel.Name())
	}
	credit.Channel = channel.Name()
	return credit, nil
}

func (h *ChannelHandler) record(channel Channel, outcome string) {
	if h.metrics == nil {
		return
	}
	h.metrics.SubmissionAttempts.WithLabelValues(h.code, channel.Name(), outcome).Inc()
}
