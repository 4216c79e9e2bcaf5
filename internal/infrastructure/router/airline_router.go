package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/usecase"
	"fareguard-service/pkg/logger"
)

// AirlineRouter routes submissions to the handler for the flight's airline
type AirlineRouter struct {
	mu       sync.RWMutex
	handlers map[string]usecase.AirlineHandler
	logger   logger.Logger
}

var _ usecase.AirlineSubmitter = (*AirlineRouter)(nil)

// NewAirlineRouter creates a new airline router
func NewAirlineRouter(logger logger.Logger) *AirlineRouter {
	return &AirlineRouter{
		handlers: make(map[string]usecase.AirlineHandler),
		logger:   logger,
	}
}

// Register registers a handler for its airline code
func (r *AirlineRouter) Register(handler usecase.AirlineHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToUpper(handler.Code())] = handler
	r.logger.Info("Registered airline handler", "airline", handler.Code())
}

// GetHandler returns the handler for an airline code, or nil
func (r *AirlineRouter) GetHandler(code string) usecase.AirlineHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[strings.ToUpper(strings.TrimSpace(code))]
}

// Submit dispatches to the handler registered for the flight's airline
func (r *AirlineRouter) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	if input.Flight == nil {
		return nil, fmt.Errorf("submission without flight: %w", entity.ErrNotFound)
	}
	handler := r.GetHandler(input.Flight.AirlineCode)
	if handler == nil {
		return nil, fmt.Errorf("airline %s: %w", input.Flight.AirlineCode, entity.ErrUnsupportedAirline)
	}
	return handler.Submit(ctx, input)
}
