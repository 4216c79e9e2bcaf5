package fare

import (
	"context"
	"errors"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/infrastructure/config"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
)

// Client asks each source in rank order and returns the first valid price
type Client struct {
	sources []Source
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// NewClient creates a fare client over sources, highest rank first
func NewClient(sources []Source, metrics *metrics.Metrics, logger logger.Logger) *Client {
	return &Client{
		sources: sources,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// NewSourcesFromConfig builds the ranked sources. A source without a base
// URL or key is left out.
func NewSourcesFromConfig(cfg config.FareConfig) []Source {
	var sources []Source
	if cfg.PrimaryBaseURL != "" && cfg.PrimaryAPIKey != "" {
		sources = append(sources, NewPrimarySource(SourceOptions{
			BaseURL:       cfg.PrimaryBaseURL,
			APIKey:        cfg.PrimaryAPIKey,
			Timeout:       cfg.PrimaryTimeout,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
		}))
	}
	if cfg.SecondaryBaseURL != "" && cfg.SecondaryAPIKey != "" {
		sources = append(sources, NewSecondarySource(SourceOptions{
			BaseURL:       cfg.SecondaryBaseURL,
			APIKey:        cfg.SecondaryAPIKey,
			Timeout:       cfg.SecondaryTimeout,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
		}))
	}
	return sources
}

// Lookup returns the first positive price any source reports. Source
// failures are logged and never surface to the caller.
func (c *Client) Lookup(ctx context.Context, itinerary entity.Itinerary) (*entity.FareQuote, bool) {
	for _, source := range c.sources {
		price, err := source.Fetch(ctx, itinerary)
		if err == nil && price > 0 {
			c.metrics.FareLookups.WithLabelValues(source.Name(), "ok").Inc()
			return &entity.FareQuote{
				Price:      price,
				Source:     source.Name(),
				ObservedAt: c.now().UTC(),
			}, true
		}

		outcome := "error"
		if errors.Is(err, entity.ErrFareUnavailable) {
			outcome = "unavailable"
		}
		c.metrics.FareLookups.WithLabelValues(source.Name(), outcome).Inc()
		c.logger.Warn("Fare source failed",
			"source", source.Name(),
			"airline", itinerary.AirlineCode,
			"flightNumber", itinerary.FlightNumber,
			"error", err)

		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, false
}
