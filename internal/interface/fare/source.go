package fare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/utils"

	"golang.org/x/time/rate"
)

// Source is one ranked provider of current fares
type Source interface {
	Name() string
	Fetch(ctx context.Context, itinerary entity.Itinerary) (float64, error)
}

// SourceOptions configures an HTTP fare source
type SourceOptions struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type httpSource struct {
	name    string
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
}

func newHTTPSource(name string, opts SourceOptions) httpSource {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return httpSource{
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		timeout: opts.Timeout,
		client:  &http.Client{},
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (s httpSource) Name() string {
	return s.name
}

// get throttles, sends the request and decodes a 2xx JSON body into out.
// The limiter wait and the request share one timeout.
func (s httpSource) get(ctx context.Context, endpoint string, header http.Header, out interface{}) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entity.ErrFareUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", s.name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PrimarySource queries a single-flight fare endpoint
type PrimarySource struct {
	httpSource
}

// NewPrimarySource creates the primary fare source
func NewPrimarySource(opts SourceOptions) *PrimarySource {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &PrimarySource{httpSource: newHTTPSource("primary", opts)}
}

// Fetch returns the current price of the itinerary
func (s *PrimarySource) Fetch(ctx context.Context, itinerary entity.Itinerary) (float64, error) {
	query := url.Values{}
	query.Set("airline", itinerary.AirlineCode)
	query.Set("flightNumber", itinerary.FlightNumber)
	query.Set("origin", itinerary.Origin)
	query.Set("destination", itinerary.Destination)
	query.Set("date", itinerary.Date.Format(entity.DateLayout))

	header := http.Header{}
	header.Set("X-API-Key", s.apiKey)

	var response struct {
		Price    *float64 `json:"price"`
		Currency string   `json:"currency"`
	}
	if err := s.get(ctx, s.baseURL+"/v1/fares?"+query.Encode(), header, &response); err != nil {
		return 0, err
	}

	if response.Price == nil || *response.Price <= 0 {
		return 0, fmt.Errorf("primary: invalid price in response: %w", entity.ErrFareUnavailable)
	}
	return *response.Price, nil
}

// SecondarySource searches a route and picks the tracked flight from the results
type SecondarySource struct {
	httpSource
}

// NewSecondarySource creates the secondary fare source
func NewSecondarySource(opts SourceOptions) *SecondarySource {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &SecondarySource{httpSource: newHTTPSource("secondary", opts)}
}

// Fetch returns the price of the matching flight in the route search
func (s *SecondarySource) Fetch(ctx context.Context, itinerary entity.Itinerary) (float64, error) {
	query := url.Values{}
	query.Set("origin", itinerary.Origin)
	query.Set("destination", itinerary.Destination)
	query.Set("date", itinerary.Date.Format(entity.DateLayout))
	query.Set("api_key", s.apiKey)

	var response struct {
		Flights []struct {
			Airline      string  `json:"airline"`
			FlightNumber string  `json:"flightNumber"`
			Price        float64 `json:"price"`
		} `json:"flights"`
	}
	if err := s.get(ctx, s.baseURL+"/v2/search?"+query.Encode(), nil, &response); err != nil {
		return 0, err
	}

	for _, f := range response.Flights {
		if !utils.SameFlight(itinerary.AirlineCode, itinerary.FlightNumber, f.Airline, f.FlightNumber) {
			continue
		}
		if f.Price <= 0 {
			return 0, fmt.Errorf("secondary: invalid price for %s%s: %w", f.Airline, f.FlightNumber, entity.ErrFareUnavailable)
		}
		return f.Price, nil
	}
	return 0, errors.New("secondary: flight not in search results")
}
