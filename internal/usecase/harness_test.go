package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/interface/repository/memory"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// fakeFares returns the configured price for a flight number; a missing
// entry means no source had a fare
type fakeFares struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  int
}

func (f *fakeFares) set(flightNumber string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[flightNumber] = price
}

func (f *fakeFares) Lookup(ctx context.Context, itinerary entity.Itinerary) (*entity.FareQuote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	price, ok := f.prices[itinerary.FlightNumber]
	if !ok {
		return nil, false
	}
	return &entity.FareQuote{Price: price, Source: "primary", ObservedAt: time.Now().UTC()}, true
}

type submitFunc func(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error)

type fakeSubmitter struct {
	mu     sync.Mutex
	submit submitFunc
	calls  int
	inputs []entity.SubmissionInput
}

func (s *fakeSubmitter) Register(handler AirlineHandler) {}

func (s *fakeSubmitter) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	s.mu.Lock()
	s.calls++
	s.inputs = append(s.inputs, input)
	fn := s.submit
	s.mu.Unlock()
	return fn(ctx, input)
}

func (s *fakeSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// issueCredit is a submitter that always succeeds through the automation channel
func issueCredit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	return &entity.Credit{
		Amount:    input.Request.PriceDifference,
		Code:      "WN-3F9A0C11D2",
		ExpiresAt: time.Now().UTC().Add(365 * 24 * time.Hour),
		Channel:   "automation",
	}, nil
}

type channelFailure struct {
	channel string
	reason  string
}

func (e *channelFailure) Error() string       { return e.reason }
func (e *channelFailure) ChannelName() string { return e.channel }

func failWith(channel, reason string) submitFunc {
	return func(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
		return nil, &channelFailure{channel: channel, reason: reason}
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.Event
}

func (p *recordingPublisher) Publish(event entity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []entity.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// heldLocker reports every key in held as taken
type heldLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (l *heldLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, true, nil
}

type harness struct {
	flights      *memory.FlightStore
	observations *memory.ObservationStore
	requests     *memory.EcreditStore
	users        *memory.UserStore
	airlines     *memory.AirlineStore
	fares        *fakeFares
	submitter    *fakeSubmitter
	events       *recordingPublisher
	locker       *heldLocker
	metrics      *metrics.Metrics
	ledger       *PriceLedger
	manager      *EcreditManager
	tracker      *FlightTracker
	checker      *PriceChecker
	reconciler   *Reconciler
}

type harnessOptions struct {
	submitOnDetect bool
	minDifference  float64
	staleAfter     time.Duration
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	h := &harness{
		flights:      memory.NewFlightStore(),
		observations: memory.NewObservationStore(),
		requests:     memory.NewEcreditStore(),
		users:        memory.NewUserStore(),
		airlines: memory.NewAirlineStore(
			&entity.Airline{ID: 1, Code: "WN", Name: "Southwest Airlines", Supported: true},
			&entity.Airline{ID: 2, Code: "AA", Name: "American Airlines", Supported: false},
		),
		fares:     &fakeFares{prices: map[string]float64{}},
		submitter: &fakeSubmitter{submit: issueCredit},
		events:    &recordingPublisher{},
		locker:    &heldLocker{held: map[string]bool{}},
		metrics:   metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
	h.users.PutUser(&entity.User{ID: "u1", Name: "Dana Reyes", Email: "dana@example.com"})
	h.users.LinkCredential(&entity.AirlineCredential{UserID: "u1", AirlineCode: "WN", Username: "dreyes", Password: "secret"})

	h.ledger = NewPriceLedger(h.observations, h.metrics, log)
	h.manager = NewEcreditManager(h.requests, h.flights, h.users, h.submitter, h.events, h.metrics, log)
	h.tracker = NewFlightTracker(h.flights, h.airlines, h.ledger, h.requests, h.metrics, log)
	h.checker = NewPriceChecker(h.flights, h.fares, h.ledger, NewDropDetector(opts.minDifference), h.manager, h.locker,
		PriceCheckerOptions{SubmitOnDetect: opts.submitOnDetect}, h.metrics, log)
	h.reconciler = NewReconciler(h.manager, h.locker, ReconcilerOptions{StaleAfter: opts.staleAfter}, h.metrics, log)
	return h
}

func (h *harness) track(t *testing.T, flightNumber string, originalPrice float64) *entity.Flight {
	t.Helper()
	flight, err := h.tracker.Track(context.Background(), TrackFlightInput{
		UserID:           "u1",
		AirlineCode:      "WN",
		FlightNumber:     flightNumber,
		Origin:           "DAL",
		Destination:      "HOU",
		DepartureDate:    time.Now().Add(30 * 24 * time.Hour),
		OriginalPrice:    originalPrice,
		ConfirmationCode: "ABC123",
	})
	require.NoError(t, err)
	return flight
}
