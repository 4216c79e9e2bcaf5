// Package memory holds in-process implementations of the domain
// repositories. They back STORE_DRIVER=memory and the use case tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"

	"github.com/google/uuid"
)

// FlightStore implements repository.FlightRepository
type FlightStore struct {
	mu      sync.RWMutex
	flights map[string]*entity.Flight
	order   []string
}

// NewFlightStore creates an empty flight store
func NewFlightStore() *FlightStore {
	return &FlightStore{flights: make(map[string]*entity.Flight)}
}

var _ repository.FlightRepository = (*FlightStore)(nil)

func (s *FlightStore) Create(ctx context.Context, flight *entity.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flight.ID == "" {
		flight.ID = uuid.NewString()
	}
	cp := *flight
	s.flights[flight.ID] = &cp
	s.order = append(s.order, flight.ID)
	return nil
}

func (s *FlightStore) FindByID(ctx context.Context, id string) (*entity.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *FlightStore) ListActive(ctx context.Context) ([]*entity.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Flight
	for _, id := range s.order {
		if f := s.flights[id]; f.Active {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *FlightStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return entity.ErrNotFound
	}
	f.Active = false
	f.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *FlightStore) UpdateOriginalPrice(ctx context.Context, id string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return entity.ErrNotFound
	}
	f.OriginalPrice = price
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// ObservationStore implements repository.PriceObservationRepository
type ObservationStore struct {
	mu       sync.RWMutex
	byFlight map[string][]*entity.PriceObservation
}

// NewObservationStore creates an empty price history
func NewObservationStore() *ObservationStore {
	return &ObservationStore{byFlight: make(map[string][]*entity.PriceObservation)}
}

var _ repository.PriceObservationRepository = (*ObservationStore)(nil)

func (s *ObservationStore) Append(ctx context.Context, observation *entity.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if observation.ID == "" {
		observation.ID = uuid.NewString()
	}
	cp := *observation
	history := append(s.byFlight[observation.FlightID], &cp)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ObservedAt.Before(history[j].ObservedAt)
	})
	s.byFlight[observation.FlightID] = history
	return nil
}

func (s *ObservationStore) Latest(ctx context.Context, flightID string) (*entity.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.byFlight[flightID]
	if len(history) == 0 {
		return nil, nil
	}
	cp := *history[len(history)-1]
	return &cp, nil
}

func (s *ObservationStore) Lowest(ctx context.Context, flightID string) (*entity.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var lowest *entity.PriceObservation
	for _, o := range s.byFlight[flightID] {
		if lowest == nil || o.Price < lowest.Price {
			lowest = o
		}
	}
	if lowest == nil {
		return nil, nil
	}
	cp := *lowest
	return &cp, nil
}

func (s *ObservationStore) ListByFlight(ctx context.Context, flightID string) ([]*entity.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.byFlight[flightID]
	out := make([]*entity.PriceObservation, 0, len(history))
	for _, o := range history {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

// EcreditStore implements repository.EcreditRequestRepository. One mutex
// covers the open-request check and the insert.
type EcreditStore struct {
	mu       sync.Mutex
	requests map[string]*entity.EcreditRequest
	order    []string
	open     map[string]string // flightID -> requestID
}

// NewEcreditStore creates an empty ecredit request store
func NewEcreditStore() *EcreditStore {
	return &EcreditStore{
		requests: make(map[string]*entity.EcreditRequest),
		open:     make(map[string]string),
	}
}

var _ repository.EcreditRequestRepository = (*EcreditStore)(nil)

func (s *EcreditStore) CreateIfNoneOpen(ctx context.Context, request *entity.EcreditRequest) (*entity.EcreditRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.open[request.FlightID]; ok {
		cp := *s.requests[id]
		return &cp, false, nil
	}
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.OpenFlightID = request.FlightID
	cp := *request
	s.requests[request.ID] = &cp
	s.order = append(s.order, request.ID)
	s.open[request.FlightID] = request.ID
	out := cp
	return &out, true, nil
}

func (s *EcreditStore) FindByID(ctx context.Context, id string) (*entity.EcreditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *EcreditStore) FindOpenByFlight(ctx context.Context, flightID string) (*entity.EcreditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.open[flightID]
	if !ok {
		return nil, nil
	}
	cp := *s.requests[id]
	return &cp, nil
}

func (s *EcreditStore) Transition(ctx context.Context, id string, from []entity.EcreditStatus, update entity.EcreditUpdate) (*entity.EcreditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if !containsStatus(from, r.Status) {
		return nil, entity.ErrInvalidTransition
	}
	update.Apply(r)
	if update.Status.Resolved() {
		delete(s.open, r.FlightID)
	}
	cp := *r
	return &cp, nil
}

func (s *EcreditStore) ListByStatus(ctx context.Context, status entity.EcreditStatus, limit int) ([]*entity.EcreditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.EcreditRequest
	for _, id := range s.order {
		if r := s.requests[id]; r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *EcreditStore) ListStartedBefore(ctx context.Context, status entity.EcreditStatus, before time.Time) ([]*entity.EcreditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.EcreditRequest
	for _, id := range s.order {
		r := s.requests[id]
		if r.Status == status && r.StartedAt != nil && r.StartedAt.Before(before) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *EcreditStore) ListByFlight(ctx context.Context, flightID string) ([]*entity.EcreditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.EcreditRequest
	for i := len(s.order) - 1; i >= 0; i-- {
		if r := s.requests[s.order[i]]; r.FlightID == flightID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func containsStatus(statuses []entity.EcreditStatus, status entity.EcreditStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// NotificationStore implements repository.NotificationRepository
type NotificationStore struct {
	mu            sync.RWMutex
	notifications []*entity.Notification
}

// NewNotificationStore creates an empty notification store
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

var _ repository.NotificationRepository = (*NotificationStore)(nil)

func (s *NotificationStore) Save(ctx context.Context, notification *entity.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	cp := *notification
	s.notifications = append(s.notifications, &cp)
	return nil
}

// ListByUser returns newest first
func (s *NotificationStore) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		cp := *n
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return entity.ErrNotFound
}

// UserStore implements repository.UserRepository
type UserStore struct {
	mu          sync.RWMutex
	users       map[string]*entity.User
	credentials map[string]*entity.AirlineCredential
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{
		users:       make(map[string]*entity.User),
		credentials: make(map[string]*entity.AirlineCredential),
	}
}

var _ repository.UserRepository = (*UserStore)(nil)

// PutUser adds or replaces a user
func (s *UserStore) PutUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

// LinkCredential stores a linked airline account for the user
func (s *UserStore) LinkCredential(credential *entity.AirlineCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *credential
	s.credentials[credentialKey(credential.UserID, credential.AirlineCode)] = &cp
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) FindCredential(ctx context.Context, userID, airlineCode string) (*entity.AirlineCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[credentialKey(userID, airlineCode)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func credentialKey(userID, airlineCode string) string {
	return userID + ":" + strings.ToUpper(airlineCode)
}

// AirlineStore implements repository.AirlineRepository
type AirlineStore struct {
	mu       sync.RWMutex
	airlines map[string]*entity.Airline
}

// NewAirlineStore creates a store seeded with the given airlines
func NewAirlineStore(airlines ...*entity.Airline) *AirlineStore {
	s := &AirlineStore{airlines: make(map[string]*entity.Airline)}
	for _, a := range airlines {
		cp := *a
		s.airlines[strings.ToUpper(a.Code)] = &cp
	}
	return s
}

var _ repository.AirlineRepository = (*AirlineStore)(nil)

func (s *AirlineStore) GetByCode(ctx context.Context, code string) (*entity.Airline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.airlines[strings.ToUpper(code)]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *a
	return &cp, nil
}
