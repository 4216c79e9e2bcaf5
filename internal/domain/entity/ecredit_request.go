package entity

import "time"

// EcreditStatus is the lifecycle state of an ecredit request
type EcreditStatus string

const (
	EcreditPending    EcreditStatus = "pending"
	EcreditInProgress EcreditStatus = "in_progress"
	EcreditCompleted  EcreditStatus = "completed"
	EcreditFailed     EcreditStatus = "failed"
)

var ecreditTransitions = map[EcreditStatus][]EcreditStatus{
	EcreditPending:    {EcreditInProgress, EcreditFailed},
	EcreditInProgress: {EcreditCompleted, EcreditFailed},
}

// Resolved reports whether the status is terminal
func (s EcreditStatus) Resolved() bool {
	return s == EcreditCompleted || s == EcreditFailed
}

// CanTransition reports whether from -> to is an edge of the state machine
func CanTransition(from, to EcreditStatus) bool {
	for _, next := range ecreditTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesOf returns every status that may move to the given status
func SourcesOf(to EcreditStatus) []EcreditStatus {
	var from []EcreditStatus
	for _, s := range []EcreditStatus{EcreditPending, EcreditInProgress} {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// EcreditRequest is a refund request raised for one detected price drop
type EcreditRequest struct {
	ID              string        `json:"id" bson:"_id,omitempty"`
	FlightID        string        `json:"flightId" bson:"flightId"`
	UserID          string        `json:"userId" bson:"userId"`
	OriginalPrice   float64       `json:"originalPrice" bson:"originalPrice"` // snapshot at creation
	NewPrice        float64       `json:"newPrice" bson:"newPrice"`
	PriceDifference float64       `json:"priceDifference" bson:"priceDifference"`
	Status          EcreditStatus `json:"status" bson:"status"`
	Attempts        int           `json:"attempts" bson:"attempts"`
	Channel         string        `json:"channel,omitempty" bson:"channel,omitempty"`
	Notes           string        `json:"notes,omitempty" bson:"notes,omitempty"`
	EcreditAmount   *float64      `json:"ecreditAmount,omitempty" bson:"ecreditAmount,omitempty"`
	EcreditCode     string        `json:"ecreditCode,omitempty" bson:"ecreditCode,omitempty"`
	ExpiresAt       *time.Time    `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	RequestedAt     time.Time     `json:"requestedAt" bson:"requestedAt"`
	StartedAt       *time.Time    `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`

	// OpenFlightID is set to FlightID while the request is unresolved and
	// backs the one-open-request-per-flight unique index.
	OpenFlightID string `json:"-" bson:"openFlightId,omitempty"`
}

// EcreditCandidate is a drop the detector wants turned into a request
type EcreditCandidate struct {
	FlightID        string
	UserID          string
	OriginalPrice   float64
	NewPrice        float64
	PriceDifference float64
}

// EcreditUpdate carries the fields written by a status transition
type EcreditUpdate struct {
	Status            EcreditStatus
	StartedAt         *time.Time
	CompletedAt       *time.Time
	EcreditAmount     *float64
	EcreditCode       string
	ExpiresAt         *time.Time
	Notes             string
	Channel           string
	IncrementAttempts bool
	UpdatedAt         time.Time
}

// Apply writes the update onto r the same way the stores do
func (u EcreditUpdate) Apply(r *EcreditRequest) {
	r.Status = u.Status
	r.UpdatedAt = u.UpdatedAt
	if u.StartedAt != nil {
		r.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		r.CompletedAt = u.CompletedAt
	}
	if u.EcreditAmount != nil {
		r.EcreditAmount = u.EcreditAmount
	}
	if u.EcreditCode != "" {
		r.EcreditCode = u.EcreditCode
	}
	if u.ExpiresAt != nil {
		r.ExpiresAt = u.ExpiresAt
	}
	if u.Notes != "" {
		r.Notes = u.Notes
	}
	if u.Channel != "" {
		r.Channel = u.Channel
	}
	if u.IncrementAttempts {
		r.Attempts++
	}
	if u.Status.Resolved() {
		r.OpenFlightID = ""
	}
}

// Credit is what a successful airline submission hands back
type Credit struct {
	Amount    float64
	Code      string
	ExpiresAt time.Time
	Channel   string
}

// SubmissionInput is everything an airline handler needs to file a request
type SubmissionInput struct {
	User       *User
	Flight     *Flight
	Request    *EcreditRequest
	Credential *AirlineCredential // nil when the user has no linked account
}
