package airline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/infrastructure/config"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
	"fareguard-service/pkg/utils"
)

// SouthwestCode is the IATA code of Southwest Airlines
const SouthwestCode = "WN"

// Automation failure reasons
var automationFailures = []string{
	"login failed",
	"flight not found in account",
	"price difference not eligible",
	"already credited",
	"modification window closed",
}

// NewSouthwestHandler wires the WN channels: programmatic first, then
// account automation.
func NewSouthwestHandler(cfg config.SouthwestConfig, validity time.Duration, chance Chance, metrics *metrics.Metrics, logger logger.Logger) *ChannelHandler {
	var programmatic Channel
	if cfg.APIBaseURL != "" {
		programmatic = NewHTTPProgrammaticChannel(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout, validity)
	} else {
		programmatic = NewSimulatedProgrammaticChannel(cfg.APISuccessRate, chance, validity)
	}

	return NewChannelHandler(SouthwestCode, []Channel{
		programmatic,
		NewAutomationChannel(cfg.AutomationSuccessRate, cfg.AutomationLatency, cfg.AutomationTimeout, chance, validity),
	}, metrics, logger)
}

// creditIssuer fills in the credit fields a channel did not return
type creditIssuer struct {
	validity time.Duration
	now      func() time.Time
}

func newCreditIssuer(validity time.Duration) creditIssuer {
	return creditIssuer{validity: validity, now: time.Now}
}

func (i creditIssuer) issue(input entity.SubmissionInput, amount float64, code string, expiresAt time.Time) *entity.Credit {
	if amount <= 0 {
		amount = input.Request.PriceDifference
	}
	if code == "" {
		code = utils.NewCreditCode(input.Flight.AirlineCode)
	}
	if expiresAt.IsZero() {
		expiresAt = i.now().UTC().Add(i.validity)
	}
	return &entity.Credit{
		Amount:    utils.RoundCents(amount),
		Code:      code,
		ExpiresAt: expiresAt,
	}
}

// SimulatedProgrammaticChannel stands in for the airline refund API
type SimulatedProgrammaticChannel struct {
	successRate float64
	chance      Chance
	issuer      creditIssuer
}

// NewSimulatedProgrammaticChannel creates a programmatic channel that succeeds with successRate
func NewSimulatedProgrammaticChannel(successRate float64, chance Chance, validity time.Duration) *SimulatedProgrammaticChannel {
	return &SimulatedProgrammaticChannel{successRate: successRate, chance: chance, issuer: newCreditIssuer(validity)}
}

func (c *SimulatedProgrammaticChannel) Name() string           { return "programmatic" }
func (c *SimulatedProgrammaticChannel) Timeout() time.Duration { return 0 }

// Submit succeeds when the drawn chance falls under the success rate
func (c *SimulatedProgrammaticChannel) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.chance() >= c.successRate {
		return nil, errors.New("programmatic refund request rejected")
	}
	return c.issuer.issue(input, 0, "", time.Time{}), nil
}

// HTTPProgrammaticChannel files refunds with the airline's ecredit API
type HTTPProgrammaticChannel struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	issuer  creditIssuer
}

// NewHTTPProgrammaticChannel creates a programmatic channel posting to baseURL
func NewHTTPProgrammaticChannel(baseURL, apiKey string, timeout, validity time.Duration) *HTTPProgrammaticChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProgrammaticChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{},
		issuer:  newCreditIssuer(validity),
	}
}

func (c *HTTPProgrammaticChannel) Name() string           { return "programmatic" }
func (c *HTTPProgrammaticChannel) Timeout() time.Duration { return c.timeout }

type ecreditAPIRequest struct {
	RequestID        string  `json:"requestId"`
	ConfirmationCode string  `json:"confirmationCode"`
	FlightNumber     string  `json:"flightNumber"`
	DepartureDate    string  `json:"departureDate"`
	FirstName        string  `json:"firstName,omitempty"`
	LastName         string  `json:"lastName,omitempty"`
	OriginalPrice    float64 `json:"originalPrice"`
	NewPrice         float64 `json:"newPrice"`
	PriceDifference  float64 `json:"priceDifference"`
}

type ecreditAPIResponse struct {
	Success     bool      `json:"success"`
	EcreditCode string    `json:"ecreditCode"`
	Amount      float64   `json:"amount"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Error       string    `json:"error"`
}

// Submit posts the refund request and maps the response to a credit
func (c *HTTPProgrammaticChannel) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	body := ecreditAPIRequest{
		RequestID:        input.Request.ID,
		ConfirmationCode: input.Flight.ConfirmationCode,
		FlightNumber:     input.Flight.FlightNumber,
		DepartureDate:    input.Flight.DepartureDate.Format(entity.DateLayout),
		OriginalPrice:    input.Request.OriginalPrice,
		NewPrice:         input.Request.NewPrice,
		PriceDifference:  input.Request.PriceDifference,
	}
	if input.Credential != nil {
		body.FirstName = input.Credential.FirstName
		body.LastName = input.Credential.LastName
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ecredit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ecredits", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ecreditAPIResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&response)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if response.Error != "" {
			return nil, fmt.Errorf("ecredit API returned status %d: %s", resp.StatusCode, response.Error)
		}
		return nil, fmt.Errorf("ecredit API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if !response.Success {
		if response.Error == "" {
			response.Error = "refund request rejected"
		}
		return nil, errors.New(response.Error)
	}

	return c.issuer.issue(input, response.Amount, response.EcreditCode, response.ExpiresAt), nil
}

// AutomationChannel simulates filing the refund through the user's airline account
type AutomationChannel struct {
	successRate float64
	latency     time.Duration
	timeout     time.Duration
	chance      Chance
	issuer      creditIssuer
}

// NewAutomationChannel creates the account automation channel
func NewAutomationChannel(successRate float64, latency, timeout time.Duration, chance Chance, validity time.Duration) *AutomationChannel {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AutomationChannel{
		successRate: successRate,
		latency:     latency,
		timeout:     timeout,
		chance:      chance,
		issuer:      newCreditIssuer(validity),
	}
}

func (c *AutomationChannel) Name() string           { return "automation" }
func (c *AutomationChannel) Timeout() time.Duration { return c.timeout }

// Submit signs in with the linked credential and requests the credit
func (c *AutomationChannel) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	if input.Credential == nil || input.Credential.Username == "" || input.Credential.Password == "" {
		return nil, entity.ErrMissingCredentials
	}

	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if c.chance() >= c.successRate {
		reason := automationFailures[int(c.chance()*float64(len(automationFailures)))%len(automationFailures)]
		return nil, errors.New(reason)
	}
	return c.issuer.issue(input, 0, "", time.Time{}), nil
}
