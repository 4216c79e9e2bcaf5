package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/logger"
)

// WhatsAppSender sends notifications through the WhatsApp gateway
type WhatsAppSender struct {
	logger      logger.Logger
	endpoint    string
	bearerToken string
	companyID   string
	agentID     string
	client      *http.Client
}

// DefaultWhatsAppSendPath is the gateway route used when none is configured
const DefaultWhatsAppSendPath = "/api/v1/messages/send"

// NewWhatsAppSender creates a new WhatsApp sender posting to baseURL+sendPath
func NewWhatsAppSender(baseURL, sendPath, bearerToken, companyID, agentID string, logger logger.Logger) *WhatsAppSender {
	if sendPath == "" {
		sendPath = DefaultWhatsAppSendPath
	}
	return &WhatsAppSender{
		logger:      logger,
		endpoint:    strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(sendPath, "/"),
		bearerToken: bearerToken,
		companyID:   companyID,
		agentID:     agentID,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type whatsAppMessage struct {
	CompanyID   string `json:"companyId"`
	AgentID     string `json:"agentId"`
	PhoneNumber string `json:"phoneNumber"`
	Message     struct {
		Text string `json:"text"`
	} `json:"message"`
	ScheduleAt string `json:"scheduleAt"`
	Type       string `json:"type"`
}

func (s *WhatsAppSender) Name() string {
	return "whatsapp"
}

// Send posts a text message and logs the gateway task ID
func (s *WhatsAppSender) Send(ctx context.Context, user *entity.User, notification *entity.Notification) error {
	if user == nil || user.Phone == "" {
		return ErrNoRecipient
	}

	msg := whatsAppMessage{
		CompanyID:   s.companyID,
		AgentID:     s.agentID,
		PhoneNumber: user.Phone,
		ScheduleAt:  time.Now().UTC().Format(time.RFC3339),
		Type:        "text",
	}
	msg.Message.Text = fmt.Sprintf("*%s*\n%s", notification.Title, notification.Message)

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("WhatsApp service returned status %d: %v", resp.StatusCode, errorBody)
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			TaskID string `json:"taskId"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Info("WhatsApp notification queued",
		"taskId", response.Data.TaskID,
		"notificationId", notification.ID,
		"userId", user.ID)
	return nil
}
