package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nice/internal/models"
	"nice/internal/repository"
	"nice/pkg/phone"
)

var (
	ErrNoEmergencyContacts = errors.New("no emergency contacts on profile")
	ErrGatewayUnconfigured = errors.New("sms gateway not configured")
)

// SOSService fans an emergency alert out to the user's emergency
// contacts through the SMS gateway.
type SOSService struct {
	gatewayURL string
	userRepo   *repository.UserRepository
	auditRepo  *repository.AuditLogRepository
	notifSvc   *NotificationService
	client     *http.Client
}

func NewSOSService(gatewayURL string, userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository, notifSvc *NotificationService) *SOSService {
	return &SOSService{
		gatewayURL: gatewayURL,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		notifSvc:   notifSvc,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type sosGatewayReq struct {
	Numbers      []string `json:"numbers"`
	Name         string   `json:"name"`
	SenderNumber string   `json:"senderNumber"`
	Location     string   `json:"location"`
}

// Trigger sends the alert. lat/lng may be zero when the sender has no
// fix; the gateway then receives an empty location string.
func (s *SOSService) Trigger(ctx context.Context, userID uint, lat, lng float64) (int, error) {
	if s.gatewayURL == "" {
		return 0, ErrGatewayUnconfigured
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	sender := phone.Normalize(u.Phone)
	if !phone.IsE164(sender) {
		return 0, ErrBadPhone
	}
	numbers := make([]string, 0, 2)
	for _, c := range []string{u.EmergencyContact1, u.EmergencyContact2} {
		c = phone.Normalize(c)
		if phone.IsE164(c) {
			numbers = append(numbers, c)
		}
	}
	if len(numbers) == 0 {
		return 0, ErrNoEmergencyContacts
	}
	var location string
	if lat != 0 || lng != 0 {
		location = fmt.Sprintf("https://maps.google.com/?q=%f,%f", lat, lng)
	}
	payload := sosGatewayReq{
		Numbers:      numbers,
		Name:         u.DisplayName(),
		SenderNumber: sender,
		Location:     location,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	if s.auditRepo != nil {
		uid := userID
		_ = s.auditRepo.Create(&models.AuditLog{
			UserID:   &uid,
			Action:   "sos_triggered",
			Resource: "sos",
			Metadata: fmt.Sprintf(`{"contacts":%d,"location":%q}`, len(numbers), location),
		})
	}
	if s.notifSvc != nil {
		_ = s.notifSvc.NotifySOSSent(userID, len(numbers))
	}
	return len(numbers), nil
}
