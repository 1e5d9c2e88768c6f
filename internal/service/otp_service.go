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
	ErrOTPExpired  = errors.New("verification code expired; request a new one")
	ErrOTPInvalid  = errors.New("invalid verification code")
	ErrOTPTooSoon  = errors.New("a code was sent recently; wait before requesting another")
)

const otpResendWindow = time.Minute

// OTPService drives phone verification through the SMS gateway. The
// gateway generates, delivers and checks the code; we keep the
// issue/consume trail and enforce expiry and resend throttling.
type OTPService struct {
	gatewayURL string
	expiry     time.Duration
	otpRepo    *repository.OTPRepository
	userRepo   *repository.UserRepository
	client     *http.Client
}

func NewOTPService(gatewayURL string, expiry time.Duration, otpRepo *repository.OTPRepository, userRepo *repository.UserRepository) *OTPService {
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &OTPService{
		gatewayURL: gatewayURL,
		expiry:     expiry,
		otpRepo:    otpRepo,
		userRepo:   userRepo,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type otpGatewayReq struct {
	Phone string `json:"phone"`
	Code  string `json:"code,omitempty"`
}

func (s *OTPService) post(ctx context.Context, path string, payload otpGatewayReq) error {
	if s.gatewayURL == "" {
		return ErrGatewayUnconfigured
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("otp gateway returned %d", resp.StatusCode)
	}
	return nil
}

// Send asks the gateway to deliver a code to the phone.
func (s *OTPService) Send(ctx context.Context, phoneNumber string) error {
	phoneNumber = phone.Normalize(phoneNumber)
	if !phone.IsE164(phoneNumber) {
		return ErrBadPhone
	}
	if active, err := s.otpRepo.LatestActive(phoneNumber); err != nil {
		return err
	} else if active != nil && time.Since(active.CreatedAt) < otpResendWindow {
		return ErrOTPTooSoon
	}
	if err := s.post(ctx, "/send", otpGatewayReq{Phone: phoneNumber}); err != nil {
		return err
	}
	return s.otpRepo.Create(&models.OTPCode{
		Phone:     phoneNumber,
		ExpiresAt: time.Now().Add(s.expiry),
	})
}

// Verify checks the code with the gateway and, on success, stamps the
// user's phone as verified.
func (s *OTPService) Verify(ctx context.Context, userID uint, phoneNumber, code string) error {
	phoneNumber = phone.Normalize(phoneNumber)
	active, err := s.otpRepo.LatestActive(phoneNumber)
	if err != nil {
		return err
	}
	if active == nil {
		return ErrOTPExpired
	}
	if err := s.post(ctx, "/verify", otpGatewayReq{Phone: phoneNumber, Code: code}); err != nil {
		if errors.Is(err, ErrGatewayUnconfigured) {
			return err
		}
		return ErrOTPInvalid
	}
	if err := s.otpRepo.MarkConsumed(active.ID); err != nil {
		return err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	now := time.Now()
	u.Phone = phoneNumber
	u.PhoneVerifiedAt = &now
	return s.userRepo.Update(u)
}
