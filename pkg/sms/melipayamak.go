package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/phone"

	"go.uber.org/zap"
)

// SMSService - sends verification codes
type SMSService interface {
	SendOTP(ctx context.Context, phone, code string, validMinutes int) error
}

// MeliPayamakService - MeliPayamak shared-line template sender
type MeliPayamakService struct {
	endpoint string
	bodyID   int
	client   *http.Client
}

// sharedSendRequest - body of POST /api/send/shared/{key}
type sharedSendRequest struct {
	BodyID int      `json:"bodyId"`
	To     string   `json:"to"`
	Args   []string `json:"args"`
}

type sharedSendResponse struct {
	RecID  int64  `json:"recId"`
	Status string `json:"status"`
}

// NewMeliPayamakService - baseURL is the shared endpoint without the key
func NewMeliPayamakService(baseURL, apiKey string, bodyID int, timeout time.Duration) *MeliPayamakService {
	return &MeliPayamakService{
		endpoint: strings.TrimRight(baseURL, "/") + "/" + apiKey,
		bodyID:   bodyID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendOTP - template args are the code and its validity in minutes
func (m *MeliPayamakService) SendOTP(ctx context.Context, to, code string, validMinutes int) error {
	payload, err := json.Marshal(sharedSendRequest{
		BodyID: m.bodyID,
		To:     to,
		Args:   []string{code, strconv.Itoa(validMinutes)},
	})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed sharedSendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// 2xx with an unexpected body still counts as sent
		logger.Warn("sms response parse failed", zap.Error(err))
		return nil
	}

	logger.Info("sms sent",
		zap.String("to", phone.Mask(to)),
		zap.Int64("rec_id", parsed.RecID),
		zap.String("status", parsed.Status),
	)
	return nil
}

// ConsoleSMSService - logs codes instead of sending them; used when no provider key is set outside production
type ConsoleSMSService struct{}

func (ConsoleSMSService) SendOTP(_ context.Context, to, code string, validMinutes int) error {
	logger.Warn("sms provider not configured, code logged instead",
		zap.String("to", phone.Mask(to)),
		zap.String("code", code),
		zap.Int("valid_minutes", validMinutes),
	)
	return nil
}
