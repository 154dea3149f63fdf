package sms

import (
	"context"
	"errors"
	"sync"
)

// MockSMSService - records calls for tests
type MockSMSService struct {
	mu            sync.Mutex
	SendOTPCalled int
	LastPhone     string
	LastCode      string
	LastMinutes   int
	ShouldFail    bool
}

func (m *MockSMSService) SendOTP(_ context.Context, to, code string, validMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SendOTPCalled++
	m.LastPhone = to
	m.LastCode = code
	m.LastMinutes = validMinutes

	if m.ShouldFail {
		return errors.New("mock SMS error")
	}
	return nil
}

// Calls returns how many times SendOTP ran
func (m *MockSMSService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SendOTPCalled
}
