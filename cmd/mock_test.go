package cmd

import (
	"context"
)

// MockPollService is a mock implementation of the PollService interface.
type MockPollService struct {
	StartFunc func(ctx context.Context) error
}

func (m *MockPollService) Start(ctx context.Context) error {
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	<-ctx.Done()
	return nil
}
