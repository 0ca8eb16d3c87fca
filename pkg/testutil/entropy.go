package testutil

import (
	"context"
	"fmt"
)

type MockEntropyProvider struct {
	RequestRandomnessFunc func(ctx context.Context, raffleID, nonce uint64) (string, error)
}

func (m *MockEntropyProvider) RequestRandomness(ctx context.Context, raffleID, nonce uint64) (string, error) {
	if m.RequestRandomnessFunc != nil {
		return m.RequestRandomnessFunc(ctx, raffleID, nonce)
	}

	return fmt.Sprintf("mock:%d:%d", raffleID, nonce), nil
}
