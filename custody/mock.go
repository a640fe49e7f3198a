package custody

import (
	"context"

	"github.com/bitfsorg/vesting-go/schedule"
)

// MockTransferService is a test double for schedule.TransferService.
// TransferFn must be set before Transfer is called.
type MockTransferService struct {
	TransferFn func(ctx context.Context, req schedule.TransferRequest) error
}

func (m *MockTransferService) Transfer(ctx context.Context, req schedule.TransferRequest) error {
	return m.TransferFn(ctx, req)
}

// MockAddressDeriver is a test double for schedule.AddressDeriver.
type MockAddressDeriver struct {
	DeriveFn func(owner schedule.Identity, tag string, namespace schedule.Identity) (schedule.Identity, byte, error)
}

func (m *MockAddressDeriver) Derive(owner schedule.Identity, tag string, namespace schedule.Identity) (schedule.Identity, byte, error) {
	return m.DeriveFn(owner, tag, namespace)
}
