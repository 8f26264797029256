package service

import (
	"context"
	"fmt"
	"sync"

	"wagerbank/events"
	"wagerbank/models"
	"wagerbank/schema"

	"github.com/stretchr/testify/mock"
)

// MockLedgerStore is a mock implementation of LedgerStore.
// Records are kept encoded so every transaction works on a fresh copy, like a real store.
type MockLedgerStore struct {
	mock.Mock

	mu      sync.Mutex
	records map[string][]byte
}

// NewMockLedgerStore creates an empty mock store
func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{records: make(map[string][]byte)}
}

// Seed stores a ledger for a community without recording a call
func (m *MockLedgerStore) Seed(communityID string, ledger *models.Ledger) {
	content, err := schema.Encode(ledger)
	if err != nil {
		panic(fmt.Sprintf("failed to encode seed ledger: %v", err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[communityID] = content
}

// Record returns the stored bytes for a community, nil if none were committed
func (m *MockLedgerStore) Record(communityID string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[communityID]
}

// Snapshot decodes the stored ledger for a community
func (m *MockLedgerStore) Snapshot(communityID string) *models.Ledger {
	ledger, _, err := schema.Decode(m.Record(communityID))
	if err != nil {
		panic(fmt.Sprintf("failed to decode stored ledger: %v", err))
	}
	ledger.CommunityID = communityID
	return ledger
}

func (m *MockLedgerStore) Transact(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error {
	args := m.Called(ctx, communityID)
	if err := args.Error(0); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ledger, _, err := schema.Decode(m.records[communityID])
	if err != nil {
		return err
	}
	ledger.CommunityID = communityID
	if err := fn(ledger); err != nil {
		return err
	}
	content, err := schema.Encode(ledger)
	if err != nil {
		return err
	}
	m.records[communityID] = content
	return nil
}

func (m *MockLedgerStore) View(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error {
	args := m.Called(ctx, communityID)
	if err := args.Error(0); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ledger, _, err := schema.Decode(m.records[communityID])
	if err != nil {
		return err
	}
	ledger.CommunityID = communityID
	return fn(ledger)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}
