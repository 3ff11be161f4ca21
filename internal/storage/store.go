package storage

import (
	"sync"

	"github.com/example/ride-marketplace/internal/models"
)

// RideStore defines persistence operations for rides.
type RideStore interface {
	SaveRide(r *models.Ride) error
	UpdateRide(r *models.Ride) error
}

// AccountStore defines persistence operations for account balances.
type AccountStore interface {
	SaveAccount(a *models.Account) error
}

// Store is the combined write-through target used by the core services.
type Store interface {
	RideStore
	AccountStore
}

type MemoryStore struct {
	mu       sync.RWMutex
	rides    map[string]*models.Ride
	accounts map[string]*models.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:    make(map[string]*models.Ride),
		accounts: make(map[string]*models.Account),
	}
}

func (m *MemoryStore) SaveRide(r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryStore) UpdateRide(r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryStore) SaveAccount(a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.OwnerID] = a
	return nil
}

func (m *MemoryStore) GetRide(id string) (*models.Ride, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	return r, ok
}

func (m *MemoryStore) GetAccount(id string) (*models.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	return a, ok
}
