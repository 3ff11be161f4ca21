// Package ledger owns per-account token balances. No other component
// mutates a balance; everything else goes through Credit or Transfer.
package ledger

import (
	"sync"

	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/storage"
)

const (
	// FixedRideCost is the flat fare split across a ride's passengers.
	FixedRideCost int64 = 10
	// TotalSupply caps lifetime token issuance.
	TotalSupply int64 = 1_000_000_000
)

// Service holds balances behind a single mutex so a transfer's debit and
// credit are one atomic step. Accounts are created lazily on first credit.
type Service struct {
	mu       sync.Mutex
	balances map[string]int64
	issued   int64
	store    storage.AccountStore // optional write-through, best-effort
}

func New(store storage.AccountStore) *Service {
	return &Service{balances: make(map[string]int64), store: store}
}

// Credit mints amount tokens into the account, subject to the supply cap.
func (s *Service) Credit(accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// compare against remaining headroom; summing issued+amount could
	// wrap around for huge amounts and slip past the cap
	if amount > TotalSupply-s.issued {
		return 0, models.ErrSupplyExhausted
	}
	s.balances[accountID] += amount
	s.issued += amount
	s.persist(accountID)
	return s.balances[accountID], nil
}

// GetBalance returns 0 for unknown accounts without creating them.
func (s *Service) GetBalance(accountID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[accountID]
}

// Transfer moves amount from payer to payee atomically.
func (s *Service) Transfer(payerID, payeeID string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	if payerID == payeeID {
		return models.ErrSelfTransfer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[payerID] < amount {
		return models.ErrInsufficientBalance
	}
	s.balances[payerID] -= amount
	s.balances[payeeID] += amount
	s.persist(payerID)
	s.persist(payeeID)
	return nil
}

// SettleRidePayment charges the payer their per-person share of the fixed
// ride cost and pays the driver. The caller must hold the ride's lock: the
// paid-set update on the ride and the balance transfer have to appear as
// one step to observers. Settlement is at most once per rider.
func (s *Service) SettleRidePayment(r *models.Ride, payerID string) (int64, error) {
	if r.DriverID == "" {
		return 0, models.ErrNoDriverAssigned
	}
	if !r.HasRider(payerID) {
		return 0, models.ErrNotARider
	}
	if r.HasPaid(payerID) {
		return 0, models.ErrAlreadySettled
	}
	share := PerPersonCost(len(r.Riders))
	if err := s.Transfer(payerID, r.DriverID, share); err != nil {
		return 0, err
	}
	r.Paid = append(r.Paid, payerID)
	return share, nil
}

// PerPersonCost splits the fixed ride cost across riders, rounding up.
func PerPersonCost(riders int) int64 {
	if riders < 1 {
		riders = 1
	}
	n := int64(riders)
	return (FixedRideCost + n - 1) / n
}

// persist mirrors a balance to the store. Callers hold s.mu.
func (s *Service) persist(accountID string) {
	if s.store == nil {
		return
	}
	_ = s.store.SaveAccount(&models.Account{OwnerID: accountID, Balance: s.balances[accountID]})
}
