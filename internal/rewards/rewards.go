// Package rewards derives driver loyalty status from ride history and
// credits earned reward tokens through the ledger.
package rewards

import (
	"sync"

	"github.com/example/ride-marketplace/internal/ledger"
	"github.com/example/ride-marketplace/internal/registry"
)

const (
	ridesPerReward  = 10
	tokensPerReward = 10
)

// TierPolicy maps a driver's assigned-ride count to a loyalty tier.
type TierPolicy func(assignedRides int) string

// DefaultTierPolicy: bronze until 10 rides, silver until 25, gold after.
func DefaultTierPolicy(assignedRides int) string {
	switch {
	case assignedRides >= 25:
		return "gold"
	case assignedRides >= 10:
		return "silver"
	default:
		return "bronze"
	}
}

// Report is the status returned to a driver checking their rewards.
type Report struct {
	DriverID       string `json:"driver_id"`
	AssignedRides  int    `json:"assigned_rides"`
	Tier           string `json:"tier"`
	RewardedTokens int64  `json:"rewarded_tokens"`
	RidesToNext    int    `json:"rides_to_next_reward"`
}

type Tracker struct {
	Registry *registry.Registry
	Ledger   *ledger.Service
	Policy   TierPolicy

	mu         sync.Mutex
	rewardedAt map[string]int // per-driver watermark of rides already paid out
}

func New(reg *registry.Registry, led *ledger.Service, policy TierPolicy) *Tracker {
	if policy == nil {
		policy = DefaultTierPolicy
	}
	return &Tracker{
		Registry:   reg,
		Ledger:     led,
		Policy:     policy,
		rewardedAt: make(map[string]int),
	}
}

// CheckDriverRewards counts rides where the driver is assigned, credits
// any newly earned reward batch, and reports the resulting tier. The
// watermark guarantees each batch of rides is rewarded once.
func (t *Tracker) CheckDriverRewards(driverID string) (Report, error) {
	assigned := 0
	for _, r := range t.Registry.ListRides() {
		if r.DriverID == driverID {
			assigned++
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	eligible := (assigned / ridesPerReward) * tokensPerReward
	rewarded := t.rewardedAt[driverID]
	pending := int64(eligible - rewarded)

	rep := Report{
		DriverID:      driverID,
		AssignedRides: assigned,
		Tier:          t.Policy(assigned),
		RidesToNext:   ridesPerReward - assigned%ridesPerReward,
	}
	if pending <= 0 {
		return rep, nil
	}
	if _, err := t.Ledger.Credit(driverID, pending); err != nil {
		return rep, err
	}
	t.rewardedAt[driverID] = eligible
	rep.RewardedTokens = pending
	return rep, nil
}
