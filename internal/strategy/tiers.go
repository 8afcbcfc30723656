package strategy

import (
	"sort"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/calculator"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

const (
	DefaultTierCount      = 3
	DefaultLowestTierSize = 3
)

// TierAssignment ranks occupied non-IR, unlocked slots into ordered tiers.
// Tiers[0] is the strongest; the last tier holds the streaming candidates.
// Derived fresh each cycle, never persisted.
type TierAssignment struct {
	Tiers  [][]*model.PlayerSnapshot
	slotOf map[int]string
}

// AssignTiers orders players by rank (unknown ranks first, so they never land in
// the lowest tier), then by blended points value. The lowest tier takes the bottom
// lowestSize players; the rest are split evenly across tierCount-1 tiers.
func AssignTiers(r model.Roster, tierCount, lowestSize int) TierAssignment {
	if tierCount < 1 {
		tierCount = DefaultTierCount
	}
	if lowestSize < 1 {
		lowestSize = DefaultLowestTierSize
	}

	ta := TierAssignment{slotOf: make(map[int]string)}
	var pool []*model.PlayerSnapshot
	for _, s := range r.Slots {
		if s.Position == model.PosIR || s.Occupant == nil || s.Occupant.Locked {
			continue
		}
		pool = append(pool, s.Occupant)
		ta.slotOf[s.Occupant.ID] = s.ID
	}
	sort.SliceStable(pool, func(i, j int) bool { return rankedAbove(pool[i], pool[j]) })

	if lowestSize > len(pool) {
		lowestSize = len(pool)
	}
	upper := pool[:len(pool)-lowestSize]
	lowest := pool[len(pool)-lowestSize:]

	if upperTiers := tierCount - 1; upperTiers > 0 && len(upper) > 0 {
		size := (len(upper) + upperTiers - 1) / upperTiers
		for start := 0; start < len(upper); start += size {
			end := start + size
			if end > len(upper) {
				end = len(upper)
			}
			ta.Tiers = append(ta.Tiers, upper[start:end])
		}
	} else if len(upper) > 0 {
		lowest = pool
	}
	if len(lowest) > 0 {
		ta.Tiers = append(ta.Tiers, lowest)
	}
	return ta
}

// Lowest returns the bottom tier, or nil when the roster has no eligible players.
func (t TierAssignment) Lowest() []*model.PlayerSnapshot {
	if len(t.Tiers) == 0 {
		return nil
	}
	return t.Tiers[len(t.Tiers)-1]
}

// SlotOf returns the slot ID the player occupied when tiers were assigned.
func (t TierAssignment) SlotOf(playerID int) string {
	return t.slotOf[playerID]
}

func rankedAbove(a, b *model.PlayerSnapshot) bool {
	if a.HasRank() != b.HasRank() {
		return !a.HasRank()
	}
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	va, vb := calculator.PointsValue(a), calculator.PointsValue(b)
	if va != vb {
		return va > vb
	}
	return a.ID < b.ID
}
