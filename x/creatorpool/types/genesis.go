package types

import (
	"cosmossdk.io/errors"
)

// GenesisState is the creatorpool genesis state
type GenesisState struct {
	Pools        []Pool         `json:"pools"`
	Users        []UserPosition `json:"users"`
	NextSequence uint64         `json:"next_sequence"`
}

// DefaultGenesis returns an empty genesis
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Pools:        []Pool{},
		Users:        []UserPosition{},
		NextSequence: 1,
	}
}

// Validate checks pools and users, and that positions add up to each pool's
// total stake and nonzero-holder count.
func (gs GenesisState) Validate() error {
	staked := make(map[string]uint64, len(gs.Pools))
	holders := make(map[string]uint32, len(gs.Pools))
	for i := range gs.Pools {
		p := gs.Pools[i]
		if _, ok := staked[p.PoolID]; ok {
			return errors.Wrapf(ErrInvalidGenesis, "duplicate pool %s", p.PoolID)
		}
		if err := p.Validate(); err != nil {
			return err
		}
		staked[p.PoolID] = 0
		holders[p.PoolID] = 0
	}

	seen := make(map[string]struct{}, len(gs.Users))
	for _, u := range gs.Users {
		total, ok := staked[u.PoolID]
		if !ok {
			return errors.Wrapf(ErrInvalidGenesis, "user %s references unknown pool %s", u.Owner, u.PoolID)
		}
		key := u.PoolID + "/" + u.Owner
		if _, dup := seen[key]; dup {
			return errors.Wrapf(ErrInvalidGenesis, "duplicate user %s", key)
		}
		seen[key] = struct{}{}
		if total+u.BalanceStaked < total {
			return errors.Wrapf(ErrInvalidGenesis, "pool %s stake overflows", u.PoolID)
		}
		staked[u.PoolID] = total + u.BalanceStaked
		if u.BalanceStaked > 0 {
			holders[u.PoolID]++
		}
	}

	for i := range gs.Pools {
		p := gs.Pools[i]
		if staked[p.PoolID] != p.TotalStaked {
			return errors.Wrapf(ErrInvalidGenesis, "pool %s total staked %d, users hold %d", p.PoolID, p.TotalStaked, staked[p.PoolID])
		}
		if holders[p.PoolID] != p.UserCount {
			return errors.Wrapf(ErrInvalidGenesis, "pool %s user count %d, %d users hold stake", p.PoolID, p.UserCount, holders[p.PoolID])
		}
	}
	if uint64(len(gs.Pools)) >= gs.NextSequence && len(gs.Pools) > 0 {
		return errors.Wrapf(ErrInvalidGenesis, "next sequence %d does not exceed %d pools", gs.NextSequence, len(gs.Pools))
	}
	return nil
}
