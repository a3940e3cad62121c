package types

import (
	"fmt"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/pkg/fixedpoint"
)

// Module name and store key
const (
	ModuleName = "creatorpool"
	StoreKey   = ModuleName
)

const maxTimestamp int64 = 1<<63 - 1

// PoolIDPrefix prefixes the sequence number of every pool id
const PoolIDPrefix = "pool-"

// PoolID formats the id of the pool created at sequence seq
func PoolID(seq uint64) string {
	return fmt.Sprintf("%s%d", PoolIDPrefix, seq)
}

// Pool streams RewardDenom to holders of StakingDenom at RewardRate over a
// funding window. RewardRate and RewardPerTokenStored are scaled by
// fixedpoint.Precision.
type Pool struct {
	PoolID               string    `json:"pool_id"`
	Authority            string    `json:"authority"`
	StakingDenom         string    `json:"staking_denom"`
	RewardDenom          string    `json:"reward_denom"`
	RewardDuration       uint64    `json:"reward_duration"`
	RewardDurationEnd    int64     `json:"reward_duration_end"`
	LastUpdateTime       int64     `json:"last_update_time"`
	RewardRate           uint64    `json:"reward_rate"`
	RewardPerTokenStored math.Uint `json:"reward_per_token_stored"`
	TotalStaked          uint64    `json:"total_staked"`
	UserCount            uint32    `json:"user_count"`
	TotalFunded          uint64    `json:"total_funded"`
	TotalClaimed         uint64    `json:"total_claimed"`
	CreatedAt            int64     `json:"created_at"`
}

// NewPool returns a pool with an empty, already-elapsed reward window
func NewPool(poolID, authority, stakingDenom, rewardDenom string, rewardDuration uint64, now int64) *Pool {
	return &Pool{
		PoolID:               poolID,
		Authority:            authority,
		StakingDenom:         stakingDenom,
		RewardDenom:          rewardDenom,
		RewardDuration:       rewardDuration,
		RewardDurationEnd:    now,
		LastUpdateTime:       now,
		RewardPerTokenStored: fixedpoint.ZeroU128(),
		CreatedAt:            now,
	}
}

// LastTimeRewardApplicable returns min(now, RewardDurationEnd)
func (p *Pool) LastTimeRewardApplicable(now int64) int64 {
	if now < p.RewardDurationEnd {
		return now
	}
	return p.RewardDurationEnd
}

// RewardPerToken returns the accumulator advanced to now without mutating
// the pool. Elapsed time saturates at zero.
func (p *Pool) RewardPerToken(now int64) (math.Uint, error) {
	stored := fixedpoint.OrZero(p.RewardPerTokenStored)
	if p.TotalStaked == 0 {
		return stored, nil
	}
	applicable := p.LastTimeRewardApplicable(now)
	if applicable <= p.LastUpdateTime {
		return stored, nil
	}
	elapsed := uint64(applicable - p.LastUpdateTime)
	delta, err := fixedpoint.MulDivToU128(elapsed, p.RewardRate, p.TotalStaked)
	if err != nil {
		return math.Uint{}, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	next, err := fixedpoint.AddU128(stored, delta)
	if err != nil {
		return math.Uint{}, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	return next, nil
}

// Settle advances the accumulator to now and, when user is non-nil, folds
// the user's accrual since their last settlement into RewardPending.
func (p *Pool) Settle(user *UserPosition, now int64) error {
	rpt, err := p.RewardPerToken(now)
	if err != nil {
		return err
	}
	var pending uint64
	if user != nil {
		if pending, err = user.Earned(rpt); err != nil {
			return err
		}
	}

	p.RewardPerTokenStored = rpt
	p.LastUpdateTime = now
	if user != nil {
		user.RewardPending = pending
		user.RewardPerTokenComplete = rpt
	}
	return nil
}

// RewardRatePerSecond returns the unscaled emission rate for display
func (p *Pool) RewardRatePerSecond() float64 {
	return float64(p.RewardRate) / float64(fixedpoint.Precision)
}

// RemainingReward returns the reward not yet emitted in the current window
func (p *Pool) RemainingReward(now int64) (uint64, error) {
	if p.RewardDurationEnd <= now {
		return 0, nil
	}
	remaining, err := fixedpoint.MulDiv(p.RewardRate, uint64(p.RewardDurationEnd-now), fixedpoint.Precision)
	if err != nil {
		return 0, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	return remaining, nil
}

// ApplyFund restarts the reward window at now, emitting amount plus any
// unemitted remainder over RewardDuration. The pool must already be settled.
func (p *Pool) ApplyFund(amount uint64, now int64) error {
	if p.RewardDuration == 0 {
		return ErrInvalidDuration
	}
	remaining, err := p.RemainingReward(now)
	if err != nil {
		return err
	}
	total, err := fixedpoint.Add(amount, remaining)
	if err != nil {
		return errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	rate, err := fixedpoint.MulDiv(total, fixedpoint.Precision, p.RewardDuration)
	if err != nil {
		return errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	funded, err := fixedpoint.Add(p.TotalFunded, amount)
	if err != nil {
		return errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	if now < 0 || p.RewardDuration > uint64(maxTimestamp-now) {
		return errors.Wrapf(ErrArithmeticOverflow, "window end %d + %d", now, p.RewardDuration)
	}

	p.RewardRate = rate
	p.RewardDurationEnd = now + int64(p.RewardDuration)
	p.TotalFunded = funded
	return nil
}

// Validate checks the pool record
func (p *Pool) Validate() error {
	if p.PoolID == "" {
		return errors.Wrap(ErrInvalidGenesis, "empty pool id")
	}
	if p.RewardDuration == 0 {
		return errors.Wrapf(ErrInvalidDuration, "pool %s", p.PoolID)
	}
	if err := sdk.ValidateDenom(p.StakingDenom); err != nil {
		return errors.Wrapf(ErrInvalidDenom, "pool %s staking denom: %s", p.PoolID, err)
	}
	if err := sdk.ValidateDenom(p.RewardDenom); err != nil {
		return errors.Wrapf(ErrInvalidDenom, "pool %s reward denom: %s", p.PoolID, err)
	}
	return fixedpoint.CheckU128(fixedpoint.OrZero(p.RewardPerTokenStored))
}

// UserPosition is one owner's stake and settled accrual in a pool
type UserPosition struct {
	PoolID                 string    `json:"pool_id"`
	Owner                  string    `json:"owner"`
	BalanceStaked          uint64    `json:"balance_staked"`
	RewardPerTokenComplete math.Uint `json:"reward_per_token_complete"`
	RewardPending          uint64    `json:"reward_pending"`
	CreatedAt              int64     `json:"created_at"`
}

// NewUserPosition returns a zeroed position
func NewUserPosition(poolID, owner string, now int64) *UserPosition {
	return &UserPosition{
		PoolID:                 poolID,
		Owner:                  owner,
		RewardPerTokenComplete: fixedpoint.ZeroU128(),
		CreatedAt:              now,
	}
}

// Earned returns pending reward plus accrual up to accumulator value rpt:
// pending + balance*(rpt-complete)/Precision.
func (u *UserPosition) Earned(rpt math.Uint) (uint64, error) {
	delta, err := fixedpoint.SubU128(rpt, fixedpoint.OrZero(u.RewardPerTokenComplete))
	if err != nil {
		return 0, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	accrued, err := fixedpoint.MulDivU128(u.BalanceStaked, delta, fixedpoint.Precision)
	if err != nil {
		return 0, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	total, err := fixedpoint.Add(u.RewardPending, accrued)
	if err != nil {
		return 0, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	return total, nil
}
