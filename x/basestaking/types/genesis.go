package types

import (
	"cosmossdk.io/errors"
)

// GenesisState is the basestaking genesis state
type GenesisState struct {
	Vaults []Vault `json:"vaults"`
}

// DefaultGenesis returns an empty genesis
func DefaultGenesis() *GenesisState {
	return &GenesisState{Vaults: []Vault{}}
}

// Validate checks every vault and rejects duplicate underlying denoms
func (gs GenesisState) Validate() error {
	seen := make(map[string]struct{}, len(gs.Vaults))
	for i := range gs.Vaults {
		v := gs.Vaults[i]
		if _, ok := seen[v.UnderlyingDenom]; ok {
			return errors.Wrapf(ErrInvalidGenesis, "duplicate vault %s", v.UnderlyingDenom)
		}
		seen[v.UnderlyingDenom] = struct{}{}
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
