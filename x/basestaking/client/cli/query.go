package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/creator-staking/x/basestaking/keeper"
	"github.com/openalpha/creator-staking/x/basestaking/types"
)

// GetQueryCmd returns the cli query commands for the basestaking module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the basestaking module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryVault(),
		CmdQueryEstimateStake(),
		CmdQueryEstimateUnstake(),
	)

	return cmd
}

func queryVault(cmd *cobra.Command, underlyingDenom string) (*types.Vault, error) {
	clientCtx, err := client.GetClientQueryContext(cmd)
	if err != nil {
		return nil, err
	}
	bz, _, err := clientCtx.QueryStore(keeper.VaultKey(underlyingDenom), types.StoreKey)
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, fmt.Errorf("vault not found: %s", underlyingDenom)
	}
	var vault types.Vault
	if err := json.Unmarshal(bz, &vault); err != nil {
		return nil, err
	}
	return &vault, nil
}

func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// CmdQueryVault returns the command to query a vault and its exchange rate
func CmdQueryVault() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault [underlying-denom]",
		Short: "Query vault totals and exchange rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, err := queryVault(cmd, args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"vault":         vault,
				"exchange_rate": vault.ExchangeRate().String(),
			})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryEstimateStake returns the command to preview a deposit
func CmdQueryEstimateStake() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate-stake [underlying-denom] [amount]",
		Short: "Preview shares minted for a deposit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseUint(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount: %v", err)
			}
			vault, err := queryVault(cmd, args[0])
			if err != nil {
				return err
			}
			shares, err := vault.CalculateSharesForDeposit(amount)
			if err != nil {
				return err
			}
			return printJSON(map[string]uint64{"amount": amount, "shares": shares})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryEstimateUnstake returns the command to preview a redemption
func CmdQueryEstimateUnstake() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate-unstake [underlying-denom] [shares]",
		Short: "Preview underlying returned for shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := parseUint(args[1])
			if err != nil {
				return fmt.Errorf("invalid shares: %v", err)
			}
			vault, err := queryVault(cmd, args[0])
			if err != nil {
				return err
			}
			value, err := vault.CalculateValueForShares(shares)
			if err != nil {
				return err
			}
			return printJSON(map[string]uint64{"shares": shares, "underlying": value})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// parseUint parses a base-10 uint64 argument
func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
