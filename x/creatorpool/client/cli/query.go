package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/creator-staking/x/creatorpool/keeper"
	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

// GetQueryCmd returns the cli query commands for the creatorpool module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the creatorpool module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryUser(),
	)

	return cmd
}

func queryRecord(cmd *cobra.Command, key []byte, out interface{}) error {
	clientCtx, err := client.GetClientQueryContext(cmd)
	if err != nil {
		return err
	}
	bz, _, err := clientCtx.QueryStore(key, types.StoreKey)
	if err != nil {
		return err
	}
	if len(bz) == 0 {
		return fmt.Errorf("not found")
	}
	return json.Unmarshal(bz, out)
}

// CmdQueryPool returns the command to query a pool
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [pool-id]",
		Short: "Query pool state and emission schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pool types.Pool
			if err := queryRecord(cmd, keeper.PoolKey(args[0]), &pool); err != nil {
				return fmt.Errorf("pool %s: %w", args[0], err)
			}

			output, _ := json.MarshalIndent(pool, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryUser returns the command to query a position. Pending reward is
// as of the last settlement.
func CmdQueryUser() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user [pool-id] [owner]",
		Short: "Query a staking position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var user types.UserPosition
			if err := queryRecord(cmd, keeper.UserKey(args[0], args[1]), &user); err != nil {
				return fmt.Errorf("user %s in %s: %w", args[1], args[0], err)
			}

			output, _ := json.MarshalIndent(user, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
