package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cosmos/cosmos-sdk/types/query"
	"github.com/spf13/cobra"

	"github.com/cosmos/multitest/remote"
)

func init() {
	queryCmd.AddCommand(queryContractInfoCmd)
	queryCmd.AddCommand(queryContractStateCmd)
	queryCmd.AddCommand(queryRawStateCmd)
	queryCmd.AddCommand(queryCodeCmd)
	queryCmd.AddCommand(queryBalancesCmd)
}

// queryCmd groups the wasm state queries against a configured chain.
var queryCmd = &cobra.Command{
	Use:     "query",
	Aliases: []string{"q"},
	Short:   "Query wasm state on a configured chain",
}

func chainClient(name string) (*remote.Client, error) {
	cfg, err := config.Chain(name)
	if err != nil {
		return nil, err
	}
	return remote.NewClient(log, cfg)
}

var queryContractInfoCmd = &cobra.Command{
	Use:   "contract [chain] [address]",
	Short: "Fetch a contract's stored metadata",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := chainClient(args[0])
		if err != nil {
			return err
		}
		info, err := client.ContractInfo(args[1])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var queryContractStateCmd = &cobra.Command{
	Use:   "contract-state [chain] [address]",
	Short: "Dump a contract's raw state, following pagination",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Chain(args[0])
		if err != nil {
			return err
		}
		client, err := remote.NewClient(log, cfg)
		if err != nil {
			return err
		}
		page := &query.PageRequest{Limit: cfg.PageLimit}
		for {
			records, next, err := client.AllContractState(args[1], page)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Printf("%X: %s\n", r.Key, r.Value)
			}
			if next == nil || len(next.NextKey) == 0 {
				return nil
			}
			page = &query.PageRequest{Key: next.NextKey, Limit: cfg.PageLimit}
		}
	},
}

var queryRawStateCmd = &cobra.Command{
	Use:   "contract-raw [chain] [address] [key-hex]",
	Short: "Fetch one key of a contract's raw state",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := chainClient(args[0])
		if err != nil {
			return err
		}
		key, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("decode key: %w", err)
		}
		value, err := client.RawContractState(args[1], key)
		if err != nil {
			return err
		}
		if value == nil {
			return fmt.Errorf("key %X is not set", key)
		}
		fmt.Println(string(value))
		return nil
	},
}

var queryCodeCmd = &cobra.Command{
	Use:   "code [chain] [code-id]",
	Short: "Fetch a stored code's metadata and checksum",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := chainClient(args[0])
		if err != nil {
			return err
		}
		codeID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("parse code id: %w", err)
		}
		info, err := client.Code(codeID)
		if err != nil {
			return err
		}
		fmt.Printf("code %d stored by %s\nchecksum %X\n", info.CodeID, info.Creator, info.DataHash)
		return nil
	},
}

var queryBalancesCmd = &cobra.Command{
	Use:   "balances [chain] [address] [denom]",
	Short: "Fetch an address's balances, optionally for one denom",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := chainClient(args[0])
		if err != nil {
			return err
		}
		denom := ""
		if len(args) == 3 {
			denom = args[2]
		}
		balances, err := client.Balances(args[1], denom)
		if err != nil {
			return err
		}
		fmt.Println(balances.String())
		return nil
	},
}
