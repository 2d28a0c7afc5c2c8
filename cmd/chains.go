package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List the configured chains",
	RunE: func(_ *cobra.Command, _ []string) error {
		names := make([]string, 0, len(config.Chains))
		for name := range config.Chains {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			chain := config.Chains[name]
			fmt.Printf("%s: %s (%s)\n", name, chain.ChainID, chain.RPCAddr)
		}
		return nil
	},
}
