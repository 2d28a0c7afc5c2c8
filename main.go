package main

import "github.com/cosmos/multitest/cmd"

func main() {
	cmd.Execute()
}
