package main

import (
	"github.com/wormholelabs-xyz/swap-layer/cmd/swap-layer/cmd"
)

func main() {
	cmd.New().Execute()
}
