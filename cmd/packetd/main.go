package main

import (
	"os"

	"github.com/danmuck/crosspacket/internal/cli"
)

func main() {
	if err := cli.NewServeRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
