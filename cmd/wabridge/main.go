package main

import (
	"os"

	"github.com/almalabs/wabridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
