package main

import (
	"os"

	"github.com/existflow/memberbooth/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
