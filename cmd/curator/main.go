package main

import (
	"os"

	"github.com/curatord/curator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
