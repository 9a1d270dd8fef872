package main

import (
	"os"

	"github.com/i474232898/landsat-dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
